package services

import (
	"testing"

	"dapurmamma_app_echo/internal/models"
)

func TestMapNotificationStatus(t *testing.T) {
	tests := []struct {
		name              string
		transactionStatus string
		fraudStatus       string
		expected          models.OrderStatus
	}{
		{"capture accepted", "capture", "accept", models.OrderStatusProcessing},
		{"capture challenged", "capture", "challenge", models.OrderStatusPending},
		{"capture unknown fraud outcome", "capture", "review", models.OrderStatusPending},
		{"capture missing fraud status", "capture", "", models.OrderStatusPending},
		{"settlement", "settlement", "accept", models.OrderStatusProcessing},
		{"settlement without fraud status", "settlement", "", models.OrderStatusProcessing},
		{"cancel", "cancel", "", models.OrderStatusCancelled},
		{"deny", "deny", "accept", models.OrderStatusCancelled},
		{"expire", "expire", "", models.OrderStatusCancelled},
		{"pending", "pending", "", models.OrderStatusPending},
		{"unknown status degrades to pending", "refund_requested", "", models.OrderStatusPending},
		{"empty status degrades to pending", "", "", models.OrderStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapNotificationStatus(tt.transactionStatus, tt.fraudStatus)
			if result != tt.expected {
				t.Errorf("MapNotificationStatus(%q, %q) = %q; want %q",
					tt.transactionStatus, tt.fraudStatus, result, tt.expected)
			}
		})
	}
}

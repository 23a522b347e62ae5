package services

import (
	"testing"

	"dapurmamma_app_echo/internal/models"
)

func TestIsDuplicateNotification(t *testing.T) {
	notif := &models.PaymentNotification{
		TransactionID:     "tx-123",
		TransactionStatus: "settlement",
	}

	tests := []struct {
		name     string
		details  models.PaymentDetails
		expected bool
	}{
		{
			name:     "nothing applied yet",
			details:  models.PaymentDetails{},
			expected: false,
		},
		{
			name:     "same transaction and status",
			details:  models.PaymentDetails{TransactionID: "tx-123", RawStatus: "settlement"},
			expected: true,
		},
		{
			name:     "same transaction, new status",
			details:  models.PaymentDetails{TransactionID: "tx-123", RawStatus: "pending"},
			expected: false,
		},
		{
			name:     "different transaction, same status",
			details:  models.PaymentDetails{TransactionID: "tx-456", RawStatus: "settlement"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateNotification(tt.details, notif); got != tt.expected {
				t.Errorf("IsDuplicateNotification(%+v) = %v; want %v", tt.details, got, tt.expected)
			}
		})
	}
}

func TestTransitionAllowed(t *testing.T) {
	tests := []struct {
		name     string
		current  models.OrderStatus
		next     models.OrderStatus
		expected bool
	}{
		{"pending stays pending", models.OrderStatusPending, models.OrderStatusPending, true},
		{"pending to processing", models.OrderStatusPending, models.OrderStatusProcessing, true},
		{"pending to cancelled", models.OrderStatusPending, models.OrderStatusCancelled, true},
		{"processing cannot fall back to pending", models.OrderStatusProcessing, models.OrderStatusPending, false},
		{"processing to cancelled", models.OrderStatusProcessing, models.OrderStatusCancelled, true},
		{"processing stays processing", models.OrderStatusProcessing, models.OrderStatusProcessing, true},
		{"cancelled cannot reopen as pending", models.OrderStatusCancelled, models.OrderStatusPending, false},
		{"late settlement after expiry", models.OrderStatusCancelled, models.OrderStatusProcessing, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransitionAllowed(tt.current, tt.next); got != tt.expected {
				t.Errorf("TransitionAllowed(%s, %s) = %v; want %v", tt.current, tt.next, got, tt.expected)
			}
		})
	}
}

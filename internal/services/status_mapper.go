package services

import (
	"log"

	"dapurmamma_app_echo/internal/models"
)

// MapNotificationStatus translates a Midtrans (transaction_status,
// fraud_status) pair into an order status. The function is total: Midtrans
// adds status strings over time, and anything unrecognized degrades to
// pending so an unpaid order is never marked processing by accident.
func MapNotificationStatus(transactionStatus, fraudStatus string) models.OrderStatus {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "accept":
			return models.OrderStatusProcessing
		case "challenge":
			return models.OrderStatusPending
		default:
			log.Printf("Unrecognized fraud_status %q on capture, keeping order pending", fraudStatus)
			return models.OrderStatusPending
		}
	case "settlement":
		return models.OrderStatusProcessing
	case "cancel", "deny", "expire":
		return models.OrderStatusCancelled
	case "pending":
		return models.OrderStatusPending
	default:
		log.Printf("Unrecognized transaction_status %q, keeping order pending", transactionStatus)
		return models.OrderStatusPending
	}
}

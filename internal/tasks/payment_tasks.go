package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"dapurmamma_app_echo/internal/models"
	"dapurmamma_app_echo/internal/services"
)

// ReconcilePendingPaymentsTaskDef sweeps orders that initiated a checkout but
// never converged: Midtrans retries notifications only so many times, so a
// recurring re-check against the gateway is the backstop.
type ReconcilePendingPaymentsTaskDef struct {
	// Gateway must be set by the worker before DefineTasks is called
	Gateway services.PaymentGatewayClient
}

// TaskID returns the unique identifier for this task
func (t *ReconcilePendingPaymentsTaskDef) TaskID() string {
	return "reconcile_pending_payments"
}

// CreateTask builds a recurring ScheduledTask record for this task
func (t *ReconcilePendingPaymentsTaskDef) CreateTask(recurringInterval string, due time.Time) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), map[string]interface{}{}, due, &recurringInterval, models.ScheduledTaskTypeRecurring, 3)
}

// HandleExecution re-checks stale pending orders against the gateway and
// applies the outcome through the usual idempotent path
func (t *ReconcilePendingPaymentsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	if t.Gateway == nil {
		return nil, fmt.Errorf("payment gateway client not configured")
	}

	staleMinutes := 30
	if val, ok := task.Arguments["stale_minutes"].(float64); ok && val > 0 {
		staleMinutes = int(val)
	}
	cutoff := time.Now().Add(-time.Duration(staleMinutes) * time.Minute)

	var orders []models.Order
	err := db.WithContext(ctx).
		Where("status = ? AND payment_session_token <> '' AND updated_at <= ?", models.OrderStatusPending, cutoff).
		Order("updated_at asc").Limit(50).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stale pending orders: %w", err)
	}

	payments := services.NewPaymentService(services.NewDBOrderStore(db), t.Gateway)

	checked := 0
	updated := 0
	failed := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			break
		}
		checked++

		changed, err := payments.ReconcileOrder(ctx, &order)
		if err != nil {
			// A single unreachable transaction must not sink the sweep
			log.Printf("Failed to reconcile order %s: %v", order.BusinessOrderID, err)
			failed++
			continue
		}
		if changed {
			log.Printf("Reconciled order %s from gateway status check", order.BusinessOrderID)
			updated++
		}
	}

	return map[string]interface{}{
		"status":  "success",
		"checked": checked,
		"updated": updated,
		"failed":  failed,
	}, nil
}

// ReconcilePendingPaymentsTask is the singleton instance
var ReconcilePendingPaymentsTask = &ReconcilePendingPaymentsTaskDef{}

// SendOrderStatusEmailArgs defines the arguments for the status email task
type SendOrderStatusEmailArgs struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// SendOrderStatusEmailTaskDef emails the customer after a status change.
// Enqueued by the notification handler only when a notification actually
// changed the order, which keeps the email exactly-once under redelivery.
type SendOrderStatusEmailTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendOrderStatusEmailTaskDef) TaskID() string {
	return "send_order_status_email"
}

// CreateTask builds a one-time ScheduledTask record for this task
func (t *SendOrderStatusEmailTaskDef) CreateTask(args SendOrderStatusEmailArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends the status email
func (t *SendOrderStatusEmailTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	argsBytes, err := json.Marshal(task.Arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var args SendOrderStatusEmailArgs
	if err := json.Unmarshal(argsBytes, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}

	var order models.Order
	if err := db.WithContext(ctx).First(&order, args.OrderID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch order %d: %w", args.OrderID, err)
	}

	if order.CustomerEmail == "" {
		log.Printf("Order %s has no customer email, skipping status email", order.BusinessOrderID)
		return map[string]interface{}{"status": "skipped", "reason": "no customer email"}, nil
	}

	var subject, body string
	switch models.OrderStatus(args.Status) {
	case models.OrderStatusProcessing:
		subject = fmt.Sprintf("Pembayaran diterima untuk pesanan %s", order.BusinessOrderID)
		body = fmt.Sprintf("Halo %s,\n\nPembayaran untuk pesanan %s sudah kami terima dan pesanan sedang diproses.\n\nTerima kasih,\nDapur Mamma", order.CustomerName, order.BusinessOrderID)
	case models.OrderStatusCancelled:
		subject = fmt.Sprintf("Pesanan %s dibatalkan", order.BusinessOrderID)
		body = fmt.Sprintf("Halo %s,\n\nPesanan %s dibatalkan karena pembayaran tidak selesai.\n\nTerima kasih,\nDapur Mamma", order.CustomerName, order.BusinessOrderID)
	default:
		log.Printf("No email template for status %s, skipping", args.Status)
		return map[string]interface{}{"status": "skipped", "reason": "no template for status"}, nil
	}

	emailService := services.NewEmailService()
	if err := emailService.SendEmail([]string{order.CustomerEmail}, subject, body); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status": "success",
		"to":     order.CustomerEmail,
	}, nil
}

// SendOrderStatusEmailTask is the singleton instance
var SendOrderStatusEmailTask = &SendOrderStatusEmailTaskDef{}

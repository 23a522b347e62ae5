package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dapurmamma_app_echo/internal/models"
)

// OrderStore is the persistence gateway for orders. It is an interface so
// the notification and initiation paths can be tested against an in-memory
// fake; DBOrderStore is the GORM implementation used in production.
type OrderStore interface {
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindByBusinessID(ctx context.Context, businessOrderID string) (*models.Order, error)
	FindByUUID(ctx context.Context, uuid string) (*models.Order, error)
	// AttachSessionToken writes the token only if the order has none yet and
	// returns whichever token ends up stored (first writer wins).
	AttachSessionToken(ctx context.Context, order *models.Order, token string) (string, error)
	// ApplyNotificationResult applies a verified notification atomically and
	// reports whether the order actually changed. Duplicate deliveries and
	// backward status moves are no-ops, not errors.
	ApplyNotificationResult(ctx context.Context, orderID uint, newStatus models.OrderStatus, notif *models.PaymentNotification) (bool, error)
	RecordSession(ctx context.Context, session *models.PaymentSession) error
	FindSessionByToken(ctx context.Context, token string) (*models.PaymentSession, error)
}

type DBOrderStore struct {
	db *gorm.DB
}

func NewDBOrderStore(db *gorm.DB) *DBOrderStore {
	return &DBOrderStore{db: db}
}

func (s *DBOrderStore) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("LineItems").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewAppError(ErrKindNotFound, "order not found")
		}
		return nil, WrapInternal("failed to fetch order", err)
	}
	return &order, nil
}

func (s *DBOrderStore) FindByBusinessID(ctx context.Context, businessOrderID string) (*models.Order, error) {
	// business_order_id carries a unique index, but the lookup tolerates a
	// violated invariant: first match wins and the anomaly is logged.
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("LineItems").
		Where("business_order_id = ?", businessOrderID).
		Order("id asc").Limit(2).Find(&orders).Error
	if err != nil {
		return nil, WrapInternal("failed to fetch order", err)
	}
	if len(orders) == 0 {
		return nil, NewAppError(ErrKindNotFound, "order not found")
	}
	if len(orders) > 1 {
		log.Printf("Warning: multiple orders share business_order_id %s, using order %d", businessOrderID, orders[0].ID)
	}
	return &orders[0], nil
}

func (s *DBOrderStore) FindByUUID(ctx context.Context, uuid string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("uuid = ?", uuid).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewAppError(ErrKindNotFound, "order not found")
		}
		return nil, WrapInternal("failed to fetch order", err)
	}
	return &order, nil
}

// AttachSessionToken performs a conditional UPDATE so that two concurrent
// initiations cannot both write a token. The loser re-reads and gets the
// winner's token back.
func (s *DBOrderStore) AttachSessionToken(ctx context.Context, order *models.Order, token string) (string, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND (payment_session_token IS NULL OR payment_session_token = '')", order.ID).
		Update("payment_session_token", token)
	if res.Error != nil {
		return "", WrapInternal("failed to attach session token", res.Error)
	}

	if res.RowsAffected == 0 {
		var existing models.Order
		if err := s.db.WithContext(ctx).First(&existing, order.ID).Error; err != nil {
			return "", WrapInternal("failed to re-fetch order after token conflict", err)
		}
		log.Printf("Order %s already has a session token, keeping the existing one", order.BusinessOrderID)
		order.PaymentSessionToken = existing.PaymentSessionToken
		return existing.PaymentSessionToken, nil
	}

	order.PaymentSessionToken = token
	return token, nil
}

func (s *DBOrderStore) ApplyNotificationResult(ctx context.Context, orderID uint, newStatus models.OrderStatus, notif *models.PaymentNotification) (bool, error) {
	changed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock serializes concurrent deliveries of the same notification:
		// the second holder sees the first one's write and no-ops.
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			return err
		}

		apply := true
		if IsDuplicateNotification(order.PaymentDetails, notif) {
			log.Printf("Duplicate notification for order %s (tx %s, status %s), nothing to apply",
				order.BusinessOrderID, notif.TransactionID, notif.TransactionStatus)
			apply = false
		} else if !TransitionAllowed(order.Status, newStatus) {
			log.Printf("Ignoring out-of-order notification for order %s: %s -> %s not allowed",
				order.BusinessOrderID, order.Status, newStatus)
			apply = false
		}

		raw, err := json.Marshal(notif)
		if err != nil {
			return err
		}

		history := models.PaymentCallbackHistory{
			OrderID:        order.ID,
			PaymentGateway: models.PaymentGatewayMidtrans,
			TransactionID:  notif.TransactionID,
			RawStatus:      notif.TransactionStatus,
			Applied:        apply,
			Metadata:       raw,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		if !apply {
			return nil
		}

		order.Status = newStatus
		order.PaymentDetails = models.PaymentDetails{
			TransactionID:   notif.TransactionID,
			PaymentType:     notif.PaymentType,
			RawStatus:       notif.TransactionStatus,
			RawNotification: raw,
		}
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		changed = true
		return nil
	})
	if err != nil {
		return false, WrapInternal("failed to apply notification result", err)
	}

	return changed, nil
}

func (s *DBOrderStore) RecordSession(ctx context.Context, session *models.PaymentSession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return WrapInternal("failed to record payment session", err)
	}
	return nil
}

func (s *DBOrderStore) FindSessionByToken(ctx context.Context, token string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := s.db.WithContext(ctx).Where("token = ?", token).Order("created_at desc").First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewAppError(ErrKindNotFound, "payment session not found")
		}
		return nil, WrapInternal("failed to fetch payment session", err)
	}
	return &session, nil
}

// IsDuplicateNotification reports whether the notification matches the last
// applied one (same vendor transaction id and same raw vendor status).
func IsDuplicateNotification(details models.PaymentDetails, notif *models.PaymentNotification) bool {
	return details.TransactionID != "" &&
		details.TransactionID == notif.TransactionID &&
		details.RawStatus == notif.TransactionStatus
}

// TransitionAllowed enforces the status lattice: a pending-mapped
// notification only applies while the order is still pending, so a late
// replay can never pull a processing or cancelled order back. Forward moves,
// including a settlement after an earlier expiry, always apply.
func TransitionAllowed(current, next models.OrderStatus) bool {
	if next == models.OrderStatusPending {
		return current == models.OrderStatusPending
	}
	return true
}

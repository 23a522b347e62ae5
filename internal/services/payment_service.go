package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"dapurmamma_app_echo/internal/models"
)

// PaymentService owns payment-session initiation and gateway-side
// reconciliation. It only talks to the gateway through PaymentGatewayClient
// and to storage through OrderStore, so both can be faked in tests.
type PaymentService struct {
	store   OrderStore
	gateway PaymentGatewayClient
}

func NewPaymentService(store OrderStore, gateway PaymentGatewayClient) *PaymentService {
	return &PaymentService{store: store, gateway: gateway}
}

// InitiatePaymentResult holds the result of an initiation attempt
type InitiatePaymentResult struct {
	Token       string
	RedirectURL string
	IsExisting  bool
}

// InitiatePayment starts a Snap checkout session for an order, or returns the
// session that already exists. The caller email comes from the verified
// identity token, never from the request body, so a caller cannot spoof the
// address Midtrans shows on the payment page.
func (s *PaymentService) InitiatePayment(ctx context.Context, businessOrderID, callerEmail string) (*InitiatePaymentResult, error) {
	if callerEmail == "" {
		return nil, NewAppError(ErrKindUnauthenticated, "caller identity is required")
	}
	if businessOrderID == "" {
		return nil, NewAppError(ErrKindInvalidArgument, "order id is required")
	}

	order, err := s.store.FindByBusinessID(ctx, businessOrderID)
	if err != nil {
		return nil, err
	}

	// Idempotent re-request: a token is written once and never rotated
	if order.PaymentSessionToken != "" {
		return s.existingSessionResult(ctx, order)
	}

	items := make([]midtrans.ItemDetails, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, midtrans.ItemDetails{
			ID:    item.ProductID,
			Name:  item.Name,
			Price: item.UnitPrice,
			Qty:   item.Quantity,
		})
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.BusinessOrderID,
			GrossAmt: order.TotalAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: order.CustomerName,
			Email: callerEmail,
		},
		Items: &items,
	}

	resp, err := s.gateway.CreateTransaction(req)
	if err != nil {
		return nil, WrapInternal("failed to create payment session", err)
	}

	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)
	session := models.PaymentSession{
		OrderID:        order.ID,
		PaymentGateway: models.PaymentGatewayMidtrans,
		Token:          resp.Token,
		RedirectURL:    resp.RedirectURL,
		RequestBody:    reqBytes,
		ResponseBody:   respBytes,
	}
	if err := s.store.RecordSession(ctx, &session); err != nil {
		return nil, err
	}

	stored, err := s.store.AttachSessionToken(ctx, order, resp.Token)
	if err != nil {
		return nil, err
	}
	if stored != resp.Token {
		// Lost the race against a concurrent initiation; hand back the
		// winner's session instead of the one just created.
		log.Printf("Concurrent initiation for order %s, returning first-written token", order.BusinessOrderID)
		return s.existingSessionResult(ctx, order)
	}

	return &InitiatePaymentResult{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		IsExisting:  false,
	}, nil
}

func (s *PaymentService) existingSessionResult(ctx context.Context, order *models.Order) (*InitiatePaymentResult, error) {
	result := &InitiatePaymentResult{
		Token:      order.PaymentSessionToken,
		IsExisting: true,
	}
	session, err := s.store.FindSessionByToken(ctx, order.PaymentSessionToken)
	if err != nil {
		if KindOf(err) != ErrKindNotFound {
			return nil, err
		}
		// Token without a session record is an anomaly but not fatal: the
		// client can still open Snap with the token alone.
		log.Printf("No session record for order %s token, returning token without redirect URL", order.BusinessOrderID)
		return result, nil
	}
	result.RedirectURL = session.RedirectURL
	return result, nil
}

// ReconcileOrder re-checks a pending order against Midtrans and applies the
// outcome through the same mapping and idempotent-apply path the webhook
// uses. Covers notifications that never arrived (gateway retries exhausted).
func (s *PaymentService) ReconcileOrder(ctx context.Context, order *models.Order) (bool, error) {
	status, err := s.gateway.CheckTransaction(order.BusinessOrderID)
	if err != nil {
		return false, WrapInternal("failed to check transaction status", err)
	}

	notif := &models.PaymentNotification{
		OrderID:           status.OrderID,
		StatusCode:        status.StatusCode,
		GrossAmount:       status.GrossAmount,
		TransactionStatus: status.TransactionStatus,
		FraudStatus:       status.FraudStatus,
		TransactionID:     status.TransactionID,
		PaymentType:       status.PaymentType,
		Currency:          status.Currency,
	}
	newStatus := MapNotificationStatus(status.TransactionStatus, status.FraudStatus)

	return s.store.ApplyNotificationResult(ctx, order.ID, newStatus, notif)
}

package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"dapurmamma_app_echo/internal/models"
)

type fakeOrderStore struct {
	orders        []*models.Order
	sessions      []*models.PaymentSession
	applies       int
	existingToken string // when set, AttachSessionToken pretends another writer won
}

func (f *fakeOrderStore) findByBusinessID(businessOrderID string) *models.Order {
	for _, o := range f.orders {
		if o.BusinessOrderID == businessOrderID {
			return o
		}
	}
	return nil
}

func (f *fakeOrderStore) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, NewAppError(ErrKindNotFound, "order not found")
}

func (f *fakeOrderStore) FindByBusinessID(ctx context.Context, businessOrderID string) (*models.Order, error) {
	if o := f.findByBusinessID(businessOrderID); o != nil {
		return o, nil
	}
	return nil, NewAppError(ErrKindNotFound, "order not found")
}

func (f *fakeOrderStore) FindByUUID(ctx context.Context, uuid string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.UUID == uuid {
			return o, nil
		}
	}
	return nil, NewAppError(ErrKindNotFound, "order not found")
}

func (f *fakeOrderStore) AttachSessionToken(ctx context.Context, order *models.Order, token string) (string, error) {
	stored := f.findByBusinessID(order.BusinessOrderID)
	if f.existingToken != "" && stored.PaymentSessionToken == "" {
		stored.PaymentSessionToken = f.existingToken
	}
	if stored.PaymentSessionToken != "" {
		order.PaymentSessionToken = stored.PaymentSessionToken
		return stored.PaymentSessionToken, nil
	}
	stored.PaymentSessionToken = token
	order.PaymentSessionToken = token
	return token, nil
}

func (f *fakeOrderStore) ApplyNotificationResult(ctx context.Context, orderID uint, newStatus models.OrderStatus, notif *models.PaymentNotification) (bool, error) {
	order, err := f.FindByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if IsDuplicateNotification(order.PaymentDetails, notif) || !TransitionAllowed(order.Status, newStatus) {
		return false, nil
	}
	raw, _ := json.Marshal(notif)
	order.Status = newStatus
	order.PaymentDetails = models.PaymentDetails{
		TransactionID:   notif.TransactionID,
		PaymentType:     notif.PaymentType,
		RawStatus:       notif.TransactionStatus,
		RawNotification: raw,
	}
	f.applies++
	return true, nil
}

func (f *fakeOrderStore) RecordSession(ctx context.Context, session *models.PaymentSession) error {
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakeOrderStore) FindSessionByToken(ctx context.Context, token string) (*models.PaymentSession, error) {
	for _, s := range f.sessions {
		if s.Token == token {
			return s, nil
		}
	}
	return nil, NewAppError(ErrKindNotFound, "payment session not found")
}

type fakeGatewayClient struct {
	serverKey   string
	createCalls int
	lastRequest *snap.Request
	createResp  *snap.Response
	createErr   error
	checkResp   *coreapi.TransactionStatusResponse
	checkErr    error
}

func (f *fakeGatewayClient) CreateTransaction(param *snap.Request) (*snap.Response, error) {
	f.createCalls++
	f.lastRequest = param
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeGatewayClient) CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.checkResp, nil
}

func (f *fakeGatewayClient) CancelTransaction(orderID string) error {
	return nil
}

func (f *fakeGatewayClient) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	return VerifyNotificationSignature(orderID, statusCode, grossAmount, f.serverKey, signatureKey)
}

func pendingOrder() *models.Order {
	return &models.Order{
		ID:              1,
		UUID:            "11111111-1111-1111-1111-111111111111",
		BusinessOrderID: "ORD-1",
		CustomerName:    "Budi",
		CustomerEmail:   "budi@example.com",
		TotalAmount:     50000,
		Status:          models.OrderStatusPending,
		LineItems: []models.OrderLineItem{
			{ProductID: "nasi-1", Name: "Nasi Box", UnitPrice: 25000, Quantity: 2},
		},
	}
}

func TestInitiatePaymentUnauthenticated(t *testing.T) {
	store := &fakeOrderStore{orders: []*models.Order{pendingOrder()}}
	gateway := &fakeGatewayClient{}
	svc := NewPaymentService(store, gateway)

	_, err := svc.InitiatePayment(context.Background(), "ORD-1", "")
	if KindOf(err) != ErrKindUnauthenticated {
		t.Errorf("expected unauthenticated error, got %v", err)
	}
	if gateway.createCalls != 0 {
		t.Errorf("gateway must not be called without an authenticated caller, got %d calls", gateway.createCalls)
	}
}

func TestInitiatePaymentInvalidArgument(t *testing.T) {
	store := &fakeOrderStore{}
	gateway := &fakeGatewayClient{}
	svc := NewPaymentService(store, gateway)

	_, err := svc.InitiatePayment(context.Background(), "", "admin@example.com")
	if KindOf(err) != ErrKindInvalidArgument {
		t.Errorf("expected invalid-argument error, got %v", err)
	}
}

func TestInitiatePaymentOrderNotFound(t *testing.T) {
	store := &fakeOrderStore{}
	gateway := &fakeGatewayClient{}
	svc := NewPaymentService(store, gateway)

	_, err := svc.InitiatePayment(context.Background(), "ORD-404", "admin@example.com")
	if KindOf(err) != ErrKindNotFound {
		t.Errorf("expected not-found error, got %v", err)
	}
	if gateway.createCalls != 0 {
		t.Errorf("gateway must not be called for an unknown order, got %d calls", gateway.createCalls)
	}
}

func TestInitiatePaymentSuccess(t *testing.T) {
	order := pendingOrder()
	store := &fakeOrderStore{orders: []*models.Order{order}}
	gateway := &fakeGatewayClient{
		createResp: &snap.Response{Token: "snap-token-1", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token-1"},
	}
	svc := NewPaymentService(store, gateway)

	result, err := svc.InitiatePayment(context.Background(), "ORD-1", "admin@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token != "snap-token-1" || result.IsExisting {
		t.Errorf("unexpected result: %+v", result)
	}
	if order.PaymentSessionToken != "snap-token-1" {
		t.Errorf("token not attached to order, got %q", order.PaymentSessionToken)
	}
	if len(store.sessions) != 1 {
		t.Fatalf("expected one session record, got %d", len(store.sessions))
	}

	req := gateway.lastRequest
	if req.TransactionDetails.OrderID != "ORD-1" || req.TransactionDetails.GrossAmt != 50000 {
		t.Errorf("unexpected transaction details: %+v", req.TransactionDetails)
	}
	// The authenticated caller's email, never one from the request body
	if req.CustomerDetail.Email != "admin@example.com" {
		t.Errorf("expected caller email on request, got %q", req.CustomerDetail.Email)
	}
	if req.Items == nil || len(*req.Items) != 1 || (*req.Items)[0].Qty != 2 {
		t.Errorf("line items not mapped: %+v", req.Items)
	}
}

func TestInitiatePaymentReusesExistingToken(t *testing.T) {
	order := pendingOrder()
	order.PaymentSessionToken = "snap-token-old"
	store := &fakeOrderStore{
		orders: []*models.Order{order},
		sessions: []*models.PaymentSession{
			{OrderID: 1, Token: "snap-token-old", RedirectURL: "https://example.com/redirect"},
		},
	}
	gateway := &fakeGatewayClient{}
	svc := NewPaymentService(store, gateway)

	result, err := svc.InitiatePayment(context.Background(), "ORD-1", "admin@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsExisting || result.Token != "snap-token-old" || result.RedirectURL != "https://example.com/redirect" {
		t.Errorf("expected existing session to be returned, got %+v", result)
	}
	if gateway.createCalls != 0 {
		t.Errorf("gateway must not be called when a token already exists, got %d calls", gateway.createCalls)
	}
}

func TestInitiatePaymentConcurrentInitiationKeepsFirstToken(t *testing.T) {
	order := pendingOrder()
	store := &fakeOrderStore{
		orders:        []*models.Order{order},
		existingToken: "snap-token-first",
		sessions: []*models.PaymentSession{
			{OrderID: 1, Token: "snap-token-first", RedirectURL: "https://example.com/first"},
		},
	}
	gateway := &fakeGatewayClient{
		createResp: &snap.Response{Token: "snap-token-second", RedirectURL: "https://example.com/second"},
	}
	svc := NewPaymentService(store, gateway)

	result, err := svc.InitiatePayment(context.Background(), "ORD-1", "admin@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token != "snap-token-first" || !result.IsExisting {
		t.Errorf("expected first-written token to win, got %+v", result)
	}
	if order.PaymentSessionToken != "snap-token-first" {
		t.Errorf("order token rotated to %q", order.PaymentSessionToken)
	}
}

func TestInitiatePaymentGatewayError(t *testing.T) {
	store := &fakeOrderStore{orders: []*models.Order{pendingOrder()}}
	gateway := &fakeGatewayClient{createErr: context.DeadlineExceeded}
	svc := NewPaymentService(store, gateway)

	_, err := svc.InitiatePayment(context.Background(), "ORD-1", "admin@example.com")
	if KindOf(err) != ErrKindInternal {
		t.Errorf("expected internal error on gateway failure, got %v", err)
	}
}

func TestReconcileOrderAppliesGatewayStatus(t *testing.T) {
	order := pendingOrder()
	order.PaymentSessionToken = "snap-token-1"
	store := &fakeOrderStore{orders: []*models.Order{order}}
	gateway := &fakeGatewayClient{
		checkResp: &coreapi.TransactionStatusResponse{
			OrderID:           "ORD-1",
			StatusCode:        "200",
			GrossAmount:       "50000.00",
			TransactionStatus: "settlement",
			TransactionID:     "tx-rec-1",
			PaymentType:       "bank_transfer",
		},
	}
	svc := NewPaymentService(store, gateway)

	changed, err := svc.ReconcileOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("expected reconciliation to apply the settlement")
	}
	if order.Status != models.OrderStatusProcessing {
		t.Errorf("expected order to be processing, got %s", order.Status)
	}

	// Re-running against the same gateway state must be a no-op
	changed, err = svc.ReconcileOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}
	if changed {
		t.Error("expected second reconciliation to be idempotent")
	}
}

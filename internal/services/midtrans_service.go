package services

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransConfig holds the gateway credentials, resolved once at process
// start and injected. Keys are never read from the environment here.
type MidtransConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
}

// PaymentGatewayClient abstracts the upstream payment provider so handlers
// and services can run against a fake in tests.
type PaymentGatewayClient interface {
	CreateTransaction(param *snap.Request) (*snap.Response, error)
	CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, error)
	CancelTransaction(orderID string) error
	VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool
}

type MidtransService struct {
	serverKey  string
	SnapClient snap.Client
	CoreClient coreapi.Client
}

func NewMidtransService(cfg MidtransConfig) *MidtransService {
	env := midtrans.Sandbox
	if cfg.IsProduction {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(cfg.ServerKey, env)

	var c coreapi.Client
	c.New(cfg.ServerKey, env)

	// Set Default Options
	midtrans.ServerKey = cfg.ServerKey
	midtrans.ClientKey = cfg.ClientKey
	midtrans.Environment = env

	return &MidtransService{
		serverKey:  cfg.ServerKey,
		SnapClient: s,
		CoreClient: c,
	}
}

// CreateTransaction creates a Snap transaction and returns the token and redirect URL
func (s *MidtransService) CreateTransaction(param *snap.Request) (*snap.Response, error) {
	resp, err := s.SnapClient.CreateTransaction(param)
	if err != nil {
		return nil, fmt.Errorf("midtrans create transaction error: %v", err)
	}
	return resp, nil
}

// CheckTransaction fetches the current transaction status from Midtrans
func (s *MidtransService) CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, error) {
	resp, err := s.CoreClient.CheckTransaction(orderID)
	if err != nil {
		return nil, fmt.Errorf("midtrans check transaction error: %v", err)
	}
	return resp, nil
}

// CancelTransaction cancels a pending transaction at Midtrans
func (s *MidtransService) CancelTransaction(orderID string) error {
	_, err := s.CoreClient.CancelTransaction(orderID)
	if err != nil {
		return fmt.Errorf("midtrans cancel transaction error: %v", err)
	}
	return nil
}

// VerifySignature verifies a notification signature key.
// Signature = SHA512(order_id + status_code + gross_amount + server_key),
// hex encoded. All inputs are compared exactly as supplied in the payload;
// the comparison is constant-time so mismatches leak no timing information.
func (s *MidtransService) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	return VerifyNotificationSignature(orderID, statusCode, grossAmount, s.serverKey, signatureKey)
}

// VerifyNotificationSignature is the bare digest check, exported for reuse
// by fakes and tests.
func VerifyNotificationSignature(orderID, statusCode, grossAmount, serverKey, signatureKey string) bool {
	if signatureKey == "" {
		return false
	}
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureKey)) == 1
}

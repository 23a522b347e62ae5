package models

// PaymentNotification is the raw HTTP notification body sent by Midtrans.
// All numeric-looking fields arrive as strings and must be kept verbatim:
// the signature covers them exactly as supplied.
type PaymentNotification struct {
	TransactionType   string `json:"transaction_type"`
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusMessage     string `json:"status_message"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	SettlementTime    string `json:"settlement_time"`
	PaymentType       string `json:"payment_type"`
	OrderID           string `json:"order_id"`
	MerchantID        string `json:"merchant_id"`
	GrossAmount       string `json:"gross_amount"`
	FraudStatus       string `json:"fraud_status"`
	Currency          string `json:"currency"`
}

// HasRequiredFields reports whether the fields needed to verify and apply the
// notification are present. Anything else missing is tolerated.
func (n *PaymentNotification) HasRequiredFields() bool {
	return n.OrderID != "" && n.StatusCode != "" && n.GrossAmount != "" &&
		n.SignatureKey != "" && n.TransactionStatus != ""
}

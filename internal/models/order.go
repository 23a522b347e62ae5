package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order represents a customer purchase
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// UUID is the public link identifier, BusinessOrderID is the code Midtrans
	// sees. Neither is the storage primary key.
	UUID            string `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	BusinessOrderID string `gorm:"type:varchar(100);uniqueIndex" json:"business_order_id"`

	CustomerName  string `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerEmail string `gorm:"type:varchar(255)" json:"customer_email"`

	TotalAmount int64       `json:"total_amount"` // IDR, no decimals
	Status      OrderStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	// Set once by payment initiation, never rotated afterwards
	PaymentSessionToken string `gorm:"type:varchar(255)" json:"payment_session_token"`

	PaymentDetails PaymentDetails `gorm:"embedded;embeddedPrefix:payment_" json:"payment_details"`

	// Relationships
	LineItems []OrderLineItem `gorm:"foreignKey:OrderID" json:"line_items,omitempty"`
}

// PaymentDetails holds the last applied gateway notification outcome.
// TransactionID and RawStatus together form the idempotence key for
// notification replays.
type PaymentDetails struct {
	TransactionID   string          `gorm:"type:varchar(128)" json:"transaction_id"`
	PaymentType     string          `gorm:"type:varchar(100)" json:"payment_type"`
	RawStatus       string          `gorm:"type:varchar(50)" json:"raw_status"`
	RawNotification json.RawMessage `gorm:"type:jsonb" json:"raw_notification,omitempty"`
}

// OrderLineItem is a single purchased product line, immutable after checkout
type OrderLineItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OrderID   uint   `gorm:"index" json:"order_id"`
	ProductID string `gorm:"type:varchar(100)" json:"product_id"`
	Name      string `gorm:"type:varchar(255)" json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int32  `json:"quantity"`
}

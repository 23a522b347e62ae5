package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentSession is an audit record of a Snap checkout session created for an
// order. The token itself also lives on the order (written once).
type PaymentSession struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderID        uint            `gorm:"index" json:"order_id"`
	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	Token          string          `gorm:"type:varchar(255)" json:"token"`
	RedirectURL    string          `gorm:"type:varchar(512)" json:"redirect_url"`
	RequestBody    json.RawMessage `gorm:"type:jsonb" json:"request_body"`
	ResponseBody   json.RawMessage `gorm:"type:jsonb" json:"response_body"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

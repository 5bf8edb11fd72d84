package models

import (
	"time"
)

const (
	PaymentStateCreated  = "created"
	PaymentStateVerified = "verified"
	PaymentStateRejected = "rejected"
)

// PaymentRecord is one row of the payment ledger.
type PaymentRecord struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID          string    `gorm:"type:varchar(24);not null;index" json:"orderId"`
	GatewayOrderID   string    `gorm:"type:varchar(64);index" json:"gatewayOrderId"`
	GatewayPaymentID string    `gorm:"type:varchar(64)" json:"gatewayPaymentId,omitempty"`
	Amount           int64     `gorm:"not null" json:"amount"`
	Currency         string    `gorm:"type:varchar(8)" json:"currency"`
	State            string    `gorm:"type:varchar(20);not null" json:"state"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentMetadata struct {
	Gateway          string `json:"gateway"`
	GatewayReference string `json:"gatewayReference,omitempty"`
	CardLast4        string `json:"cardLast4,omitempty"`
	CardBrand        string `json:"cardBrand,omitempty"`
	BillingName      string `json:"billingName,omitempty"`
	BillingEmail     string `json:"billingEmail,omitempty"`
	BillingAddress   string `json:"billingAddress,omitempty"`
	Phone            string `json:"phone,omitempty"`
	FailureReason    string `json:"failureReason,omitempty"`
	LastEvent        string `json:"lastEvent,omitempty"`
}

type Payment struct {
	ID               string                              `gorm:"primaryKey;size:64" json:"id"`
	UserID           string                              `gorm:"size:64;not null;index" json:"userId"`
	Amount           float64                             `gorm:"not null" json:"amount"`
	Currency         string                              `gorm:"size:3;not null;default:'GHS'" json:"currency"`
	Status           string                              `gorm:"size:20;not null;index" json:"status"` // pending, completed, failed, refunded, cancelled
	PaymentMethod    string                              `gorm:"size:20;not null" json:"paymentMethod"`
	TransactionID    string                              `gorm:"size:64;uniqueIndex" json:"transactionId"`
	SubscriptionPlan string                              `gorm:"size:50" json:"subscriptionPlan"`
	PaymentDate      time.Time                           `gorm:"index" json:"paymentDate"`
	Metadata         datatypes.JSONType[PaymentMetadata] `json:"metadata"`
	RefundAmount     *float64                            `json:"refundAmount,omitempty"`
	RefundReason     string                              `gorm:"size:500" json:"refundReason,omitempty"`
	RefundedAt       *time.Time                          `json:"refundedAt,omitempty"`
	CreatedAt        time.Time                           `json:"createdAt"`
	UpdatedAt        time.Time                           `json:"updatedAt"`
}

func (Payment) TableName() string {
	return "payments"
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaymentVerified   OrderStatus = "payment_verified"
	OrderStatusInsufficientFunds OrderStatus = "insufficient_funds"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusExpired           OrderStatus = "expired"
)

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

// BundleOrder is a purchase intent awaiting payment confirmation.
type BundleOrder struct {
	ID                    string           `gorm:"primarykey;type:varchar(32)"`
	UserID                uint             `gorm:"not null;index:idx_order_user_status,priority:1"`
	BundleDefinitionID    uint             `gorm:"not null;index"`
	BundleDefinition      BundleDefinition `gorm:"foreignKey:BundleDefinitionID"`
	RequestedDefinitionID uint             `gorm:"not null"` // definition chosen at creation, kept after a suggestion is accepted
	OrderAmount           float64          `gorm:"type:decimal(10,2);not null"`
	Status                OrderStatus      `gorm:"type:varchar(20);not null;default:'pending';index:idx_order_user_status,priority:2;index:idx_order_status_expiry,priority:1"`
	PaymentMethodID       uint             `gorm:"not null;index"`
	PaymentMethod         PaymentMethod    `gorm:"foreignKey:PaymentMethodID"`
	ReferenceNumber       string           `gorm:"type:varchar(100);index"`
	VerifiedAmount        *float64         `gorm:"type:decimal(10,2)"`
	VerifiedAt            *time.Time
	PayerName             string           `gorm:"type:varchar(200)"`
	VerificationPayload   datatypes.JSON   `gorm:"type:json"`
	DeficitAmount         *float64         `gorm:"type:decimal(10,2)"`
	SurplusAmount         float64          `gorm:"type:decimal(10,2);not null;default:0"` // forfeited difference after accepting a cheaper suggestion
	ResultingBundleID     *uint            `gorm:"uniqueIndex"`
	IPAddress             string           `gorm:"type:varchar(50)"`
	UserAgent             string           `gorm:"type:varchar(255)"`
	ExpiresAt             time.Time        `gorm:"not null;index:idx_order_status_expiry,priority:2"`
	CompletedAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Suggestions []OrderBundleSuggestion `gorm:"foreignKey:OrderID"`
}

func (o *BundleOrder) IsExpired(now time.Time) bool {
	return o.ExpiresAt.Before(now)
}

// OrderBundleSuggestion links an insufficient-funds order to an alternative
// definition the verified amount can buy (or the cheapest one, with a deficit).
type OrderBundleSuggestion struct {
	ID                 uint             `gorm:"primarykey"`
	OrderID            string           `gorm:"type:varchar(32);not null;uniqueIndex:idx_order_suggestion"`
	BundleDefinitionID uint             `gorm:"not null;uniqueIndex:idx_order_suggestion"`
	BundleDefinition   BundleDefinition `gorm:"foreignKey:BundleDefinitionID"`
	Reason             string           `gorm:"type:varchar(200);not null"`
	Score              float64          `gorm:"not null;default:0"`
	Deficit            float64          `gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt          time.Time
}

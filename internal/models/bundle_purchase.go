package models

import "time"

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
	PurchaseStatusRefunded  PurchaseStatus = "refunded"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// BundlePurchase is the receipt for an activated bundle. OrderID is nil for
// direct purchases that bypass the order flow.
type BundlePurchase struct {
	ID                 uint           `gorm:"primarykey"`
	UserID             uint           `gorm:"not null;index"`
	BundleDefinitionID uint           `gorm:"not null;index"`
	OrderID            *string        `gorm:"type:varchar(32);uniqueIndex"`
	AmountPaid         float64        `gorm:"type:decimal(10,2);not null"`
	ListPrice          float64        `gorm:"type:decimal(10,2);not null"`
	PaymentMethodID    *uint          `gorm:"index"`
	PaymentStatus      PurchaseStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ReferenceNumber    string         `gorm:"type:varchar(100);index"`
	TransactionID      string         `gorm:"type:varchar(100)"`
	UserBundleID       *uint          `gorm:"uniqueIndex"`
	VerifiedAt         *time.Time
	IPAddress          string         `gorm:"type:varchar(50)"`
	UserAgent          string         `gorm:"type:varchar(255)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

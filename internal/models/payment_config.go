package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentMethodType string

const (
	PaymentMethodBankTransfer PaymentMethodType = "bank_transfer"
	PaymentMethodMobileWallet PaymentMethodType = "mobile_wallet"
	PaymentMethodOther        PaymentMethodType = "other"
)

// PaymentMethod is an admin-curated way of paying offline. Code is what the
// verifier receives (e.g. "TELEBIRR"); Driver picks the verifier
// implementation and Config carries its settings.
type PaymentMethod struct {
	ID           uint              `gorm:"primarykey"`
	UUID         string            `gorm:"uniqueIndex;type:varchar(36);not null"`
	Name         string            `gorm:"type:varchar(100);not null;default:'Payment Method'"`
	Code         string            `gorm:"type:varchar(50);uniqueIndex;not null"`
	MethodType   PaymentMethodType `gorm:"type:varchar(20);not null;default:'mobile_wallet'"`
	Driver       string            `gorm:"type:varchar(50);not null;default:'mock'"`
	Config       datatypes.JSON    `gorm:"type:json"`
	LogoURL      string            `gorm:"type:varchar(255)"`
	IsActive     bool              `gorm:"not null;index"`
	DisplayOrder int               `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

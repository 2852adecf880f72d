package bundle

import (
	bundledto "driveet-backend/internal/api/v1/bundle"
	"driveet-backend/internal/services"
	"time"
)

type PurchaseRequest struct {
	UserID             uint    `json:"user_id" binding:"required"`
	BundleDefinitionID uint    `json:"bundle_definition_id" binding:"required"`
	PaymentMethodID    *uint   `json:"payment_method_id"`
	AmountPaid         float64 `json:"amount_paid" binding:"gte=0"`
	ReferenceNumber    string  `json:"reference_number" binding:"max=100"`
	TransactionID      string  `json:"transaction_id" binding:"max=100"`
}

type PurchaseResponse struct {
	Bundle     bundledto.UserBundleResponse `json:"bundle"`
	PurchaseID uint                         `json:"purchase_id"`
	AmountPaid float64                      `json:"amount_paid"`
	VerifiedAt *time.Time                   `json:"verified_at"`
}

type RefundRequest struct {
	UserID   uint   `json:"user_id" binding:"required"`
	Resource string `json:"resource" binding:"required,oneof=exam chat search"`
	Quantity int    `json:"quantity" binding:"required,gte=1,lte=100"`
	Note     string `json:"note" binding:"max=255"`
}

type RefundResponse struct {
	BundleID  uint                      `json:"bundle_id"`
	Resources *services.ResourceSummary `json:"resources"`
}

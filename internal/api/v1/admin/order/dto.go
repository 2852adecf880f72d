package order

import (
	"driveet-backend/internal/models"
	"time"
)

// OrderListItem is one row of the admin order listing.
type OrderListItem struct {
	ID                 string             `json:"id"`
	UserID             uint               `json:"user_id"`
	Status             models.OrderStatus `json:"status"`
	BundleDefinitionID uint               `json:"bundle_definition_id"`
	BundleCode         string             `json:"bundle_code,omitempty"`
	OrderAmount        float64            `json:"order_amount"`
	PaymentMethodID    uint               `json:"payment_method_id"`
	ReferenceNumber    string             `json:"reference_number,omitempty"`
	VerifiedAmount     *float64           `json:"verified_amount,omitempty"`
	DeficitAmount      *float64           `json:"deficit_amount,omitempty"`
	SurplusAmount      float64            `json:"surplus_amount"`
	ResultingBundleID  *uint              `json:"resulting_bundle_id,omitempty"`
	ExpiresAt          time.Time          `json:"expires_at"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func newOrderListItem(o models.BundleOrder) OrderListItem {
	return OrderListItem{
		ID:                 o.ID,
		UserID:             o.UserID,
		Status:             o.Status,
		BundleDefinitionID: o.BundleDefinitionID,
		BundleCode:         o.BundleDefinition.Code,
		OrderAmount:        o.OrderAmount,
		PaymentMethodID:    o.PaymentMethodID,
		ReferenceNumber:    o.ReferenceNumber,
		VerifiedAmount:     o.VerifiedAmount,
		DeficitAmount:      o.DeficitAmount,
		SurplusAmount:      o.SurplusAmount,
		ResultingBundleID:  o.ResultingBundleID,
		ExpiresAt:          o.ExpiresAt,
		CompletedAt:        o.CompletedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// OrderListResponse wraps a page of orders.
type OrderListResponse struct {
	Orders []OrderListItem `json:"orders"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// OrderDetailResponse adds the verification payload and suggestions.
type OrderDetailResponse struct {
	OrderListItem
	PayerName           string                 `json:"payer_name,omitempty"`
	VerificationPayload map[string]interface{} `json:"verification_payload,omitempty"`
	IPAddress           string                 `json:"ip_address"`
	UserAgent           string                 `json:"user_agent"`
	Suggestions         []SuggestionItem       `json:"suggestions"`
}

// SuggestionItem is a stored alternative for an insufficient-funds order.
type SuggestionItem struct {
	BundleDefinitionID uint    `json:"bundle_definition_id"`
	BundleCode         string  `json:"bundle_code"`
	Reason             string  `json:"reason"`
	Score              float64 `json:"score"`
	Deficit            float64 `json:"deficit"`
}

package order

import (
	"driveet-backend/internal/api/v1/bundle"
	"driveet-backend/internal/models"
	"time"
)

type CreateOrderRequest struct {
	BundleDefinitionID uint `json:"bundle_definition_id" binding:"required"`
	PaymentMethodID    uint `json:"payment_method_id" binding:"required"`
}

type VerifyPaymentRequest struct {
	ReferenceNumber string `json:"reference_number" binding:"required,max=100"`
}

type AcceptSuggestionRequest struct {
	BundleDefinitionID uint `json:"bundle_definition_id" binding:"required"`
}

type PaymentMethodBrief struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type SuggestionResponse struct {
	Definition bundle.DefinitionResponse `json:"definition"`
	Reason     string                    `json:"reason"`
	Score      float64                   `json:"score"`
	Deficit    float64                   `json:"deficit"`
}

type OrderResponse struct {
	ID                    string                    `json:"id"`
	UserID                uint                      `json:"user_id"`
	Status                models.OrderStatus        `json:"status"`
	Bundle                bundle.DefinitionResponse `json:"bundle"`
	RequestedDefinitionID uint                      `json:"requested_definition_id"`
	OrderAmount           float64                   `json:"order_amount"`
	PaymentMethod         PaymentMethodBrief        `json:"payment_method"`
	ReferenceNumber       string                    `json:"reference_number,omitempty"`
	VerifiedAmount        *float64                  `json:"verified_amount,omitempty"`
	PayerName             string                    `json:"payer_name,omitempty"`
	DeficitAmount         *float64                  `json:"deficit_amount,omitempty"`
	SurplusAmount         float64                   `json:"surplus_amount"`
	ResultingBundleID     *uint                     `json:"resulting_bundle_id,omitempty"`
	ExpiresAt             time.Time                 `json:"expires_at"`
	VerifiedAt            *time.Time                `json:"verified_at,omitempty"`
	CompletedAt           *time.Time                `json:"completed_at,omitempty"`
	CreatedAt             time.Time                 `json:"created_at"`
	Suggestions           []SuggestionResponse      `json:"suggestions"`
}

func NewOrderResponse(o models.BundleOrder) OrderResponse {
	suggestions := make([]SuggestionResponse, 0, len(o.Suggestions))
	for _, s := range o.Suggestions {
		suggestions = append(suggestions, SuggestionResponse{
			Definition: bundle.NewDefinitionResponse(s.BundleDefinition),
			Reason:     s.Reason,
			Score:      s.Score,
			Deficit:    s.Deficit,
		})
	}

	return OrderResponse{
		ID:                    o.ID,
		UserID:                o.UserID,
		Status:                o.Status,
		Bundle:                bundle.NewDefinitionResponse(o.BundleDefinition),
		RequestedDefinitionID: o.RequestedDefinitionID,
		OrderAmount:           o.OrderAmount,
		PaymentMethod: PaymentMethodBrief{
			ID:   o.PaymentMethod.ID,
			Code: o.PaymentMethod.Code,
			Name: o.PaymentMethod.Name,
		},
		ReferenceNumber:   o.ReferenceNumber,
		VerifiedAmount:    o.VerifiedAmount,
		PayerName:         o.PayerName,
		DeficitAmount:     o.DeficitAmount,
		SurplusAmount:     o.SurplusAmount,
		ResultingBundleID: o.ResultingBundleID,
		ExpiresAt:         o.ExpiresAt,
		VerifiedAt:        o.VerifiedAt,
		CompletedAt:       o.CompletedAt,
		CreatedAt:         o.CreatedAt,
		Suggestions:       suggestions,
	}
}

// VerifyPaymentResponse carries the activated bundle when the payment
// covered the order, or the deficit and alternatives when it fell short.
type VerifyPaymentResponse struct {
	Order      OrderResponse              `json:"order"`
	Bundle     *bundle.UserBundleResponse `json:"bundle,omitempty"`
	Deficit    float64                    `json:"deficit,omitempty"`
	CanUpgrade bool                       `json:"can_upgrade"`
}

type CompletedOrderResponse struct {
	Order  OrderResponse             `json:"order"`
	Bundle bundle.UserBundleResponse `json:"bundle"`
}

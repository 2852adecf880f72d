package payment

type UpsertPaymentMethodRequest struct {
	Name         string                 `json:"name" binding:"required,max=100"`
	Code         string                 `json:"code" binding:"required,max=50"`
	MethodType   string                 `json:"method_type" binding:"omitempty,oneof=bank_transfer mobile_wallet other"`
	Driver       string                 `json:"driver" binding:"omitempty,oneof=mock remote"`
	Config       map[string]interface{} `json:"config"`
	LogoURL      string                 `json:"logo_url" binding:"max=255"`
	IsActive     *bool                  `json:"is_active"` // Pointer to allow false
	DisplayOrder int                    `json:"display_order"`
}

type PaymentMethodResponse struct {
	ID           uint                   `json:"id"`
	UUID         string                 `json:"uuid"`
	Name         string                 `json:"name"`
	Code         string                 `json:"code"`
	MethodType   string                 `json:"method_type"`
	Driver       string                 `json:"driver"`
	Config       map[string]interface{} `json:"config"`
	LogoURL      string                 `json:"logo_url,omitempty"`
	IsActive     bool                   `json:"is_active"`
	DisplayOrder int                    `json:"display_order"`
	CreatedAt    string                 `json:"created_at"`
	UpdatedAt    string                 `json:"updated_at"`
}

package payment

type PaymentMethodResponse struct {
	ID           uint   `json:"id"`
	UUID         string `json:"uuid"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	LogoURL      string `json:"logo_url,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

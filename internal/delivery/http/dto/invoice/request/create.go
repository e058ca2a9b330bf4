package request

type CreateInvoiceRequest struct {
	Total           string            `json:"total"`
	SuccessCallback string            `json:"success_callback"`
	FailCallback    string            `json:"fail_callback,omitempty"`
	ExpiresAt       string            `json:"expires_at,omitempty"`
	Details         map[string]string `json:"details,omitempty"`
}

type PayRequest struct {
	MoneyAmount string `json:"money_amount"`
}

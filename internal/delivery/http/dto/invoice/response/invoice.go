package response

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

type InvoiceResponse struct {
	ID                   string            `json:"id"`
	Total                string            `json:"total"`
	CapturedTotal        *string           `json:"captured_total,omitempty"`
	ExpiresAt            *time.Time        `json:"expires_at,omitempty"`
	SuccessTransactionID *string           `json:"success_transaction_id,omitempty"`
	Status               string            `json:"status"`
	Details              map[string]string `json:"details,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

type TransactionResponse struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id"`
	MoneyAmount string    `json:"money_amount"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type StatusChangeResponse struct {
	FromStatus string            `json:"from_status"`
	ToStatus   string            `json:"to_status"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type ErrorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func FromInvoice(invoice *domain.Invoice) InvoiceResponse {
	out := InvoiceResponse{
		ID:                   invoice.ID,
		Total:                invoice.Total.StringFixed(2),
		ExpiresAt:            invoice.ExpiresAt,
		SuccessTransactionID: invoice.SuccessTransactionID,
		Status:               string(invoice.Status),
		Details:              invoice.Details,
		CreatedAt:            invoice.CreatedAt,
		UpdatedAt:            invoice.UpdatedAt,
	}
	if invoice.CapturedTotal != nil {
		captured := invoice.CapturedTotal.StringFixed(2)
		out.CapturedTotal = &captured
	}
	return out
}

func FromTransaction(tr *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tr.ID,
		InvoiceID:   tr.InvoiceID,
		MoneyAmount: tr.MoneyAmount.StringFixed(2),
		Type:        string(tr.Type),
		Status:      string(tr.Status),
		CreatedAt:   tr.CreatedAt,
	}
}

func FromStatusChange(change *domain.InvoiceStatusChange) StatusChangeResponse {
	return StatusChangeResponse{
		FromStatus: string(change.FromStatus),
		ToStatus:   string(change.ToStatus),
		Details:    change.Details,
		CreatedAt:  change.CreatedAt,
	}
}

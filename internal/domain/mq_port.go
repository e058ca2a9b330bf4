package domain

import "time"

// PaymentEvent is emitted after an invoice transition commits. Informational
// fan-out only; the audit trail stays in the status-change tables.
type PaymentEvent struct {
	InvoiceID  string    `json:"invoice_id"`
	Status     string    `json:"status"`
	Provider   string    `json:"provider,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type PaymentEventPublisher interface {
	PublishPaymentEvent(event PaymentEvent) error
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusExpired   InvoiceStatus = "EXPIRED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
	InvoiceStatusError     InvoiceStatus = "ERROR"
)

// Invoice is a payable request for a fixed total. Only the payment
// handler is allowed to move Status into PAID; the invoice service may
// force CANCELLED/EXPIRED for trusted internal callers.
type Invoice struct {
	ID                   string
	Total                decimal.Decimal
	CapturedTotal        *decimal.Decimal
	ExpiresAt            *time.Time
	SuccessTransactionID *string
	SuccessCallback      string
	FailCallback         string
	Status               InvoiceStatus
	Details              map[string]string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Detail returns a value from the opaque details payload or def when absent.
func (i *Invoice) Detail(key, def string) string {
	if i.Details == nil {
		return def
	}
	if v, ok := i.Details[key]; ok {
		return v
	}
	return def
}

package domain

import (
	"errors"
	"fmt"
)

// Payment taxonomy. Every one of these is recorded to the audit trail
// exactly once at the orchestrating call before being returned.
var (
	ErrInvoiceExpired       = errors.New("invoice has expired")
	ErrInvoiceAlreadyPaid   = errors.New("invoice has already been paid")
	ErrInvoiceInvalidStatus = errors.New("can not perform action with invoice current state")
	ErrInvalidMoneyAmount   = errors.New("invalid money amount")
	ErrInvalidCurrency      = errors.New("invalid currency")
)

// ErrInsufficientMoneyAmount specializes ErrInvalidMoneyAmount, so
// errors.Is(err, ErrInvalidMoneyAmount) holds for it too.
var ErrInsufficientMoneyAmount = fmt.Errorf("%w: insufficient money amount", ErrInvalidMoneyAmount)

// Protocol-level errors. Distinct from the payment taxonomy: they are
// rejected before any financial-state write.
var (
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateOrderID    = errors.New("duplicate provider order id")
	ErrUnknownCallback     = errors.New("unknown callback name")
)

// IsPaymentError reports whether err belongs to the payment taxonomy.
func IsPaymentError(err error) bool {
	return errors.Is(err, ErrInvoiceExpired) ||
		errors.Is(err, ErrInvoiceAlreadyPaid) ||
		errors.Is(err, ErrInvoiceInvalidStatus) ||
		errors.Is(err, ErrInvalidMoneyAmount) ||
		errors.Is(err, ErrInvalidCurrency)
}

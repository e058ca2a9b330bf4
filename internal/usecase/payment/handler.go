package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
)

// Check is an additional validation a provider appends to the generic
// ordering (e.g. a currency whitelist). Checks run after the generic ones
// and before any side effect is committed.
type Check func(invoice *domain.Invoice, transaction *domain.Transaction) error

// Handler is the payment state machine. It exclusively owns transitions of
// Invoice.Status and Transaction.Status on the payment path; providers only
// create transactions and call into it under an invoice row lock.
type Handler struct {
	transactions *TransactionHandler
	metrics      *metrics.PaymentMetrics
}

func NewHandler(transactions *TransactionHandler, paymentMetrics *metrics.PaymentMetrics) *Handler {
	return &Handler{
		transactions: transactions,
		metrics:      paymentMetrics,
	}
}

// TryProcessPayment validates and, on success, captures the transaction
// amount on the invoice. Must be called on a transaction-scoped store with
// an exclusive row lock already held on invoice (caller's responsibility).
// Providers append protocol-specific checks via extraChecks.
func (h *Handler) TryProcessPayment(ctx context.Context, store domain.Store, invoice *domain.Invoice, transaction *domain.Transaction, extraChecks ...Check) (*domain.Invoice, error) {
	if err := h.ValidatePayment(invoice, transaction, extraChecks...); err != nil {
		return nil, err
	}
	invoice, err := h.makeInvoiceSuccess(ctx, store, invoice, transaction)
	if err != nil {
		return nil, err
	}
	if h.metrics != nil {
		amount, _ := transaction.MoneyAmount.Float64()
		h.metrics.InvoicesPaidTotal.WithLabelValues(string(transaction.Type)).Inc()
		h.metrics.InvoicesPaidAmountTotal.WithLabelValues(string(transaction.Type)).Add(amount)
	}
	slog.Info("invoice paid",
		"invoice_id", invoice.ID,
		"transaction_id", transaction.ID,
		"provider", string(transaction.Type),
		"amount", transaction.MoneyAmount.String())
	return invoice, nil
}

// ValidatePayment runs the generic checks in their fixed order, then the
// provider extras. Short-circuits on the first failure.
func (h *Handler) ValidatePayment(invoice *domain.Invoice, transaction *domain.Transaction, extraChecks ...Check) error {
	if err := h.ValidateStatusForPay(invoice); err != nil {
		return err
	}
	if err := h.ValidateExpiration(invoice); err != nil {
		return err
	}
	if err := h.ValidateMoneyAmount(invoice, transaction.MoneyAmount); err != nil {
		return err
	}
	for _, check := range extraChecks {
		if err := check(invoice, transaction); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) ValidateStatusForPay(invoice *domain.Invoice) error {
	switch invoice.Status {
	case domain.InvoiceStatusPending:
		return nil
	case domain.InvoiceStatusExpired:
		return domain.ErrInvoiceExpired
	case domain.InvoiceStatusPaid:
		return domain.ErrInvoiceAlreadyPaid
	default:
		return domain.ErrInvoiceInvalidStatus
	}
}

func (h *Handler) ValidateExpiration(invoice *domain.Invoice) error {
	if invoice.ExpiresAt == nil {
		return nil
	}
	if invoice.ExpiresAt.After(time.Now()) {
		return nil
	}
	return domain.ErrInvoiceExpired
}

// ValidateMoneyAmount fails with ErrInsufficientMoneyAmount when the amount
// is strictly less than the invoice total. The plain ErrInvalidMoneyAmount
// kind stays in the taxonomy but is unreachable through this single
// comparison; callers still match it via errors.Is because the insufficient
// kind wraps it.
func (h *Handler) ValidateMoneyAmount(invoice *domain.Invoice, moneyAmount decimal.Decimal) error {
	if invoice.Total.GreaterThan(moneyAmount) {
		return domain.ErrInsufficientMoneyAmount
	}
	return nil
}

// HandlePaymentError records the terminal transaction (and sometimes
// invoice) state for a failed attempt, then returns the original error:
// callers never see a successful exit from a failed payment. Runs its own
// units of work, so it must be called after the failed attempt's
// transaction has rolled back.
func (h *Handler) HandlePaymentError(ctx context.Context, store domain.Store, payErr error, invoiceID string, transaction *domain.Transaction) error {
	var recordErr error
	switch {
	case errors.Is(payErr, domain.ErrInvalidMoneyAmount):
		recordErr = h.transactions.SetInvalidMoneyAmount(ctx, store, transaction)
	case errors.Is(payErr, domain.ErrInvoiceExpired):
		recordErr = h.makeInvoiceExpired(ctx, store, invoiceID, transaction)
	default:
		recordErr = h.transactions.SetError(ctx, store, transaction)
	}
	if recordErr != nil {
		slog.Error("failed to record payment error state",
			"invoice_id", invoiceID,
			"transaction_id", transaction.ID,
			"payment_error", payErr.Error(),
			"error", recordErr.Error())
	}
	if h.metrics != nil {
		h.metrics.PaymentErrorsTotal.WithLabelValues(string(transaction.Type), metrics.ErrorReason(payErr)).Inc()
	}
	return payErr
}

func (h *Handler) makeInvoiceSuccess(ctx context.Context, store domain.Store, invoice *domain.Invoice, transaction *domain.Transaction) (*domain.Invoice, error) {
	if err := h.transactions.SetSuccess(ctx, store, transaction); err != nil {
		return nil, err
	}
	oldStatus := invoice.Status
	captured := transaction.MoneyAmount
	invoice.SuccessTransactionID = &transaction.ID
	invoice.CapturedTotal = &captured
	invoice.Status = domain.InvoiceStatusPaid
	if err := store.Invoices().Update(ctx, invoice); err != nil {
		return nil, err
	}
	if err := h.writeInvoiceHistory(ctx, store, invoice, oldStatus); err != nil {
		return nil, err
	}
	if invoice.SuccessCallback != "" {
		if err := h.enqueueCallback(ctx, store, invoice.ID, invoice.SuccessCallback); err != nil {
			return nil, err
		}
	}
	return invoice, nil
}

// makeInvoiceExpired moves the transaction to INVOICE_EXPIRED and, unless
// the invoice is already EXPIRED, the invoice as well - with one audit row.
func (h *Handler) makeInvoiceExpired(ctx context.Context, store domain.Store, invoiceID string, transaction *domain.Transaction) error {
	if err := h.transactions.SetExpired(ctx, store, transaction); err != nil {
		return err
	}
	return store.Atomically(ctx, func(s domain.Store) error {
		invoice, err := s.Invoices().GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == domain.InvoiceStatusExpired {
			return nil
		}
		oldStatus := invoice.Status
		invoice.Status = domain.InvoiceStatusExpired
		if err := s.Invoices().Update(ctx, invoice); err != nil {
			return err
		}
		if err := h.writeInvoiceHistory(ctx, s, invoice, oldStatus); err != nil {
			return err
		}
		if invoice.FailCallback != "" {
			return h.enqueueCallback(ctx, s, invoice.ID, invoice.FailCallback)
		}
		return nil
	})
}

func (h *Handler) writeInvoiceHistory(ctx context.Context, store domain.Store, invoice *domain.Invoice, oldStatus domain.InvoiceStatus) error {
	return store.Invoices().WriteStatusChange(ctx, &domain.InvoiceStatusChange{
		ID:         uuid.NewString(),
		InvoiceID:  invoice.ID,
		FromStatus: oldStatus,
		ToStatus:   invoice.Status,
		CreatedAt:  time.Now(),
	})
}

func (h *Handler) enqueueCallback(ctx context.Context, store domain.Store, invoiceID, callbackName string) error {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return err
	}
	return store.Outbox().Enqueue(ctx, &domain.CallbackTask{
		ID:        idGenerator(),
		InvoiceID: invoiceID,
		Callback:  callbackName,
		Status:    domain.CallbackTaskPending,
	})
}

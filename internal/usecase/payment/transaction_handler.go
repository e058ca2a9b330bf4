package payment

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionInput describes the base record every provider persists
// before settlement is attempted.
type CreateTransactionInput struct {
	InvoiceID   string
	MoneyAmount decimal.Decimal
	Type        domain.TransactionType
}

// TransactionHandler owns transaction creation and status transitions.
// Every status change is paired with exactly one audit row in the same
// unit of work.
type TransactionHandler struct {
	store domain.Store
}

func NewTransactionHandler(store domain.Store) *TransactionHandler {
	return &TransactionHandler{store: store}
}

func (h *TransactionHandler) Create(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	transaction := &domain.Transaction{
		ID:          uuid.NewString(),
		InvoiceID:   input.InvoiceID,
		MoneyAmount: input.MoneyAmount,
		Type:        input.Type,
		Status:      domain.TransactionStatusPending,
	}
	if err := h.store.Transactions().Create(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

// UpdateStatus atomically writes the new status and appends one audit row
// capturing the old and new values. The store may be a transaction-scoped
// view, in which case the write joins the caller's unit of work.
func (h *TransactionHandler) UpdateStatus(ctx context.Context, store domain.Store, transaction *domain.Transaction, status domain.TransactionStatus) error {
	prev := transaction.Status
	err := store.Atomically(ctx, func(s domain.Store) error {
		if err := s.Transactions().UpdateStatus(ctx, transaction.ID, status); err != nil {
			return err
		}
		return s.Transactions().WriteStatusChange(ctx, &domain.TransactionStatusChange{
			ID:            uuid.NewString(),
			TransactionID: transaction.ID,
			FromStatus:    prev,
			ToStatus:      status,
			CreatedAt:     time.Now(),
		})
	})
	if err != nil {
		return err
	}
	transaction.Status = status
	return nil
}

func (h *TransactionHandler) SetSuccess(ctx context.Context, store domain.Store, transaction *domain.Transaction) error {
	return h.UpdateStatus(ctx, store, transaction, domain.TransactionStatusSuccess)
}

func (h *TransactionHandler) SetExpired(ctx context.Context, store domain.Store, transaction *domain.Transaction) error {
	return h.UpdateStatus(ctx, store, transaction, domain.TransactionStatusInvoiceExpired)
}

func (h *TransactionHandler) SetInvalidMoneyAmount(ctx context.Context, store domain.Store, transaction *domain.Transaction) error {
	return h.UpdateStatus(ctx, store, transaction, domain.TransactionStatusInvalidMoneyAmount)
}

func (h *TransactionHandler) SetError(ctx context.Context, store domain.Store, transaction *domain.Transaction) error {
	return h.UpdateStatus(ctx, store, transaction, domain.TransactionStatusError)
}

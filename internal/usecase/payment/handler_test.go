package payment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/payment"
)

func newHandler(store domain.Store) (*payment.Handler, *payment.TransactionHandler) {
	transactions := payment.NewTransactionHandler(store)
	return payment.NewHandler(transactions, nil), transactions
}

func createInvoice(t *testing.T, store domain.Store, total string, mutate func(*domain.Invoice)) *domain.Invoice {
	t.Helper()
	invoice := &domain.Invoice{
		ID:              uuid.NewString(),
		Total:           decimal.RequireFromString(total),
		SuccessCallback: "on_success",
		Status:          domain.InvoiceStatusPending,
	}
	if mutate != nil {
		mutate(invoice)
	}
	require.NoError(t, store.Invoices().Create(context.Background(), invoice))
	return invoice
}

func createTransaction(t *testing.T, transactions *payment.TransactionHandler, invoiceID, amount string) *domain.Transaction {
	t.Helper()
	tr, err := transactions.Create(context.Background(), payment.CreateTransactionInput{
		InvoiceID:   invoiceID,
		MoneyAmount: decimal.RequireFromString(amount),
		Type:        domain.TypeDummy,
	})
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusPending, tr.Status)
	return tr
}

func TestValidateStatusForPay(t *testing.T) {
	handler, _ := newHandler(memory.NewStore())

	cases := []struct {
		status  domain.InvoiceStatus
		wantErr error
	}{
		{domain.InvoiceStatusPending, nil},
		{domain.InvoiceStatusExpired, domain.ErrInvoiceExpired},
		{domain.InvoiceStatusPaid, domain.ErrInvoiceAlreadyPaid},
		{domain.InvoiceStatusCancelled, domain.ErrInvoiceInvalidStatus},
		{domain.InvoiceStatusError, domain.ErrInvoiceInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			err := handler.ValidateStatusForPay(&domain.Invoice{Status: tc.status})
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateExpiration(t *testing.T) {
	handler, _ := newHandler(memory.NewStore())

	t.Run("no deadline", func(t *testing.T) {
		require.NoError(t, handler.ValidateExpiration(&domain.Invoice{}))
	})

	t.Run("future deadline", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		require.NoError(t, handler.ValidateExpiration(&domain.Invoice{ExpiresAt: &future}))
	})

	t.Run("past deadline", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		err := handler.ValidateExpiration(&domain.Invoice{ExpiresAt: &past})
		require.ErrorIs(t, err, domain.ErrInvoiceExpired)
	})
}

func TestValidateMoneyAmount(t *testing.T) {
	handler, _ := newHandler(memory.NewStore())
	invoice := &domain.Invoice{Total: decimal.RequireFromString("100.00")}

	t.Run("insufficient", func(t *testing.T) {
		err := handler.ValidateMoneyAmount(invoice, decimal.RequireFromString("99.99"))
		require.ErrorIs(t, err, domain.ErrInsufficientMoneyAmount)
		require.ErrorIs(t, err, domain.ErrInvalidMoneyAmount)
	})

	t.Run("exact", func(t *testing.T) {
		require.NoError(t, handler.ValidateMoneyAmount(invoice, decimal.RequireFromString("100.00")))
	})

	t.Run("overpayment accepted", func(t *testing.T) {
		require.NoError(t, handler.ValidateMoneyAmount(invoice, decimal.RequireFromString("150.00")))
	})
}

func TestValidatePaymentOrdering(t *testing.T) {
	handler, _ := newHandler(memory.NewStore())
	past := time.Now().Add(-time.Minute)

	t.Run("status precedes expiration and amount", func(t *testing.T) {
		invoice := &domain.Invoice{
			Status:    domain.InvoiceStatusPaid,
			Total:     decimal.RequireFromString("100.00"),
			ExpiresAt: &past,
		}
		tr := &domain.Transaction{MoneyAmount: decimal.RequireFromString("1.00")}
		require.ErrorIs(t, handler.ValidatePayment(invoice, tr), domain.ErrInvoiceAlreadyPaid)
	})

	t.Run("expiration precedes amount", func(t *testing.T) {
		invoice := &domain.Invoice{
			Status:    domain.InvoiceStatusPending,
			Total:     decimal.RequireFromString("100.00"),
			ExpiresAt: &past,
		}
		tr := &domain.Transaction{MoneyAmount: decimal.RequireFromString("1.00")}
		require.ErrorIs(t, handler.ValidatePayment(invoice, tr), domain.ErrInvoiceExpired)
	})

	t.Run("extra checks run last", func(t *testing.T) {
		extraErr := errors.New("extra check failed")
		invoice := &domain.Invoice{
			Status: domain.InvoiceStatusPending,
			Total:  decimal.RequireFromString("100.00"),
		}
		tr := &domain.Transaction{MoneyAmount: decimal.RequireFromString("1.00")}
		err := handler.ValidatePayment(invoice, tr, func(*domain.Invoice, *domain.Transaction) error {
			return extraErr
		})
		require.ErrorIs(t, err, domain.ErrInsufficientMoneyAmount)

		tr.MoneyAmount = decimal.RequireFromString("100.00")
		err = handler.ValidatePayment(invoice, tr, func(*domain.Invoice, *domain.Transaction) error {
			return extraErr
		})
		require.ErrorIs(t, err, extraErr)
	})
}

func TestTryProcessPaymentSuccess(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	handler, transactions := newHandler(store)

	invoice := createInvoice(t, store, "100.00", nil)
	tr := createTransaction(t, transactions, invoice.ID, "100.00")

	err := store.Atomically(ctx, func(s domain.Store) error {
		locked, err := s.Invoices().GetByIDForUpdate(ctx, invoice.ID)
		if err != nil {
			return err
		}
		_, err = handler.TryProcessPayment(ctx, s, locked, tr)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusSuccess, tr.Status)

	stored, err := store.Invoices().GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvoiceStatusPaid, stored.Status)
	require.NotNil(t, stored.SuccessTransactionID)
	require.Equal(t, tr.ID, *stored.SuccessTransactionID)
	require.NotNil(t, stored.CapturedTotal)
	require.True(t, stored.CapturedTotal.Equal(tr.MoneyAmount))

	invoiceHistory, err := store.Invoices().StatusChanges(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, invoiceHistory, 1)
	require.Equal(t, domain.InvoiceStatusPending, invoiceHistory[0].FromStatus)
	require.Equal(t, domain.InvoiceStatusPaid, invoiceHistory[0].ToStatus)

	trHistory, err := store.Transactions().StatusChanges(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, trHistory, 1)
	require.Equal(t, domain.TransactionStatusPending, trHistory[0].FromStatus)
	require.Equal(t, domain.TransactionStatusSuccess, trHistory[0].ToStatus)

	tasks, err := store.Outbox().ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "on_success", tasks[0].Callback)
	require.Equal(t, invoice.ID, tasks[0].InvoiceID)
}

func TestHandlePaymentError(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient amount leaves invoice payable", func(t *testing.T) {
		store := memory.NewStore()
		handler, transactions := newHandler(store)
		invoice := createInvoice(t, store, "100.00", nil)
		tr := createTransaction(t, transactions, invoice.ID, "50.00")

		payErr := handler.ValidatePayment(invoice, tr)
		require.ErrorIs(t, payErr, domain.ErrInsufficientMoneyAmount)

		returned := handler.HandlePaymentError(ctx, store, payErr, invoice.ID, tr)
		require.Equal(t, payErr, returned)
		require.Equal(t, domain.TransactionStatusInvalidMoneyAmount, tr.Status)

		stored, err := store.Invoices().GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvoiceStatusPending, stored.Status)

		history, err := store.Invoices().StatusChanges(ctx, invoice.ID)
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("expiration moves invoice to expired once", func(t *testing.T) {
		store := memory.NewStore()
		handler, transactions := newHandler(store)
		past := time.Now().Add(-time.Minute)
		invoice := createInvoice(t, store, "100.00", func(i *domain.Invoice) {
			i.ExpiresAt = &past
			i.FailCallback = "on_fail"
		})
		tr := createTransaction(t, transactions, invoice.ID, "100.00")

		payErr := handler.ValidatePayment(invoice, tr)
		require.ErrorIs(t, payErr, domain.ErrInvoiceExpired)

		returned := handler.HandlePaymentError(ctx, store, payErr, invoice.ID, tr)
		require.Equal(t, payErr, returned)
		require.Equal(t, domain.TransactionStatusInvoiceExpired, tr.Status)

		stored, err := store.Invoices().GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvoiceStatusExpired, stored.Status)

		history, err := store.Invoices().StatusChanges(ctx, invoice.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)

		tasks, err := store.Outbox().ClaimPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		require.Equal(t, "on_fail", tasks[0].Callback)

		// A second attempt on the already expired invoice records its own
		// transaction state but adds no invoice audit row.
		tr2 := createTransaction(t, transactions, invoice.ID, "100.00")
		_ = handler.HandlePaymentError(ctx, store, domain.ErrInvoiceExpired, invoice.ID, tr2)
		require.Equal(t, domain.TransactionStatusInvoiceExpired, tr2.Status)

		history, err = store.Invoices().StatusChanges(ctx, invoice.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
	})

	t.Run("unexpected error maps to ERROR state", func(t *testing.T) {
		store := memory.NewStore()
		handler, transactions := newHandler(store)
		invoice := createInvoice(t, store, "100.00", nil)
		tr := createTransaction(t, transactions, invoice.ID, "100.00")

		cause := errors.New("provider exploded")
		returned := handler.HandlePaymentError(ctx, store, cause, invoice.ID, tr)
		require.Equal(t, cause, returned)
		require.Equal(t, domain.TransactionStatusError, tr.Status)

		stored, err := store.Invoices().GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvoiceStatusPending, stored.Status)
	})
}

func TestConcurrentPaymentsExactlyOneSucceeds(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	handler, transactions := newHandler(store)
	invoice := createInvoice(t, store, "100.00", nil)

	const attempts = 8
	trs := make([]*domain.Transaction, attempts)
	for i := range trs {
		trs[i] = createTransaction(t, transactions, invoice.ID, "100.00")
	}

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.Atomically(ctx, func(s domain.Store) error {
				locked, err := s.Invoices().GetByIDForUpdate(ctx, invoice.ID)
				if err != nil {
					return err
				}
				_, err = handler.TryProcessPayment(ctx, s, locked, trs[i])
				return err
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInvoiceAlreadyPaid)
	}
	require.Equal(t, 1, succeeded)

	stored, err := store.Invoices().GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvoiceStatusPaid, stored.Status)
	require.NotNil(t, stored.CapturedTotal)
	require.True(t, stored.CapturedTotal.Equal(stored.Total))
}

package cloudpayments_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-payment-gateway/internal/provider/cloudpayments"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/payment"
)

func newProvider(store domain.Store) *cloudpayments.Provider {
	transactions := payment.NewTransactionHandler(store)
	payments := payment.NewHandler(transactions, nil)
	return cloudpayments.NewProvider(store, payments, transactions, nil, nil, []string{"RUB", "EUR"})
}

func newInvoice(t *testing.T, store domain.Store, total string, mutate func(*domain.Invoice)) *domain.Invoice {
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

func notification(invoiceID string, providerTxID int64, amount, currency string) cloudpayments.Notification {
	return cloudpayments.Notification{
		TransactionID: providerTxID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      currency,
		DateTime:      time.Now(),
		InvoiceID:     invoiceID,
		OperationType: "Payment",
		Status:        "Authorized",
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts payable invoice", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)

		code, err := provider.Check(ctx, notification(invoice.ID, 1001, "100.00", "RUB"))
		require.NoError(t, err)
		require.Equal(t, cloudpayments.CodeOK, code)

		stored, err := store.Transactions().GetCloudPaymentsByProviderTxID(ctx, 1001)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusPending, stored.Status)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)

		code, err := provider.Check(ctx, notification("missing", 1002, "100.00", "RUB"))
		require.NoError(t, err)
		require.Equal(t, cloudpayments.CodeInvalidInvoiceID, code)
	})

	t.Run("insufficient amount", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)

		code, err := provider.Check(ctx, notification(invoice.ID, 1003, "50.00", "RUB"))
		require.NoError(t, err)
		require.Equal(t, cloudpayments.CodeInvalidMoneyAmount, code)

		stored, err := store.Transactions().GetCloudPaymentsByProviderTxID(ctx, 1003)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusInvalidMoneyAmount, stored.Status)
	})

	t.Run("expired invoice", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		past := time.Now().Add(-time.Minute)
		invoice := newInvoice(t, store, "100.00", func(i *domain.Invoice) {
			i.ExpiresAt = &past
		})

		code, err := provider.Check(ctx, notification(invoice.ID, 1004, "100.00", "RUB"))
		require.NoError(t, err)
		require.Equal(t, cloudpayments.CodePaymentExpired, code)

		stored, err := store.Invoices().GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvoiceStatusExpired, stored.Status)
	})

	t.Run("rejected currency", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)

		code, err := provider.Check(ctx, notification(invoice.ID, 1005, "100.00", "USD"))
		require.NoError(t, err)
		require.Equal(t, cloudpayments.CodeUnprocessable, code)
	})

	t.Run("repeated check creates fresh transactions", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)

		for i, providerTxID := range []int64{1006, 1007} {
			code, err := provider.Check(ctx, notification(invoice.ID, providerTxID, "100.00", "RUB"))
			require.NoError(t, err)
			require.Equal(t, cloudpayments.CodeOK, code)

			transactions, err := store.Transactions().ListByInvoiceID(ctx, invoice.ID)
			require.NoError(t, err)
			require.Len(t, transactions, i+1)
		}
	})
}

func TestPay(t *testing.T) {
	ctx := context.Background()

	t.Run("settles checked transaction", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)

		code, err := provider.Check(ctx, notification(invoice.ID, 2001, "100.00", "RUB"))
		require.NoError(t, err)
		require.Equal(t, cloudpayments.CodeOK, code)

		payNotification := notification(invoice.ID, 2001, "100.00", "RUB")
		payNotification.GatewayName = "Tinkoff"
		payNotification.Token = "card-token"
		fee := decimal.RequireFromString("2.50")
		payNotification.TotalFee = &fee

		paid, tr, err := provider.Pay(ctx, payNotification)
		require.NoError(t, err)
		require.Equal(t, domain.InvoiceStatusPaid, paid.Status)
		require.Equal(t, domain.TransactionStatusSuccess, tr.Status)

		stored, err := store.Transactions().GetCloudPaymentsByProviderTxID(ctx, 2001)
		require.NoError(t, err)
		require.Equal(t, "Tinkoff", stored.GatewayName)
		require.Equal(t, "card-token", stored.Token)
		require.NotNil(t, stored.TotalFee)
		require.True(t, stored.TotalFee.Equal(fee))
	})

	t.Run("pay without check fails", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)

		_, _, err := provider.Pay(ctx, notification(invoice.ID, 2002, "100.00", "RUB"))
		require.ErrorIs(t, err, domain.ErrTransactionNotFound)
		require.Equal(t, cloudpayments.CodeUnprocessable, cloudpayments.PaymentErrorToCode(err))
	})

	t.Run("second pay for the same invoice declines", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)

		for _, providerTxID := range []int64{2003, 2004} {
			code, err := provider.Check(ctx, notification(invoice.ID, providerTxID, "100.00", "RUB"))
			require.NoError(t, err)
			require.Equal(t, cloudpayments.CodeOK, code)
		}

		_, _, err := provider.Pay(ctx, notification(invoice.ID, 2003, "100.00", "RUB"))
		require.NoError(t, err)

		_, _, err = provider.Pay(ctx, notification(invoice.ID, 2004, "100.00", "RUB"))
		require.ErrorIs(t, err, domain.ErrInvoiceAlreadyPaid)
	})
}

func TestPaymentErrorToCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want cloudpayments.ResultCode
	}{
		{"nil", nil, cloudpayments.CodeOK},
		{"invalid amount", domain.ErrInvalidMoneyAmount, cloudpayments.CodeInvalidMoneyAmount},
		{"insufficient amount", domain.ErrInsufficientMoneyAmount, cloudpayments.CodeInvalidMoneyAmount},
		{"expired", domain.ErrInvoiceExpired, cloudpayments.CodePaymentExpired},
		{"missing invoice", domain.ErrInvoiceNotFound, cloudpayments.CodeInvalidInvoiceID},
		{"already paid", domain.ErrInvoiceAlreadyPaid, cloudpayments.CodeUnprocessable},
		{"invalid currency", domain.ErrInvalidCurrency, cloudpayments.CodeUnprocessable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, cloudpayments.PaymentErrorToCode(tc.err))
		})
	}
}

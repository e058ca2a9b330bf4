package walletone_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-payment-gateway/internal/provider/walletone"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/payment"
)

func newProvider(store domain.Store) *walletone.Provider {
	transactions := payment.NewTransactionHandler(store)
	payments := payment.NewHandler(transactions, nil)
	return walletone.NewProvider(store, payments, transactions, nil, nil, walletone.Config{
		MerchantID:        "123456789",
		SecretKey:         "secret",
		CurrencyID:        643,
		SuccessURL:        "https://shop.example/success",
		FailURL:           "https://shop.example/fail",
		DescriptionDetail: "description",
		HashAlgorithm:     walletone.HashSHA1,
	})
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

func notification(invoiceID, orderID, amount string) walletone.ConfirmNotification {
	return walletone.ConfirmNotification{
		OrderID:       orderID,
		MerchantID:    "123456789",
		PaymentAmount: decimal.RequireFromString(amount),
		CurrencyID:    643,
		PaymentNo:     invoiceID,
		OrderState:    "Accepted",
		NotifyCount:   1,
	}
}

func TestTryPaySuccess(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	provider := newProvider(store)
	invoice := newInvoice(t, store, "100.00", nil)

	paid, tr, err := provider.TryPay(ctx, notification(invoice.ID, "w1-order-1", "100.00"))
	require.NoError(t, err)
	require.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	require.Equal(t, domain.TransactionStatusSuccess, tr.Status)
	require.Equal(t, "w1-order-1", tr.OrderID)

	stored, err := store.Transactions().GetWalletOneByOrderID(ctx, "w1-order-1")
	require.NoError(t, err)
	require.Equal(t, tr.ID, stored.ID)
	require.Equal(t, domain.TransactionStatusSuccess, stored.Status)
}

func TestTryPayReplay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	provider := newProvider(store)
	invoice := newInvoice(t, store, "100.00", nil)

	_, first, err := provider.TryPay(ctx, notification(invoice.ID, "w1-order-2", "100.00"))
	require.NoError(t, err)

	redelivery := notification(invoice.ID, "w1-order-2", "100.00")
	redelivery.NotifyCount = 3
	now := time.Now()
	redelivery.LastNotifyDate = &now

	paid, replayed, err := provider.TryPay(ctx, redelivery)
	require.NoError(t, err)
	require.Equal(t, first.ID, replayed.ID)
	require.Equal(t, domain.InvoiceStatusPaid, paid.Status)

	// The returned transaction carries the refreshed delivery metadata.
	require.Equal(t, 3, replayed.NotifyCount)
	require.NotNil(t, replayed.LastNotifyDate)
	require.True(t, now.Equal(*replayed.LastNotifyDate))

	// The replay refreshed metadata but the financial state is untouched:
	// still exactly one transaction, still one capture.
	stored, err := store.Transactions().GetWalletOneByOrderID(ctx, "w1-order-2")
	require.NoError(t, err)
	require.Equal(t, 3, stored.NotifyCount)

	transactions, err := store.Transactions().ListByInvoiceID(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 1)

	history, err := store.Invoices().StatusChanges(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

// pendingTransaction persists a WalletOne transaction that never reached a
// terminal status, as left behind by a delivery that died mid-settlement.
func pendingTransaction(t *testing.T, store domain.Store, invoiceID, orderID, amount string) *domain.WalletOneTransaction {
	t.Helper()
	transaction := &domain.WalletOneTransaction{
		Transaction: domain.Transaction{
			ID:          uuid.NewString(),
			InvoiceID:   invoiceID,
			MoneyAmount: decimal.RequireFromString(amount),
			Type:        domain.TypeWalletOne,
			Status:      domain.TransactionStatusPending,
		},
		OrderID:       orderID,
		MerchantID:    "123456789",
		PaymentAmount: decimal.RequireFromString(amount),
		CurrencyID:    643,
		PaymentNo:     invoiceID,
		OrderState:    "Accepted",
		NotifyCount:   1,
	}
	require.NoError(t, store.Transactions().CreateWalletOne(context.Background(), transaction))
	return transaction
}

func TestTryPayResumesUnfinishedDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("redelivery settles instead of acknowledging", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)
		leftover := pendingTransaction(t, store, invoice.ID, "w1-order-7", "100.00")

		paid, tr, err := provider.TryPay(ctx, notification(invoice.ID, "w1-order-7", "100.00"))
		require.NoError(t, err)
		require.Equal(t, leftover.ID, tr.ID)
		require.Equal(t, domain.TransactionStatusSuccess, tr.Status)
		require.Equal(t, domain.InvoiceStatusPaid, paid.Status)
		require.NotNil(t, paid.SuccessTransactionID)
		require.Equal(t, leftover.ID, *paid.SuccessTransactionID)

		transactions, err := store.Transactions().ListByInvoiceID(ctx, invoice.ID)
		require.NoError(t, err)
		require.Len(t, transactions, 1)
	})

	t.Run("resumed validation failure still answers retry", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)
		leftover := pendingTransaction(t, store, invoice.ID, "w1-order-8", "50.00")

		_, _, err := provider.TryPay(ctx, notification(invoice.ID, "w1-order-8", "50.00"))
		var retry *walletone.RetryError
		require.ErrorAs(t, err, &retry)
		require.Equal(t, "WMI_RESULT=RETRY&WMI_DESCRIPTION=WMI_PAYMENT_AMOUNT not enough", retry.Response())

		stored, err := store.Transactions().GetWalletOneByOrderID(ctx, "w1-order-8")
		require.NoError(t, err)
		require.Equal(t, leftover.ID, stored.ID)
		require.Equal(t, domain.TransactionStatusInvalidMoneyAmount, stored.Status)

		paid, err := store.Invoices().GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvoiceStatusPending, paid.Status)
	})
}

func TestTryPayRetryVocabulary(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown invoice", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)

		_, _, err := provider.TryPay(ctx, notification("missing", "w1-order-3", "100.00"))
		var retry *walletone.RetryError
		require.ErrorAs(t, err, &retry)
		require.Equal(t, "WMI_RESULT=RETRY&WMI_DESCRIPTION=WMI_PAYMENT_NO error", retry.Response())
	})

	t.Run("insufficient amount", func(t *testing.T) {
		store := memory.NewStore()
		provider := newProvider(store)
		invoice := newInvoice(t, store, "100.00", nil)

		_, _, err := provider.TryPay(ctx, notification(invoice.ID, "w1-order-4", "50.00"))
		var retry *walletone.RetryError
		require.ErrorAs(t, err, &retry)
		require.Equal(t, "WMI_RESULT=RETRY&WMI_DESCRIPTION=WMI_PAYMENT_AMOUNT not enough", retry.Response())

		stored, err := store.Transactions().GetWalletOneByOrderID(ctx, "w1-order-4")
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

		_, _, err := provider.TryPay(ctx, notification(invoice.ID, "w1-order-5", "100.00"))
		var retry *walletone.RetryError
		require.ErrorAs(t, err, &retry)
		require.Equal(t, "WMI_RESULT=RETRY&WMI_DESCRIPTION=WMI_PAYMENT_NO Payment timeout", retry.Response())

		stored, err := store.Invoices().GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvoiceStatusExpired, stored.Status)
	})
}

func TestMakeSignedInvoice(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	provider := newProvider(store)

	expiresAt := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	invoice := newInvoice(t, store, "100.00", func(i *domain.Invoice) {
		i.ExpiresAt = &expiresAt
		i.Details = map[string]string{"description": "Оплата заказа"}
	})

	fields, err := provider.MakeSignedInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, "123456789", fields.Get("WMI_MERCHANT_ID"))
	require.Equal(t, "643", fields.Get("WMI_CURRENCY_ID"))
	require.Equal(t, "100.00", fields.Get("WMI_PAYMENT_AMOUNT"))
	require.Equal(t, invoice.ID, fields.Get("WMI_PAYMENT_NO"))
	require.Equal(t, expiresAt.Format("2006-01-02T15:04:05"), fields.Get("WMI_EXPIRED_DATE"))

	description := fields.Get("WMI_DESCRIPTION")
	require.True(t, strings.HasPrefix(description, "BASE64:"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(description, "BASE64:"))
	require.NoError(t, err)
	require.Equal(t, "Оплата заказа", string(decoded))

	encoder := walletone.NewSignEncoder("secret", walletone.HashSHA1)
	require.NoError(t, encoder.Validate(fields))

	t.Run("rejected for paid invoice", func(t *testing.T) {
		_, _, err := provider.TryPay(ctx, notification(invoice.ID, "w1-order-6", "100.00"))
		require.NoError(t, err)

		_, err = provider.MakeSignedInvoice(ctx, invoice.ID)
		require.ErrorIs(t, err, domain.ErrInvoiceAlreadyPaid)
	})
}

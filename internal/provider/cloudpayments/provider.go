package cloudpayments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ResultCode is the fixed response vocabulary of the CloudPayments webhook
// protocol.
type ResultCode int

const (
	CodeOK                 ResultCode = 0
	CodeInvalidInvoiceID   ResultCode = 10
	CodeInvalidAccountID   ResultCode = 11
	CodeInvalidMoneyAmount ResultCode = 12
	CodeUnprocessable      ResultCode = 13
	CodePaymentExpired     ResultCode = 20
)

// Notification is the parsed check/pay payload. Field names follow the
// provider's wire protocol.
type Notification struct {
	TransactionID     int64
	Amount            decimal.Decimal
	Currency          string
	DateTime          time.Time
	CardFirstSix      string
	CardLastFour      string
	CardType          string
	CardExpDate       string
	TestMode          bool
	Status            string
	OperationType     string
	InvoiceID         string
	AccountID         string
	SubscriptionID    string
	TokenRecipient    string
	Name              string
	Email             string
	IPAddress         string
	IPCountry         string
	IPCity            string
	IPRegion          string
	IPDistrict        string
	Issuer            string
	IssuerBankCountry string
	Description       string

	// Pay-specific fields.
	GatewayName string
	Token       string
	TotalFee    *decimal.Decimal
}

// Provider implements the two-phase CloudPayments protocol: check validates
// without capturing so the provider decides whether to charge; pay settles
// the transaction created at the check phase.
type Provider struct {
	store           domain.Store
	payments        *payment.Handler
	transactions    *payment.TransactionHandler
	publisher       domain.PaymentEventPublisher
	metrics         *metrics.PaymentMetrics
	validCurrencies map[string]struct{}
}

func NewProvider(store domain.Store, payments *payment.Handler, transactions *payment.TransactionHandler, publisher domain.PaymentEventPublisher, paymentMetrics *metrics.PaymentMetrics, validCurrencies []string) *Provider {
	allowed := make(map[string]struct{}, len(validCurrencies))
	for _, c := range validCurrencies {
		allowed[c] = struct{}{}
	}
	return &Provider{
		store:           store,
		payments:        payments,
		transactions:    transactions,
		publisher:       publisher,
		metrics:         paymentMetrics,
		validCurrencies: allowed,
	}
}

// currencyCheck appends the currency whitelist to the generic validation
// ordering. The currency lives on the provider payload, so the check is
// built per notification.
func (p *Provider) currencyCheck(currency string) payment.Check {
	return func(invoice *domain.Invoice, transaction *domain.Transaction) error {
		if _, ok := p.validCurrencies[currency]; !ok {
			return domain.ErrInvalidCurrency
		}
		return nil
	}
}

// Check creates a pending transaction and runs validation only, translating
// the outcome into the provider's result code. The invoice is never marked
// paid here. Repeated check calls create fresh transaction rows: the
// protocol has no dedup at this phase.
func (p *Provider) Check(ctx context.Context, notification Notification) (ResultCode, error) {
	exists, err := p.store.Invoices().Exists(ctx, notification.InvoiceID)
	if err != nil {
		return CodeUnprocessable, err
	}
	if !exists {
		slog.Info("invoice from cloudpayments notification does not exist",
			"provider_tx_id", notification.TransactionID,
			"invoice_id", notification.InvoiceID)
		return CodeInvalidInvoiceID, nil
	}

	slog.Info("checking cloudpayments transaction",
		"provider_tx_id", notification.TransactionID,
		"invoice_id", notification.InvoiceID)

	transaction, err := p.createTransaction(ctx, notification)
	if err != nil {
		return CodeUnprocessable, err
	}

	var validationErr error
	err = p.store.Atomically(ctx, func(s domain.Store) error {
		invoice, err := s.Invoices().GetByIDForUpdate(ctx, notification.InvoiceID)
		if err != nil {
			return err
		}
		if err := p.payments.ValidatePayment(invoice, &transaction.Transaction, p.currencyCheck(notification.Currency)); err != nil {
			validationErr = err
		}
		return nil
	})
	if err != nil {
		return CodeUnprocessable, err
	}

	if validationErr != nil {
		// Record the terminal state, but swallow the error: check answers
		// with a result code, not a failure.
		_ = p.payments.HandlePaymentError(ctx, p.store, validationErr, notification.InvoiceID, &transaction.Transaction)
		slog.Info("cloudpayments transaction validation failed",
			"provider_tx_id", notification.TransactionID,
			"detail", validationErr.Error())
		return PaymentErrorToCode(validationErr), nil
	}

	slog.Info("cloudpayments transaction validation success",
		"provider_tx_id", notification.TransactionID,
		"invoice_id", notification.InvoiceID)
	return CodeOK, nil
}

// Pay locates the transaction created at the check phase by the provider's
// transaction id, attaches the settlement metadata and runs the success
// path under the invoice row lock.
func (p *Provider) Pay(ctx context.Context, notification Notification) (*domain.Invoice, *domain.CloudPaymentsTransaction, error) {
	started := time.Now()
	slog.Info("paying cloudpayments transaction",
		"provider_tx_id", notification.TransactionID,
		"invoice_id", notification.InvoiceID)

	var (
		invoice     *domain.Invoice
		transaction *domain.CloudPaymentsTransaction
	)
	err := p.store.Atomically(ctx, func(s domain.Store) error {
		var err error
		transaction, err = s.Transactions().GetCloudPaymentsByProviderTxID(ctx, notification.TransactionID)
		if err != nil {
			return err
		}
		if err := s.Transactions().AttachCloudPaymentsSettlement(ctx, notification.TransactionID,
			notification.GatewayName, notification.Token, notification.TotalFee); err != nil {
			return err
		}
		locked, err := s.Invoices().GetByIDForUpdate(ctx, notification.InvoiceID)
		if err != nil {
			return err
		}
		invoice, err = p.payments.TryProcessPayment(ctx, s, locked, &transaction.Transaction, p.currencyCheck(notification.Currency))
		return err
	})
	if p.metrics != nil {
		p.metrics.PaymentProcessingDuration.WithLabelValues(string(domain.TypeCloudPayments)).Observe(time.Since(started).Seconds())
	}
	if err != nil {
		if transaction != nil && domain.IsPaymentError(err) {
			err = p.payments.HandlePaymentError(ctx, p.store, err, notification.InvoiceID, &transaction.Transaction)
			slog.Warn("payment error for cloudpayments provider",
				"invoice_id", notification.InvoiceID,
				"transaction_id", transaction.ID,
				"error", err.Error())
		}
		return nil, transaction, err
	}

	slog.Info("invoice paid using cloudpayments",
		"invoice_id", notification.InvoiceID,
		"transaction_id", transaction.ID)
	p.publishPaid(invoice, &transaction.Transaction)
	return invoice, transaction, nil
}

// PaymentErrorToCode is the deterministic error-to-code translation of the
// protocol. Unknown-transaction and unknown-invoice lookups map to their
// dedicated codes; everything else unprocessable.
func PaymentErrorToCode(err error) ResultCode {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, domain.ErrInvalidMoneyAmount):
		return CodeInvalidMoneyAmount
	case errors.Is(err, domain.ErrInvoiceExpired):
		return CodePaymentExpired
	case errors.Is(err, domain.ErrInvoiceNotFound):
		return CodeInvalidInvoiceID
	default:
		return CodeUnprocessable
	}
}

func (p *Provider) createTransaction(ctx context.Context, notification Notification) (*domain.CloudPaymentsTransaction, error) {
	transaction := &domain.CloudPaymentsTransaction{
		Transaction: domain.Transaction{
			ID:          uuid.NewString(),
			InvoiceID:   notification.InvoiceID,
			MoneyAmount: notification.Amount,
			Type:        domain.TypeCloudPayments,
			Status:      domain.TransactionStatusPending,
		},
		ProviderTxID:      notification.TransactionID,
		Amount:            notification.Amount,
		Currency:          notification.Currency,
		DateTime:          notification.DateTime,
		CardFirstSix:      notification.CardFirstSix,
		CardLastFour:      notification.CardLastFour,
		CardType:          notification.CardType,
		CardExpDate:       notification.CardExpDate,
		TestMode:          notification.TestMode,
		ProviderStatus:    notification.Status,
		OperationType:     notification.OperationType,
		AccountID:         notification.AccountID,
		SubscriptionID:    notification.SubscriptionID,
		TokenRecipient:    notification.TokenRecipient,
		Name:              notification.Name,
		Email:             notification.Email,
		IPAddress:         notification.IPAddress,
		IPCountry:         notification.IPCountry,
		IPCity:            notification.IPCity,
		IPRegion:          notification.IPRegion,
		IPDistrict:        notification.IPDistrict,
		Issuer:            notification.Issuer,
		IssuerBankCountry: notification.IssuerBankCountry,
		Description:       notification.Description,
	}
	if err := p.store.Transactions().CreateCloudPayments(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (p *Provider) publishPaid(invoice *domain.Invoice, transaction *domain.Transaction) {
	if p.publisher == nil {
		return
	}
	go func(event domain.PaymentEvent) {
		if err := p.publisher.PublishPaymentEvent(event); err != nil {
			slog.Error("failed to publish payment event", "invoice_id", event.InvoiceID, "error", err.Error())
		}
	}(domain.PaymentEvent{
		InvoiceID:  invoice.ID,
		Status:     string(invoice.Status),
		Provider:   string(domain.TypeCloudPayments),
		Amount:     transaction.MoneyAmount.String(),
		OccurredAt: time.Now(),
	})
}

package walletone

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrBadSignature is a protocol-level error: rejected before any
// transaction is created.
var ErrBadSignature = errors.New("walletone signature mismatch")

// RetryError carries the provider's fixed retry vocabulary. Distinct from
// the payment taxonomy: the webhook answers with its own response body, not
// with a structured API error.
type RetryError struct {
	Description string
}

func (e *RetryError) Error() string {
	return "walletone retry: " + e.Description
}

// Response renders the exact webhook response body.
func (e *RetryError) Response() string {
	if e.Description == "" {
		return "WMI_RESULT=RETRY"
	}
	return "WMI_RESULT=RETRY&WMI_DESCRIPTION=" + e.Description
}

// Retry descriptions the provider documents.
const (
	RetryBadSignature    = "WMI_SIGNATURE error"
	RetryBadPaymentNo    = "WMI_PAYMENT_NO error"
	RetryAmountNotEnough = "WMI_PAYMENT_AMOUNT not enough"
	RetryPaymentTimeout  = "WMI_PAYMENT_NO Payment timeout"
)

// Config is the merchant-side protocol configuration.
type Config struct {
	MerchantID        string
	SecretKey         string
	CurrencyID        int
	SuccessURL        string
	FailURL           string
	DescriptionDetail string
	HashAlgorithm     string
}

// ConfirmNotification is the parsed confirm payload. Raw keeps every
// submitted field for signature validation.
type ConfirmNotification struct {
	OrderID           string
	MerchantID        string
	PaymentAmount     decimal.Decimal
	CommissionAmount  decimal.Decimal
	CurrencyID        int
	ToUserID          string
	PaymentNo         string
	Description       string
	SuccessURL        string
	FailURL           string
	ExpiredDate       time.Time
	CreateDate        time.Time
	UpdateDate        time.Time
	OrderState        string
	NotifyCount       int
	ExternalAccountID string
	AutoAccept        string
	LastNotifyDate    *time.Time
	InvoiceOperations string
	PaymentType       string

	Raw url.Values
}

// Provider implements the single-phase, idempotent-replay-aware WalletOne
// protocol.
type Provider struct {
	store        domain.Store
	payments     *payment.Handler
	transactions *payment.TransactionHandler
	publisher    domain.PaymentEventPublisher
	metrics      *metrics.PaymentMetrics
	encoder      *SignEncoder
	config       Config
}

func NewProvider(store domain.Store, payments *payment.Handler, transactions *payment.TransactionHandler, publisher domain.PaymentEventPublisher, paymentMetrics *metrics.PaymentMetrics, config Config) *Provider {
	return &Provider{
		store:        store,
		payments:     payments,
		transactions: transactions,
		publisher:    publisher,
		metrics:      paymentMetrics,
		encoder:      NewSignEncoder(config.SecretKey, config.HashAlgorithm),
		config:       config,
	}
}

// ValidateSignature checks the submitted WMI_SIGNATURE over all submitted
// fields. Protocol boundary: no state is touched before this passes.
func (p *Provider) ValidateSignature(fields url.Values) error {
	return p.encoder.Validate(fields)
}

// MakeSignedInvoice returns the signed field set the caller hands to the
// provider to start a payment.
func (p *Provider) MakeSignedInvoice(ctx context.Context, invoiceID string) (url.Values, error) {
	invoice, err := p.store.Invoices().GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := p.payments.ValidateStatusForPay(invoice); err != nil {
		return nil, err
	}
	if err := p.payments.ValidateExpiration(invoice); err != nil {
		return nil, err
	}

	fields := url.Values{}
	fields.Set("WMI_MERCHANT_ID", p.config.MerchantID)
	fields.Set("WMI_CURRENCY_ID", strconv.Itoa(p.config.CurrencyID))
	fields.Set("WMI_DESCRIPTION", p.encodedDescription(invoice))
	fields.Set("WMI_SUCCESS_URL", p.config.SuccessURL)
	fields.Set("WMI_FAIL_URL", p.config.FailURL)
	fields.Set("WMI_PAYMENT_AMOUNT", invoice.Total.StringFixed(2))
	fields.Set("WMI_PAYMENT_NO", invoice.ID)
	if invoice.ExpiresAt != nil {
		fields.Set("WMI_EXPIRED_DATE", invoice.ExpiresAt.UTC().Format("2006-01-02T15:04:05"))
	}
	signature, err := p.encoder.Signature(fields)
	if err != nil {
		return nil, err
	}
	fields.Set(SignatureField, signature)
	return fields, nil
}

// TryPay settles a confirm notification. A known order id whose attempt
// already ran to a terminal status is an idempotent replay: notification
// metadata is refreshed and the stored pair is returned unchanged. A known
// order id still in PENDING is a delivery that never finished; it is resumed
// through the orchestrator, never acknowledged as settled. Payment errors
// are recorded through the payment handler, then translated into the
// provider's retry vocabulary.
func (p *Provider) TryPay(ctx context.Context, notification ConfirmNotification) (*domain.Invoice, *domain.WalletOneTransaction, error) {
	started := time.Now()
	invoiceID := notification.PaymentNo

	var (
		invoice     *domain.Invoice
		transaction *domain.WalletOneTransaction
		replayed    bool
	)
	err := p.store.Atomically(ctx, func(s domain.Store) error {
		var err error
		invoice, err = s.Invoices().GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		existing, err := s.Transactions().GetWalletOneByOrderID(ctx, notification.OrderID)
		if err != nil && !errors.Is(err, domain.ErrTransactionNotFound) {
			return err
		}
		if existing != nil {
			refreshed := domain.WalletOneNotification{
				OrderState:     notification.OrderState,
				NotifyCount:    notification.NotifyCount,
				LastNotifyDate: notification.LastNotifyDate,
				UpdateDate:     notification.UpdateDate,
			}
			if err := s.Transactions().UpdateWalletOneNotification(ctx, existing.OrderID, refreshed); err != nil {
				return err
			}
			existing.OrderState = refreshed.OrderState
			existing.NotifyCount = refreshed.NotifyCount
			existing.LastNotifyDate = refreshed.LastNotifyDate
			existing.UpdateDate = refreshed.UpdateDate
			transaction = existing
			replayed = existing.Status != domain.TransactionStatusPending
			return nil
		}
		transaction = p.newTransaction(invoiceID, notification)
		return s.Transactions().CreateWalletOne(ctx, transaction)
	})
	if err != nil {
		return nil, nil, p.translateError(err)
	}
	if replayed {
		slog.Info("walletone notification replayed",
			"invoice_id", invoiceID,
			"order_id", notification.OrderID,
			"transaction_id", transaction.ID)
		return invoice, transaction, nil
	}

	err = p.store.Atomically(ctx, func(s domain.Store) error {
		locked, err := s.Invoices().GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		// A concurrent delivery of the same order id may have settled the
		// pending transaction between the two units.
		if locked.SuccessTransactionID != nil && *locked.SuccessTransactionID == transaction.ID {
			invoice = locked
			transaction.Status = domain.TransactionStatusSuccess
			return nil
		}
		invoice, err = p.payments.TryProcessPayment(ctx, s, locked, &transaction.Transaction)
		return err
	})
	if p.metrics != nil {
		p.metrics.PaymentProcessingDuration.WithLabelValues(string(domain.TypeWalletOne)).Observe(time.Since(started).Seconds())
	}
	if err != nil {
		if domain.IsPaymentError(err) {
			err = p.payments.HandlePaymentError(ctx, p.store, err, invoiceID, &transaction.Transaction)
		}
		return nil, nil, p.translateError(err)
	}

	p.publishPaid(invoice, transaction)
	return invoice, transaction, nil
}

// translateError maps any settlement failure into the provider's fixed
// retry directives.
func (p *Provider) translateError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvoiceNotFound), errors.Is(err, domain.ErrDuplicateOrderID):
		return &RetryError{Description: RetryBadPaymentNo}
	case errors.Is(err, domain.ErrInvalidMoneyAmount):
		return &RetryError{Description: RetryAmountNotEnough}
	case errors.Is(err, domain.ErrInvoiceExpired):
		return &RetryError{Description: RetryPaymentTimeout}
	default:
		return &RetryError{Description: RetryBadPaymentNo}
	}
}

func (p *Provider) encodedDescription(invoice *domain.Invoice) string {
	desc := invoice.Detail(p.config.DescriptionDetail, "Purchase payment")
	if len(desc) > 255 {
		desc = desc[:252] + "..."
	}
	return "BASE64:" + base64.StdEncoding.EncodeToString([]byte(desc))
}

func (p *Provider) newTransaction(invoiceID string, n ConfirmNotification) *domain.WalletOneTransaction {
	return &domain.WalletOneTransaction{
		Transaction: domain.Transaction{
			ID:          uuid.NewString(),
			InvoiceID:   invoiceID,
			MoneyAmount: n.PaymentAmount,
			Type:        domain.TypeWalletOne,
			Status:      domain.TransactionStatusPending,
		},
		OrderID:           n.OrderID,
		MerchantID:        n.MerchantID,
		PaymentAmount:     n.PaymentAmount,
		CommissionAmount:  n.CommissionAmount,
		CurrencyID:        n.CurrencyID,
		ToUserID:          n.ToUserID,
		PaymentNo:         n.PaymentNo,
		Description:       n.Description,
		SuccessURL:        n.SuccessURL,
		FailURL:           n.FailURL,
		ExpiredDate:       n.ExpiredDate,
		CreateDate:        n.CreateDate,
		UpdateDate:        n.UpdateDate,
		OrderState:        n.OrderState,
		NotifyCount:       n.NotifyCount,
		ExternalAccountID: n.ExternalAccountID,
		AutoAccept:        n.AutoAccept,
		LastNotifyDate:    n.LastNotifyDate,
		InvoiceOperations: n.InvoiceOperations,
		PaymentType:       n.PaymentType,
	}
}

func (p *Provider) publishPaid(invoice *domain.Invoice, transaction *domain.WalletOneTransaction) {
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
		Provider:   string(domain.TypeWalletOne),
		Amount:     transaction.MoneyAmount.String(),
		OccurredAt: time.Now(),
	})
}

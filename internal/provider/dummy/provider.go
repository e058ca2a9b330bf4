package dummy

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/payment"
	"github.com/shopspring/decimal"
)

// TransactionInput is the single-phase payload for direct/manual settlement.
type TransactionInput struct {
	InvoiceID   string
	MoneyAmount decimal.Decimal
}

// Provider is the synchronous test provider: no network protocol, one call
// settles or fails.
type Provider struct {
	store        domain.Store
	payments     *payment.Handler
	transactions *payment.TransactionHandler
	publisher    domain.PaymentEventPublisher
	metrics      *metrics.PaymentMetrics
}

func NewProvider(store domain.Store, payments *payment.Handler, transactions *payment.TransactionHandler, publisher domain.PaymentEventPublisher, paymentMetrics *metrics.PaymentMetrics) *Provider {
	return &Provider{
		store:        store,
		payments:     payments,
		transactions: transactions,
		publisher:    publisher,
		metrics:      paymentMetrics,
	}
}

// TryPay creates a pending transaction, then settles it under the invoice
// row lock. On a payment error the terminal state is recorded and the error
// returned to the caller.
func (p *Provider) TryPay(ctx context.Context, input TransactionInput) (*domain.Invoice, *domain.Transaction, error) {
	started := time.Now()
	if _, err := p.store.Invoices().GetByID(ctx, input.InvoiceID); err != nil {
		return nil, nil, err
	}

	transaction, err := p.transactions.Create(ctx, payment.CreateTransactionInput{
		InvoiceID:   input.InvoiceID,
		MoneyAmount: input.MoneyAmount,
		Type:        domain.TypeDummy,
	})
	if err != nil {
		return nil, nil, err
	}

	var invoice *domain.Invoice
	err = p.store.Atomically(ctx, func(s domain.Store) error {
		locked, err := s.Invoices().GetByIDForUpdate(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		invoice, err = p.payments.TryProcessPayment(ctx, s, locked, transaction)
		return err
	})
	if p.metrics != nil {
		p.metrics.PaymentProcessingDuration.WithLabelValues(string(domain.TypeDummy)).Observe(time.Since(started).Seconds())
	}
	if err != nil {
		if domain.IsPaymentError(err) {
			return nil, transaction, p.payments.HandlePaymentError(ctx, p.store, err, input.InvoiceID, transaction)
		}
		return nil, transaction, err
	}

	p.publishPaid(invoice, transaction)
	return invoice, transaction, nil
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
		Provider:   string(domain.TypeDummy),
		Amount:     transaction.MoneyAmount.String(),
		OccurredAt: time.Now(),
	})
}

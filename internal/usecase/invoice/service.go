package invoice

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/callback"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
)

type CreateInvoiceInput struct {
	Total           decimal.Decimal
	SuccessCallback string
	FailCallback    string
	ExpiresAt       *time.Time
	Details         map[string]string
}

// Service implements the service-level lifecycle helpers. Cancel and expire
// unconditionally overwrite the status with one audit row, bypassing the
// payment handler's validation ordering: that laxity is scoped to trusted
// internal callers (operator actions, the expiry sweep).
type Service struct {
	store     domain.Store
	callbacks *callback.Registry
	publisher domain.PaymentEventPublisher
	metrics   *metrics.PaymentMetrics
}

func NewService(store domain.Store, callbacks *callback.Registry, publisher domain.PaymentEventPublisher, paymentMetrics *metrics.PaymentMetrics) *Service {
	return &Service{
		store:     store,
		callbacks: callbacks,
		publisher: publisher,
		metrics:   paymentMetrics,
	}
}

// CreateInvoice persists a new PENDING invoice. Callback names are resolved
// against the registry up front, so a misconfigured hook fails at issue time
// rather than at capture time.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*domain.Invoice, error) {
	if _, err := s.callbacks.Resolve(input.SuccessCallback); err != nil {
		return nil, err
	}
	if input.FailCallback != "" {
		if _, err := s.callbacks.Resolve(input.FailCallback); err != nil {
			return nil, err
		}
	}

	invoice := &domain.Invoice{
		ID:              uuid.NewString(),
		Total:           input.Total,
		ExpiresAt:       input.ExpiresAt,
		SuccessCallback: input.SuccessCallback,
		FailCallback:    input.FailCallback,
		Status:          domain.InvoiceStatusPending,
		Details:         input.Details,
	}
	if err := s.store.Invoices().Create(ctx, invoice); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.InvoicesCreatedTotal.Inc()
	}
	slog.Info("invoice created", "invoice_id", invoice.ID, "total", invoice.Total.String())
	return invoice, nil
}

func (s *Service) CancelInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.setInvoiceStatus(ctx, invoiceID, domain.InvoiceStatusCancelled)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.InvoicesCancelledTotal.Inc()
	}
	s.publishEvent(invoice)
	return invoice, nil
}

func (s *Service) ExpireInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.setInvoiceStatus(ctx, invoiceID, domain.InvoiceStatusExpired)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.InvoicesExpiredTotal.Inc()
	}
	s.publishEvent(invoice)
	return invoice, nil
}

// ExpireDueInvoices expires every PENDING invoice whose expires_at has
// passed. Run periodically from main.
func (s *Service) ExpireDueInvoices(ctx context.Context) error {
	due, err := s.store.Invoices().FindDuePending(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, invoice := range due {
		if _, err := s.ExpireInvoice(ctx, invoice.ID); err != nil {
			slog.Error("failed to expire invoice", "invoice_id", invoice.ID, "error", err.Error())
			continue
		}
		slog.Info("invoice expired by sweep", "invoice_id", invoice.ID)
	}
	return nil
}

func (s *Service) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.store.Invoices().GetByID(ctx, invoiceID)
}

func (s *Service) GetInvoiceHistory(ctx context.Context, invoiceID string) ([]*domain.InvoiceStatusChange, error) {
	return s.store.Invoices().StatusChanges(ctx, invoiceID)
}

func (s *Service) ListTransactions(ctx context.Context, invoiceID string) ([]*domain.Transaction, error) {
	return s.store.Transactions().ListByInvoiceID(ctx, invoiceID)
}

// setInvoiceStatus overwrites the status under the invoice row lock and
// appends one audit row, without the payment handler's checks. A fail
// callback, when configured, is enqueued for non-PAID terminal overwrites
// of a PENDING invoice.
func (s *Service) setInvoiceStatus(ctx context.Context, invoiceID string, status domain.InvoiceStatus) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.store.Atomically(ctx, func(st domain.Store) error {
		var err error
		invoice, err = st.Invoices().GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		oldStatus := invoice.Status
		invoice.Status = status
		if err := st.Invoices().Update(ctx, invoice); err != nil {
			return err
		}
		if err := st.Invoices().WriteStatusChange(ctx, &domain.InvoiceStatusChange{
			ID:         uuid.NewString(),
			InvoiceID:  invoice.ID,
			FromStatus: oldStatus,
			ToStatus:   status,
			CreatedAt:  time.Now(),
		}); err != nil {
			return err
		}
		if oldStatus == domain.InvoiceStatusPending && invoice.FailCallback != "" {
			idGenerator, err := nanoid.Standard(15)
			if err != nil {
				return err
			}
			return st.Outbox().Enqueue(ctx, &domain.CallbackTask{
				ID:        idGenerator(),
				InvoiceID: invoice.ID,
				Callback:  invoice.FailCallback,
				Status:    domain.CallbackTaskPending,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Service) publishEvent(invoice *domain.Invoice) {
	if s.publisher == nil {
		return
	}
	go func(event domain.PaymentEvent) {
		if err := s.publisher.PublishPaymentEvent(event); err != nil {
			slog.Error("failed to publish payment event", "invoice_id", event.InvoiceID, "error", err.Error())
		}
	}(domain.PaymentEvent{
		InvoiceID:  invoice.ID,
		Status:     string(invoice.Status),
		Amount:     invoice.Total.String(),
		OccurredAt: time.Now(),
	})
}

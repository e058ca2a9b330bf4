package metrics

import (
	"errors"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics holds all gateway metrics.
type PaymentMetrics struct {
	InvoicesCreatedTotal   prometheus.Counter
	InvoicesCancelledTotal prometheus.Counter
	InvoicesExpiredTotal   prometheus.Counter

	InvoicesPaidTotal       *prometheus.CounterVec
	InvoicesPaidAmountTotal *prometheus.CounterVec

	PaymentErrorsTotal *prometheus.CounterVec

	PaymentProcessingDuration *prometheus.HistogramVec

	CallbacksDispatchedTotal *prometheus.CounterVec
}

func NewPaymentMetrics() *PaymentMetrics {
	return &PaymentMetrics{
		InvoicesCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "invoices_created_total",
			Help: "Total number of invoices issued",
		}),

		InvoicesCancelledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "invoices_cancelled_total",
			Help: "Total number of invoices cancelled by operators",
		}),

		InvoicesExpiredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "invoices_expired_total",
			Help: "Total number of invoices moved to EXPIRED",
		}),

		InvoicesPaidTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoices_paid_total",
				Help: "Total number of invoices captured, by provider",
			},
			[]string{"provider"},
		),

		InvoicesPaidAmountTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoices_paid_amount_total",
				Help: "Total captured amount, by provider",
			},
			[]string{"provider"},
		),

		PaymentErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_errors_total",
				Help: "Failed payment attempts, by provider and reason",
			},
			[]string{"provider", "reason"},
		),

		PaymentProcessingDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_processing_duration_seconds",
				Help:    "Settlement attempt duration, by provider",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"provider"},
		),

		CallbacksDispatchedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callbacks_dispatched_total",
				Help: "Outbox callback invocations, by outcome",
			},
			[]string{"status"},
		),
	}
}

// ErrorReason maps a payment-taxonomy error to a stable metric label.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientMoneyAmount):
		return "insufficient_money_amount"
	case errors.Is(err, domain.ErrInvalidMoneyAmount):
		return "invalid_money_amount"
	case errors.Is(err, domain.ErrInvoiceExpired):
		return "invoice_expired"
	case errors.Is(err, domain.ErrInvoiceAlreadyPaid):
		return "invoice_already_paid"
	case errors.Is(err, domain.ErrInvalidCurrency):
		return "invalid_currency"
	case errors.Is(err, domain.ErrInvoiceInvalidStatus):
		return "invoice_invalid_status"
	default:
		return "other"
	}
}

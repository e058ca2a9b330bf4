package callback

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
)

// Dispatcher drains the callback outbox: tasks are written durably in the
// same unit of work as the financial transition and executed here, so a
// slow or failing hook retries instead of aborting a committed payment.
type Dispatcher struct {
	store       domain.Store
	registry    *Registry
	metrics     *metrics.PaymentMetrics
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewDispatcher(store domain.Store, registry *Registry, paymentMetrics *metrics.PaymentMetrics, interval time.Duration, batchSize, maxAttempts int) *Dispatcher {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{
		store:       store,
		registry:    registry,
		metrics:     paymentMetrics,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.DispatchPending(ctx); err != nil {
				slog.Error("callback dispatch cycle failed", "error", err.Error())
			}
		}
	}
}

// DispatchPending claims one batch of pending tasks and invokes their hooks.
// Claimed rows are locked with skip-locked semantics, so concurrent
// dispatchers never run the same task twice.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	dispatched := 0
	err := d.store.Atomically(ctx, func(s domain.Store) error {
		tasks, err := s.Outbox().ClaimPending(ctx, d.batchSize)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			d.dispatchTask(ctx, s, task)
			dispatched++
		}
		return nil
	})
	if err != nil {
		return dispatched, err
	}
	return dispatched, nil
}

func (d *Dispatcher) dispatchTask(ctx context.Context, store domain.Store, task *domain.CallbackTask) {
	hook, err := d.registry.Resolve(task.Callback)
	if err != nil {
		d.fail(ctx, store, task, err)
		return
	}
	if err := hook(ctx, task.InvoiceID); err != nil {
		attempts := task.Attempts + 1
		if attempts >= d.maxAttempts {
			d.fail(ctx, store, task, err)
			return
		}
		slog.Error("callback failed, will retry",
			"invoice_id", task.InvoiceID,
			"callback", task.Callback,
			"attempt", attempts,
			"error", err.Error())
		if markErr := store.Outbox().MarkRetry(ctx, task.ID, attempts, err.Error()); markErr != nil {
			slog.Error("failed to mark callback retry", "task_id", task.ID, "error", markErr.Error())
		}
		d.count("retry")
		return
	}
	if err := store.Outbox().MarkDone(ctx, task.ID); err != nil {
		slog.Error("failed to mark callback done", "task_id", task.ID, "error", err.Error())
		return
	}
	slog.Info("callback executed", "invoice_id", task.InvoiceID, "callback", task.Callback)
	d.count("done")
}

func (d *Dispatcher) fail(ctx context.Context, store domain.Store, task *domain.CallbackTask, cause error) {
	slog.Error("callback failed permanently",
		"invoice_id", task.InvoiceID,
		"callback", task.Callback,
		"error", cause.Error())
	if err := store.Outbox().MarkFailed(ctx, task.ID, task.Attempts+1, cause.Error()); err != nil {
		slog.Error("failed to mark callback failed", "task_id", task.ID, "error", err.Error())
	}
	d.count("failed")
}

func (d *Dispatcher) count(status string) {
	if d.metrics != nil {
		d.metrics.CallbacksDispatchedTotal.WithLabelValues(status).Inc()
	}
}

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

type CallbackPayload struct {
	InvoiceID     string    `json:"invoice_id"`
	Status        string    `json:"status"`
	Total         string    `json:"total"`
	CapturedTotal string    `json:"captured_total,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	NotifiedAt    time.Time `json:"notified_at"`
}

// WebhookNotifier delivers terminal-status callbacks to merchant URLs kept
// in the invoice details. Errors propagate to the outbox dispatcher, which
// owns the retry schedule.
type WebhookNotifier struct {
	store  domain.Store
	client *http.Client
}

func NewWebhookNotifier(store domain.Store) *WebhookNotifier {
	return &WebhookNotifier{
		store:  store,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) NotifySuccess(ctx context.Context, invoiceID string) error {
	return n.notify(ctx, invoiceID, "success_webhook_url")
}

func (n *WebhookNotifier) NotifyFail(ctx context.Context, invoiceID string) error {
	return n.notify(ctx, invoiceID, "fail_webhook_url")
}

func (n *WebhookNotifier) notify(ctx context.Context, invoiceID, urlDetail string) error {
	invoice, err := n.store.Invoices().GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	callbackURL := invoice.Detail(urlDetail, "")
	if callbackURL == "" {
		// Nothing to deliver to; the task completes.
		return nil
	}

	payload := CallbackPayload{
		InvoiceID:  invoice.ID,
		Status:     string(invoice.Status),
		Total:      invoice.Total.StringFixed(2),
		NotifiedAt: time.Now(),
	}
	if invoice.CapturedTotal != nil {
		payload.CapturedTotal = invoice.CapturedTotal.StringFixed(2)
	}
	if invoice.SuccessTransactionID != nil {
		payload.TransactionID = *invoice.SuccessTransactionID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback to %s returned status %d", callbackURL, resp.StatusCode)
	}
	return nil
}

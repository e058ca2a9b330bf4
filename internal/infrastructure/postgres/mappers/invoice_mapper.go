package mappers

import (
	"encoding/json"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres/models"
)

func detailsToJSON(details map[string]string) string {
	if len(details) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func detailsFromJSON(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	details := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return nil
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

func ToDomainInvoice(model *models.InvoiceModel) *domain.Invoice {
	return &domain.Invoice{
		ID:                   model.ID,
		Total:                model.Total,
		CapturedTotal:        model.CapturedTotal,
		ExpiresAt:            model.ExpiresAt,
		SuccessTransactionID: model.SuccessTransactionID,
		SuccessCallback:      model.SuccessCallback,
		FailCallback:         model.FailCallback,
		Status:               model.Status,
		Details:              detailsFromJSON(model.Details),
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

func ToGORMInvoice(invoice *domain.Invoice) *models.InvoiceModel {
	return &models.InvoiceModel{
		ID:                   invoice.ID,
		Total:                invoice.Total,
		CapturedTotal:        invoice.CapturedTotal,
		ExpiresAt:            invoice.ExpiresAt,
		SuccessTransactionID: invoice.SuccessTransactionID,
		SuccessCallback:      invoice.SuccessCallback,
		FailCallback:         invoice.FailCallback,
		Status:               invoice.Status,
		Details:              detailsToJSON(invoice.Details),
		CreatedAt:            invoice.CreatedAt,
		UpdatedAt:            invoice.UpdatedAt,
	}
}

func ToDomainInvoiceStatusChange(model *models.InvoiceStatusChangeModel) *domain.InvoiceStatusChange {
	return &domain.InvoiceStatusChange{
		ID:         model.ID,
		InvoiceID:  model.InvoiceID,
		FromStatus: model.FromStatus,
		ToStatus:   model.ToStatus,
		Details:    detailsFromJSON(model.Details),
		CreatedAt:  model.CreatedAt,
	}
}

func ToGORMInvoiceStatusChange(change *domain.InvoiceStatusChange) *models.InvoiceStatusChangeModel {
	return &models.InvoiceStatusChangeModel{
		ID:         change.ID,
		InvoiceID:  change.InvoiceID,
		FromStatus: change.FromStatus,
		ToStatus:   change.ToStatus,
		Details:    detailsToJSON(change.Details),
		CreatedAt:  change.CreatedAt,
	}
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	model := mappers.ToGORMInvoice(invoice)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	invoice.CreatedAt = model.CreatedAt
	invoice.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return mappers.ToDomainInvoice(&model), nil
}

// GetByIDForUpdate blocks until the exclusive row lock is granted. Meaningful
// only inside a transaction; the lock is released on commit or rollback.
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	var model models.InvoiceModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return mappers.ToDomainInvoice(&model), nil
}

func (r *InvoiceRepository) Exists(ctx context.Context, invoiceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", invoiceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) error {
	model := mappers.ToGORMInvoice(invoice)
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"total":                  model.Total,
			"captured_total":         model.CapturedTotal,
			"expires_at":             model.ExpiresAt,
			"success_transaction_id": model.SuccessTransactionID,
			"success_callback":       model.SuccessCallback,
			"fail_callback":          model.FailCallback,
			"status":                 model.Status,
			"details":                model.Details,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *InvoiceRepository) FindDuePending(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	var rows []models.InvoiceModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", domain.InvoiceStatusPending, now).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	invoices := make([]*domain.Invoice, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, mappers.ToDomainInvoice(&rows[i]))
	}
	return invoices, nil
}

func (r *InvoiceRepository) WriteStatusChange(ctx context.Context, change *domain.InvoiceStatusChange) error {
	model := mappers.ToGORMInvoiceStatusChange(change)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	change.CreatedAt = model.CreatedAt
	return nil
}

func (r *InvoiceRepository) StatusChanges(ctx context.Context, invoiceID string) ([]*domain.InvoiceStatusChange, error) {
	var rows []models.InvoiceStatusChangeModel
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	changes := make([]*domain.InvoiceStatusChange, 0, len(rows))
	for i := range rows {
		changes = append(changes, mappers.ToDomainInvoiceStatusChange(&rows[i]))
	}
	return changes, nil
}

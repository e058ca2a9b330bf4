package postgres

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) error {
	model := mappers.ToGORMTransaction(transaction)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	transaction.CreatedAt = model.CreatedAt
	transaction.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *TransactionRepository) CreateCloudPayments(ctx context.Context, transaction *domain.CloudPaymentsTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base := mappers.ToGORMTransaction(&transaction.Transaction)
		if err := tx.Create(base).Error; err != nil {
			return err
		}
		if err := tx.Create(mappers.ToGORMCloudPayments(transaction)).Error; err != nil {
			return err
		}
		transaction.CreatedAt = base.CreatedAt
		transaction.UpdatedAt = base.UpdatedAt
		return nil
	})
}

// CreateWalletOne relies on the unique index on order_id to reject a
// concurrent duplicate delivery that slipped past the lookup.
func (r *TransactionRepository) CreateWalletOne(ctx context.Context, transaction *domain.WalletOneTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base := mappers.ToGORMTransaction(&transaction.Transaction)
		if err := tx.Create(base).Error; err != nil {
			return err
		}
		if err := tx.Create(mappers.ToGORMWalletOne(transaction)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateOrderID
			}
			return err
		}
		transaction.CreatedAt = base.CreatedAt
		transaction.UpdatedAt = base.UpdatedAt
		return nil
	})
}

func (r *TransactionRepository) GetByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&model), nil
}

func (r *TransactionRepository) GetCloudPaymentsByProviderTxID(ctx context.Context, providerTxID int64) (*domain.CloudPaymentsTransaction, error) {
	var ext models.CloudPaymentsTransactionModel
	err := r.db.WithContext(ctx).First(&ext, "provider_tx_id = ?", providerTxID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	var base models.TransactionModel
	if err := r.db.WithContext(ctx).First(&base, "id = ?", ext.TransactionID).Error; err != nil {
		return nil, err
	}
	return mappers.ToDomainCloudPayments(&base, &ext), nil
}

func (r *TransactionRepository) GetWalletOneByOrderID(ctx context.Context, orderID string) (*domain.WalletOneTransaction, error) {
	var ext models.WalletOneTransactionModel
	err := r.db.WithContext(ctx).First(&ext, "order_id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	var base models.TransactionModel
	if err := r.db.WithContext(ctx).First(&base, "id = ?", ext.TransactionID).Error; err != nil {
		return nil, err
	}
	return mappers.ToDomainWalletOne(&base, &ext), nil
}

func (r *TransactionRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]*domain.Transaction, error) {
	var rows []models.TransactionModel
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	transactions := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		transactions = append(transactions, mappers.ToDomainTransaction(&rows[i]))
	}
	return transactions, nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, transactionID string, status domain.TransactionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("id = ?", transactionID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) AttachCloudPaymentsSettlement(ctx context.Context, providerTxID int64, gatewayName, token string, totalFee *decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.CloudPaymentsTransactionModel{}).
		Where("provider_tx_id = ?", providerTxID).
		Updates(map[string]interface{}{
			"gateway_name": gatewayName,
			"token":        token,
			"total_fee":    totalFee,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) UpdateWalletOneNotification(ctx context.Context, orderID string, notification domain.WalletOneNotification) error {
	result := r.db.WithContext(ctx).
		Model(&models.WalletOneTransactionModel{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"order_state":      notification.OrderState,
			"notify_count":     notification.NotifyCount,
			"last_notify_date": notification.LastNotifyDate,
			"update_date":      notification.UpdateDate,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) WriteStatusChange(ctx context.Context, change *domain.TransactionStatusChange) error {
	model := mappers.ToGORMTransactionStatusChange(change)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	change.CreatedAt = model.CreatedAt
	return nil
}

func (r *TransactionRepository) StatusChanges(ctx context.Context, transactionID string) ([]*domain.TransactionStatusChange, error) {
	var rows []models.TransactionStatusChangeModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	changes := make([]*domain.TransactionStatusChange, 0, len(rows))
	for i := range rows {
		changes = append(changes, mappers.ToDomainTransactionStatusChange(&rows[i]))
	}
	return changes, nil
}

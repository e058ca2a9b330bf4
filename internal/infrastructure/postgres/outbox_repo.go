package postgres

import (
	"context"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, task *domain.CallbackTask) error {
	model := mappers.ToGORMCallbackTask(task)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	task.CreatedAt = model.CreatedAt
	task.UpdatedAt = model.UpdatedAt
	return nil
}

// ClaimPending uses SKIP LOCKED so concurrent dispatchers divide the backlog
// instead of blocking on each other's claims.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.CallbackTask, error) {
	var rows []models.CallbackTaskModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", domain.CallbackTaskPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	tasks := make([]*domain.CallbackTask, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, mappers.ToDomainCallbackTask(&rows[i]))
	}
	return tasks, nil
}

func (r *OutboxRepository) MarkDone(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).
		Model(&models.CallbackTaskModel{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"status":     domain.CallbackTaskDone,
			"last_error": "",
		}).Error
}

func (r *OutboxRepository) MarkRetry(ctx context.Context, taskID string, attempts int, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&models.CallbackTaskModel{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"status":     domain.CallbackTaskPending,
			"attempts":   attempts,
			"last_error": lastError,
		}).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, taskID string, attempts int, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&models.CallbackTaskModel{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"status":     domain.CallbackTaskFailed,
			"attempts":   attempts,
			"last_error": lastError,
		}).Error
}

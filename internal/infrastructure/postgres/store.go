package postgres

import (
	"context"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"gorm.io/gorm"
)

// Store implements domain.Store on top of gorm. Atomically hands out a
// tx-scoped Store; nested calls join the ongoing transaction via gorm
// savepoints.
type Store struct {
	db *gorm.DB

	invoices     *InvoiceRepository
	transactions *TransactionRepository
	outbox       *OutboxRepository
}

func NewStore(db *gorm.DB) *Store {
	s := &Store{db: db}
	s.invoices = &InvoiceRepository{db: db}
	s.transactions = &TransactionRepository{db: db}
	s.outbox = &OutboxRepository{db: db}
	return s
}

func (s *Store) Invoices() domain.InvoiceRepository {
	return s.invoices
}

func (s *Store) Transactions() domain.TransactionRepository {
	return s.transactions
}

func (s *Store) Outbox() domain.OutboxRepository {
	return s.outbox
}

func (s *Store) Atomically(ctx context.Context, fn func(domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

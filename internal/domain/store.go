package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence contract required from the storage collaborator:
// CRUD by primary key and provider dedup key, exclusive row locking scoped
// to a single invoice, unique-constraint enforcement and append-only audit
// inserts.
type Store interface {
	Invoices() InvoiceRepository
	Transactions() TransactionRepository
	Outbox() OutboxRepository

	// Atomically runs fn inside one storage transaction. The Store handed to
	// fn is scoped to that transaction; locks taken through it are held until
	// fn returns. Nested calls join the ongoing transaction.
	Atomically(ctx context.Context, fn func(Store) error) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	GetByID(ctx context.Context, invoiceID string) (*Invoice, error)
	// GetByIDForUpdate takes a blocking exclusive row lock on the invoice.
	// Valid only inside Atomically.
	GetByIDForUpdate(ctx context.Context, invoiceID string) (*Invoice, error)
	Exists(ctx context.Context, invoiceID string) (bool, error)
	Update(ctx context.Context, invoice *Invoice) error
	FindDuePending(ctx context.Context, now time.Time) ([]*Invoice, error)
	WriteStatusChange(ctx context.Context, change *InvoiceStatusChange) error
	StatusChanges(ctx context.Context, invoiceID string) ([]*InvoiceStatusChange, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) error
	// CreateCloudPayments and CreateWalletOne persist the base record and the
	// protocol fields in one unit of work. CreateWalletOne returns
	// ErrDuplicateOrderID when the provider order id is already known.
	CreateCloudPayments(ctx context.Context, transaction *CloudPaymentsTransaction) error
	CreateWalletOne(ctx context.Context, transaction *WalletOneTransaction) error

	GetByID(ctx context.Context, transactionID string) (*Transaction, error)
	GetCloudPaymentsByProviderTxID(ctx context.Context, providerTxID int64) (*CloudPaymentsTransaction, error)
	GetWalletOneByOrderID(ctx context.Context, orderID string) (*WalletOneTransaction, error)
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]*Transaction, error)

	UpdateStatus(ctx context.Context, transactionID string, status TransactionStatus) error
	AttachCloudPaymentsSettlement(ctx context.Context, providerTxID int64, gatewayName, token string, totalFee *decimal.Decimal) error
	UpdateWalletOneNotification(ctx context.Context, orderID string, notification WalletOneNotification) error

	WriteStatusChange(ctx context.Context, change *TransactionStatusChange) error
	StatusChanges(ctx context.Context, transactionID string) ([]*TransactionStatusChange, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, task *CallbackTask) error
	// ClaimPending locks up to limit pending tasks, skipping rows claimed by
	// concurrent dispatchers. Valid only inside Atomically.
	ClaimPending(ctx context.Context, limit int) ([]*CallbackTask, error)
	MarkDone(ctx context.Context, taskID string) error
	MarkRetry(ctx context.Context, taskID string, attempts int, lastError string) error
	MarkFailed(ctx context.Context, taskID string, attempts int, lastError string) error
}

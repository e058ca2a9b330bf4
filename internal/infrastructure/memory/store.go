package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

// Store is an in-memory domain.Store for tests. A single mutex serializes
// transactions, which is a coarser grain than the row locks the postgres
// store takes but satisfies the same exclusion contract. A failed
// Atomically rolls the data back to the snapshot taken at entry.
type Store struct {
	mu   *sync.Mutex
	data *data
	inTx bool
}

type data struct {
	invoices       map[string]*domain.Invoice
	invoiceChanges map[string][]*domain.InvoiceStatusChange

	transactions map[string]*domain.Transaction
	cloudTxs     map[int64]*domain.CloudPaymentsTransaction
	walletTxs    map[string]*domain.WalletOneTransaction
	txChanges    map[string][]*domain.TransactionStatusChange

	tasks     map[string]*domain.CallbackTask
	taskOrder []string
}

func NewStore() *Store {
	return &Store{
		mu: &sync.Mutex{},
		data: &data{
			invoices:       make(map[string]*domain.Invoice),
			invoiceChanges: make(map[string][]*domain.InvoiceStatusChange),
			transactions:   make(map[string]*domain.Transaction),
			cloudTxs:       make(map[int64]*domain.CloudPaymentsTransaction),
			walletTxs:      make(map[string]*domain.WalletOneTransaction),
			txChanges:      make(map[string][]*domain.TransactionStatusChange),
			tasks:          make(map[string]*domain.CallbackTask),
		},
	}
}

func (s *Store) Invoices() domain.InvoiceRepository {
	return &invoiceRepo{s: s}
}

func (s *Store) Transactions() domain.TransactionRepository {
	return &transactionRepo{s: s}
}

func (s *Store) Outbox() domain.OutboxRepository {
	return &outboxRepo{s: s}
}

func (s *Store) Atomically(ctx context.Context, fn func(domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(&Store{mu: s.mu, data: s.data, inTx: true}); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// lock is a no-op inside a transaction, where the store mutex is already
// held for the whole unit of work.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (d *data) clone() *data {
	out := &data{
		invoices:       make(map[string]*domain.Invoice, len(d.invoices)),
		invoiceChanges: make(map[string][]*domain.InvoiceStatusChange, len(d.invoiceChanges)),
		transactions:   make(map[string]*domain.Transaction, len(d.transactions)),
		cloudTxs:       make(map[int64]*domain.CloudPaymentsTransaction, len(d.cloudTxs)),
		walletTxs:      make(map[string]*domain.WalletOneTransaction, len(d.walletTxs)),
		txChanges:      make(map[string][]*domain.TransactionStatusChange, len(d.txChanges)),
		tasks:          make(map[string]*domain.CallbackTask, len(d.tasks)),
		taskOrder:      append([]string(nil), d.taskOrder...),
	}
	for id, inv := range d.invoices {
		out.invoices[id] = cloneInvoice(inv)
	}
	for id, changes := range d.invoiceChanges {
		out.invoiceChanges[id] = append([]*domain.InvoiceStatusChange(nil), changes...)
	}
	for id, tr := range d.transactions {
		out.transactions[id] = cloneTransaction(tr)
	}
	for id, tr := range d.cloudTxs {
		c := *tr
		out.cloudTxs[id] = &c
	}
	for id, tr := range d.walletTxs {
		w := *tr
		out.walletTxs[id] = &w
	}
	for id, changes := range d.txChanges {
		out.txChanges[id] = append([]*domain.TransactionStatusChange(nil), changes...)
	}
	for id, task := range d.tasks {
		t := *task
		out.tasks[id] = &t
	}
	return out
}

func cloneInvoice(inv *domain.Invoice) *domain.Invoice {
	out := *inv
	if inv.Details != nil {
		out.Details = make(map[string]string, len(inv.Details))
		for k, v := range inv.Details {
			out.Details[k] = v
		}
	}
	return &out
}

func cloneTransaction(tr *domain.Transaction) *domain.Transaction {
	out := *tr
	return &out
}

type invoiceRepo struct {
	s *Store
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	unlock := r.s.lock()
	defer unlock()
	now := time.Now()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	r.s.data.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	unlock := r.s.lock()
	defer unlock()
	inv, ok := r.s.data.invoices[invoiceID]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return cloneInvoice(inv), nil
}

func (r *invoiceRepo) GetByIDForUpdate(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *invoiceRepo) Exists(ctx context.Context, invoiceID string) (bool, error) {
	unlock := r.s.lock()
	defer unlock()
	_, ok := r.s.data.invoices[invoiceID]
	return ok, nil
}

func (r *invoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	unlock := r.s.lock()
	defer unlock()
	if _, ok := r.s.data.invoices[invoice.ID]; !ok {
		return domain.ErrInvoiceNotFound
	}
	invoice.UpdatedAt = time.Now()
	r.s.data.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *invoiceRepo) FindDuePending(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	unlock := r.s.lock()
	defer unlock()
	var due []*domain.Invoice
	for _, inv := range r.s.data.invoices {
		if inv.Status == domain.InvoiceStatusPending && inv.ExpiresAt != nil && inv.ExpiresAt.Before(now) {
			due = append(due, cloneInvoice(inv))
		}
	}
	return due, nil
}

func (r *invoiceRepo) WriteStatusChange(ctx context.Context, change *domain.InvoiceStatusChange) error {
	unlock := r.s.lock()
	defer unlock()
	change.CreatedAt = time.Now()
	c := *change
	r.s.data.invoiceChanges[change.InvoiceID] = append(r.s.data.invoiceChanges[change.InvoiceID], &c)
	return nil
}

func (r *invoiceRepo) StatusChanges(ctx context.Context, invoiceID string) ([]*domain.InvoiceStatusChange, error) {
	unlock := r.s.lock()
	defer unlock()
	changes := r.s.data.invoiceChanges[invoiceID]
	out := make([]*domain.InvoiceStatusChange, 0, len(changes))
	for _, c := range changes {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

type transactionRepo struct {
	s *Store
}

func (r *transactionRepo) Create(ctx context.Context, transaction *domain.Transaction) error {
	unlock := r.s.lock()
	defer unlock()
	now := time.Now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now
	r.s.data.transactions[transaction.ID] = cloneTransaction(transaction)
	return nil
}

func (r *transactionRepo) CreateCloudPayments(ctx context.Context, transaction *domain.CloudPaymentsTransaction) error {
	unlock := r.s.lock()
	defer unlock()
	now := time.Now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now
	r.s.data.transactions[transaction.ID] = cloneTransaction(&transaction.Transaction)
	c := *transaction
	r.s.data.cloudTxs[transaction.ProviderTxID] = &c
	return nil
}

func (r *transactionRepo) CreateWalletOne(ctx context.Context, transaction *domain.WalletOneTransaction) error {
	unlock := r.s.lock()
	defer unlock()
	if _, ok := r.s.data.walletTxs[transaction.OrderID]; ok {
		return domain.ErrDuplicateOrderID
	}
	now := time.Now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now
	r.s.data.transactions[transaction.ID] = cloneTransaction(&transaction.Transaction)
	w := *transaction
	r.s.data.walletTxs[transaction.OrderID] = &w
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	unlock := r.s.lock()
	defer unlock()
	tr, ok := r.s.data.transactions[transactionID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return cloneTransaction(tr), nil
}

func (r *transactionRepo) GetCloudPaymentsByProviderTxID(ctx context.Context, providerTxID int64) (*domain.CloudPaymentsTransaction, error) {
	unlock := r.s.lock()
	defer unlock()
	ext, ok := r.s.data.cloudTxs[providerTxID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	out := *ext
	if base, ok := r.s.data.transactions[ext.ID]; ok {
		out.Transaction = *base
	}
	return &out, nil
}

func (r *transactionRepo) GetWalletOneByOrderID(ctx context.Context, orderID string) (*domain.WalletOneTransaction, error) {
	unlock := r.s.lock()
	defer unlock()
	ext, ok := r.s.data.walletTxs[orderID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	out := *ext
	if base, ok := r.s.data.transactions[ext.ID]; ok {
		out.Transaction = *base
	}
	return &out, nil
}

func (r *transactionRepo) ListByInvoiceID(ctx context.Context, invoiceID string) ([]*domain.Transaction, error) {
	unlock := r.s.lock()
	defer unlock()
	var out []*domain.Transaction
	for _, tr := range r.s.data.transactions {
		if tr.InvoiceID == invoiceID {
			out = append(out, cloneTransaction(tr))
		}
	}
	return out, nil
}

func (r *transactionRepo) UpdateStatus(ctx context.Context, transactionID string, status domain.TransactionStatus) error {
	unlock := r.s.lock()
	defer unlock()
	tr, ok := r.s.data.transactions[transactionID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	tr.Status = status
	tr.UpdatedAt = time.Now()
	return nil
}

func (r *transactionRepo) AttachCloudPaymentsSettlement(ctx context.Context, providerTxID int64, gatewayName, token string, totalFee *decimal.Decimal) error {
	unlock := r.s.lock()
	defer unlock()
	ext, ok := r.s.data.cloudTxs[providerTxID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	ext.GatewayName = gatewayName
	ext.Token = token
	ext.TotalFee = totalFee
	return nil
}

func (r *transactionRepo) UpdateWalletOneNotification(ctx context.Context, orderID string, notification domain.WalletOneNotification) error {
	unlock := r.s.lock()
	defer unlock()
	ext, ok := r.s.data.walletTxs[orderID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	ext.OrderState = notification.OrderState
	ext.NotifyCount = notification.NotifyCount
	ext.LastNotifyDate = notification.LastNotifyDate
	ext.UpdateDate = notification.UpdateDate
	return nil
}

func (r *transactionRepo) WriteStatusChange(ctx context.Context, change *domain.TransactionStatusChange) error {
	unlock := r.s.lock()
	defer unlock()
	change.CreatedAt = time.Now()
	c := *change
	r.s.data.txChanges[change.TransactionID] = append(r.s.data.txChanges[change.TransactionID], &c)
	return nil
}

func (r *transactionRepo) StatusChanges(ctx context.Context, transactionID string) ([]*domain.TransactionStatusChange, error) {
	unlock := r.s.lock()
	defer unlock()
	changes := r.s.data.txChanges[transactionID]
	out := make([]*domain.TransactionStatusChange, 0, len(changes))
	for _, c := range changes {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

type outboxRepo struct {
	s *Store
}

func (r *outboxRepo) Enqueue(ctx context.Context, task *domain.CallbackTask) error {
	unlock := r.s.lock()
	defer unlock()
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	t := *task
	r.s.data.tasks[task.ID] = &t
	r.s.data.taskOrder = append(r.s.data.taskOrder, task.ID)
	return nil
}

func (r *outboxRepo) ClaimPending(ctx context.Context, limit int) ([]*domain.CallbackTask, error) {
	unlock := r.s.lock()
	defer unlock()
	var out []*domain.CallbackTask
	for _, id := range r.s.data.taskOrder {
		if len(out) == limit {
			break
		}
		task := r.s.data.tasks[id]
		if task.Status != domain.CallbackTaskPending {
			continue
		}
		t := *task
		out = append(out, &t)
	}
	return out, nil
}

func (r *outboxRepo) MarkDone(ctx context.Context, taskID string) error {
	return r.mark(taskID, domain.CallbackTaskDone, nil, "")
}

func (r *outboxRepo) MarkRetry(ctx context.Context, taskID string, attempts int, lastError string) error {
	return r.mark(taskID, domain.CallbackTaskPending, &attempts, lastError)
}

func (r *outboxRepo) MarkFailed(ctx context.Context, taskID string, attempts int, lastError string) error {
	return r.mark(taskID, domain.CallbackTaskFailed, &attempts, lastError)
}

func (r *outboxRepo) mark(taskID string, status domain.CallbackTaskStatus, attempts *int, lastError string) error {
	unlock := r.s.lock()
	defer unlock()
	task, ok := r.s.data.tasks[taskID]
	if !ok {
		return fmt.Errorf("callback task %s not found", taskID)
	}
	task.Status = status
	if attempts != nil {
		task.Attempts = *attempts
	}
	task.LastError = lastError
	task.UpdatedAt = time.Now()
	return nil
}

package domain

import "time"

type CallbackTaskStatus string

const (
	CallbackTaskPending CallbackTaskStatus = "PENDING"
	CallbackTaskDone    CallbackTaskStatus = "DONE"
	CallbackTaskFailed  CallbackTaskStatus = "FAILED"
)

// CallbackTask is an outbox row: a hook invocation written durably in the
// same unit of work as the state transition it reports, executed later by
// the dispatcher. A slow or failing hook can not undo a committed payment.
type CallbackTask struct {
	ID        string
	InvoiceID string
	Callback  string
	Status    CallbackTaskStatus
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

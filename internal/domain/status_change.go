package domain

import "time"

// Status change records are append-only: one row per observed transition,
// never updated or deleted. They are the durable evidence for
// reconciliation and dispute resolution.

type InvoiceStatusChange struct {
	ID         string
	InvoiceID  string
	FromStatus InvoiceStatus
	ToStatus   InvoiceStatus
	Details    map[string]string
	CreatedAt  time.Time
}

type TransactionStatusChange struct {
	ID            string
	TransactionID string
	FromStatus    TransactionStatus
	ToStatus      TransactionStatus
	Details       map[string]string
	CreatedAt     time.Time
}

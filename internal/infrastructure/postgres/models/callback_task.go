package models

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

type CallbackTaskModel struct {
	ID        string                    `gorm:"primaryKey"`
	InvoiceID string                    `gorm:"type:uuid;not null;index"`
	Callback  string                    `gorm:"not null"`
	Status    domain.CallbackTaskStatus `gorm:"not null;index"`
	Attempts  int                       `gorm:"not null;default:0"`
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

package models

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

type InvoiceModel struct {
	ID                   string               `gorm:"primaryKey;type:uuid"`
	Total                decimal.Decimal      `gorm:"type:numeric(11,2)"`
	CapturedTotal        *decimal.Decimal     `gorm:"type:numeric(11,2)"`
	ExpiresAt            *time.Time           `gorm:"index:idx_invoice_status_expires"`
	SuccessTransactionID *string              `gorm:"type:uuid"`
	SuccessCallback      string               `gorm:"size:128"`
	FailCallback         string               `gorm:"size:128"`
	Status               domain.InvoiceStatus `gorm:"index:idx_invoice_status_expires"`
	Details              string               `gorm:"type:jsonb"`
	CreatedAt            time.Time            `gorm:"index:idx_invoice_created_at"`
	UpdatedAt            time.Time
}

type InvoiceStatusChangeModel struct {
	ID         string               `gorm:"primaryKey"`
	InvoiceID  string               `gorm:"type:uuid;not null;index"`
	FromStatus domain.InvoiceStatus `gorm:"not null"`
	ToStatus   domain.InvoiceStatus `gorm:"not null"`
	Details    string               `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

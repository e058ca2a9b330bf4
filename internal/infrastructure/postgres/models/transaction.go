package models

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

type TransactionModel struct {
	ID          string                   `gorm:"primaryKey;type:uuid"`
	InvoiceID   string                   `gorm:"type:uuid;not null;index"`
	MoneyAmount decimal.Decimal          `gorm:"type:numeric(11,2)"`
	Type        domain.TransactionType   `gorm:"not null"`
	Status      domain.TransactionStatus `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TransactionStatusChangeModel struct {
	ID            string                   `gorm:"primaryKey"`
	TransactionID string                   `gorm:"type:uuid;not null;index"`
	FromStatus    domain.TransactionStatus `gorm:"not null"`
	ToStatus      domain.TransactionStatus `gorm:"not null"`
	Details       string                   `gorm:"type:jsonb"`
	CreatedAt     time.Time
}

type CloudPaymentsTransactionModel struct {
	TransactionID     string           `gorm:"primaryKey;type:uuid"`
	ProviderTxID      int64            `gorm:"uniqueIndex"`
	Amount            decimal.Decimal  `gorm:"type:numeric(11,2)"`
	Currency          string           `gorm:"size:3"`
	DateTime          time.Time
	CardFirstSix      string           `gorm:"size:6"`
	CardLastFour      string           `gorm:"size:4"`
	CardType          string
	CardExpDate       string
	TestMode          bool
	ProviderStatus    string
	OperationType     string
	AccountID         string
	SubscriptionID    string
	TokenRecipient    string
	Name              string
	Email             string
	IPAddress         string
	IPCountry         string           `gorm:"size:2"`
	IPCity            string
	IPRegion          string
	IPDistrict        string
	Issuer            string
	IssuerBankCountry string           `gorm:"size:2"`
	Description       string
	GatewayName       string
	Token             string
	TotalFee          *decimal.Decimal `gorm:"type:numeric(11,2)"`
}

// WalletOneTransactionModel: OrderID carries the storage-enforced unique
// constraint that closes the concurrent duplicate-delivery race.
type WalletOneTransactionModel struct {
	TransactionID     string          `gorm:"primaryKey;type:uuid"`
	OrderID           string          `gorm:"size:255;uniqueIndex"`
	MerchantID        string          `gorm:"size:255"`
	PaymentAmount     decimal.Decimal `gorm:"type:numeric(10,2)"`
	CommissionAmount  decimal.Decimal `gorm:"type:numeric(10,2)"`
	CurrencyID        int
	ToUserID          string          `gorm:"size:255"`
	PaymentNo         string          `gorm:"size:255"`
	Description       string          `gorm:"size:255"`
	SuccessURL        string
	FailURL           string
	ExpiredDate       time.Time
	CreateDate        time.Time
	UpdateDate        time.Time
	OrderState        string          `gorm:"size:255"`
	NotifyCount       int
	ExternalAccountID string          `gorm:"size:50"`
	AutoAccept        string          `gorm:"size:10"`
	LastNotifyDate    *time.Time
	InvoiceOperations string
	PaymentType       string          `gorm:"size:100"`
}

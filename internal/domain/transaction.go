package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending            TransactionStatus = "PENDING"
	TransactionStatusSuccess            TransactionStatus = "SUCCESS"
	TransactionStatusDeclined           TransactionStatus = "DECLINED"
	TransactionStatusInvalidMoneyAmount TransactionStatus = "INVALID_MONEY_AMOUNT"
	TransactionStatusInvoiceExpired     TransactionStatus = "INVOICE_EXPIRED"
	TransactionStatusError              TransactionStatus = "ERROR"
)

type TransactionType string

const (
	TypeDummy         TransactionType = "DUMMY"
	TypeCloudPayments TransactionType = "CLOUDPAYMENTS"
	TypeWalletOne     TransactionType = "WALLETONE"
)

// Transaction is one attempt by one provider to settle an invoice.
// Created PENDING, moved to exactly one terminal status, never reused.
type Transaction struct {
	ID          string
	InvoiceID   string
	MoneyAmount decimal.Decimal
	Type        TransactionType
	Status      TransactionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CloudPaymentsTransaction carries the provider notification fields stored
// alongside the base record. ProviderTxID is CloudPayments' own TransactionId.
type CloudPaymentsTransaction struct {
	Transaction

	ProviderTxID      int64
	Amount            decimal.Decimal
	Currency          string
	DateTime          time.Time
	CardFirstSix      string
	CardLastFour      string
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
	IPCountry         string
	IPCity            string
	IPRegion          string
	IPDistrict        string
	Issuer            string
	IssuerBankCountry string
	Description       string

	// Settlement fields, attached at the pay phase.
	GatewayName string
	Token       string
	TotalFee    *decimal.Decimal
}

// WalletOneTransaction carries the provider notification fields.
// OrderID is WalletOne's WMI_ORDER_ID - globally unique, enforced by the
// storage layer, and used as the idempotent-replay dedup key.
type WalletOneTransaction struct {
	Transaction

	OrderID           string
	MerchantID        string
	PaymentAmount     decimal.Decimal
	CommissionAmount  decimal.Decimal
	CurrencyID        int
	ToUserID          string
	PaymentNo         string
	Description       string
	SuccessURL        string
	FailURL           string
	ExpiredDate       time.Time
	CreateDate        time.Time
	UpdateDate        time.Time
	OrderState        string
	NotifyCount       int
	ExternalAccountID string
	AutoAccept        string
	LastNotifyDate    *time.Time
	InvoiceOperations string
	PaymentType       string
}

// WalletOneNotification is the non-financial metadata refreshed on an
// idempotent replay of an already-known order id.
type WalletOneNotification struct {
	OrderState     string
	NotifyCount    int
	LastNotifyDate *time.Time
	UpdateDate     time.Time
}

package postgres

import (
	"log"

	"github.com/LavaJover/shvark-payment-gateway/internal/config"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.GatewayConfig) *gorm.DB {
	dsn := cfg.GatewayDB.Dsn
	// TranslateError maps the driver's unique-violation into
	// gorm.ErrDuplicatedKey, which the repositories depend on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(
		&models.InvoiceModel{},
		&models.InvoiceStatusChangeModel{},
		&models.TransactionModel{},
		&models.TransactionStatusChangeModel{},
		&models.CloudPaymentsTransactionModel{},
		&models.WalletOneTransactionModel{},
		&models.CallbackTaskModel{},
	)

	return db
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/config"
	delivery "github.com/LavaJover/shvark-payment-gateway/internal/delivery/http"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-payment-gateway/internal/provider/cloudpayments"
	"github.com/LavaJover/shvark-payment-gateway/internal/provider/dummy"
	"github.com/LavaJover/shvark-payment-gateway/internal/provider/walletone"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/callback"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/invoice"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/payment"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	// Init database
	db := postgres.MustInitDB(cfg)
	if cfg.GatewayDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.GatewayDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	store := postgres.NewStore(db)

	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	pub := kafka.NewKafkaPublisher(brokers, cfg.KafkaService.Topic)

	paymentMetrics := metrics.NewPaymentMetrics()

	// Callback hooks: terminal-status webhooks to the merchant side.
	registry := callback.NewRegistry()
	webhooks := notifier.NewWebhookNotifier(store)
	registry.MustRegister("webhook_success", webhooks.NotifySuccess)
	registry.MustRegister("webhook_fail", webhooks.NotifyFail)

	transactions := payment.NewTransactionHandler(store)
	payments := payment.NewHandler(transactions, paymentMetrics)
	invoiceService := invoice.NewService(store, registry, pub, paymentMetrics)

	dummyProvider := dummy.NewProvider(store, payments, transactions, pub, paymentMetrics)
	cpProvider := cloudpayments.NewProvider(store, payments, transactions, pub, paymentMetrics, cfg.CloudPayments.ValidCurrencies)

	currencyID, err := strconv.Atoi(cfg.WalletOne.CurrencyID)
	if err != nil {
		log.Fatalf("invalid walletone currency id: %v", err)
	}
	w1Provider := walletone.NewProvider(store, payments, transactions, pub, paymentMetrics, walletone.Config{
		MerchantID:        cfg.WalletOne.MerchantID,
		SecretKey:         cfg.WalletOne.SecretKey,
		CurrencyID:        currencyID,
		SuccessURL:        cfg.WalletOne.SuccessURL,
		FailURL:           cfg.WalletOne.FailURL,
		DescriptionDetail: cfg.WalletOne.DescriptionDetail,
		HashAlgorithm:     cfg.WalletOne.HashAlgorithm,
	})

	// Outbox dispatcher
	dispatcher := callback.NewDispatcher(store, registry, paymentMetrics,
		cfg.Outbox.Interval, cfg.Outbox.BatchSize, cfg.Outbox.MaxAttempts)
	go dispatcher.Run(context.Background())

	// Expiry sweep for pending invoices past their deadline
	go func() {
		ticker := time.NewTicker(cfg.Sweep.Interval)
		defer ticker.Stop()
		for {
			<-ticker.C
			if err := invoiceService.ExpireDueInvoices(context.Background()); err != nil {
				log.Printf("expiry sweep error: %v", err)
			}
		}
	}()

	router := delivery.NewRouter(delivery.RouterDeps{
		Invoices:      handlers.NewInvoiceHandler(invoiceService),
		Dummy:         handlers.NewDummyHandler(dummyProvider),
		CloudPayments: handlers.NewCloudPaymentsHandler(cpProvider),
		WalletOne:     handlers.NewWalletOneHandler(w1Provider),
		HMACValidator: cloudpayments.NewNotificationValidator(cfg.CloudPayments.APISecret),
	})

	addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	log.Printf("http server started on %s\n", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("failed to serve: %v\n", err)
	}
}

package http

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-payment-gateway/internal/provider/cloudpayments"
)

type RouterDeps struct {
	Invoices      *handlers.InvoiceHandler
	Dummy         *handlers.DummyHandler
	CloudPayments *handlers.CloudPaymentsHandler
	WalletOne     *handlers.WalletOneHandler
	HMACValidator *cloudpayments.NotificationValidator
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/invoices", func(r chi.Router) {
		r.Post("/", deps.Invoices.Create)
		r.Get("/{invoiceID}", deps.Invoices.Get)
		r.Get("/{invoiceID}/history", deps.Invoices.History)
		r.Get("/{invoiceID}/transactions", deps.Invoices.Transactions)
		r.Post("/{invoiceID}/cancel", deps.Invoices.Cancel)
		r.Post("/{invoiceID}/expire", deps.Invoices.Expire)
		r.Post("/{invoiceID}/pay", deps.Dummy.Pay)
	})

	r.Route("/providers/cloudpayments", func(r chi.Router) {
		r.Use(HMACAuth(deps.HMACValidator))
		r.Post("/check", deps.CloudPayments.Check)
		r.Post("/pay", deps.CloudPayments.Pay)
	})

	r.Route("/providers/walletone", func(r chi.Router) {
		r.Post("/invoices/{invoiceID}/sign", deps.WalletOne.Sign)
		r.Post("/confirm", deps.WalletOne.Confirm)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

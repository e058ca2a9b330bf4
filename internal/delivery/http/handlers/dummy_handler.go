package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	invoiceRequest "github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/invoice/request"
	invoiceResponse "github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/invoice/response"
	"github.com/LavaJover/shvark-payment-gateway/internal/provider/dummy"
)

type DummyHandler struct {
	provider *dummy.Provider
}

func NewDummyHandler(provider *dummy.Provider) *DummyHandler {
	return &DummyHandler{provider: provider}
}

// Pay settles an invoice through the synchronous test provider. A payment
// failure still returns the recorded transaction so the caller can see the
// terminal status.
func (h *DummyHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest.PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.MoneyAmount)
	if err != nil {
		respondBadRequest(w, "money_amount must be a decimal")
		return
	}

	inv, tr, err := h.provider.TryPay(r.Context(), dummy.TransactionInput{
		InvoiceID:   chi.URLParam(r, "invoiceID"),
		MoneyAmount: amount,
	})
	if err != nil {
		if tr == nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusConflict, struct {
			Error       invoiceResponse.ErrorResponse       `json:"error"`
			Transaction invoiceResponse.TransactionResponse `json:"transaction"`
		}{
			Error:       invoiceResponse.ErrorResponse{Code: "payment_declined", Detail: err.Error()},
			Transaction: invoiceResponse.FromTransaction(tr),
		})
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Invoice     invoiceResponse.InvoiceResponse     `json:"invoice"`
		Transaction invoiceResponse.TransactionResponse `json:"transaction"`
	}{
		Invoice:     invoiceResponse.FromInvoice(inv),
		Transaction: invoiceResponse.FromTransaction(tr),
	})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	invoiceRequest "github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/invoice/request"
	invoiceResponse "github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/invoice/response"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/invoice"
)

type InvoiceHandler struct {
	service *invoice.Service
}

func NewInvoiceHandler(service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	total, err := decimal.NewFromString(req.Total)
	if err != nil || !total.IsPositive() {
		respondBadRequest(w, "total must be a positive decimal")
		return
	}

	input := invoice.CreateInvoiceInput{
		Total:           total,
		SuccessCallback: req.SuccessCallback,
		FailCallback:    req.FailCallback,
		Details:         req.Details,
	}
	if req.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			respondBadRequest(w, "expires_at must be RFC3339")
			return
		}
		input.ExpiresAt = &expiresAt
	}

	created, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, invoiceResponse.FromInvoice(created))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invoiceResponse.FromInvoice(inv))
}

func (h *InvoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	changes, err := h.service.GetInvoiceHistory(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]invoiceResponse.StatusChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, invoiceResponse.FromStatusChange(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *InvoiceHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.ListTransactions(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]invoiceResponse.TransactionResponse, 0, len(transactions))
	for _, tr := range transactions {
		out = append(out, invoiceResponse.FromTransaction(tr))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.CancelInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invoiceResponse.FromInvoice(inv))
}

func (h *InvoiceHandler) Expire(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.ExpireInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invoiceResponse.FromInvoice(inv))
}

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	invoiceResponse "github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/invoice/response"
	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err.Error())
	}
}

func respondError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, domain.ErrInvoiceNotFound):
		status, code = http.StatusNotFound, "invoice_not_found"
	case errors.Is(err, domain.ErrTransactionNotFound):
		status, code = http.StatusNotFound, "transaction_not_found"
	case errors.Is(err, domain.ErrUnknownCallback):
		status, code = http.StatusBadRequest, "unknown_callback"
	case errors.Is(err, domain.ErrInvoiceExpired):
		status, code = http.StatusConflict, "invoice_expired"
	case errors.Is(err, domain.ErrInvoiceAlreadyPaid):
		status, code = http.StatusConflict, "invoice_already_paid"
	case errors.Is(err, domain.ErrInvoiceInvalidStatus):
		status, code = http.StatusConflict, "invoice_invalid_status"
	case errors.Is(err, domain.ErrInvalidMoneyAmount):
		status, code = http.StatusUnprocessableEntity, "invalid_money_amount"
	case errors.Is(err, domain.ErrInvalidCurrency):
		status, code = http.StatusUnprocessableEntity, "invalid_currency"
	}
	respondJSON(w, status, invoiceResponse.ErrorResponse{Code: code, Detail: err.Error()})
}

func respondBadRequest(w http.ResponseWriter, detail string) {
	respondJSON(w, http.StatusBadRequest, invoiceResponse.ErrorResponse{Code: "bad_request", Detail: detail})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/LavaJover/shvark-payment-gateway/internal/provider/walletone"
)

type WalletOneHandler struct {
	provider *walletone.Provider
}

func NewWalletOneHandler(provider *walletone.Provider) *WalletOneHandler {
	return &WalletOneHandler{provider: provider}
}

// Sign returns the signed field set a merchant page submits to the provider.
func (h *WalletOneHandler) Sign(w http.ResponseWriter, r *http.Request) {
	fields, err := h.provider.MakeSignedInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		respondError(w, err)
		return
	}
	out := make(map[string]string, len(fields))
	for name := range fields {
		out[name] = fields.Get(name)
	}
	respondJSON(w, http.StatusOK, out)
}

// Confirm handles the provider's payment notification. The response body is
// the provider's text protocol: WMI_RESULT=OK commits, anything else makes
// the provider redeliver.
func (h *WalletOneHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeWalletOneRetry(w, walletone.RetryBadPaymentNo)
		return
	}
	fields := r.PostForm

	if err := h.provider.ValidateSignature(fields); err != nil {
		writeWalletOneRetry(w, walletone.RetryBadSignature)
		return
	}

	notification, err := parseWalletOneNotification(fields)
	if err != nil {
		writeWalletOneRetry(w, walletone.RetryBadPaymentNo)
		return
	}

	if _, _, err := h.provider.TryPay(r.Context(), notification); err != nil {
		var retry *walletone.RetryError
		if errors.As(err, &retry) {
			writeWalletOneResponse(w, retry.Response())
			return
		}
		writeWalletOneRetry(w, walletone.RetryBadPaymentNo)
		return
	}

	writeWalletOneResponse(w, "WMI_RESULT=OK")
}

func writeWalletOneRetry(w http.ResponseWriter, description string) {
	writeWalletOneResponse(w, fmt.Sprintf("WMI_RESULT=RETRY&WMI_DESCRIPTION=%s", description))
}

func writeWalletOneResponse(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

var walletOneTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseWalletOneTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range walletOneTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseWalletOneNotification maps the confirm form into the provider
// payload. Raw keeps every submitted field bit-exact: the signature covers
// fields this parser does not know about.
func parseWalletOneNotification(fields url.Values) (walletone.ConfirmNotification, error) {
	orderID := fields.Get("WMI_ORDER_ID")
	paymentNo := fields.Get("WMI_PAYMENT_NO")
	if orderID == "" || paymentNo == "" {
		return walletone.ConfirmNotification{}, errors.New("missing WMI_ORDER_ID or WMI_PAYMENT_NO")
	}

	amount, err := decimal.NewFromString(fields.Get("WMI_PAYMENT_AMOUNT"))
	if err != nil {
		return walletone.ConfirmNotification{}, err
	}

	notification := walletone.ConfirmNotification{
		OrderID:           orderID,
		MerchantID:        fields.Get("WMI_MERCHANT_ID"),
		PaymentAmount:     amount,
		ToUserID:          fields.Get("WMI_TO_USER_ID"),
		PaymentNo:         paymentNo,
		Description:       fields.Get("WMI_DESCRIPTION"),
		SuccessURL:        fields.Get("WMI_SUCCESS_URL"),
		FailURL:           fields.Get("WMI_FAIL_URL"),
		OrderState:        fields.Get("WMI_ORDER_STATE"),
		ExternalAccountID: fields.Get("WMI_EXTERNAL_ACCOUNT_ID"),
		AutoAccept:        fields.Get("WMI_AUTO_ACCEPT"),
		InvoiceOperations: fields.Get("WMI_INVOICE_OPERATIONS"),
		PaymentType:       fields.Get("WMI_PAYMENT_TYPE"),
		Raw:               fields,
	}

	if raw := fields.Get("WMI_COMMISSION_AMOUNT"); raw != "" {
		if commission, err := decimal.NewFromString(raw); err == nil {
			notification.CommissionAmount = commission
		}
	}
	if raw := fields.Get("WMI_CURRENCY_ID"); raw != "" {
		if currencyID, err := strconv.Atoi(raw); err == nil {
			notification.CurrencyID = currencyID
		}
	}
	if raw := fields.Get("WMI_NOTIFY_COUNT"); raw != "" {
		if notifyCount, err := strconv.Atoi(raw); err == nil {
			notification.NotifyCount = notifyCount
		}
	}
	if raw := fields.Get("WMI_EXPIRED_DATE"); raw != "" {
		if t, err := parseWalletOneTime(raw); err == nil {
			notification.ExpiredDate = t
		}
	}
	if raw := fields.Get("WMI_CREATE_DATE"); raw != "" {
		if t, err := parseWalletOneTime(raw); err == nil {
			notification.CreateDate = t
		}
	}
	if raw := fields.Get("WMI_UPDATE_DATE"); raw != "" {
		if t, err := parseWalletOneTime(raw); err == nil {
			notification.UpdateDate = t
		}
	}
	if raw := fields.Get("WMI_LAST_NOTIFY_DATE"); raw != "" {
		if t, err := parseWalletOneTime(raw); err == nil {
			notification.LastNotifyDate = &t
		}
	}

	return notification, nil
}

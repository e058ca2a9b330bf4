package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LavaJover/shvark-payment-gateway/internal/provider/cloudpayments"
)

type CloudPaymentsHandler struct {
	provider *cloudpayments.Provider
}

func NewCloudPaymentsHandler(provider *cloudpayments.Provider) *CloudPaymentsHandler {
	return &CloudPaymentsHandler{provider: provider}
}

type cloudPaymentsResult struct {
	Code cloudpayments.ResultCode `json:"code"`
}

// Check answers the pre-capture validation request. Any response other than
// code 0 tells the provider not to charge the card.
func (h *CloudPaymentsHandler) Check(w http.ResponseWriter, r *http.Request) {
	notification, err := parseCloudPaymentsNotification(r)
	if err != nil {
		respondJSON(w, http.StatusOK, cloudPaymentsResult{Code: cloudpayments.CodeUnprocessable})
		return
	}

	code, err := h.provider.Check(r.Context(), notification)
	if err != nil {
		respondJSON(w, http.StatusOK, cloudPaymentsResult{Code: cloudpayments.CodeUnprocessable})
		return
	}
	respondJSON(w, http.StatusOK, cloudPaymentsResult{Code: code})
}

// Pay settles the transaction created at the check phase.
func (h *CloudPaymentsHandler) Pay(w http.ResponseWriter, r *http.Request) {
	notification, err := parseCloudPaymentsNotification(r)
	if err != nil {
		respondJSON(w, http.StatusOK, cloudPaymentsResult{Code: cloudpayments.CodeUnprocessable})
		return
	}

	_, _, err = h.provider.Pay(r.Context(), notification)
	if err != nil {
		respondJSON(w, http.StatusOK, cloudPaymentsResult{Code: cloudpayments.PaymentErrorToCode(err)})
		return
	}
	respondJSON(w, http.StatusOK, cloudPaymentsResult{Code: cloudpayments.CodeOK})
}

var cloudPaymentsTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func parseCloudPaymentsTime(raw string) time.Time {
	for _, layout := range cloudPaymentsTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseCloudPaymentsNotification maps the form-encoded webhook payload. The
// HMAC middleware has already authenticated the raw body.
func parseCloudPaymentsNotification(r *http.Request) (cloudpayments.Notification, error) {
	if err := r.ParseForm(); err != nil {
		return cloudpayments.Notification{}, err
	}
	form := r.PostForm

	providerTxID, err := strconv.ParseInt(form.Get("TransactionId"), 10, 64)
	if err != nil {
		return cloudpayments.Notification{}, err
	}
	amount, err := decimal.NewFromString(form.Get("Amount"))
	if err != nil {
		return cloudpayments.Notification{}, err
	}

	notification := cloudpayments.Notification{
		TransactionID:     providerTxID,
		Amount:            amount,
		Currency:          form.Get("Currency"),
		DateTime:          parseCloudPaymentsTime(form.Get("DateTime")),
		CardFirstSix:      form.Get("CardFirstSix"),
		CardLastFour:      form.Get("CardLastFour"),
		CardType:          form.Get("CardType"),
		CardExpDate:       form.Get("CardExpDate"),
		TestMode:          form.Get("TestMode") == "1",
		Status:            form.Get("Status"),
		OperationType:     form.Get("OperationType"),
		InvoiceID:         form.Get("InvoiceId"),
		AccountID:         form.Get("AccountId"),
		SubscriptionID:    form.Get("SubscriptionId"),
		TokenRecipient:    form.Get("TokenRecipient"),
		Name:              form.Get("Name"),
		Email:             form.Get("Email"),
		IPAddress:         form.Get("IpAddress"),
		IPCountry:         form.Get("IpCountry"),
		IPCity:            form.Get("IpCity"),
		IPRegion:          form.Get("IpRegion"),
		IPDistrict:        form.Get("IpDistrict"),
		Issuer:            form.Get("Issuer"),
		IssuerBankCountry: form.Get("IssuerBankCountry"),
		Description:       form.Get("Description"),
		GatewayName:       form.Get("GatewayName"),
		Token:             form.Get("Token"),
	}
	if raw := form.Get("TotalFee"); raw != "" {
		if fee, err := decimal.NewFromString(raw); err == nil {
			notification.TotalFee = &fee
		}
	}
	return notification, nil
}

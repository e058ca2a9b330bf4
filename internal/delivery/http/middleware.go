package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-payment-gateway/internal/provider/cloudpayments"
)

// HMACAuth authenticates CloudPayments webhooks: the Content-HMAC header
// must match the HMAC-SHA256 of the raw body. The body is restored for the
// downstream handler, which re-reads it as a form.
func HMACAuth(validator *cloudpayments.NotificationValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "failed to read body", http.StatusBadRequest)
				return
			}
			r.Body.Close()

			if !validator.Validate(body, r.Header.Get("Content-HMAC")) {
				slog.Warn("rejected cloudpayments notification with bad hmac",
					"remote_addr", r.RemoteAddr)
				http.Error(w, "invalid hmac", http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

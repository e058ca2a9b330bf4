package cloudpayments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// NotificationValidator checks the Content-HMAC header CloudPayments sends
// with every webhook: base64 of HMAC-SHA256 over the full raw request body,
// keyed with the shared API secret. Enforced at the boundary, before the
// provider adapter is invoked at all.
type NotificationValidator struct {
	apiSecret []byte
}

func NewNotificationValidator(apiSecret string) *NotificationValidator {
	return &NotificationValidator{apiSecret: []byte(apiSecret)}
}

func (v *NotificationValidator) CalculateHMAC(body []byte) string {
	mac := hmac.New(sha256.New, v.apiSecret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Validate compares in constant time.
func (v *NotificationValidator) Validate(body []byte, expected string) bool {
	return hmac.Equal([]byte(v.CalculateHMAC(body)), []byte(expected))
}

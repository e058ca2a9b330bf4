package walletone

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func confirmFields() url.Values {
	return url.Values{
		"WMI_MERCHANT_ID":    {"123456789"},
		"WMI_PAYMENT_AMOUNT": {"100.00"},
		"WMI_CURRENCY_ID":    {"643"},
		"WMI_PAYMENT_NO":     {"e9a1f9c0-1111-2222-3333-444455556666"},
		"WMI_ORDER_ID":       {"987654321"},
		"WMI_ORDER_STATE":    {"Accepted"},
		"WMI_DESCRIPTION":    {"Оплата заказа"},
	}
}

func TestSignatureString(t *testing.T) {
	encoder := NewSignEncoder("secret", HashSHA1)

	t.Run("sorts names case-insensitively", func(t *testing.T) {
		fields := url.Values{
			"WMI_b": {"2"},
			"WMI_A": {"1"},
			"WMI_C": {"3"},
		}
		require.Equal(t, "123secret", encoder.SignatureString(fields))
	})

	t.Run("sorts repeated values within a name", func(t *testing.T) {
		fields := url.Values{
			"WMI_X": {"b", "a"},
		}
		require.Equal(t, "absecret", encoder.SignatureString(fields))
	})

	t.Run("excludes the signature field", func(t *testing.T) {
		fields := url.Values{
			"WMI_X":        {"v"},
			SignatureField: {"whatever"},
		}
		require.Equal(t, "vsecret", encoder.SignatureString(fields))
	})
}

func TestSignature(t *testing.T) {
	encoder := NewSignEncoder("secret", HashSHA1)

	t.Run("deterministic", func(t *testing.T) {
		first, err := encoder.Signature(confirmFields())
		require.NoError(t, err)
		second, err := encoder.Signature(confirmFields())
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.NotEmpty(t, first)
	})

	t.Run("ignores submitted signature", func(t *testing.T) {
		plain, err := encoder.Signature(confirmFields())
		require.NoError(t, err)

		withSignature := confirmFields()
		withSignature.Set(SignatureField, "garbage")
		signed, err := encoder.Signature(withSignature)
		require.NoError(t, err)
		require.Equal(t, plain, signed)
	})

	t.Run("any field change invalidates", func(t *testing.T) {
		original, err := encoder.Signature(confirmFields())
		require.NoError(t, err)

		tampered := confirmFields()
		tampered.Set("WMI_PAYMENT_AMOUNT", "100.01")
		changed, err := encoder.Signature(tampered)
		require.NoError(t, err)
		require.NotEqual(t, original, changed)
	})

	t.Run("md5 and sha1 differ", func(t *testing.T) {
		sha1Sig, err := NewSignEncoder("secret", HashSHA1).Signature(confirmFields())
		require.NoError(t, err)
		md5Sig, err := NewSignEncoder("secret", HashMD5).Signature(confirmFields())
		require.NoError(t, err)
		require.NotEqual(t, sha1Sig, md5Sig)
	})

	t.Run("secret participates", func(t *testing.T) {
		one, err := NewSignEncoder("secret-one", HashSHA1).Signature(confirmFields())
		require.NoError(t, err)
		other, err := NewSignEncoder("secret-two", HashSHA1).Signature(confirmFields())
		require.NoError(t, err)
		require.NotEqual(t, one, other)
	})

	t.Run("unsupported hash rejected", func(t *testing.T) {
		_, err := (&SignEncoder{secretKey: "secret", hash: "sha256"}).Signature(confirmFields())
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	encoder := NewSignEncoder("secret", HashSHA1)

	t.Run("accepts correctly signed fields", func(t *testing.T) {
		fields := confirmFields()
		signature, err := encoder.Signature(fields)
		require.NoError(t, err)
		fields.Set(SignatureField, signature)
		require.NoError(t, encoder.Validate(fields))
	})

	t.Run("rejects missing signature", func(t *testing.T) {
		require.ErrorIs(t, encoder.Validate(confirmFields()), ErrBadSignature)
	})

	t.Run("rejects tampered fields", func(t *testing.T) {
		fields := confirmFields()
		signature, err := encoder.Signature(fields)
		require.NoError(t, err)
		fields.Set(SignatureField, signature)
		fields.Set("WMI_PAYMENT_AMOUNT", "1.00")
		require.ErrorIs(t, encoder.Validate(fields), ErrBadSignature)
	})
}

package walletone

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const SignatureField = "WMI_SIGNATURE"

// Hash algorithms the provider has used across protocol revisions.
const (
	HashSHA1 = "sha1"
	HashMD5  = "md5"
)

// SignEncoder reproduces WalletOne's signature algorithm bit-for-bit:
// every submitted field except WMI_SIGNATURE participates; field names are
// sorted case-insensitively, values within one name sorted byte-wise; the
// serialized values are concatenated, the secret key appended, the whole
// string encoded as windows-1251, hashed and base64-encoded. Any deviation
// in enumeration, order or encoding invalidates every signature.
type SignEncoder struct {
	secretKey string
	hash      string
}

func NewSignEncoder(secretKey, hash string) *SignEncoder {
	if hash == "" {
		hash = HashSHA1
	}
	return &SignEncoder{secretKey: secretKey, hash: hash}
}

// SignatureString builds the raw concatenation the hash is computed over.
func (e *SignEncoder) SignatureString(fields url.Values) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == SignatureField {
			continue
		}
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	var b strings.Builder
	for _, name := range names {
		values := append([]string(nil), fields[name]...)
		sort.Strings(values)
		for _, value := range values {
			b.WriteString(value)
		}
	}
	b.WriteString(e.secretKey)
	return b.String()
}

// Signature computes the base64 signature over the submitted fields.
func (e *SignEncoder) Signature(fields url.Values) (string, error) {
	encoded, err := charmap.Windows1251.NewEncoder().String(e.SignatureString(fields))
	if err != nil {
		return "", fmt.Errorf("encoding signature string: %w", err)
	}

	var digest []byte
	switch e.hash {
	case HashMD5:
		sum := md5.Sum([]byte(encoded))
		digest = sum[:]
	case HashSHA1:
		sum := sha1.Sum([]byte(encoded))
		digest = sum[:]
	default:
		return "", fmt.Errorf("unsupported walletone hash algorithm %q", e.hash)
	}
	return base64.StdEncoding.EncodeToString(digest), nil
}

// Validate recomputes the signature over fields and compares it with the
// submitted WMI_SIGNATURE value. Must pass before any state mutation.
func (e *SignEncoder) Validate(fields url.Values) error {
	submitted := fields.Get(SignatureField)
	calculated, err := e.Signature(fields)
	if err != nil {
		return err
	}
	if submitted != calculated {
		return ErrBadSignature
	}
	return nil
}

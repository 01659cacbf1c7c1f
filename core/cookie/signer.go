package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
)

// minSecretLength is the minimum secret length accepted by NewSigner.
const minSecretLength = 32

// Signer signs cookie values with HMAC-SHA256. The first secret signs; every secret
// verifies, which allows key rotation.
type Signer struct {
	secrets []string
}

// NewSigner creates a signer. Empty secrets are ignored.
func NewSigner(secrets []string) (*Signer, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i := range len(secrets) {
		if len(secrets[i]) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(secrets[i]), minSecretLength)
		}
	}

	return &Signer{secrets: secrets}, nil
}

// Sign returns value and its signature in the form base64(value)|base64(mac).
func (s *Signer) Sign(value string) string {
	return base64.URLEncoding.EncodeToString([]byte(value)) + "|" + mac(s.secrets[0], []byte(value))
}

// Verify checks a signed value against all secrets and returns the original value.
func (s *Signer) Verify(signed string) (string, error) {
	encodedValue, signature, ok := strings.Cut(signed, "|")
	if !ok {
		return "", ErrInvalidFormat
	}

	value, err := base64.URLEncoding.DecodeString(encodedValue)
	if err != nil {
		return "", ErrInvalidFormat
	}

	valid := slices.ContainsFunc(s.secrets, func(secret string) bool {
		return subtle.ConstantTimeCompare([]byte(signature), []byte(mac(secret, value))) == 1
	})
	if !valid {
		return "", ErrInvalidSignature
	}
	return string(value), nil
}

func mac(secret string, value []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(value)
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

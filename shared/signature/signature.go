// Package signature authenticates webhook deliveries signed with HMAC-SHA256.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrMissingSecret = errors.New("webhook secret is not configured")
	ErrMissingHeader = errors.New("signature header is missing")
	ErrMalformed     = errors.New("signature header is malformed")
	ErrMismatch      = errors.New("signature does not match")
	ErrExpired       = errors.New("signature timestamp outside tolerance")
)

// Sign returns the lowercase hex HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

// ParseHeader extracts the digest from a bare hex value or from a composite
// "k=v[,k=v...]" value, in which case the value after the first '=' of the first segment is used.
func ParseHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingHeader
	}

	first, _, _ := strings.Cut(header, ",")
	digest := first

	if _, value, found := strings.Cut(first, "="); found {
		digest = value
	}

	digest = strings.ToLower(strings.TrimSpace(digest))
	if digest == "" {
		return "", ErrMalformed
	}

	if _, err := hex.DecodeString(digest); err != nil {
		return "", ErrMalformed
	}

	return digest, nil
}

// Verify checks header against the raw, unparsed body. It fails closed on a missing secret or header.
func Verify(body []byte, header, secret string) error {
	if secret == "" {
		return ErrMissingSecret
	}

	digest, err := ParseHeader(header)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(Sign(body, secret)), []byte(digest)) {
		return ErrMismatch
	}

	return nil
}

// Valid is the boolean form of Verify.
func Valid(body []byte, header, secret string) bool {
	return Verify(body, header, secret) == nil
}

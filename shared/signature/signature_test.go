package signature_test

import (
	"strings"
	"testing"
	"time"

	"retreat/shared/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test"

var body = []byte(`{"type":"booking.paid","data":{"internal_reference":"int_1"}}`)

func TestSignIsDeterministic(t *testing.T) {
	first := signature.Sign(body, secret)

	assert.Equal(t, first, signature.Sign(body, secret))
	assert.Len(t, first, 64)
	assert.Equal(t, strings.ToLower(first), first)
}

func TestSignDetectsTampering(t *testing.T) {
	original := signature.Sign(body, secret)

	for i := range body {
		tampered := append([]byte(nil), body...)
		tampered[i] ^= 0x01

		assert.NotEqual(t, original, signature.Sign(tampered, secret), "byte %d", i)
	}
}

func TestParseHeader(t *testing.T) {
	digest := signature.Sign(body, secret)

	tests := []struct {
		name     string
		header   string
		expected string
		wantErr  error
	}{
		{name: "bare hex", header: digest, expected: digest},
		{name: "bare hex uppercase", header: strings.ToUpper(digest), expected: digest},
		{name: "composite", header: "sha256=" + digest, expected: digest},
		{name: "composite with more segments", header: "v1=" + digest + ",t=1700000000", expected: digest},
		{name: "composite takes first segment only", header: "t=abcd,v1=" + digest, expected: "abcd"},
		{name: "value keeps later equals", header: "v1=" + digest + "=", wantErr: signature.ErrMalformed},
		{name: "empty", header: "", wantErr: signature.ErrMissingHeader},
		{name: "whitespace", header: "   ", wantErr: signature.ErrMissingHeader},
		{name: "empty value", header: "v1=", wantErr: signature.ErrMalformed},
		{name: "not hex", header: "v1=zzzz", wantErr: signature.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := signature.ParseHeader(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestVerify(t *testing.T) {
	digest := signature.Sign(body, secret)

	tests := []struct {
		name    string
		body    []byte
		header  string
		secret  string
		wantErr error
	}{
		{name: "valid bare", body: body, header: digest, secret: secret},
		{name: "valid composite", body: body, header: "sha256=" + digest, secret: secret},
		{name: "missing secret", body: body, header: digest, secret: "", wantErr: signature.ErrMissingSecret},
		{name: "missing header", body: body, header: "", secret: secret, wantErr: signature.ErrMissingHeader},
		{name: "wrong secret", body: body, header: digest, secret: "other", wantErr: signature.ErrMismatch},
		{name: "re-serialized body", body: []byte(`{"type": "booking.paid", "data": {"internal_reference": "int_1"}}`), header: digest, secret: secret, wantErr: signature.ErrMismatch},
		{name: "garbage header", body: body, header: "not-a-signature", secret: secret, wantErr: signature.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := signature.Verify(tt.body, tt.header, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, signature.Valid(tt.body, tt.header, tt.secret))

				return
			}

			assert.NoError(t, err)
			assert.True(t, signature.Valid(tt.body, tt.header, tt.secret))
		})
	}
}

func TestVerifyTimestamped(t *testing.T) {
	signedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	header := signature.SignTimestamped(body, secret, signedAt)

	tests := []struct {
		name    string
		header  string
		secret  string
		now     time.Time
		wantErr error
	}{
		{name: "valid", header: header, secret: secret, now: signedAt.Add(time.Minute)},
		{name: "valid with rotated second digest", header: header + ",v1=" + strings.Repeat("0", 64), secret: secret, now: signedAt},
		{name: "stale", header: header, secret: secret, now: signedAt.Add(10 * time.Minute), wantErr: signature.ErrExpired},
		{name: "wrong secret", header: header, secret: "other", now: signedAt, wantErr: signature.ErrMismatch},
		{name: "missing timestamp", header: "v1=" + signature.Sign(body, secret), secret: secret, now: signedAt, wantErr: signature.ErrMalformed},
		{name: "missing header", header: "", secret: secret, now: signedAt, wantErr: signature.ErrMissingHeader},
		{name: "missing secret", header: header, secret: "", now: signedAt, wantErr: signature.ErrMissingSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := signature.VerifyTimestamped(body, tt.header, tt.secret, 5*time.Minute, tt.now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			assert.NoError(t, err)
		})
	}
}

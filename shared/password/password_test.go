package password_test

import (
	"strings"
	"testing"

	"retreat/shared/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name    string
		plain   string
		wantErr error
	}{
		{name: "account password", plain: "correct horse battery"},
		{name: "unicode", plain: "pässwörd-ñ-日本"},
		{name: "exactly 72 bytes", plain: strings.Repeat("a", 72)},
		{name: "empty", plain: "", wantErr: password.ErrEmpty},
		{name: "over 72 bytes", plain: strings.Repeat("a", 73), wantErr: password.ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := password.Hash(tt.plain)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, tt.plain, hash)

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, password.Cost, cost)
		})
	}
}

func TestHashIsSalted(t *testing.T) {
	first, err := password.Hash("same input")
	require.NoError(t, err)

	second, err := password.Hash("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, password.Verify("same input", first))
	assert.NoError(t, password.Verify("same input", second))
}

func TestVerify(t *testing.T) {
	hash, err := password.Hash("correct horse battery")
	require.NoError(t, err)

	tests := []struct {
		name    string
		plain   string
		hash    string
		wantErr error
	}{
		{name: "match", plain: "correct horse battery", hash: hash},
		{name: "wrong password", plain: "Correct horse battery", hash: hash, wantErr: password.ErrMismatch},
		{name: "empty password", plain: "", hash: hash, wantErr: password.ErrMismatch},
		{name: "empty hash", plain: "correct horse battery", hash: "", wantErr: password.ErrMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := password.Verify(tt.plain, tt.hash)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	err := password.Verify("anything", "not-a-bcrypt-hash")

	require.Error(t, err)
	assert.NotErrorIs(t, err, password.ErrMismatch)
}

func TestNeedsRehash(t *testing.T) {
	weak, err := bcrypt.GenerateFromPassword([]byte("legacy"), bcrypt.MinCost)
	require.NoError(t, err)

	current, err := password.Hash("current")
	require.NoError(t, err)

	assert.True(t, password.NeedsRehash(string(weak)))
	assert.False(t, password.NeedsRehash(current))
	assert.False(t, password.NeedsRehash("garbage"))
}

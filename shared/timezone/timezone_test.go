package timezone_test

import (
	"testing"
	"time"

	"retreat/shared/timezone"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	now := timezone.Now()

	assert.False(t, now.IsZero())
	assert.NotNil(t, timezone.GetLocation())
}

func TestFreeze(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	restore := timezone.Freeze(at)
	assert.True(t, timezone.Now().Equal(at))

	restore()
	assert.False(t, timezone.Now().Equal(at))
}

func TestFormat(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	formatted := timezone.Format(at, "2006-01-02")

	assert.NotEmpty(t, formatted)
	assert.Equal(t, timezone.GetLocation(), timezone.ToAppTime(at).Location())
}

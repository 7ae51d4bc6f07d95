package shared_test

import (
	"strings"
	"testing"
	"time"

	"retreat/shared"
	"retreat/shared/constant"
	"retreat/shared/dto"
	"retreat/shared/timezone"

	"github.com/stretchr/testify/assert"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{name: "zero total", total: 0, limit: 10, expected: 1},
		{name: "zero limit", total: 10, limit: 0, expected: 1},
		{name: "exact division", total: 20, limit: 10, expected: 2},
		{name: "remainder rounds up", total: 21, limit: 10, expected: 3},
		{name: "fewer than a page", total: 3, limit: 10, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shared.CalculateTotalPage(tt.total, tt.limit))
		})
	}
}

type tripUpdate struct {
	Name      string `db:"name"`
	Guests    int    `db:"max_guests"`
	Deposit   *int64 `db:"deposit_per_person_cents"`
	Untracked string
	Skipped   string `db:"-"`
}

func TestTransformFields(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	restore := timezone.Freeze(at)
	defer restore()

	fields := shared.TransformFields(tripUpdate{
		Name:      "Bali Retreat",
		Deposit:   shared.Ptr(int64(25000)),
		Untracked: "ignored",
		Skipped:   "ignored",
	}, "ops@example.com")

	assert.Equal(t, "Bali Retreat", fields["name"])
	assert.Equal(t, int64(25000), fields["deposit_per_person_cents"])
	assert.NotContains(t, fields, "max_guests")
	assert.NotContains(t, fields, "-")
	assert.Equal(t, "ops@example.com", fields[constant.FieldModifiedBy])
	assert.True(t, at.Equal(fields[constant.FieldModifiedAt].(time.Time)))
}

func TestFilterByID(t *testing.T) {
	group := shared.FilterByID("bk_1", "id")
	where, args := group.GetWhereClause()

	assert.Equal(t, "(id = :id)", where)
	assert.Equal(t, map[string]any{"id": "bk_1"}, args)
	assert.Equal(t, dto.FilterGroupOperatorAnd, shared.FilterByID("x", "id").Operator)
}

func TestNewID(t *testing.T) {
	first := shared.NewID("bk")
	second := shared.NewID("bk")

	assert.True(t, strings.HasPrefix(first, "bk_"))
	assert.Len(t, first, len("bk_")+32)
	assert.NotEqual(t, first, second)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "lead_1", shared.FirstNonEmpty("", "  ", "lead_1", "other"))
	assert.Equal(t, "", shared.FirstNonEmpty("", " "))
	assert.Equal(t, "", shared.FirstNonEmpty())
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "trip:get:tr_1", shared.BuildCacheKey("trip:get", "tr_1"))
	assert.Equal(t, "limiter", shared.BuildCacheKey("limiter"))
}

package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekBounds(t *testing.T) {
	istanbul, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	tests := []struct {
		name      string
		at        time.Time
		loc       *time.Location
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "wednesday utc",
			at:        time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC),
			loc:       time.UTC,
			wantStart: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 5, 19, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:      "sunday belongs to the week that started on monday",
			at:        time.Date(2024, 5, 19, 22, 0, 0, 0, time.UTC),
			loc:       time.UTC,
			wantStart: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 5, 19, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:      "sunday night utc is already monday in istanbul",
			at:        time.Date(2024, 5, 19, 22, 0, 0, 0, time.UTC),
			loc:       istanbul,
			wantStart: time.Date(2024, 5, 20, 0, 0, 0, 0, istanbul),
			wantEnd:   time.Date(2024, 5, 26, 23, 59, 59, 999999999, istanbul),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.wantStart.Equal(StartOfWeek(tt.at, tt.loc)), "start: %s", StartOfWeek(tt.at, tt.loc))
			assert.True(t, tt.wantEnd.Equal(EndOfWeek(tt.at, tt.loc)), "end: %s", EndOfWeek(tt.at, tt.loc))
		})
	}
}

func TestIsMonday(t *testing.T) {
	assert.True(t, IsMonday("2024-05-13"))
	assert.False(t, IsMonday("2024-05-14"))
	assert.False(t, IsMonday("13/05/2024"))
}

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, uint64(10), limit)

	offset, limit = CalculateOffsetLimit(0, 1000)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(DefaultPageSize), limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(45, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)

	empty := NewPaginationInfo(0, 5, 20)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 1, empty.CurrentPage)
}

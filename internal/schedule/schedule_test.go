package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSlot(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		clock   string
		want    Slot
		wantErr bool
	}{
		{name: "canonical", date: "2025-05-20", clock: "09:00", want: "2025-05-20 09:00"},
		{name: "single digit hour", date: "2025-05-20", clock: "9:00", want: "2025-05-20 09:00"},
		{name: "with seconds", date: "2025-05-20", clock: "15:30:00", want: "2025-05-20 15:30"},
		{name: "padded input", date: " 2025-05-20 ", clock: " 13:00 ", want: "2025-05-20 13:00"},
		{name: "bad date", date: "20/05/2025", clock: "09:00", wantErr: true},
		{name: "bad hour", date: "2025-05-20", clock: "25:00", wantErr: true},
		{name: "bad minute", date: "2025-05-20", clock: "09:5", wantErr: true},
		{name: "no minutes", date: "2025-05-20", clock: "9am", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSlot(tt.date, tt.clock)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSlot(t *testing.T) {
	got, err := ParseSlot("2025-05-20T9:00")
	require.NoError(t, err)
	assert.Equal(t, Slot("2025-05-20 09:00"), got)
	assert.Equal(t, "2025-05-20", got.Date())

	_, err = ParseSlot("ASAP")
	assert.Error(t, err)
}

func TestNextNDaysUsesBusinessTimezone(t *testing.T) {
	// 2025-05-19 23:30 UTC is already 2025-05-20 in Sydney.
	clock := FixedClock{At: time.Date(2025, 5, 19, 23, 30, 0, 0, time.UTC).In(BusinessLocation(DefaultTimezone))}
	days := NextNDays(clock, 3)
	assert.Equal(t, []string{"2025-05-20", "2025-05-21", "2025-05-22"}, days)
	assert.Nil(t, NextNDays(clock, 0))
}

func TestNextNDaysAcrossDaylightSavingChange(t *testing.T) {
	loc := BusinessLocation(DefaultTimezone)
	clock := FixedClock{At: time.Date(2025, 4, 5, 23, 0, 0, 0, loc)}
	days := NextNDays(clock, 3)
	assert.Equal(t, []string{"2025-04-05", "2025-04-06", "2025-04-07"}, days)
}

func TestBusinessLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, BusinessLocation("Not/AZone"))
	assert.Equal(t, DefaultTimezone, BusinessLocation("").String())
}

func TestWithinBusinessHours(t *testing.T) {
	assert.True(t, WithinBusinessHours("2025-05-20 09:00"))
	assert.True(t, WithinBusinessHours("2025-05-20 17:00"))
	assert.False(t, WithinBusinessHours("2025-05-20 17:30"))
	assert.False(t, WithinBusinessHours("2025-05-20 08:59"))
	assert.False(t, WithinBusinessHours("garbage"))
}

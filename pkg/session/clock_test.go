package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(570), tod)
	assert.Equal(t, "09:30", tod.String())

	_, err = ParseTimeOfDay("9h30")
	require.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestNewClock(t *testing.T) {
	tt := []struct {
		name     string
		timezone string
		start    string
		orEnd    string
		end      string
		valid    bool
	}{
		{"default session", "America/New_York", "09:30", "10:30", "16:00", true},
		{"range ends at close", "UTC", "09:30", "16:00", "16:00", true},
		{"unknown timezone", "Mars/Olympus", "09:30", "10:30", "16:00", false},
		{"empty range", "UTC", "10:30", "10:30", "16:00", false},
		{"range after close", "UTC", "09:30", "17:00", "16:00", false},
		{"bad format", "UTC", "930", "10:30", "16:00", false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClock(tc.timezone, tc.start, tc.orEnd, tc.end)
			if tc.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidWindow)
		})
	}
}

func TestClock_Windows(t *testing.T) {
	clock, err := NewClock("America/New_York", "09:30", "10:30", "16:00")
	require.NoError(t, err)

	// 2024-01-02 is EST (UTC-5)
	at := func(hour, minute int) time.Time {
		return time.Date(2024, 1, 2, hour+5, minute, 0, 0, time.UTC)
	}

	assert.False(t, clock.InOpeningRange(at(9, 29)))
	assert.True(t, clock.InOpeningRange(at(9, 30)))
	assert.True(t, clock.InOpeningRange(at(10, 29)))
	assert.False(t, clock.InOpeningRange(at(10, 30)))

	assert.False(t, clock.PastOpeningRange(at(10, 29)))
	assert.True(t, clock.PastOpeningRange(at(10, 30)))
	assert.True(t, clock.PastOpeningRange(at(17, 0)))

	assert.True(t, clock.InTradingWindow(at(10, 30)))
	assert.True(t, clock.InTradingWindow(at(15, 59)))
	assert.False(t, clock.InTradingWindow(at(16, 0)))

	assert.True(t, clock.InHours(at(8, 0), 8, 12))
	assert.True(t, clock.InHours(at(11, 59), 8, 12))
	assert.False(t, clock.InHours(at(12, 0), 8, 12))
}

func TestClock_Date(t *testing.T) {
	clock, err := NewClock("America/New_York", "09:30", "10:30", "16:00")
	require.NoError(t, err)

	// 03:00 UTC is still the previous evening in New York
	ts := time.Date(2024, 1, 3, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, Date{Year: 2024, Month: time.January, Day: 2}, clock.Date(ts))
	assert.Equal(t, "2024-01-02", clock.Date(ts).String())
	assert.True(t, Date{}.IsZero())
}

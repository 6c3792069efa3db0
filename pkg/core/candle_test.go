package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandle_Columns(t *testing.T) {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	candles := []Candle{
		{Time: start, Open: 10, Close: 11, High: 12, Low: 9},
		{Time: start.Add(time.Minute), Open: 11, Close: 10.5, High: 11.5, Low: 10},
	}

	closes := Closes(candles)
	require.Equal(t, 2, closes.Length())
	assert.Equal(t, Series[float64]{11, 10.5}, closes)
	assert.Equal(t, Series[float64]{12, 11.5}, Highs(candles))
	assert.Equal(t, Series[float64]{9, 10}, Lows(candles))
	assert.Zero(t, Closes(nil).Length())
}

func TestCandle_Valid(t *testing.T) {
	c := Candle{Open: 10, Close: 11, High: 12, Low: 9, Volume: 1}
	assert.True(t, c.Valid())

	c.High = 10.5
	assert.False(t, c.Valid())

	c.High = math.NaN()
	assert.False(t, c.Valid())
}

func TestValidateSeries(t *testing.T) {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	candles := []Candle{{Time: start}, {Time: start.Add(time.Minute)}}
	require.NoError(t, ValidateSeries(candles))

	require.ErrorIs(t, ValidateSeries(nil), ErrNoData)

	candles[1].Time = start
	err := ValidateSeries(candles)
	require.ErrorIs(t, err, ErrNonMonotonic)
	require.ErrorIs(t, err, ErrData)
}

func TestTrade_NetPct(t *testing.T) {
	trade := Trade{EntryPrice: 100, Size: 2, PnL: 4, Fees: 6, NetPnL: -2}
	assert.InDelta(t, -1.0, trade.NetPct(), 1e-12)
	assert.Zero(t, Trade{NetPnL: 5}.NetPct())
}

package exchange

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func TestReadCandles_Headerless(t *testing.T) {
	file := writeFile(t, "1704205800,100,101,99.5,101.5,10\n1704206100,101,100.5,100,101.2,12\n")

	candles, err := ReadCandles(file, "SPY")
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 99.5, candles[0].Low)
	assert.Equal(t, 101.5, candles[0].High)
	assert.Equal(t, 10.0, candles[0].Volume)
	assert.Equal(t, "SPY", candles[0].Pair)
	assert.Nil(t, candles[0].Metadata)
}

func TestReadCandles_HeaderWithMetadata(t *testing.T) {
	file := writeFile(t, "time,open,high,low,close,volume,adx\n"+
		"1704205800000,100,101.5,99.5,101,10,27.5\n"+
		"2024-01-02T14:35:00Z,101,101.2,100,100.5,12,28\n")

	candles, err := ReadCandles(file, "SPY")
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 101.5, candles[0].High)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 27.5, candles[0].Value("adx"))
	assert.True(t, candles[1].Time.Equal(time.Date(2024, 1, 2, 14, 35, 0, 0, time.UTC)))
}

func TestReadCandles_Errors(t *testing.T) {
	_, err := ReadCandles(writeFile(t, "time,open,close\n1704205800,1,2\n"), "SPY")
	require.ErrorIs(t, err, core.ErrData)

	_, err = ReadCandles(writeFile(t, "1704205800,abc,101,99.5,101.5,10\n"), "SPY")
	require.ErrorIs(t, err, core.ErrData)

	_, err = ReadCandles(writeFile(t, ""), "SPY")
	require.ErrorIs(t, err, core.ErrNoData)

	_, err = ReadCandles(filepath.Join(t.TempDir(), "missing.csv"), "SPY")
	require.Error(t, err)
}

func fiveMinuteCandles(start time.Time, n int) []core.Candle {
	candles := make([]core.Candle, n)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = core.Candle{
			Pair:   "SPY",
			Time:   start.Add(time.Duration(i) * 5 * time.Minute),
			Open:   price,
			Close:  price + 0.5,
			High:   price + 1,
			Low:    price - 1,
			Volume: 1,
		}
	}
	return candles
}

func TestResample(t *testing.T) {
	// starts mid period: 14:50 and 14:55 are dropped
	start := time.Date(2024, 1, 2, 14, 50, 0, 0, time.UTC)
	candles := fiveMinuteCandles(start, 2+3+3+1)

	resampled, err := Resample(candles, "5m", "15m")
	require.NoError(t, err)
	require.Len(t, resampled, 2)

	first := resampled[0]
	assert.Equal(t, time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, 102.0, first.Open)
	assert.Equal(t, 104.5, first.Close)
	assert.Equal(t, 105.0, first.High)
	assert.Equal(t, 101.0, first.Low)
	assert.Equal(t, 3.0, first.Volume)
	assert.True(t, first.Complete)

	same, err := Resample(candles, "5m", "5m")
	require.NoError(t, err)
	assert.Len(t, same, len(candles))

	_, err = Resample(candles, "15m", "5m")
	require.ErrorIs(t, err, ErrInvalidTimeframe)

	_, err = Resample(candles, "5m", "3h")
	require.ErrorIs(t, err, ErrInvalidTimeframe)
}

func TestCSVFeed(t *testing.T) {
	file := writeFile(t, "1704207600,100,101,99.5,101.5,10\n"+
		"1704207900,101,102,100.5,102.5,10\n"+
		"1704208200,102,103,101.5,103.5,10\n"+
		"1704208500,103,104,102.5,104.5,10\n")

	feed, err := NewCSVFeed("15m", PairFeed{Pair: "SPY", File: file, Timeframe: "5m"})
	require.NoError(t, err)

	base, err := feed.Candles("SPY", "5m")
	require.NoError(t, err)
	assert.Len(t, base, 4)

	resampled, err := feed.Candles("SPY", "15m")
	require.NoError(t, err)
	require.Len(t, resampled, 1)
	assert.Equal(t, 103.0, resampled[0].Close)

	_, err = feed.Candles("SPY", "1h")
	require.ErrorIs(t, err, ErrInsufficientData)

	window, err := feed.CandlesByPeriod(context.Background(), "SPY", "5m", base[1].Time, base[2].Time)
	require.NoError(t, err)
	assert.Len(t, window, 2)

	feed.Limit(10 * time.Minute)
	base, err = feed.Candles("SPY", "5m")
	require.NoError(t, err)
	assert.Len(t, base, 2)
}

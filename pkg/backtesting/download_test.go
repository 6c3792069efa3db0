package backtesting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/exchange"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	downloadStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	downloadEnd   = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
)

type fakeFeeder struct {
	calls int
	err   error

	// overlap returns one kline past the requested end
	overlap bool
	// formingAfter marks klines opened after it as incomplete
	formingAfter time.Time
	// swap exchanges the first two klines of every batch
	swap bool
}

func (f *fakeFeeder) CandlesByPeriod(_ context.Context, pair, _ string, start, end time.Time) ([]core.Candle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	if f.overlap {
		end = end.Add(5 * time.Minute)
	}

	var candles []core.Candle
	for t := start; !t.After(end); t = t.Add(5 * time.Minute) {
		candles = append(candles, core.Candle{
			Pair:     pair,
			Time:     t,
			Open:     100,
			Close:    101,
			Low:      99,
			High:     102,
			Volume:   1,
			Complete: f.formingAfter.IsZero() || !t.After(f.formingAfter),
		})
	}

	if f.swap && len(candles) > 1 {
		candles[0], candles[1] = candles[1], candles[0]
	}
	return candles, nil
}

func download(t *testing.T, feeder *fakeFeeder) (string, error) {
	t.Helper()
	output := filepath.Join(t.TempDir(), "spy.csv")
	err := NewDownloader(feeder, logger.NewNop()).Download(context.Background(), "SPY", "5m", output,
		WithInterval(downloadStart, downloadEnd), WithoutProgress(), WithPrecision(2))
	return output, err
}

func TestDownloader_Download(t *testing.T) {
	feeder := &fakeFeeder{}
	output, err := download(t, feeder)
	require.NoError(t, err)

	// 3 days of 5m candles in batches of 500
	assert.Equal(t, 2, feeder.calls)

	candles, err := exchange.ReadCandles(output, "SPY")
	require.NoError(t, err)
	require.Len(t, candles, 3*288+1)
	assert.Equal(t, downloadStart, candles[0].Time)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.NoError(t, core.ValidateSeries(candles))
}

func TestDownloader_DropsOverlapAndFormingKlines(t *testing.T) {
	feeder := &fakeFeeder{overlap: true, formingAfter: downloadEnd}
	output, err := download(t, feeder)
	require.NoError(t, err)

	candles, err := exchange.ReadCandles(output, "SPY")
	require.NoError(t, err)
	require.Len(t, candles, 3*288+1)
	assert.Equal(t, downloadEnd, candles[len(candles)-1].Time)
	assert.NoError(t, core.ValidateSeries(candles))
}

func TestDownloader_InvalidSeriesIsNotWritten(t *testing.T) {
	feeder := &fakeFeeder{swap: true}
	output, err := download(t, feeder)
	require.ErrorIs(t, err, core.ErrNonMonotonic)
	require.ErrorIs(t, err, core.ErrData)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))

	entries, err := os.ReadDir(filepath.Dir(output))
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file must be removed")
}

func TestDownloader_FeederError(t *testing.T) {
	boom := errors.New("boom")
	output, err := download(t, &fakeFeeder{err: boom})
	require.ErrorIs(t, err, boom)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloader_InvalidTimeframe(t *testing.T) {
	output := filepath.Join(t.TempDir(), "spy.csv")
	err := NewDownloader(&fakeFeeder{}, logger.NewNop()).Download(context.Background(), "SPY", "later", output,
		WithInterval(downloadStart, downloadEnd), WithoutProgress())
	require.ErrorIs(t, err, core.ErrConfig)
}

func TestFilterBatch(t *testing.T) {
	at := func(i int) time.Time { return downloadStart.Add(time.Duration(i) * 5 * time.Minute) }
	candle := func(i int, complete bool) core.Candle {
		return core.Candle{Time: at(i), Open: 1, Close: 1, High: 1, Low: 1, Complete: complete}
	}

	batch := []core.Candle{candle(3, true), candle(4, true), candle(5, true), candle(6, true), candle(7, false)}
	batch[2].High = 0.5

	var stats downloadStats
	out := filterBatch(batch, at(4), &stats)
	require.Len(t, out, 2)
	assert.Equal(t, at(5), out[0].Time)
	assert.Equal(t, at(6), out[1].Time)
	assert.Equal(t, 2, stats.Duplicates)
	assert.Equal(t, 1, stats.Incomplete)
	assert.Equal(t, 1, stats.Malformed)

	// nothing is dropped before the first write
	stats = downloadStats{}
	assert.Len(t, filterBatch(batch[:2], time.Time{}, &stats), 2)
	assert.Zero(t, stats.Duplicates)

	assert.Equal(t, 3, downloadStats{Expected: 10, Written: 7}.missing())
	assert.Zero(t, downloadStats{Expected: 1, Written: 2}.missing())
}

func TestCalculateBatchEnd(t *testing.T) {
	end := downloadStart.Add(24 * time.Hour)

	assert.Equal(t, end, calculateBatchEnd(downloadStart, 5*time.Minute, end))
	assert.Equal(t, downloadStart.Add(500*time.Minute-time.Second), calculateBatchEnd(downloadStart, time.Minute, end))
}

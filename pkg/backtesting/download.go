package backtesting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/exchange"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/xhit/go-str2duration/v2"
)

const (
	batchSize        = 500
	defaultPrecision = 8
)

// CSV header names, in the column order read back by exchange.NewCSVFeed
var csvHeaders = []string{"time", "open", "close", "low", "high", "volume"}

// Downloader writes the candles of a feeder into a CSV file that the
// backtest can replay
type Downloader struct {
	exchange exchange.Feeder
	log      logger.Logger
}

// NewDownloader creates a new downloader instance with the provided exchange
func NewDownloader(exchange exchange.Feeder, log logger.Logger) Downloader {
	return Downloader{
		exchange: exchange,
		log:      log,
	}
}

// Parameters defines the time range for data download
type Parameters struct {
	Start     time.Time
	End       time.Time
	Precision int
	Silent    bool
}

// Option is a function type for configuring download parameters
type Option func(*Parameters)

// WithInterval sets specific start and end times for the download
func WithInterval(start, end time.Time) Option {
	return func(parameters *Parameters) {
		parameters.Start = start
		parameters.End = end
	}
}

// WithDays sets the download period to a specific number of days from now
func WithDays(days int) Option {
	return func(parameters *Parameters) {
		parameters.Start = time.Now().AddDate(0, 0, -days)
		parameters.End = time.Now()
	}
}

// WithPrecision sets the number of decimals written for prices
func WithPrecision(precision int) Option {
	return func(parameters *Parameters) {
		parameters.Precision = precision
	}
}

// WithoutProgress hides the progress bar
func WithoutProgress() Option {
	return func(parameters *Parameters) {
		parameters.Silent = true
	}
}

// downloadStats counts what happened to the klines of a download
type downloadStats struct {
	Expected   int
	Written    int
	Duplicates int
	Incomplete int
	Malformed  int
}

// missing is the number of expected candles the feeder never returned
func (r downloadStats) missing() int {
	return max(r.Expected-r.Written, 0)
}

// Download fetches candles in batches and writes them to outputPath. Klines
// repeated across batch boundaries and klines that are still forming are
// dropped. Every batch must pass core.ValidateSeries; the file only replaces
// outputPath once the whole range was written, so a series the backtest would
// reject is never left behind.
func (d Downloader) Download(ctx context.Context, pair, timeframe, outputPath string, options ...Option) error {
	parameters := initializeParameters()
	for _, option := range options {
		option(parameters)
	}
	normalizeTimeParameters(parameters)

	interval, err := str2duration.ParseDuration(timeframe)
	if err != nil || interval <= 0 {
		return fmt.Errorf("%w: invalid timeframe %q", core.ErrConfig, timeframe)
	}

	stats := downloadStats{Expected: int(parameters.End.Sub(parameters.Start)/interval) + 1}
	d.log.Infof("downloading %d %s candles of %s", stats.Expected, timeframe, pair)

	progressBar := progressbar.Default(int64(stats.Expected))
	if parameters.Silent {
		progressBar = progressbar.DefaultSilent(int64(stats.Expected))
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), filepath.Base(outputPath)+".*.part")
	if err != nil {
		return err
	}

	err = d.stream(ctx, pair, timeframe, parameters, interval, tmp, progressBar, &stats)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	if err := progressBar.Close(); err != nil {
		d.log.Warnf("failed to close progress bar: %s", err)
	}

	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	d.log.WithFields(map[string]any{
		"written":    stats.Written,
		"missing":    stats.missing(),
		"duplicates": stats.Duplicates,
		"incomplete": stats.Incomplete,
		"malformed":  stats.Malformed,
	}).Infof("saved %s", outputPath)

	if stats.Malformed > 0 {
		d.log.Warnf("%d malformed candles will be skipped by the backtest", stats.Malformed)
	}
	return nil
}

func (d Downloader) stream(
	ctx context.Context,
	pair, timeframe string,
	parameters *Parameters,
	interval time.Duration,
	output io.Writer,
	progressBar *progressbar.ProgressBar,
	stats *downloadStats,
) error {
	writer := csv.NewWriter(output)
	if err := writer.Write(csvHeaders); err != nil {
		return err
	}

	var last time.Time
	for batchStart := parameters.Start; batchStart.Before(parameters.End); batchStart = batchStart.Add(interval * batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}

		batchEnd := calculateBatchEnd(batchStart, interval, parameters.End)
		raw, err := d.exchange.CandlesByPeriod(ctx, pair, timeframe, batchStart, batchEnd)
		if err != nil {
			return fmt.Errorf("fetch %s %s from %s: %w", pair, timeframe, batchStart.Format(time.RFC3339), err)
		}

		if err := progressBar.Add(len(raw)); err != nil {
			d.log.Warnf("failed to update progress bar: %s", err)
		}

		candles := filterBatch(raw, last, stats)
		if len(candles) == 0 {
			continue
		}

		if err := core.ValidateSeries(candles); err != nil {
			return fmt.Errorf("batch from %s: %w", batchStart.Format(time.RFC3339), err)
		}

		if err := writeCandles(writer, candles, parameters.Precision); err != nil {
			return err
		}

		last = candles[len(candles)-1].Time
		stats.Written += len(candles)
	}

	if stats.Written == 0 {
		return fmt.Errorf("%w: %s %s between %s and %s", core.ErrNoData, pair, timeframe,
			parameters.Start.Format(time.RFC3339), parameters.End.Format(time.RFC3339))
	}

	writer.Flush()
	return writer.Error()
}

// filterBatch drops the leading klines already written by the previous batch
// and every kline that is still forming
func filterBatch(candles []core.Candle, last time.Time, stats *downloadStats) []core.Candle {
	skip := 0
	if !last.IsZero() {
		for skip < len(candles) && !candles[skip].Time.After(last) {
			skip++
		}
	}
	stats.Duplicates += skip

	complete := lo.Filter(candles[skip:], func(candle core.Candle, _ int) bool {
		return candle.Complete
	})
	stats.Incomplete += len(candles) - skip - len(complete)
	stats.Malformed += lo.CountBy(complete, func(candle core.Candle) bool {
		return !candle.Valid()
	})

	return complete
}

// initializeParameters creates default parameters for the last month
func initializeParameters() *Parameters {
	now := time.Now()
	return &Parameters{
		Start:     now.AddDate(0, -1, 0),
		End:       now,
		Precision: defaultPrecision,
	}
}

// normalizeTimeParameters moves the start to midnight UTC and clamps the end
// to now, or to midnight when it lies in the past
func normalizeTimeParameters(parameters *Parameters) {
	parameters.Start = time.Date(
		parameters.Start.Year(),
		parameters.Start.Month(),
		parameters.Start.Day(),
		0, 0, 0, 0, time.UTC,
	)

	now := time.Now()
	if now.Sub(parameters.End) > 0 {
		parameters.End = time.Date(
			parameters.End.Year(),
			parameters.End.Month(),
			parameters.End.Day(),
			0, 0, 0, 0, time.UTC,
		)
	} else {
		parameters.End = now
	}
}

// calculateBatchEnd returns the end of a batch, one second before the next
// batch starts, capped at totalEnd
func calculateBatchEnd(batchStart time.Time, interval time.Duration, totalEnd time.Time) time.Time {
	potentialEnd := batchStart.Add(interval * batchSize)
	if potentialEnd.Before(totalEnd) {
		return potentialEnd.Add(-1 * time.Second)
	}
	return totalEnd
}

func writeCandles(writer *csv.Writer, candles []core.Candle, precision int) error {
	for _, candle := range candles {
		if err := writer.Write(candle.ToSlice(precision)); err != nil {
			return err
		}
	}
	return nil
}

package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"
	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/logger"
)

const defaultMaxRetries = 5

// Option configures the kline feeder
type Option func(*Binance)

// WithCredentials sets the API credentials; klines are public so they are optional
func WithCredentials(key, secret string) Option {
	return func(b *Binance) {
		b.client = binance.NewClient(key, secret)
	}
}

// WithTestNet uses the Binance spot testnet
func WithTestNet() Option {
	return func(b *Binance) {
		binance.UseTestnet = true
	}
}

// WithMaxRetries sets how many times a failed request is retried
func WithMaxRetries(retries int) Option {
	return func(b *Binance) {
		b.maxRetries = retries
	}
}

// Binance downloads historical klines from the spot API
type Binance struct {
	client     *binance.Client
	log        logger.Logger
	maxRetries int
}

func New(log logger.Logger, options ...Option) *Binance {
	b := &Binance{
		client:     binance.NewClient("", ""),
		log:        log,
		maxRetries: defaultMaxRetries,
	}

	for _, option := range options {
		option(b)
	}

	return b
}

// CandlesByPeriod fetches klines opened in [start, end], retrying with backoff
func (b *Binance) CandlesByPeriod(ctx context.Context, pair, period string,
	start, end time.Time) ([]core.Candle, error) {

	retry := setupBackoffRetry()

	for {
		data, err := b.client.NewKlinesService().
			Symbol(pair).
			Interval(period).
			StartTime(start.UnixMilli()).
			EndTime(end.UnixMilli()).
			Do(ctx)

		if err == nil {
			now := time.Now()
			candles := make([]core.Candle, 0, len(data))
			for _, d := range data {
				candles = append(candles, convertKlineToCandle(pair, *d, now))
			}
			return candles, nil
		}

		attempt := int(retry.Attempt())
		if attempt >= b.maxRetries {
			return nil, fmt.Errorf("binance klines %s %s: %w", pair, period, err)
		}

		wait := retry.Duration()
		b.log.WithError(err).Warnf("binance klines request failed (attempt %d), retrying in %s", attempt+1, wait)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// convertKlineToCandle converts a Binance kline to a core.Candle. A kline
// whose close time has not passed yet is still forming.
func convertKlineToCandle(pair string, k binance.Kline, now time.Time) core.Candle {
	candle := core.Candle{
		Pair:     pair,
		Time:     time.UnixMilli(k.OpenTime).UTC(),
		Complete: k.CloseTime < now.UnixMilli(),
	}

	candle.Open, _ = strconv.ParseFloat(k.Open, 64)
	candle.Close, _ = strconv.ParseFloat(k.Close, 64)
	candle.High, _ = strconv.ParseFloat(k.High, 64)
	candle.Low, _ = strconv.ParseFloat(k.Low, 64)
	candle.Volume, _ = strconv.ParseFloat(k.Volume, 64)

	return candle
}

// setupBackoffRetry creates a backoff with sensible defaults
func setupBackoffRetry() *backoff.Backoff {
	return &backoff.Backoff{
		Min: 100 * time.Millisecond,
		Max: 1 * time.Second,
	}
}

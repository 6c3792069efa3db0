package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/xhit/go-str2duration/v2"
)

// Metadata columns written by Enrich
const (
	ColumnADX    = "adx"
	ColumnHTFEMA = "htf_ema"
)

// EnrichOptions configures the indicator columns attached to a series
type EnrichOptions struct {
	ADXPeriod    int    `mapstructure:"adx_period"`
	HTFTimeframe string `mapstructure:"htf_timeframe"` // empty disables the higher timeframe EMA
	HTFEMAPeriod int    `mapstructure:"htf_ema_period"`
}

// DefaultEnrichOptions returns ADX-14 and an EMA-20 over hourly closes
func DefaultEnrichOptions() EnrichOptions {
	return EnrichOptions{
		ADXPeriod:    14,
		HTFTimeframe: "1h",
		HTFEMAPeriod: 20,
	}
}

// Enrich returns a copy of candles carrying the adx column and, when a higher
// timeframe is configured, the htf_ema column. Malformed candles are left out
// of every calculation and receive NaN.
func Enrich(candles []core.Candle, opts EnrichOptions) ([]core.Candle, error) {
	if opts.ADXPeriod <= 0 {
		return nil, fmt.Errorf("%w: adx period must be positive, got %d", core.ErrConfig, opts.ADXPeriod)
	}

	var (
		valid  = make([]int, 0, len(candles))
		series = make([]core.Candle, 0, len(candles))
	)
	for i, c := range candles {
		if c.Valid() {
			valid = append(valid, i)
			series = append(series, c)
		}
	}

	adx := make([]float64, len(candles))
	for i := range adx {
		adx[i] = math.NaN()
	}

	if closes := core.Closes(series); closes.Length() > 2*opts.ADXPeriod {
		for k, v := range ADX(core.Highs(series), core.Lows(series), closes, opts.ADXPeriod) {
			adx[valid[k]] = v
		}
	}

	var htf []float64
	if opts.HTFTimeframe != "" {
		var err error
		htf, err = higherTimeframeEMA(candles, valid, opts.HTFTimeframe, opts.HTFEMAPeriod)
		if err != nil {
			return nil, err
		}
	}

	out := make([]core.Candle, len(candles))
	for i, c := range candles {
		c = c.WithValue(ColumnADX, adx[i])
		if htf != nil {
			c = c.WithValue(ColumnHTFEMA, htf[i])
		}
		out[i] = c
	}

	return out, nil
}

// higherTimeframeEMA aggregates closes into timeframe buckets and computes an
// EMA over them. Each bucket value is stamped at the bucket end, so a base
// candle only sees higher timeframe candles that were already complete.
func higherTimeframeEMA(candles []core.Candle, valid []int, timeframe string, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: htf ema period must be positive, got %d", core.ErrConfig, period)
	}

	duration, err := str2duration.ParseDuration(timeframe)
	if err != nil || duration <= 0 {
		return nil, fmt.Errorf("%w: invalid htf timeframe %q", core.ErrConfig, timeframe)
	}

	var (
		ema       = NewRollingEMA(period)
		srcTimes  []time.Time
		srcValues []float64
		bucket    time.Time
		lastClose float64
		open      bool
	)

	flush := func() {
		srcTimes = append(srcTimes, bucket.Add(duration))
		srcValues = append(srcValues, ema.Update(lastClose))
	}

	for _, i := range valid {
		start := candles[i].Time.Truncate(duration)
		if open && !start.Equal(bucket) {
			flush()
		}
		bucket = start
		lastClose = candles[i].Close
		open = true
	}
	if open {
		flush()
	}

	times := make([]time.Time, len(candles))
	for i, c := range candles {
		times[i] = c.Time
	}

	return AlignBackward(times, srcTimes, srcValues), nil
}

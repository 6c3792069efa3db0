package core

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Candle represents a trading candle with OHLCV data
type Candle struct {
	Pair     string
	Time     time.Time
	Open     float64
	Close    float64
	Low      float64
	High     float64
	Volume   float64
	Complete bool

	// Aligned indicator columns (e.g. adx, htf_ema)
	Metadata map[string]float64
}

// Valid reports whether the candle prices are finite and internally consistent:
// high must cover open/close and low must not exceed them
func (c Candle) Valid() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	if c.Volume < 0 {
		return false
	}

	return c.High >= math.Max(c.Open, c.Close) && c.Low <= math.Min(c.Open, c.Close)
}

// Body returns the absolute distance between open and close
func (c Candle) Body() float64 { return math.Abs(c.Close - c.Open) }

// Range returns the distance between high and low
func (c Candle) Range() float64 { return c.High - c.Low }

// Value returns a metadata column, or NaN when the column is absent
func (c Candle) Value(column string) float64 {
	if v, ok := c.Metadata[column]; ok {
		return v
	}
	return math.NaN()
}

// WithValue returns a copy of the candle with the metadata column set.
// The receiver metadata map is never mutated.
func (c Candle) WithValue(column string, value float64) Candle {
	metadata := make(map[string]float64, len(c.Metadata)+1)
	for k, v := range c.Metadata {
		metadata[k] = v
	}
	metadata[column] = value
	c.Metadata = metadata
	return c
}

// ToSlice converts a candle to a string slice for serialization
// with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// ValidateSeries checks that candle timestamps are strictly increasing.
// Price problems are not reported here: malformed bars are skipped by the
// simulation, while an out of order timestamp invalidates the whole run.
func ValidateSeries(candles []Candle) error {
	if len(candles) == 0 {
		return ErrNoData
	}

	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s does not follow %s",
				ErrNonMonotonic, i, candles[i].Time.Format(time.RFC3339), candles[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}

// Closes extracts the close prices of a candle slice
func Closes(candles []Candle) Series[float64] {
	values := make(Series[float64], len(candles))
	for i, c := range candles {
		values[i] = c.Close
	}
	return values
}

// Highs extracts the high prices of a candle slice
func Highs(candles []Candle) Series[float64] {
	values := make(Series[float64], len(candles))
	for i, c := range candles {
		values[i] = c.High
	}
	return values
}

// Lows extracts the low prices of a candle slice
func Lows(candles []Candle) Series[float64] {
	values := make(Series[float64], len(candles))
	for i, c := range candles {
		values[i] = c.Low
	}
	return values
}

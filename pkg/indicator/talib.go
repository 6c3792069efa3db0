package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// ADX calculates Average Directional Movement Index
func ADX(high []float64, low []float64, close []float64, period int) []float64 {
	return warmup(talib.Adx(high, low, close, period), 2*period-1)
}

// warmup replaces the zero filled lookback of a talib output with NaN, so an
// unavailable value never passes a threshold check
func warmup(values []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}

package strategy

import (
	"testing"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/session"
	"github.com/stretchr/testify/require"
)

// sessionOpen is 08:30 New York time on 2024-01-02 (EST)
var sessionOpen = time.Date(2024, 1, 2, 13, 30, 0, 0, time.UTC)

func bar(ts time.Time, open, close, high, low float64) core.Candle {
	return core.Candle{Pair: "SPY", Time: ts, Open: open, Close: close, High: high, Low: low, Volume: 1000, Complete: true}
}

func flat(ts time.Time, price float64) core.Candle {
	return bar(ts, price, price, price+0.5, price-0.5)
}

func at(index int) time.Time {
	return sessionOpen.Add(time.Duration(index) * 5 * time.Minute)
}

// tapSeries builds one session: opening range closes in [100, 108], a bullish
// gap on bars 24-26, a break above 108 on bar 27 and a tap into the gap on bar 30
func tapSeries() []core.Candle {
	candles := make([]core.Candle, 0, 40)
	for i := 0; i < 18; i++ {
		candles = append(candles, flat(at(i), 100))
	}
	candles = append(candles, bar(at(18), 100, 108, 108.5, 99.8))
	candles = append(candles, bar(at(19), 104, 104, 104.5, 100))
	for i := 20; i < 25; i++ {
		candles = append(candles, flat(at(i), 104))
	}
	candles = append(candles,
		bar(at(25), 104.4, 106.6, 107, 104.2),
		bar(at(26), 106.6, 107.5, 107.9, 105.5),
		bar(at(27), 107.5, 108.6, 108.9, 107.3),
		bar(at(28), 108.6, 109, 109.4, 108.4),
		bar(at(29), 109, 108, 109.2, 107.8),
		bar(at(30), 108, 105.8, 108.1, 105.3),
	)
	for i := 31; i < 40; i++ {
		candles = append(candles, flat(at(i), 105.8))
	}
	return candles
}

func withADX(candles []core.Candle, value float64) []core.Candle {
	out := make([]core.Candle, len(candles))
	for i, c := range candles {
		out[i] = c.WithValue("adx", value)
	}
	return out
}

func newClock(t *testing.T) *session.Clock {
	t.Helper()
	clock, err := DefaultParams().Clock()
	require.NoError(t, err)
	return clock
}

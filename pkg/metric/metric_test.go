package metric

import (
	"math"
	"testing"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

func curve(values ...float64) []core.EquitySample {
	out := make([]core.EquitySample, len(values))
	for i, v := range values {
		out[i] = core.EquitySample{Time: start.Add(time.Duration(i) * time.Minute), Equity: v}
	}
	return out
}

// trade has a 10000 notional, so pct is both the gross and the net return
func trade(net float64, pct float64) core.Trade {
	return core.Trade{
		EntryTime:  start,
		ExitTime:   start.Add(time.Hour),
		EntryPrice: 100,
		Size:       100,
		PnL:        net,
		PnLPct:     pct,
		NetPnL:     net,
	}
}

func TestCalculate_NoTrades(t *testing.T) {
	summary := Calculate(nil, nil, 0)
	assert.Equal(t, Summary{}, summary)

	summary = Calculate(curve(10000, 10000, 10000), nil, 252)
	assert.Equal(t, 0, summary.TotalTrades)
	assert.Zero(t, summary.WinRate)
	assert.Zero(t, summary.AvgWin)
	assert.Zero(t, summary.AvgLoss)
	assert.Zero(t, summary.ProfitFactor)
	assert.Zero(t, summary.Expectancy)
	assert.Zero(t, summary.MaxDrawdown)
	assert.Zero(t, summary.Sharpe)
	assert.Equal(t, 10000.0, summary.FinalEquity)
}

func TestCalculate_Trades(t *testing.T) {
	trades := []core.Trade{
		trade(200, 2),
		trade(-100, -1),
		trade(100, 1),
		trade(-100, -1),
	}

	summary := Calculate(curve(10000, 10200, 10100, 10200, 10100), trades, 252)

	assert.Equal(t, 4, summary.TotalTrades)
	assert.Equal(t, 2, summary.Wins)
	assert.Equal(t, 2, summary.Losses)
	assert.Equal(t, 0.5, summary.WinRate)
	assert.Equal(t, 150.0, summary.AvgWin)
	assert.Equal(t, 100.0, summary.AvgLoss)
	assert.Equal(t, 1.5, summary.ProfitFactor)
	assert.Equal(t, 25.0, summary.Expectancy)
	assert.Equal(t, 200.0, summary.MaxWin)
	assert.Equal(t, 100.0, summary.MaxLoss)
	assert.Equal(t, 100.0, summary.TotalPnL)
	assert.InDelta(t, 1.5, summary.Payoff, 1e-12)
	assert.Equal(t, time.Hour, summary.AvgDuration)
	assert.InDelta(t, 0.01, summary.TotalReturn, 1e-12)
	assert.InDelta(t, 100.0/10200, summary.MaxDrawdown, 1e-12)
}

func TestCalculate_OnlyWinners(t *testing.T) {
	summary := Calculate(curve(10000, 10100), []core.Trade{trade(100, 1)}, 252)
	assert.True(t, math.IsInf(summary.ProfitFactor, 1))
	assert.Equal(t, 1.0, summary.WinRate)
}

func TestCalculate_ZeroNetIsLoss(t *testing.T) {
	summary := Calculate(curve(10000, 10000), []core.Trade{trade(0, 0)}, 252)
	assert.Equal(t, 0, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.Zero(t, summary.ProfitFactor)
}

func TestCalculate_PayoffUsesNetReturns(t *testing.T) {
	// gross +0.3% turned into a net loss by fees
	feeLoss := trade(-10, 0.3)
	feeLoss.PnL = 30
	feeLoss.Fees = 40

	summary := Calculate(curve(10000, 10190), []core.Trade{trade(200, 2), feeLoss}, 252)
	assert.Equal(t, 1, summary.Losses)
	assert.InDelta(t, -0.1, feeLoss.NetPct(), 1e-12)
	assert.InDelta(t, 20.0, summary.Payoff, 1e-9)
}

func TestProfitFactorAndPayoff(t *testing.T) {
	assert.Equal(t, 1.5, ProfitFactor(150, 100))
	assert.Equal(t, 1.5, ProfitFactor(150, -100))
	assert.True(t, math.IsInf(ProfitFactor(1, 0), 1))
	assert.Zero(t, ProfitFactor(0, 0))

	assert.Equal(t, 2.0, Payoff([]float64{2, 4}, []float64{-1, -2}))
	assert.Zero(t, Payoff([]float64{2}, nil))
	assert.Zero(t, Payoff(nil, []float64{1}))
}

func TestMaxDrawdown(t *testing.T) {
	assert.Zero(t, MaxDrawdown(nil))
	assert.Zero(t, MaxDrawdown([]float64{1, 2, 3}))
	assert.InDelta(t, 0.5, MaxDrawdown([]float64{100, 200, 100, 150}), 1e-12)
	assert.InDelta(t, 0.25, MaxDrawdown([]float64{0, 100, 75}), 1e-12)
}

func TestSharpe(t *testing.T) {
	assert.Zero(t, Sharpe([]float64{100, 101}, 252))
	assert.Zero(t, Sharpe([]float64{100, 100, 100}, 252))

	equity := []float64{100, 101, 100, 102}
	returns := []float64{0.01, 100.0/101 - 1, 0.02}
	mean := (returns[0] + returns[1] + returns[2]) / 3
	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	expected := mean / math.Sqrt(ss/2) * math.Sqrt(252)

	assert.InDelta(t, expected, Sharpe(equity, 252), 1e-9)
}

func TestSQN(t *testing.T) {
	assert.Zero(t, SQN(nil))
	assert.Zero(t, SQN([]float64{1, 1}))
	assert.InDelta(t, math.Sqrt(2)*1/2, SQN([]float64{3, -1}), 1e-12)
}

func TestBootstrapSeeded(t *testing.T) {
	values := []float64{1, -0.5, 2, -1, 0.5, 1.5, -0.2}

	first := BootstrapSeeded(values, Mean, 500, 0.95, 42)
	second := BootstrapSeeded(values, Mean, 500, 0.95, 42)
	require.Equal(t, first, second)

	assert.LessOrEqual(t, first.Lower, first.Mean)
	assert.GreaterOrEqual(t, first.Upper, first.Mean)
	assert.Equal(t, BootstrapInterval{}, Bootstrap(nil, Mean, 10, 0.95))
}

func TestRatios(t *testing.T) {
	assert.Equal(t, 10.0, ProfitRatio([]float64{1, 2}))
	assert.Equal(t, 3.0, ProfitRatio([]float64{1, 2, -1}))
	assert.Equal(t, 10.0, PayoffRatio([]float64{1, 2}))
	assert.Equal(t, 1.5, PayoffRatio([]float64{1, 2, -1}))
}

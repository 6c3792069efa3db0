package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateAt(localHour int, direction core.Direction, entry, stop float64) EntryCandidate {
	return EntryCandidate{
		Pair:       "SPY",
		Direction:  direction,
		EntryPrice: entry,
		StopLoss:   stop,
		Time:       time.Date(2024, 1, 2, localHour+5, 0, 0, 0, time.UTC),
		Close:      entry,
		HTFEMA:     math.NaN(),
	}
}

func TestSynthesizer_Sizing(t *testing.T) {
	synth := NewSynthesizer(DefaultParams(), newClock(t), logger.NewNop())

	signal, rejection := synth.Synthesize(candidateAt(10, core.DirectionLong, 100, 98), 30)
	require.Equal(t, RejectNone, rejection)
	require.NotNil(t, signal)

	assert.Equal(t, 100.0, signal.EntryPrice)
	assert.Equal(t, 98.0, signal.StopLoss)
	assert.InDelta(t, 104.0, signal.TakeProfit, 1e-9)
	assert.InDelta(t, 50.0, signal.Size, 1e-9)
	assert.Equal(t, core.DirectionLong, signal.Direction)

	signal, rejection = synth.Synthesize(candidateAt(10, core.DirectionShort, 100, 102), 30)
	require.Equal(t, RejectNone, rejection)
	assert.InDelta(t, 96.0, signal.TakeProfit, 1e-9)
	assert.InDelta(t, 50.0, signal.Size, 1e-9)
}

func TestSynthesizer_Filters(t *testing.T) {
	params := DefaultParams()
	params.HTFFilter = true
	synth := NewSynthesizer(params, newClock(t), logger.NewNop())

	htf := func(c EntryCandidate, ema float64) EntryCandidate {
		c.HTFEMA = ema
		return c
	}

	tt := []struct {
		name      string
		candidate EntryCandidate
		adx       float64
		expected  Rejection
	}{
		{"before session filter", candidateAt(7, core.DirectionLong, 100, 98), 30, RejectSession},
		{"at session filter end", candidateAt(12, core.DirectionLong, 100, 98), 30, RejectSession},
		{"weak trend", candidateAt(10, core.DirectionLong, 100, 98), 24.9, RejectTrend},
		{"trend unavailable", candidateAt(10, core.DirectionLong, 100, 98), math.NaN(), RejectTrend},
		{"zero risk", candidateAt(10, core.DirectionLong, 100, 100), 30, RejectZeroRisk},
		{"long under htf ema", htf(candidateAt(10, core.DirectionLong, 100, 98), 101), 30, RejectHTF},
		{"short over htf ema", htf(candidateAt(10, core.DirectionShort, 100, 102), 99), 30, RejectHTF},
		{"long over htf ema", htf(candidateAt(10, core.DirectionLong, 100, 98), 99), 30, RejectNone},
		{"trend at threshold", candidateAt(8, core.DirectionLong, 100, 98), 25, RejectNone},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			signal, rejection := synth.Synthesize(tc.candidate, tc.adx)
			assert.Equal(t, tc.expected, rejection)
			if tc.expected == RejectNone {
				assert.NotNil(t, signal)
			} else {
				assert.Nil(t, signal)
			}
		})
	}
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	tt := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero risk", func(p *Params) { p.RiskPerTrade = 0 }},
		{"risk above one", func(p *Params) { p.RiskPerTrade = 1.5 }},
		{"negative reward", func(p *Params) { p.RewardRatio = -1 }},
		{"negative threshold", func(p *Params) { p.TrendThreshold = -1 }},
		{"inverted hours", func(p *Params) { p.FilterStartHour, p.FilterEndHour = 12, 8 }},
		{"no balance", func(p *Params) { p.AccountBalance = 0 }},
		{"bad timezone", func(p *Params) { p.Timezone = "Nowhere/City" }},
		{"bad window", func(p *Params) { p.OpeningRangeEnd = "09:00" }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParams()
			tc.modify(&params)
			require.ErrorIs(t, params.Validate(), core.ErrConfig)
		})
	}
}

package strategy

import (
	"testing"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStrategy(t *testing.T, s *BOSFVG, n int) map[int]*core.Signal {
	t.Helper()
	signals := make(map[int]*core.Signal)
	for i := 0; i < n; i++ {
		signal, err := s.OnBar(i)
		require.NoError(t, err)
		if signal != nil {
			signals[i] = signal
		}
	}
	return signals
}

func TestBOSFVG_Signal(t *testing.T) {
	candles := withADX(tapSeries(), 30)
	s, err := NewBOSFVG(candles, DefaultParams(), logger.NewNop())
	require.NoError(t, err)

	signals := runStrategy(t, s, len(candles))
	require.Len(t, signals, 1)

	signal := signals[30]
	require.NotNil(t, signal)
	assert.Equal(t, core.DirectionLong, signal.Direction)
	assert.Equal(t, 105.5, signal.EntryPrice)
	assert.Equal(t, 104.2, signal.StopLoss)
	assert.InDelta(t, 108.1, signal.TakeProfit, 1e-9)
	assert.InDelta(t, 100/1.3, signal.Size, 1e-9)
	assert.Equal(t, candles[30].Time, signal.Time)

	assert.Equal(t, Done, s.State().Phase)
	stats := s.Stats()
	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 1, stats.Signals)
	assert.Empty(t, stats.Rejections)
}

func TestBOSFVG_RejectedCandidateKeepsSession(t *testing.T) {
	candles := withADX(tapSeries(), 10)
	s, err := NewBOSFVG(candles, DefaultParams(), logger.NewNop())
	require.NoError(t, err)

	signals := runStrategy(t, s, 31)
	assert.Empty(t, signals)

	state := s.State()
	assert.False(t, state.TradeTaken)
	assert.Equal(t, AwaitingGap, state.Phase)
	assert.Equal(t, BreakUp, state.BOS)
	assert.Equal(t, map[Rejection]int{RejectTrend: 1}, s.Stats().Rejections)
}

func TestBOSFVG_RollingTrendFallback(t *testing.T) {
	// without an adx column the strategy feeds its own rolling ADX, which is
	// ready after 28 bars
	candles := tapSeries()
	params := DefaultParams()
	params.TrendThreshold = 0

	s, err := NewBOSFVG(candles, params, logger.NewNop())
	require.NoError(t, err)

	signals := runStrategy(t, s, len(candles))
	require.Len(t, signals, 1)
	assert.NotNil(t, signals[30])
	assert.Empty(t, s.Stats().Rejections)
}

func TestNewBOSFVG_InvalidParams(t *testing.T) {
	params := DefaultParams()
	params.RewardRatio = 0
	_, err := NewBOSFVG(tapSeries(), params, logger.NewNop())
	require.ErrorIs(t, err, core.ErrConfig)
}

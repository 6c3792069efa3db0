package strategy

import (
	"testing"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindGap_SkipsWeakMiddleCandle(t *testing.T) {
	candles := make([]core.Candle, 13)
	for i := range candles {
		candles[i] = flat(at(i), 100)
	}

	// window ending at 10: a clean gap 100 -> 110 with a weak middle candle
	candles[8] = bar(at(8), 99, 100, 100, 99)
	candles[9] = bar(at(9), 105.4, 105.6, 106, 105)
	candles[10] = bar(at(10), 110.5, 111, 111.5, 110)

	gap, ok := FindGap(candles, 12, core.DirectionLong)
	require.True(t, ok)

	// the weak window is skipped; the window ending at 9 uses the strong bar 8
	assert.Equal(t, 9, gap.Index)
	assert.Equal(t, 100.5, gap.Bottom)
	assert.Equal(t, 105.0, gap.Top)
	assert.Equal(t, 99.0, gap.StopLoss)
	assert.Equal(t, core.DirectionLong, gap.Direction)
}

func TestFindGap_Short(t *testing.T) {
	candles := make([]core.Candle, 12)
	for i := range candles {
		candles[i] = flat(at(i), 110)
	}
	candles[7] = flat(at(7), 110)
	candles[8] = bar(at(8), 109, 104, 109.2, 103.8)
	candles[9] = bar(at(9), 104, 103, 104.5, 102.5)

	gap, ok := FindGap(candles, 11, core.DirectionShort)
	require.True(t, ok)
	assert.Equal(t, 9, gap.Index)
	assert.Equal(t, 104.5, gap.Bottom)
	assert.Equal(t, 109.5, gap.Top)
	assert.Equal(t, 109.2, gap.StopLoss)

	_, ok = FindGap(candles, 11, core.DirectionLong)
	assert.False(t, ok)
}

func TestFindGap_NotEnoughHistory(t *testing.T) {
	candles := make([]core.Candle, 4)
	for i := range candles {
		candles[i] = flat(at(i), 100)
	}

	_, ok := FindGap(candles, 3, core.DirectionLong)
	assert.False(t, ok)
}

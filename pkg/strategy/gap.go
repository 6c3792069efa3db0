package strategy

import "github.com/raykavin/bosfvg/pkg/core"

const (
	// MinLookback is the first bar index the detector evaluates
	MinLookback = 10
	// GapWindows is how many 3-candle windows are searched after a break
	GapWindows = 8
	// MinBodyRatio is the smallest body/range accepted for the middle candle
	MinBodyRatio = 0.5
)

// FindGap searches the windows ending at index-2 down to index-9, most recent
// first, for a fair value gap in the given direction
func FindGap(candles []core.Candle, index int, direction core.Direction) (GapDescriptor, bool) {
	for i := index - 2; i > index-2-GapWindows; i-- {
		if i < 2 || i >= len(candles) {
			return GapDescriptor{}, false
		}

		c1, c2, c3 := candles[i-2], candles[i-1], candles[i]
		if !c1.Valid() || !c2.Valid() || !c3.Valid() {
			continue
		}

		if r := c2.Range(); r > 0 && c2.Body()/r < MinBodyRatio {
			continue
		}

		switch {
		case direction == core.DirectionLong && c1.High < c3.Low:
			return GapDescriptor{
				Direction: direction,
				Bottom:    c1.High,
				Top:       c3.Low,
				StopLoss:  c2.Low,
				Index:     i,
			}, true
		case direction == core.DirectionShort && c1.Low > c3.High:
			return GapDescriptor{
				Direction: direction,
				Bottom:    c3.High,
				Top:       c1.Low,
				StopLoss:  c2.High,
				Index:     i,
			}, true
		}
	}

	return GapDescriptor{}, false
}

package order

import (
	"fmt"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
)

// Position is the single open exposure of a simulation
type Position struct {
	Pair       string
	Direction  core.Direction
	EntryPrice float64
	Size       float64
	StopLoss   float64
	TakeProfit float64
	EntryTime  time.Time
	EntryFee   float64
}

// UnrealizedPnL marks the position at price, before fees
func (p Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Size * p.Direction.Sign()
}

// exitLevel reports the level hit by a bar, checking the stop before the
// target so a bar touching both resolves as a loss
func (p Position) exitLevel(candle core.Candle) (float64, core.ExitReason, bool) {
	switch p.Direction {
	case core.DirectionLong:
		if candle.Low <= p.StopLoss {
			return p.StopLoss, core.ExitStopLoss, true
		}
		if candle.High >= p.TakeProfit {
			return p.TakeProfit, core.ExitTakeProfit, true
		}
	case core.DirectionShort:
		if candle.High >= p.StopLoss {
			return p.StopLoss, core.ExitStopLoss, true
		}
		if candle.Low <= p.TakeProfit {
			return p.TakeProfit, core.ExitTakeProfit, true
		}
	}
	return 0, "", false
}

func (p Position) String() string {
	return fmt.Sprintf("%s %s %.6f @ %.4f (sl=%.4f tp=%.4f)",
		p.Pair, p.Direction, p.Size, p.EntryPrice, p.StopLoss, p.TakeProfit)
}

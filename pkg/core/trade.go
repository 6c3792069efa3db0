package core

import (
	"fmt"
	"time"
)

// Direction is the side of a trade
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Sign returns +1 for long and -1 for short
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// ExitReason describes why a position was closed
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Signal is a finalized request to open a position
type Signal struct {
	Pair       string
	Direction  Direction
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Size       float64
	Time       time.Time
}

func (s Signal) String() string {
	return fmt.Sprintf("[%s] %s %s entry=%.4f sl=%.4f tp=%.4f size=%.6f",
		s.Time.Format(time.RFC3339), s.Pair, s.Direction, s.EntryPrice, s.StopLoss, s.TakeProfit, s.Size)
}

// Trade is the record of a closed position
type Trade struct {
	ID         string     `json:"id"`
	Pair       string     `json:"pair"`
	Direction  Direction  `json:"direction"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Size       float64    `json:"size"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"`
	PnL        float64    `json:"pnl"`
	PnLPct     float64    `json:"pnl_pct"`
	Fees       float64    `json:"fees"`
	NetPnL     float64    `json:"net_pnl"`
	ExitReason ExitReason `json:"exit_reason"`
}

// NetPct returns the net pnl as a percentage of the entry notional
func (t Trade) NetPct() float64 {
	notional := t.EntryPrice * t.Size
	if notional == 0 {
		return 0
	}
	return t.NetPnL / notional * 100
}

// Duration returns how long the trade was open
func (t Trade) Duration() time.Duration { return t.ExitTime.Sub(t.EntryTime) }

func (t Trade) String() string {
	return fmt.Sprintf("%s %s %s entry=%.4f@%s exit=%.4f@%s pnl=%.4f (%s)",
		t.ID, t.Pair, t.Direction, t.EntryPrice, t.EntryTime.Format(time.RFC3339),
		t.ExitPrice, t.ExitTime.Format(time.RFC3339), t.NetPnL, t.ExitReason)
}

// EquitySample is the account value marked at a bar close
type EquitySample struct {
	Time   time.Time
	Equity float64
}

// EquityValues extracts the equity values of a curve
func EquityValues(curve []EquitySample) []float64 {
	values := make([]float64, len(curve))
	for i, sample := range curve {
		values[i] = sample.Equity
	}
	return values
}

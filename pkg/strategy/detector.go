package strategy

import (
	"fmt"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/indicator"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/raykavin/bosfvg/pkg/session"
)

// Detector tracks the opening range of each session, confirms a break of
// structure, locates the fair value gap behind it and reports the first
// retracement into that gap
type Detector struct {
	candles []core.Candle
	clock   *session.Clock
	log     logger.Logger

	state SessionState
	last  int
}

// NewDetector creates a detector over an immutable candle series
func NewDetector(candles []core.Candle, clock *session.Clock, log logger.Logger) *Detector {
	return &Detector{
		candles: candles,
		clock:   clock,
		log:     log,
		last:    -1,
	}
}

// State returns a copy of the current session state
func (d *Detector) State() SessionState {
	state := d.state
	if d.state.Gap != nil {
		gap := *d.state.Gap
		state.Gap = &gap
	}
	return state
}

// MarkTradeTaken closes the session after a signal was accepted
func (d *Detector) MarkTradeTaken() {
	d.state.TradeTaken = true
	d.state.Phase = Done
}

// Evaluate advances the state machine with the bar at index. Indexes must be
// strictly increasing across calls.
func (d *Detector) Evaluate(index int) (*EntryCandidate, error) {
	if index < 0 || index >= len(d.candles) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", core.ErrIndexOutOfRange, index, len(d.candles))
	}
	if index <= d.last {
		return nil, fmt.Errorf("%w: %d after %d", core.ErrOutOfOrder, index, d.last)
	}
	d.last = index

	if index < MinLookback {
		return nil, nil
	}

	candle := d.candles[index]
	if date := d.clock.Date(candle.Time); date != d.state.Date {
		d.log.Debugf("new session %s, resetting state", date)
		d.state = SessionState{Date: date, Phase: AwaitingOpenRange}
	}

	if !candle.Valid() {
		return nil, nil
	}

	if d.state.Phase == AwaitingOpenRange {
		if d.clock.InOpeningRange(candle.Time) {
			d.updateRange(candle.Close)
			return nil, nil
		}

		if !d.clock.PastOpeningRange(candle.Time) {
			return nil, nil
		}

		d.lock()
	}

	if !d.clock.InTradingWindow(candle.Time) || !d.state.Locked || d.state.TradeTaken {
		return nil, nil
	}

	switch d.state.Phase {
	case AwaitingBOS:
		d.detectBreak(candle)
	case AwaitingGap:
		d.searchGap(index)
	case AwaitingEntry:
		return d.checkTap(index, candle), nil
	}

	return nil, nil
}

func (d *Detector) updateRange(close float64) {
	if !d.state.RangeSet || close > d.state.RangeHigh {
		d.state.RangeHigh = close
	}
	if !d.state.RangeSet || close < d.state.RangeLow {
		d.state.RangeLow = close
	}
	d.state.RangeSet = true
}

func (d *Detector) lock() {
	if !d.state.RangeSet {
		d.log.Warnf("could not determine opening range for %s, skipping day", d.state.Date)
		d.state.TradeTaken = true
		d.state.Phase = Done
		return
	}

	d.state.HOD = d.state.RangeHigh
	d.state.LOD = d.state.RangeLow
	d.state.Locked = true
	d.state.Phase = AwaitingBOS
	d.log.Infof("opening range complete for %s: HOD=%.4f LOD=%.4f", d.state.Date, d.state.HOD, d.state.LOD)
}

func (d *Detector) detectBreak(candle core.Candle) {
	switch {
	case candle.Close > d.state.HOD:
		d.state.BOS = BreakUp
	case candle.Close < d.state.LOD:
		d.state.BOS = BreakDown
	default:
		return
	}

	d.state.Phase = AwaitingGap
	d.log.WithFields(map[string]any{
		"time":  candle.Time,
		"close": candle.Close,
		"hod":   d.state.HOD,
		"lod":   d.state.LOD,
	}).Infof("break of structure confirmed (%s)", d.state.BOS)
}

func (d *Detector) searchGap(index int) {
	gap, ok := FindGap(d.candles, index, d.state.BOS.Direction())
	if !ok {
		d.log.Debugf("no fair value gap behind %s break at bar %d, waiting for a new break", d.state.BOS, index)
		d.state.BOS = BreakNone
		d.state.Phase = AwaitingBOS
		return
	}

	d.state.Gap = &gap
	d.state.Phase = AwaitingEntry
	d.log.Infof("watching %s", gap)
}

func (d *Detector) checkTap(index int, candle core.Candle) *EntryCandidate {
	gap := *d.state.Gap

	var entry float64
	switch {
	case gap.Direction == core.DirectionLong && candle.Low <= gap.Top:
		entry = gap.Top
	case gap.Direction == core.DirectionShort && candle.High >= gap.Bottom:
		entry = gap.Bottom
	default:
		return nil
	}

	d.state.Gap = nil
	d.state.Phase = AwaitingGap
	d.log.Infof("fair value gap tapped for %s at %s, entry %.4f", gap.Direction, candle.Time, entry)

	return &EntryCandidate{
		Pair:       candle.Pair,
		Direction:  gap.Direction,
		EntryPrice: entry,
		StopLoss:   gap.StopLoss,
		Index:      index,
		Time:       candle.Time,
		Close:      candle.Close,
		HTFEMA:     candle.Value(indicator.ColumnHTFEMA),
		Gap:        gap,
	}
}

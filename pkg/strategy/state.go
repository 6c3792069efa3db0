package strategy

import (
	"fmt"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/session"
)

// Phase is the position of the detector in the daily lifecycle
type Phase int

const (
	AwaitingOpenRange Phase = iota
	AwaitingBOS
	AwaitingGap
	AwaitingEntry
	Done
)

func (p Phase) String() string {
	switch p {
	case AwaitingOpenRange:
		return "awaiting_open_range"
	case AwaitingBOS:
		return "awaiting_bos"
	case AwaitingGap:
		return "awaiting_gap"
	case AwaitingEntry:
		return "awaiting_entry"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Break is the direction of a confirmed break of structure
type Break int

const (
	BreakNone Break = iota
	BreakUp
	BreakDown
)

func (b Break) String() string {
	switch b {
	case BreakUp:
		return "up"
	case BreakDown:
		return "down"
	default:
		return "none"
	}
}

// Direction returns the trade direction implied by the break
func (b Break) Direction() core.Direction {
	if b == BreakDown {
		return core.DirectionShort
	}
	return core.DirectionLong
}

// GapDescriptor is a fair value gap watched for a retracement
type GapDescriptor struct {
	Direction core.Direction
	Top       float64
	Bottom    float64
	StopLoss  float64
	Index     int // third candle of the window
}

func (g GapDescriptor) String() string {
	return fmt.Sprintf("%s gap [%.4f, %.4f] sl=%.4f @%d", g.Direction, g.Bottom, g.Top, g.StopLoss, g.Index)
}

// SessionState is the per day state of the detector
type SessionState struct {
	Date  session.Date
	Phase Phase

	RangeHigh float64
	RangeLow  float64
	RangeSet  bool

	HOD    float64
	LOD    float64
	Locked bool

	BOS        Break
	Gap        *GapDescriptor
	TradeTaken bool
}

// EntryCandidate is a gap tap waiting for the synthesizer filters
type EntryCandidate struct {
	Pair       string
	Direction  core.Direction
	EntryPrice float64
	StopLoss   float64
	Index      int
	Time       time.Time
	Close      float64
	HTFEMA     float64 // NaN when the series carries no higher timeframe column
	Gap        GapDescriptor
}

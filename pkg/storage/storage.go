package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/raykavin/bosfvg/pkg/core"
)

// Record is a closed trade tagged with the run that produced it
type Record struct {
	RunID   string    `json:"run_id"`
	SavedAt time.Time `json:"saved_at"`
	core.Trade
}

// NewRunID returns a unique identifier for a run
func NewRunID() string {
	return uuid.NewString()
}

// TradeFilter selects which records a query returns
type TradeFilter func(Record) bool

// TradeStorage is a journal of backtest trades
type TradeStorage interface {
	SaveTrades(runID string, trades []core.Trade) error
	Trades(filters ...TradeFilter) ([]Record, error)
	Close() error
}

// WithRun keeps records of a single run
func WithRun(runID string) TradeFilter {
	return func(r Record) bool {
		return r.RunID == runID
	}
}

// WithDirection keeps long or short trades
func WithDirection(direction core.Direction) TradeFilter {
	return func(r Record) bool {
		return r.Direction == direction
	}
}

// WithExitReason keeps trades closed for any of the given reasons
func WithExitReason(reasons ...core.ExitReason) TradeFilter {
	return func(r Record) bool {
		for _, reason := range reasons {
			if r.ExitReason == reason {
				return true
			}
		}
		return false
	}
}

func match(record Record, filters []TradeFilter) bool {
	for _, filter := range filters {
		if !filter(record) {
			return false
		}
	}
	return true
}

var (
	_ TradeStorage = (*BuntStorage)(nil)
	_ TradeStorage = (*SQLStorage)(nil)
)

package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
)

// Erros comuns
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)

// Feeder fornece candles históricos de um par
type Feeder interface {
	CandlesByPeriod(ctx context.Context, pair, timeframe string, start, end time.Time) ([]core.Candle, error)
}

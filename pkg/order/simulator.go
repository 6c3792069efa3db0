package order

import (
	"fmt"
	"math"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/logger"
)

// SimulatorParams configures the simulated account
type SimulatorParams struct {
	InitialBalance float64 `mapstructure:"initial_balance"`
	FeeRate        float64 `mapstructure:"fee_rate"`      // charged on notional at entry and exit
	SlippageRate   float64 `mapstructure:"slippage_rate"` // adverse fill adjustment
}

// DefaultSimulatorParams returns a 10000 account with 5 bps fees and no slippage
func DefaultSimulatorParams() SimulatorParams {
	return SimulatorParams{
		InitialBalance: 10000,
		FeeRate:        0.0005,
	}
}

func (p SimulatorParams) Validate() error {
	switch {
	case p.InitialBalance <= 0 || math.IsInf(p.InitialBalance, 0):
		return fmt.Errorf("%w: initial balance must be positive, got %v", core.ErrConfig, p.InitialBalance)
	case p.FeeRate < 0 || p.FeeRate >= 1:
		return fmt.Errorf("%w: fee rate must be in [0, 1), got %v", core.ErrConfig, p.FeeRate)
	case p.SlippageRate < 0 || p.SlippageRate >= 1:
		return fmt.Errorf("%w: slippage rate must be in [0, 1), got %v", core.ErrConfig, p.SlippageRate)
	}
	return nil
}

// Simulator fills signals against bar extremes and keeps the account ledger.
// It holds at most one position; trades and equity are append only.
type Simulator struct {
	params SimulatorParams
	log    logger.Logger

	cash     float64
	position *Position
	trades   []core.Trade
	equity   []core.EquitySample

	lastTime  time.Time
	lastClose float64
}

func NewSimulator(params SimulatorParams, log logger.Logger) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &Simulator{
		params: params,
		log:    log,
		cash:   params.InitialBalance,
	}, nil
}

// Step processes one bar: exits are checked on the bar range first, then the
// signal (if any) is opened, then the account is marked at the close
func (s *Simulator) Step(candle core.Candle, signal *core.Signal) (core.EquitySample, error) {
	if !candle.Valid() {
		return core.EquitySample{}, fmt.Errorf("%w: %s at %s", core.ErrMalformedCandle, candle.Pair, candle.Time.Format(time.RFC3339))
	}
	if len(s.equity) > 0 && !candle.Time.After(s.lastTime) {
		return core.EquitySample{}, fmt.Errorf("%w: %s does not follow %s",
			core.ErrNonMonotonic, candle.Time.Format(time.RFC3339), s.lastTime.Format(time.RFC3339))
	}

	if s.position != nil {
		if level, reason, ok := s.position.exitLevel(candle); ok {
			s.close(level, candle.Time, reason)
		}
	}

	if signal != nil {
		if s.position != nil {
			s.log.Warnf("ignoring signal %s: position already open (%s)", signal, s.position)
		} else if err := s.open(*signal, candle.Time); err != nil {
			return core.EquitySample{}, err
		}
	}

	sample := core.EquitySample{Time: candle.Time, Equity: s.mark(candle.Close)}
	s.equity = append(s.equity, sample)
	s.lastTime = candle.Time
	s.lastClose = candle.Close

	return sample, nil
}

// Finish closes any open position at the last close with reason end_of_data.
// A position opened on that same bar cannot exit after its entry, so it is
// cancelled and its entry fee refunded instead.
func (s *Simulator) Finish() (*core.Trade, error) {
	if s.position == nil {
		return nil, nil
	}
	if len(s.equity) == 0 {
		return nil, fmt.Errorf("%w: open position without simulated bars", core.ErrInvariant)
	}

	if !s.position.EntryTime.Before(s.lastTime) {
		s.log.Infof("cancelling position opened on the last bar: %s", s.position)
		s.cash += s.position.EntryFee
		s.position = nil
		s.equity[len(s.equity)-1].Equity = s.cash
		return nil, nil
	}

	trade := s.close(s.lastClose, s.lastTime, core.ExitEndOfData)
	s.equity[len(s.equity)-1].Equity = s.cash
	return &trade, nil
}

func (s *Simulator) open(signal core.Signal, at time.Time) error {
	if s.position != nil {
		return fmt.Errorf("%w: %s", core.ErrPositionOpen, s.position)
	}
	if signal.Size <= 0 || math.IsNaN(signal.Size) || math.IsInf(signal.Size, 0) {
		return fmt.Errorf("%w: signal size %v", core.ErrInvariant, signal.Size)
	}

	price := s.fill(signal.EntryPrice, signal.Direction, true)
	fee := price * signal.Size * s.params.FeeRate

	s.cash -= fee
	s.position = &Position{
		Pair:       signal.Pair,
		Direction:  signal.Direction,
		EntryPrice: price,
		Size:       signal.Size,
		StopLoss:   signal.StopLoss,
		TakeProfit: signal.TakeProfit,
		EntryTime:  at,
		EntryFee:   fee,
	}

	s.log.WithFields(map[string]any{
		"time": at,
		"fee":  fee,
	}).Infof("opened %s", s.position)
	return nil
}

func (s *Simulator) close(level float64, at time.Time, reason core.ExitReason) core.Trade {
	p := *s.position
	price := s.fill(level, p.Direction, false)
	pnl := p.UnrealizedPnL(price)
	exitFee := price * p.Size * s.params.FeeRate

	trade := core.Trade{
		ID:         fmt.Sprintf("trade_%d", len(s.trades)+1),
		Pair:       p.Pair,
		Direction:  p.Direction,
		EntryTime:  p.EntryTime,
		ExitTime:   at,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		Size:       p.Size,
		StopLoss:   p.StopLoss,
		TakeProfit: p.TakeProfit,
		PnL:        pnl,
		PnLPct:     pnl / (p.EntryPrice * p.Size) * 100,
		Fees:       p.EntryFee + exitFee,
		ExitReason: reason,
	}
	trade.NetPnL = trade.PnL - trade.Fees

	s.cash += pnl - exitFee
	s.position = nil
	s.trades = append(s.trades, trade)

	s.log.WithField("reason", reason).Infof("closed %s", trade)
	return trade
}

// fill applies slippage against the trader: buys fill higher, sells lower
func (s *Simulator) fill(price float64, direction core.Direction, entry bool) float64 {
	buying := (direction == core.DirectionLong) == entry
	if buying {
		return price * (1 + s.params.SlippageRate)
	}
	return price * (1 - s.params.SlippageRate)
}

func (s *Simulator) mark(price float64) float64 {
	if s.position == nil {
		return s.cash
	}
	return s.cash + s.position.UnrealizedPnL(price)
}

// Cash returns the realized account balance
func (s *Simulator) Cash() float64 { return s.cash }

// Position returns the open position, if any
func (s *Simulator) Position() (Position, bool) {
	if s.position == nil {
		return Position{}, false
	}
	return *s.position, true
}

// TradeCount returns the number of closed trades
func (s *Simulator) TradeCount() int { return len(s.trades) }

// Trades returns a copy of the closed trades
func (s *Simulator) Trades() []core.Trade {
	return append([]core.Trade(nil), s.trades...)
}

// Equity returns a copy of the equity curve, one sample per simulated bar
func (s *Simulator) Equity() []core.EquitySample {
	return append([]core.EquitySample(nil), s.equity...)
}

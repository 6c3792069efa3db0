package backtest

import (
	"context"
	"fmt"

	"github.com/StudioSol/set"
	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/raykavin/bosfvg/pkg/metric"
	"github.com/raykavin/bosfvg/pkg/order"
	"github.com/raykavin/bosfvg/pkg/strategy"
	"github.com/schollz/progressbar/v3"
)

// Observer receives run events as they happen. Calls are made from the
// goroutine executing Run.
type Observer interface {
	OnBar(candle core.Candle, sample core.EquitySample)
	OnSkip(candle core.Candle, err error)
	OnSignal(signal core.Signal)
	OnTrade(trade core.Trade)
	OnFinish(result *Result)
}

// Result is the outcome of a completed run, owned by the caller
type Result struct {
	Pair       string
	Trades     []core.Trade
	Equity     []core.EquitySample
	Signals    []core.Signal
	Metrics    metric.Summary
	Bars       int      // bars simulated
	Sessions   []string // session dates with at least one simulated bar
	Skipped    int // malformed bars
	Candidates int
	Rejections map[strategy.Rejection]int
}

type options struct {
	log       logger.Logger
	progress  bool
	observers []Observer
}

type Option func(*options)

// WithLogger sets the logger used by the run and its components
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithProgress renders a progress bar on stdout
func WithProgress() Option {
	return func(o *options) {
		o.progress = true
	}
}

// WithObserver subscribes observers to run events
func WithObserver(observers ...Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, observers...)
	}
}

// Run validates cfg and candles, then feeds every bar through the detector,
// the synthesizer and the simulator in order. A cancelled context abandons the
// run between bars and no partial result is returned.
func Run(ctx context.Context, candles []core.Candle, cfg Config, opts ...Option) (*Result, error) {
	o := options{log: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateSeries(candles); err != nil {
		return nil, err
	}

	log := o.log.WithField("pair", cfg.Pair)

	strat, err := strategy.NewBOSFVG(candles, cfg.Strategy, log)
	if err != nil {
		return nil, err
	}

	sim, err := order.NewSimulator(cfg.Simulator, log)
	if err != nil {
		return nil, err
	}

	clock, err := cfg.Strategy.Clock()
	if err != nil {
		return nil, err
	}
	sessions := set.NewLinkedHashSetString()

	var bar *progressbar.ProgressBar
	if o.progress {
		bar = progressbar.Default(int64(len(candles)))
	}

	result := &Result{Pair: cfg.Pair}
	last := len(candles) - 1

	for i, candle := range candles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		signal, err := strat.OnBar(i)
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}

		if bar != nil {
			if err := bar.Add(1); err != nil {
				log.Warnf("update progressbar fail: %v", err)
			}
		}

		if !candle.Valid() {
			result.Skipped++
			log.Warnf("skipping malformed bar %d at %s", i, candle.Time)
			for _, obs := range o.observers {
				obs.OnSkip(candle, core.ErrMalformedCandle)
			}
			continue
		}

		if signal != nil && i == last {
			log.Infof("dropping signal on the final bar: %s", signal)
			signal = nil
		}

		if signal != nil {
			if signal.Pair == "" {
				signal.Pair = cfg.Pair
			}
			result.Signals = append(result.Signals, *signal)
			for _, obs := range o.observers {
				obs.OnSignal(*signal)
			}
		}

		closed := sim.TradeCount()
		sample, err := sim.Step(candle, signal)
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
		result.Bars++
		sessions.Add(clock.Date(candle.Time).String())

		notify(o.observers, sim, closed)
		for _, obs := range o.observers {
			obs.OnBar(candle, sample)
		}
	}

	closed := sim.TradeCount()
	if _, err := sim.Finish(); err != nil {
		return nil, err
	}
	notify(o.observers, sim, closed)

	for date := range sessions.Iter() {
		result.Sessions = append(result.Sessions, date)
	}

	stats := strat.Stats()
	result.Trades = sim.Trades()
	result.Equity = sim.Equity()
	result.Candidates = stats.Candidates
	result.Rejections = stats.Rejections
	result.Metrics = metric.Calculate(result.Equity, result.Trades, cfg.PeriodsPerYear)

	for _, obs := range o.observers {
		obs.OnFinish(result)
	}

	log.Infof("backtest finished: %d bars, %d skipped, %d signals, %d trades",
		result.Bars, result.Skipped, len(result.Signals), len(result.Trades))

	return result, nil
}

func notify(observers []Observer, sim *order.Simulator, closed int) {
	if len(observers) == 0 || sim.TradeCount() == closed {
		return
	}
	for _, trade := range sim.Trades()[closed:] {
		for _, obs := range observers {
			obs.OnTrade(trade)
		}
	}
}

package backtest

import (
	"fmt"
	"math"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/metric"
	"github.com/raykavin/bosfvg/pkg/order"
	"github.com/raykavin/bosfvg/pkg/strategy"
)

// Config is everything a run needs besides its candles
type Config struct {
	Pair           string                `mapstructure:"pair"`
	Strategy       strategy.Params       `mapstructure:"strategy"`
	Simulator      order.SimulatorParams `mapstructure:"simulator"`
	PeriodsPerYear float64               `mapstructure:"periods_per_year"`
}

func DefaultConfig() Config {
	return Config{
		Pair:           "SPY",
		Strategy:       strategy.DefaultParams(),
		Simulator:      order.DefaultSimulatorParams(),
		PeriodsPerYear: metric.DefaultPeriodsPerYear,
	}
}

func (c Config) Validate() error {
	if c.PeriodsPerYear <= 0 || math.IsInf(c.PeriodsPerYear, 0) {
		return fmt.Errorf("%w: periods per year must be positive, got %v", core.ErrConfig, c.PeriodsPerYear)
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := c.Simulator.Validate(); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	return nil
}

package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/bosfvg/pkg/backtest"
	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/raykavin/bosfvg/pkg/metric"
)

// Keys understood by BacktestEvaluator
const (
	ParamRewardRatio     = "reward_ratio"
	ParamRiskPerTrade    = "risk_per_trade"
	ParamTrendThreshold  = "trend_threshold"
	ParamFeeRate         = "fee_rate"
	ParamSlippageRate    = "slippage_rate"
	ParamFilterStartHour = "filter_start_hour"
	ParamFilterEndHour   = "filter_end_hour"
	ParamHTFFilter       = "htf_filter"
)

// BacktestEvaluator runs an independent backtest per parameter set over a
// shared, read-only candle series
type BacktestEvaluator struct {
	candles []core.Candle
	base    backtest.Config
	logger  logger.Logger
}

// NewBacktestEvaluator creates an evaluator that overlays parameter sets on base
func NewBacktestEvaluator(candles []core.Candle, base backtest.Config, log logger.Logger) *BacktestEvaluator {
	return &BacktestEvaluator{
		candles: candles,
		base:    base,
		logger:  log,
	}
}

// Evaluate runs a backtest with the given parameters and returns performance metrics
func (e *BacktestEvaluator) Evaluate(ctx context.Context, params ParameterSet) (*Result, error) {
	startTime := time.Now()

	cfg, err := Apply(e.base, params)
	if err != nil {
		return nil, err
	}

	result, err := backtest.Run(ctx, e.candles, cfg, backtest.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}

	return &Result{
		Parameters: params,
		Metrics:    collectMetrics(result.Metrics),
		Duration:   time.Since(startTime),
	}, nil
}

// Apply returns a copy of base with every parameter of the set written over it
func Apply(base backtest.Config, params ParameterSet) (backtest.Config, error) {
	cfg := base

	for name, value := range params {
		var err error
		switch name {
		case ParamRewardRatio:
			cfg.Strategy.RewardRatio, err = asFloat(name, value)
		case ParamRiskPerTrade:
			cfg.Strategy.RiskPerTrade, err = asFloat(name, value)
		case ParamTrendThreshold:
			cfg.Strategy.TrendThreshold, err = asFloat(name, value)
		case ParamFeeRate:
			cfg.Simulator.FeeRate, err = asFloat(name, value)
		case ParamSlippageRate:
			cfg.Simulator.SlippageRate, err = asFloat(name, value)
		case ParamFilterStartHour:
			cfg.Strategy.FilterStartHour, err = asInt(name, value)
		case ParamFilterEndHour:
			cfg.Strategy.FilterEndHour, err = asInt(name, value)
		case ParamHTFFilter:
			v, ok := value.(bool)
			if !ok {
				err = fmt.Errorf("%w: parameter %s must be a boolean", core.ErrConfig, name)
			}
			cfg.Strategy.HTFFilter = v
		default:
			err = fmt.Errorf("%w: unknown parameter %s", core.ErrConfig, name)
		}
		if err != nil {
			return backtest.Config{}, err
		}
	}

	return cfg, nil
}

func asFloat(name string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: parameter %s must be numeric", core.ErrConfig, name)
}

func asInt(name string, value interface{}) (int, error) {
	if v, ok := value.(int); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: parameter %s must be an integer", core.ErrConfig, name)
}

// collectMetrics flattens a run summary into optimizer metrics
func collectMetrics(summary metric.Summary) map[string]float64 {
	return map[string]float64{
		string(MetricProfit):       summary.TotalPnL,
		string(MetricReturn):       summary.TotalReturn,
		string(MetricWinRate):      summary.WinRate,
		string(MetricPayoff):       summary.Payoff,
		string(MetricProfitFactor): summary.ProfitFactor,
		string(MetricExpectancy):   summary.Expectancy,
		string(MetricSQN):          summary.SQN,
		string(MetricDrawdown):     summary.MaxDrawdown,
		string(MetricSharpeRatio):  summary.Sharpe,
		string(MetricTradeCount):   float64(summary.TotalTrades),
		"final_equity":             summary.FinalEquity,
	}
}

// DefaultParameters returns the grid swept by the optimize command
func DefaultParameters() []Parameter {
	return []Parameter{
		{
			Name:        ParamRewardRatio,
			Description: "Take profit distance in multiples of risk",
			Default:     2.0,
			Min:         1.0,
			Max:         3.0,
			Step:        0.5,
			Type:        TypeFloat,
		},
		{
			Name:        ParamTrendThreshold,
			Description: "Minimum ADX to accept an entry",
			Default:     25.0,
			Min:         15.0,
			Max:         35.0,
			Step:        5.0,
			Type:        TypeFloat,
		},
		{
			Name:        ParamRiskPerTrade,
			Description: "Fraction of the account risked per trade",
			Default:     0.01,
			Min:         0.005,
			Max:         0.02,
			Step:        0.005,
			Type:        TypeFloat,
		},
	}
}

package metric

import (
	"math"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// DefaultPeriodsPerYear annualizes bar returns as if they were daily
const DefaultPeriodsPerYear = 252

// Summary is the performance report of a run
type Summary struct {
	TotalTrades int `json:"total_trades"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`

	WinRate      float64 `json:"win_rate"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"` // absolute
	ProfitFactor float64 `json:"profit_factor"`
	Expectancy   float64 `json:"expectancy"`
	Payoff       float64 `json:"payoff"`
	SQN          float64 `json:"sqn"`
	MaxWin       float64 `json:"max_win"`
	MaxLoss      float64 `json:"max_loss"`
	TotalPnL     float64 `json:"total_pnl"`
	TotalFees    float64 `json:"total_fees"`

	MaxDrawdown float64 `json:"max_drawdown"` // fraction of the running peak
	Sharpe      float64 `json:"sharpe"`
	TotalReturn float64 `json:"total_return"` // fraction of the starting equity
	StartEquity float64 `json:"start_equity"`
	FinalEquity float64 `json:"final_equity"`

	AvgDuration time.Duration `json:"avg_duration"`
}

// Calculate reduces an equity curve and its trades into a Summary. Trades are
// classified by net pnl: positive is a win, anything else a loss. Without
// trades every trade metric is zero.
func Calculate(equity []core.EquitySample, trades []core.Trade, periodsPerYear float64) Summary {
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}

	summary := Summary{TotalTrades: len(trades)}
	summary.fillTrades(trades)

	values := core.EquityValues(equity)
	if len(values) > 0 {
		summary.StartEquity = values[0]
		summary.FinalEquity = values[len(values)-1]
		if summary.StartEquity > 0 {
			summary.TotalReturn = (summary.FinalEquity - summary.StartEquity) / summary.StartEquity
		}
	}
	summary.MaxDrawdown = MaxDrawdown(values)
	summary.Sharpe = Sharpe(values, periodsPerYear)

	return summary
}

func (s *Summary) fillTrades(trades []core.Trade) {
	if len(trades) == 0 {
		return
	}

	var (
		wins, losses    []float64
		winPct, lossPct []float64
		net             = make([]float64, 0, len(trades))
		duration        time.Duration
	)

	for _, trade := range trades {
		net = append(net, trade.NetPnL)
		s.TotalPnL += trade.NetPnL
		s.TotalFees += trade.Fees
		duration += trade.Duration()

		if trade.NetPnL > 0 {
			wins = append(wins, trade.NetPnL)
			winPct = append(winPct, trade.NetPct())
		} else {
			losses = append(losses, math.Abs(trade.NetPnL))
			lossPct = append(lossPct, math.Abs(trade.NetPct()))
		}
	}

	s.Wins = len(wins)
	s.Losses = len(losses)
	s.WinRate = float64(s.Wins) / float64(len(trades))
	s.AvgWin = Mean(wins)
	s.AvgLoss = Mean(losses)
	s.MaxWin = lo.Max(wins)
	s.MaxLoss = lo.Max(losses)
	s.AvgDuration = duration / time.Duration(len(trades))

	s.ProfitFactor = ProfitFactor(s.AvgWin, s.AvgLoss)
	s.Payoff = Payoff(winPct, lossPct)

	s.Expectancy = s.WinRate*s.AvgWin - (1-s.WinRate)*s.AvgLoss
	s.SQN = SQN(net)
}

// ProfitFactor is the average win over the absolute average loss: +Inf with
// wins and no losses, zero without wins.
func ProfitFactor(avgWin, avgLoss float64) float64 {
	avgLoss = math.Abs(avgLoss)
	switch {
	case avgLoss > 0:
		return avgWin / avgLoss
	case avgWin > 0:
		return math.Inf(1)
	}
	return 0
}

// Payoff is the mean winning return over the absolute mean losing return. It
// is zero unless both sides have trades.
func Payoff(winPct, lossPct []float64) float64 {
	if len(winPct) == 0 || len(lossPct) == 0 {
		return 0
	}

	avgLoss := math.Abs(Mean(lossPct))
	if avgLoss == 0 {
		return 0
	}

	return Mean(winPct) / avgLoss
}

// MaxDrawdown returns the largest drop from a running peak as a fraction of
// that peak. Non-positive peaks are skipped.
func MaxDrawdown(equity []float64) float64 {
	var peak, maxDrawdown float64
	for i, value := range equity {
		if i == 0 || value > peak {
			peak = value
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - value) / peak; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// Sharpe annualizes the mean over the sample standard deviation of bar to bar
// returns. It is zero with fewer than two returns or no dispersion.
func Sharpe(equity []float64, periodsPerYear float64) float64 {
	returns := make([]float64, 0, len(equity))
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		returns = append(returns, equity[i]/equity[i-1]-1)
	}

	if len(returns) < 2 {
		return 0
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	return mean / std * math.Sqrt(periodsPerYear)
}

// SQN (System Quality Number) = sqrt(n) * mean / population standard deviation
func SQN(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean, variance := stat.PopMeanVariance(values, nil)
	if variance == 0 {
		return 0
	}

	return math.Sqrt(float64(len(values))) * mean / math.Sqrt(variance)
}

// Mean calculates the arithmetic mean of the values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// PayoffRatio calculates the ratio of average wins to average losses of a
// list of trade results. It is capped at 10 when there are no losses so it can
// be bootstrapped.
func PayoffRatio(values []float64) float64 {
	wins, losses := partitionTradeResults(values)

	if len(losses) == 0 || len(wins) == 0 {
		return 10
	}

	avgLoss := stat.Mean(losses, nil)
	if avgLoss == 0 {
		return 10
	}

	return math.Abs(stat.Mean(wins, nil) / avgLoss)
}

// ProfitRatio calculates the ratio of total profits to total losses, capped
// at 10 when there are no losses.
func ProfitRatio(values []float64) float64 {
	var (
		totalWins   float64
		totalLosses float64
	)

	for _, value := range values {
		if value > 0 {
			totalWins += value
		} else {
			totalLosses += value
		}
	}

	if totalLosses == 0 {
		return 10
	}

	return math.Abs(totalWins / totalLosses)
}

// partitionTradeResults separates trading results into wins and losses.
func partitionTradeResults(values []float64) (wins []float64, losses []float64) {
	for _, value := range values {
		if value > 0 {
			wins = append(wins, value)
		} else {
			losses = append(losses, math.Abs(value))
		}
	}
	return wins, losses
}

package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/metric"
	"github.com/samber/lo"
)

// TradeSummary collects statistics about trading performance
type TradeSummary struct {
	Pair             string
	WinLong          []float64
	WinLongPercent   []float64
	WinShort         []float64
	WinShortPercent  []float64
	LoseLong         []float64
	LoseLongPercent  []float64
	LoseShort        []float64
	LoseShortPercent []float64
	Volume           float64
	Fees             float64
	StopLosses       int
	TakeProfits      int
	EndOfData        int
}

// NewTradeSummary groups closed trades by side and outcome. A trade wins when
// its net pnl is positive.
func NewTradeSummary(pair string, trades []core.Trade) TradeSummary {
	summary := TradeSummary{Pair: pair}

	for _, trade := range trades {
		summary.Volume += trade.EntryPrice*trade.Size + trade.ExitPrice*trade.Size
		summary.Fees += trade.Fees

		switch trade.ExitReason {
		case core.ExitStopLoss:
			summary.StopLosses++
		case core.ExitTakeProfit:
			summary.TakeProfits++
		case core.ExitEndOfData:
			summary.EndOfData++
		}

		win := trade.NetPnL > 0
		switch {
		case trade.Direction == core.DirectionLong && win:
			summary.WinLong = append(summary.WinLong, trade.NetPnL)
			summary.WinLongPercent = append(summary.WinLongPercent, trade.NetPct())
		case trade.Direction == core.DirectionLong:
			summary.LoseLong = append(summary.LoseLong, trade.NetPnL)
			summary.LoseLongPercent = append(summary.LoseLongPercent, trade.NetPct())
		case win:
			summary.WinShort = append(summary.WinShort, trade.NetPnL)
			summary.WinShortPercent = append(summary.WinShortPercent, trade.NetPct())
		default:
			summary.LoseShort = append(summary.LoseShort, trade.NetPnL)
			summary.LoseShortPercent = append(summary.LoseShortPercent, trade.NetPct())
		}
	}

	return summary
}

// Win returns all winning trades (both long and short)
func (s TradeSummary) Win() []float64 {
	return concat(s.WinLong, s.WinShort)
}

// WinPercent returns the percentage gains of all winning trades
func (s TradeSummary) WinPercent() []float64 {
	return concat(s.WinLongPercent, s.WinShortPercent)
}

// Lose returns all losing trades (both long and short)
func (s TradeSummary) Lose() []float64 {
	return concat(s.LoseLong, s.LoseShort)
}

// LosePercent returns the percentage losses of all losing trades
func (s TradeSummary) LosePercent() []float64 {
	return concat(s.LoseLongPercent, s.LoseShortPercent)
}

// Profit calculates the total net profit across all trades
func (s TradeSummary) Profit() float64 {
	return lo.Sum(concat(s.Win(), s.Lose()))
}

// SQN (System Quality Number) of the net trade results
func (s TradeSummary) SQN() float64 {
	return metric.SQN(concat(s.Win(), s.Lose()))
}

// Payoff calculates the ratio of the average net win to the average net loss
// in percent of the entry notional
func (s TradeSummary) Payoff() float64 {
	return metric.Payoff(s.WinPercent(), s.LosePercent())
}

// ProfitFactor calculates the ratio of the average net win to the average net loss
func (s TradeSummary) ProfitFactor() float64 {
	return metric.ProfitFactor(metric.Mean(s.Win()), metric.Mean(s.Lose()))
}

// WinPercentage calculates the percentage of winning trades
func (s TradeSummary) WinPercentage() float64 {
	winCount := len(s.Win())
	totalTrades := winCount + len(s.Lose())

	if totalTrades == 0 {
		return 0
	}

	return float64(winCount) / float64(totalTrades) * 100
}

// String formats the trade summary as a text table
func (s TradeSummary) String() string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)

	data := [][]string{
		{"Pair", s.Pair},
		{"Trades", strconv.Itoa(len(s.Lose()) + len(s.Win()))},
		{"Win", strconv.Itoa(len(s.Win()))},
		{"Loss", strconv.Itoa(len(s.Lose()))},
		{"% Win", fmt.Sprintf("%.1f", s.WinPercentage())},
		{"Payoff", fmt.Sprintf("%.2f", s.Payoff())},
		{"Profit factor", fmt.Sprintf("%.2f", s.ProfitFactor())},
		{"SQN", fmt.Sprintf("%.2f", s.SQN())},
		{"Net Profit", fmt.Sprintf("%.4f", s.Profit())},
		{"Fees", fmt.Sprintf("%.4f", s.Fees)},
		{"Volume", fmt.Sprintf("%.4f", s.Volume)},
		{"Exits SL/TP/EOD", fmt.Sprintf("%d/%d/%d", s.StopLosses, s.TakeProfits, s.EndOfData)},
	}

	table.AppendBulk(data)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()

	return tableString.String()
}

// Helper functions

// concat joins two slices into a new one, leaving both inputs untouched
func concat(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

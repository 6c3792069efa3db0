package backtest

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/bosfvg/pkg/metric"
	"github.com/raykavin/bosfvg/pkg/order"
	"github.com/samber/lo"
)

// Report writes the trade summary table, the metrics, a histogram of trade
// returns and bootstrap confidence intervals
func (r *Result) Report(w io.Writer, bootstrapSamples int) error {
	summary := order.NewTradeSummary(r.Pair, r.Trades)
	if _, err := fmt.Fprintln(w, summary.String()); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, r.metricsTable()); err != nil {
		return err
	}

	returns := make([]float64, 0, len(r.Trades))
	for _, trade := range r.Trades {
		returns = append(returns, trade.NetPct())
	}

	if len(returns) == 0 {
		_, err := fmt.Fprintln(w, "no trades")
		return err
	}

	fmt.Fprintln(w, "------ RETURN -------")
	hist := histogram.Hist(15, returns)
	histogram.Fprint(w, hist, histogram.Linear(10))
	fmt.Fprintln(w)

	fractions := make([]float64, len(returns))
	for i, p := range returns {
		fractions[i] = p / 100
	}

	returnsInterval := metric.Bootstrap(fractions, metric.Mean, bootstrapSamples, 0.95)
	payoffInterval := metric.Bootstrap(fractions, metric.PayoffRatio, bootstrapSamples, 0.95)
	profitFactorInterval := metric.Bootstrap(fractions, metric.ProfitRatio, bootstrapSamples, 0.95)

	fmt.Fprintln(w, "------ CONFIDENCE INTERVAL (95%) -------")
	fmt.Fprintf(w, "RETURN:      %.2f%% (%.2f%% ~ %.2f%%)\n",
		returnsInterval.Mean*100, returnsInterval.Lower*100, returnsInterval.Upper*100)
	fmt.Fprintf(w, "PAYOFF:      %.2f (%.2f ~ %.2f)\n",
		payoffInterval.Mean, payoffInterval.Lower, payoffInterval.Upper)
	_, err := fmt.Fprintf(w, "PROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
		profitFactorInterval.Mean, profitFactorInterval.Lower, profitFactorInterval.Upper)
	return err
}

func (r *Result) metricsTable() string {
	m := r.Metrics

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Metric", "Value"})

	table.AppendBulk([][]string{
		{"Bars", strconv.Itoa(r.Bars)},
		{"Skipped bars", strconv.Itoa(r.Skipped)},
		{"Sessions", strconv.Itoa(len(r.Sessions))},
		{"Signals", strconv.Itoa(len(r.Signals))},
		{"Trades", strconv.Itoa(m.TotalTrades)},
		{"Win rate", fmt.Sprintf("%.1f %%", m.WinRate*100)},
		{"Avg win", fmt.Sprintf("%.2f", m.AvgWin)},
		{"Avg loss", fmt.Sprintf("%.2f", m.AvgLoss)},
		{"Profit factor", fmt.Sprintf("%.3f", m.ProfitFactor)},
		{"Expectancy", fmt.Sprintf("%.2f", m.Expectancy)},
		{"Max drawdown", fmt.Sprintf("%.2f %%", m.MaxDrawdown*100)},
		{"Sharpe", fmt.Sprintf("%.2f", m.Sharpe)},
		{"Total return", fmt.Sprintf("%.2f %%", m.TotalReturn*100)},
		{"Final equity", fmt.Sprintf("%.2f", m.FinalEquity)},
	})

	reasons := lo.Keys(r.Rejections)
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	for _, reason := range reasons {
		table.Append([]string{"Rejected (" + string(reason) + ")", strconv.Itoa(r.Rejections[reason])})
	}

	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()
	return buffer.String()
}

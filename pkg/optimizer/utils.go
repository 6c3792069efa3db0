package optimizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// SaveResultsToCSV saves optimization results to a CSV file, best first
func SaveResultsToCSV(results []*Result, targetMetric MetricName, maximize bool, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return WriteResultsCSV(file, results, targetMetric, maximize)
}

// WriteResultsCSV writes one row per result with sorted parameter and metric columns
func WriteResultsCSV(w io.Writer, results []*Result, targetMetric MetricName, maximize bool) error {
	writer := csv.NewWriter(w)

	SortResults(results, targetMetric, maximize)
	paramNames, metricNames := columnNames(results)

	header := []string{"rank", "duration"}
	header = append(header, paramNames...)
	header = append(header, metricNames...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, result := range results {
		row := []string{
			strconv.Itoa(i + 1),
			result.Duration.String(),
		}

		for _, paramName := range paramNames {
			value, exists := result.Parameters[paramName]
			if !exists {
				row = append(row, "")
				continue
			}
			row = append(row, formatValue(value))
		}

		for _, metricName := range metricNames {
			value, exists := result.Metrics[metricName]
			if !exists {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(value, 'f', 4, 64))
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// PrintResults renders the top results as a table
func PrintResults(w io.Writer, results []*Result, targetMetric MetricName, maximize bool, topN int) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results to display")
		return
	}

	SortResults(results, targetMetric, maximize)
	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}

	paramNames, _ := columnNames(results)

	fmt.Fprintf(w, "\n=== Top %d Results (by %s) ===\n", len(results), targetMetric)

	table := tablewriter.NewWriter(w)
	header := append([]string{"#"}, paramNames...)
	header = append(header, string(targetMetric), string(MetricTradeCount), "duration")
	table.SetHeader(header)

	for i, result := range results {
		row := []string{strconv.Itoa(i + 1)}
		for _, name := range paramNames {
			row = append(row, formatValue(result.Parameters[name]))
		}
		row = append(row,
			fmt.Sprintf("%.4f", result.Metrics[string(targetMetric)]),
			fmt.Sprintf("%.0f", result.Metrics[string(MetricTradeCount)]),
			result.Duration.Round(time.Millisecond).String(),
		)
		table.Append(row)
	}
	table.Render()
}

// FormatParameterSet formats a parameter set as a string with sorted keys
func FormatParameterSet(params ParameterSet) string {
	names := lo.Keys(params)
	sort.Strings(names)

	parts := lo.Map(names, func(name string, _ int) string {
		return fmt.Sprintf("%s: %v", name, params[name])
	})

	return "{" + strings.Join(parts, ", ") + "}"
}

func columnNames(results []*Result) ([]string, []string) {
	paramNames := lo.Uniq(lo.FlatMap(results, func(r *Result, _ int) []string { return lo.Keys(r.Parameters) }))
	metricNames := lo.Uniq(lo.FlatMap(results, func(r *Result, _ int) []string { return lo.Keys(r.Metrics) }))
	sort.Strings(paramNames)
	sort.Strings(metricNames)
	return paramNames, metricNames
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', 4, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

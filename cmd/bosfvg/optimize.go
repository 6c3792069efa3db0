package main

import (
	"github.com/raykavin/bosfvg/pkg/optimizer"
	"github.com/spf13/cobra"
)

// Optimize command flags
var (
	method       string
	targetMetric string
	minimize     bool
	parallelism  int
	iterations   int
	topN         int
	seed         int64
	resultsFile  string
)

func buildOptimizeCmd() *cobra.Command {
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search strategy parameters over a candle file",
		RunE:  runOptimize,
	}

	addDataFlags(optimizeCmd)
	optimizeCmd.Flags().StringVar(&method, "method", "grid", "Search method (grid or random)")
	optimizeCmd.Flags().StringVar(&targetMetric, "target", string(optimizer.MetricProfit), "Metric to optimize")
	optimizeCmd.Flags().BoolVar(&minimize, "minimize", false, "Minimize the target metric")
	optimizeCmd.Flags().IntVarP(&parallelism, "parallel", "j", 4, "Parallel backtests")
	optimizeCmd.Flags().IntVar(&iterations, "iterations", 100, "Maximum evaluations")
	optimizeCmd.Flags().IntVar(&topN, "top", 10, "Results to print")
	optimizeCmd.Flags().Int64Var(&seed, "seed", 0, "Random search seed")
	optimizeCmd.Flags().StringVarP(&resultsFile, "output", "o", "", "Write every result to this CSV file")

	return optimizeCmd
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd, dataBindings)
	if err != nil {
		return err
	}

	candles, err := loadCandles(cfg, log)
	if err != nil {
		return err
	}

	config := optimizer.NewConfig().
		WithParameters(optimizer.DefaultParameters()...).
		WithMaxIterations(iterations).
		WithParallelism(parallelism).
		WithLogger(log).
		WithTargetMetric(optimizer.MetricName(targetMetric), !minimize).
		WithTopN(topN).
		WithSeed(seed)

	var search optimizer.Optimizer
	if method == "random" {
		search, err = optimizer.NewRandomSearch(config)
	} else {
		search, err = optimizer.NewGridSearch(config)
	}
	if err != nil {
		return err
	}

	evaluator := optimizer.NewBacktestEvaluator(candles, cfg.Backtest, log.WithField("component", "evaluator"))

	results, err := search.Optimize(cmd.Context(), evaluator, config.TargetMetric, config.Maximize)
	if err != nil {
		return err
	}

	optimizer.PrintResults(cmd.OutOrStdout(), results, config.TargetMetric, config.Maximize, config.TopN)

	if resultsFile != "" {
		if err := optimizer.SaveResultsToCSV(results, config.TargetMetric, config.Maximize, resultsFile); err != nil {
			return err
		}
		log.Infof("results written to %s", resultsFile)
	}

	return nil
}

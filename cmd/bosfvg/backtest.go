package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/raykavin/bosfvg/pkg/backtest"
	"github.com/raykavin/bosfvg/pkg/storage"
	"github.com/raykavin/bosfvg/pkg/telemetry"
	"github.com/spf13/cobra"
)

// Backtest command flags
var (
	bootstrapSamples int
	showProgress     bool
)

func buildBacktestCmd() *cobra.Command {
	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the strategy over a candle file and print the report",
		RunE:  runBacktest,
	}

	addDataFlags(backtestCmd)
	backtestCmd.Flags().IntVar(&bootstrapSamples, "bootstrap", 1000, "Bootstrap samples for confidence intervals (0 disables)")
	backtestCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar")
	backtestCmd.Flags().String("storage", "", "Trade journal driver (buntdb or postgres)")
	backtestCmd.Flags().String("dsn", "", "Trade journal file or postgres DSN")
	backtestCmd.Flags().String("metrics-addr", "", "Expose prometheus metrics on this address (e.g. :9090)")

	return backtestCmd
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	bindings := map[string]string{
		"storage.driver": "storage",
		"storage.dsn":    "dsn",
		"metrics.addr":   "metrics-addr",
	}
	for key, flag := range dataBindings {
		bindings[key] = flag
	}

	cfg, log, err := loadConfig(cmd, bindings)
	if err != nil {
		return err
	}

	candles, err := loadCandles(cfg, log)
	if err != nil {
		return err
	}

	opts := []backtest.Option{backtest.WithLogger(log)}
	if showProgress {
		opts = append(opts, backtest.WithProgress())
	}

	if cfg.Metrics.Addr != "" {
		registry := prometheus.NewRegistry()
		collector, err := telemetry.NewCollector(registry)
		if err != nil {
			return err
		}
		srv := telemetry.Serve(cfg.Metrics.Addr, registry, log)
		defer srv.Close()

		log.Infof("serving metrics on %s/metrics", cfg.Metrics.Addr)
		opts = append(opts, backtest.WithObserver(collector))
	}

	result, err := backtest.Run(cmd.Context(), candles, cfg.Backtest, opts...)
	if err != nil {
		return err
	}

	if err := result.Report(cmd.OutOrStdout(), bootstrapSamples); err != nil {
		return err
	}

	db, err := openStorage(cfg.Storage, log)
	if err != nil {
		return err
	}
	if db == nil {
		return nil
	}
	defer db.Close()

	runID := storage.NewRunID()
	if err := db.SaveTrades(runID, result.Trades); err != nil {
		return err
	}

	log.WithField("run", runID).Infof("%d trades saved to %s", len(result.Trades), cfg.Storage.Driver)
	return nil
}

package main

import (
	"fmt"

	"github.com/raykavin/bosfvg/pkg/config"
	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/exchange"
	"github.com/raykavin/bosfvg/pkg/indicator"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/raykavin/bosfvg/pkg/logger/zerolog"
	"github.com/raykavin/bosfvg/pkg/storage"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// addDataFlags registers the flags that select the candle file of a run
func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("pair", "p", "", "Symbol of the candle file (e.g. SPY)")
	cmd.Flags().StringP("data", "d", "", "Candle CSV file")
	cmd.Flags().StringP("timeframe", "t", "", "Timeframe of the candle file (e.g. 5m)")
	cmd.Flags().String("resample", "", "Resample candles to a coarser timeframe before the run")
}

// loadConfig reads the configuration with the command flags bound on top
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, logger.Logger, error) {
	opts := make([]config.Option, 0, len(bindings))
	for key, flag := range bindings {
		opts = append(opts, config.WithFlag(key, cmd.Flags().Lookup(flag)))
	}

	cfg, err := config.Load(configPath, opts...)
	if err != nil {
		return nil, nil, err
	}

	log, err := zerolog.New(zerolog.Options{
		Level:          cfg.Log.Level,
		DateTimeLayout: cfg.Log.TimeFormat,
		Colored:        cfg.Log.Colored,
		JSON:           cfg.Log.JSON,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", core.ErrConfig, err)
	}

	return cfg, log, nil
}

var dataBindings = map[string]string{
	"backtest.pair":  "pair",
	"data.file":      "data",
	"data.timeframe": "timeframe",
	"data.resample":  "resample",
}

// loadCandles reads, optionally resamples and enriches the configured file
func loadCandles(cfg *config.Config, log logger.Logger) ([]core.Candle, error) {
	if cfg.Data.File == "" {
		return nil, fmt.Errorf("%w: no candle file, use --data or data.file", core.ErrConfig)
	}

	pair := cfg.Backtest.Pair
	feed, err := exchange.NewCSVFeed(cfg.Data.Resample, exchange.PairFeed{
		Pair:      pair,
		File:      cfg.Data.File,
		Timeframe: cfg.Data.Timeframe,
	})
	if err != nil {
		return nil, err
	}

	timeframe := cfg.Data.Timeframe
	if cfg.Data.Resample != "" {
		timeframe = cfg.Data.Resample
	}

	candles, err := feed.Candles(pair, timeframe)
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{
		"pair":      pair,
		"timeframe": timeframe,
		"bars":      len(candles),
	}).Info("candles loaded")

	return indicator.Enrich(candles, cfg.Enrich)
}

// openStorage returns nil when no trade journal is configured
func openStorage(cfg config.StorageConfig, log logger.Logger) (storage.TradeStorage, error) {
	switch cfg.Driver {
	case "buntdb":
		return storage.FromFile(cfg.DSN, log)
	case "postgres":
		return storage.FromSQL(postgres.Open(cfg.DSN), &gorm.Config{})
	}
	return nil, nil
}

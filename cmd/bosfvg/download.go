package main

import (
	"fmt"
	"time"

	"github.com/raykavin/bosfvg/pkg/backtesting"
	"github.com/raykavin/bosfvg/pkg/exchange/binance"
	"github.com/spf13/cobra"
)

const (
	dateLayout = "2006-01-02"
)

// Download command flags
var (
	days       int
	startDate  string
	endDate    string
	outputFile string
	precision  int
)

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download historical data",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringP("pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	downloadCmd.Flags().StringP("timeframe", "t", "", "Timeframe (e.g. 5m)")
	downloadCmd.Flags().IntVar(&days, "days", 0, "Number of days to download (default 30 days)")
	downloadCmd.Flags().StringVarP(&startDate, "start", "s", "", "Start date (e.g. 2021-12-01)")
	downloadCmd.Flags().StringVarP(&endDate, "end", "e", "", "End date (e.g. 2020-12-31)")
	downloadCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (e.g. ./btc.csv)")
	downloadCmd.Flags().IntVar(&precision, "precision", 8, "Decimals written for prices")

	downloadCmd.MarkFlagRequired("pair")
	downloadCmd.MarkFlagRequired("timeframe")
	downloadCmd.MarkFlagRequired("output")

	return downloadCmd
}

func runDownload(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd, map[string]string{
		"backtest.pair":  "pair",
		"data.timeframe": "timeframe",
	})
	if err != nil {
		return err
	}

	options, err := buildDownloadOptions()
	if err != nil {
		return err
	}

	exchangeOptions := []binance.Option{binance.WithMaxRetries(cfg.Binance.MaxRetries)}
	if cfg.Binance.APIKey != "" {
		exchangeOptions = append(exchangeOptions, binance.WithCredentials(cfg.Binance.APIKey, cfg.Binance.SecretKey))
	}
	if cfg.Binance.UseTestnet {
		exchangeOptions = append(exchangeOptions, binance.WithTestNet())
	}

	return backtesting.NewDownloader(binance.New(log, exchangeOptions...), log).Download(
		cmd.Context(),
		cfg.Backtest.Pair,
		cfg.Data.Timeframe,
		outputFile,
		options...,
	)
}

func buildDownloadOptions() ([]backtesting.Option, error) {
	options := []backtesting.Option{backtesting.WithPrecision(precision)}

	if days > 0 {
		options = append(options, backtesting.WithDays(days))
	}

	// Handle date range options
	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return nil, fmt.Errorf("START and END dates must be provided together")
		}

		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date format: %w", err)
		}

		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date format: %w", err)
		}

		options = append(options, backtesting.WithInterval(start, end))
	}

	return options, nil
}

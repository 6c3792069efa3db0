// Package config loads run settings from a YAML file and BOSFVG_* environment
// variables using Viper
package config

import (
	"fmt"
	"strings"

	"github.com/raykavin/bosfvg/pkg/backtest"
	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/indicator"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BOSFVG_BACKTEST_PAIR
const EnvPrefix = "BOSFVG"

// Config is the full application configuration
type Config struct {
	Backtest backtest.Config         `mapstructure:"backtest"`
	Data     DataConfig              `mapstructure:"data"`
	Enrich   indicator.EnrichOptions `mapstructure:"enrich"`
	Log      LogConfig               `mapstructure:"log"`
	Storage  StorageConfig           `mapstructure:"storage"`
	Binance  BinanceConfig           `mapstructure:"binance"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
}

// DataConfig points at the candle file of a run
type DataConfig struct {
	File      string `mapstructure:"file"`
	Timeframe string `mapstructure:"timeframe"` // timeframe of the file
	Resample  string `mapstructure:"resample"`  // optional coarser timeframe to run on
}

// LogConfig holds logger options
type LogConfig struct {
	Level      string `mapstructure:"level"`
	TimeFormat string `mapstructure:"time_format"`
	Colored    bool   `mapstructure:"colored"`
	JSON       bool   `mapstructure:"json"`
}

// StorageConfig selects the trade journal. Driver is "", "buntdb" or "postgres".
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"` // buntdb file path or postgres DSN
}

// BinanceConfig holds credentials for historical downloads
type BinanceConfig struct {
	APIKey     string `mapstructure:"api_key"`
	SecretKey  string `mapstructure:"secret_key"`
	UseTestnet bool   `mapstructure:"use_testnet"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// MetricsConfig enables the prometheus endpoint when Addr is set
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Backtest: backtest.DefaultConfig(),
		Data:     DataConfig{Timeframe: "5m"},
		Enrich:   indicator.DefaultEnrichOptions(),
		Log: LogConfig{
			Level:      "info",
			TimeFormat: "2006-01-02 15:04:05",
			Colored:    true,
		},
		Binance: BinanceConfig{MaxRetries: 5},
	}
}

// Option customizes the viper instance before the configuration is read
type Option func(*viper.Viper) error

// WithFlag binds a command line flag to key. A flag set by the user wins over
// the environment and the file.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(v *viper.Viper) error {
		if flag == nil {
			return fmt.Errorf("%w: no flag bound to %s", core.ErrConfig, key)
		}
		return v.BindPFlag(key, flag)
	}
}

// Load reads path (optional) and environment overrides on top of Default
func Load(path string, opts ...Option) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", core.ErrConfig, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse configuration: %w", core.ErrConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WriteDefault saves the default configuration to path. The format follows
// the file extension (yaml, json or toml).
func WriteDefault(path string) error {
	v := viper.New()
	setDefaults(v, Default())

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not save default configuration: %w", err)
	}
	return nil
}

// Validate checks the run settings and the storage selection
func (c Config) Validate() error {
	if err := c.Backtest.Validate(); err != nil {
		return err
	}

	switch c.Storage.Driver {
	case "":
	case "buntdb", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage %s requires a dsn", core.ErrConfig, c.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", core.ErrConfig, c.Storage.Driver)
	}

	return nil
}

// setDefaults registers every key so environment variables can override
// values that are absent from the file
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("backtest.pair", d.Backtest.Pair)
	v.SetDefault("backtest.periods_per_year", d.Backtest.PeriodsPerYear)

	s := d.Backtest.Strategy
	v.SetDefault("backtest.strategy.risk_per_trade", s.RiskPerTrade)
	v.SetDefault("backtest.strategy.reward_ratio", s.RewardRatio)
	v.SetDefault("backtest.strategy.session_start", s.SessionStart)
	v.SetDefault("backtest.strategy.opening_range_end", s.OpeningRangeEnd)
	v.SetDefault("backtest.strategy.session_end", s.SessionEnd)
	v.SetDefault("backtest.strategy.timezone", s.Timezone)
	v.SetDefault("backtest.strategy.trend_threshold", s.TrendThreshold)
	v.SetDefault("backtest.strategy.filter_start_hour", s.FilterStartHour)
	v.SetDefault("backtest.strategy.filter_end_hour", s.FilterEndHour)
	v.SetDefault("backtest.strategy.account_balance", s.AccountBalance)
	v.SetDefault("backtest.strategy.htf_filter", s.HTFFilter)

	sim := d.Backtest.Simulator
	v.SetDefault("backtest.simulator.initial_balance", sim.InitialBalance)
	v.SetDefault("backtest.simulator.fee_rate", sim.FeeRate)
	v.SetDefault("backtest.simulator.slippage_rate", sim.SlippageRate)

	v.SetDefault("data.file", d.Data.File)
	v.SetDefault("data.timeframe", d.Data.Timeframe)
	v.SetDefault("data.resample", d.Data.Resample)

	v.SetDefault("enrich.adx_period", d.Enrich.ADXPeriod)
	v.SetDefault("enrich.htf_timeframe", d.Enrich.HTFTimeframe)
	v.SetDefault("enrich.htf_ema_period", d.Enrich.HTFEMAPeriod)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.time_format", d.Log.TimeFormat)
	v.SetDefault("log.colored", d.Log.Colored)
	v.SetDefault("log.json", d.Log.JSON)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)

	v.SetDefault("binance.api_key", d.Binance.APIKey)
	v.SetDefault("binance.secret_key", d.Binance.SecretKey)
	v.SetDefault("binance.use_testnet", d.Binance.UseTestnet)
	v.SetDefault("binance.max_retries", d.Binance.MaxRetries)

	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

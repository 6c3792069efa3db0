package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, "America/New_York", cfg.Backtest.Strategy.Timezone)
	assert.Equal(t, 0.0005, cfg.Backtest.Simulator.FeeRate)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bosfvg.yaml")
	require.NoError(t, WriteDefault(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "reward_ratio: 2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bosfvg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backtest:
  pair: QQQ
  strategy:
    reward_ratio: 3
    htf_filter: true
  simulator:
    slippage_rate: 0.0001
data:
  file: ./qqq.csv
storage:
  driver: buntdb
  dsn: ./trades.db
`), 0o644))

	t.Setenv("BOSFVG_BACKTEST_STRATEGY_TREND_THRESHOLD", "20")
	t.Setenv("BOSFVG_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "QQQ", cfg.Backtest.Pair)
	assert.Equal(t, 3.0, cfg.Backtest.Strategy.RewardRatio)
	assert.True(t, cfg.Backtest.Strategy.HTFFilter)
	assert.Equal(t, 20.0, cfg.Backtest.Strategy.TrendThreshold)
	assert.Equal(t, 0.01, cfg.Backtest.Strategy.RiskPerTrade)
	assert.Equal(t, 0.0001, cfg.Backtest.Simulator.SlippageRate)
	assert.Equal(t, "./qqq.csv", cfg.Data.File)
	assert.Equal(t, "5m", cfg.Data.Timeframe)
	assert.Equal(t, "buntdb", cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 14, cfg.Enrich.ADXPeriod)
}

func TestLoad_Flags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("pair", "", "")
	flags.String("data", "", "")
	require.NoError(t, flags.Parse([]string{"--data", "./spy.csv"}))

	t.Setenv("BOSFVG_DATA_FILE", "./env.csv")

	cfg, err := Load("",
		WithFlag("backtest.pair", flags.Lookup("pair")),
		WithFlag("data.file", flags.Lookup("data")),
	)
	require.NoError(t, err)

	// unset flag keeps the default, set flag beats the environment
	assert.Equal(t, "SPY", cfg.Backtest.Pair)
	assert.Equal(t, "./spy.csv", cfg.Data.File)

	_, err = Load("", WithFlag("data.file", flags.Lookup("missing")))
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, core.ErrConfig)
	})

	t.Run("bad strategy", func(t *testing.T) {
		t.Setenv("BOSFVG_BACKTEST_STRATEGY_RISK_PER_TRADE", "2")
		_, err := Load("")
		assert.ErrorIs(t, err, core.ErrConfig)
	})

	t.Run("storage without dsn", func(t *testing.T) {
		t.Setenv("BOSFVG_STORAGE_DRIVER", "postgres")
		_, err := Load("")
		assert.ErrorIs(t, err, core.ErrConfig)
	})

	t.Run("unknown storage", func(t *testing.T) {
		t.Setenv("BOSFVG_STORAGE_DRIVER", "mongo")
		t.Setenv("BOSFVG_STORAGE_DSN", "x")
		_, err := Load("")
		assert.ErrorIs(t, err, core.ErrConfig)
	})
}

package strategy

import (
	"fmt"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/session"
)

// Params holds the immutable strategy configuration
type Params struct {
	RiskPerTrade    float64 `mapstructure:"risk_per_trade"`    // fraction of AccountBalance risked per trade
	RewardRatio     float64 `mapstructure:"reward_ratio"`      // take profit distance in multiples of risk
	SessionStart    string  `mapstructure:"session_start"`     // HH:MM
	OpeningRangeEnd string  `mapstructure:"opening_range_end"` // HH:MM
	SessionEnd      string  `mapstructure:"session_end"`       // HH:MM
	Timezone        string  `mapstructure:"timezone"`
	TrendThreshold  float64 `mapstructure:"trend_threshold"` // minimum ADX
	FilterStartHour int     `mapstructure:"filter_start_hour"`
	FilterEndHour   int     `mapstructure:"filter_end_hour"`
	AccountBalance  float64 `mapstructure:"account_balance"`
	HTFFilter       bool    `mapstructure:"htf_filter"`
}

// DefaultParams returns a New York cash session with a 1% risk, 2R setup
func DefaultParams() Params {
	return Params{
		RiskPerTrade:    0.01,
		RewardRatio:     2,
		SessionStart:    "09:30",
		OpeningRangeEnd: "10:30",
		SessionEnd:      "16:00",
		Timezone:        "America/New_York",
		TrendThreshold:  25,
		FilterStartHour: 8,
		FilterEndHour:   12,
		AccountBalance:  10000,
	}
}

// Validate checks every field range. Errors wrap core.ErrConfig.
func (p Params) Validate() error {
	switch {
	case p.RiskPerTrade <= 0 || p.RiskPerTrade > 1:
		return fmt.Errorf("%w: risk per trade must be in (0, 1], got %v", core.ErrConfig, p.RiskPerTrade)
	case p.RewardRatio <= 0:
		return fmt.Errorf("%w: reward ratio must be positive, got %v", core.ErrConfig, p.RewardRatio)
	case p.TrendThreshold < 0:
		return fmt.Errorf("%w: trend threshold must not be negative, got %v", core.ErrConfig, p.TrendThreshold)
	case p.FilterStartHour < 0 || p.FilterEndHour > 24 || p.FilterStartHour >= p.FilterEndHour:
		return fmt.Errorf("%w: invalid filter hours [%d, %d)", core.ErrConfig, p.FilterStartHour, p.FilterEndHour)
	case p.AccountBalance <= 0:
		return fmt.Errorf("%w: account balance must be positive, got %v", core.ErrConfig, p.AccountBalance)
	}

	if _, err := p.Clock(); err != nil {
		return err
	}

	return nil
}

// Clock builds the session clock described by the params
func (p Params) Clock() (*session.Clock, error) {
	clock, err := session.NewClock(p.Timezone, p.SessionStart, p.OpeningRangeEnd, p.SessionEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfig, err)
	}
	return clock, nil
}

package strategy

import (
	"math"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/raykavin/bosfvg/pkg/session"
)

// Rejection names the filter that refused a candidate
type Rejection string

const (
	RejectNone     Rejection = ""
	RejectSession  Rejection = "session"
	RejectTrend    Rejection = "trend"
	RejectZeroRisk Rejection = "zero_risk"
	RejectHTF      Rejection = "htf_trend"
)

// Synthesizer turns entry candidates into sized signals
type Synthesizer struct {
	params Params
	clock  *session.Clock
	log    logger.Logger
}

func NewSynthesizer(params Params, clock *session.Clock, log logger.Logger) *Synthesizer {
	return &Synthesizer{params: params, clock: clock, log: log}
}

// Synthesize applies the session, trend, risk and optional higher timeframe
// filters in that order. The first failing filter is returned with a nil signal.
func (s *Synthesizer) Synthesize(candidate EntryCandidate, trendStrength float64) (*core.Signal, Rejection) {
	if !s.clock.InHours(candidate.Time, s.params.FilterStartHour, s.params.FilterEndHour) {
		s.log.Infof("skipping signal: %s is outside the %02d:00-%02d:00 session",
			s.clock.Local(candidate.Time).Format("15:04"), s.params.FilterStartHour, s.params.FilterEndHour)
		return nil, RejectSession
	}

	if math.IsNaN(trendStrength) || trendStrength < s.params.TrendThreshold {
		s.log.Infof("skipping signal: trend strength %.2f below %.2f", trendStrength, s.params.TrendThreshold)
		return nil, RejectTrend
	}

	risk := math.Abs(candidate.EntryPrice - candidate.StopLoss)
	if risk == 0 {
		s.log.Warn("skipping signal: risk per unit is zero")
		return nil, RejectZeroRisk
	}

	if s.params.HTFFilter && !math.IsNaN(candidate.HTFEMA) {
		if (candidate.Direction == core.DirectionLong && candidate.Close <= candidate.HTFEMA) ||
			(candidate.Direction == core.DirectionShort && candidate.Close >= candidate.HTFEMA) {
			s.log.Infof("skipping signal: %s against higher timeframe EMA %.4f", candidate.Direction, candidate.HTFEMA)
			return nil, RejectHTF
		}
	}

	signal := &core.Signal{
		Pair:       candidate.Pair,
		Direction:  candidate.Direction,
		EntryPrice: candidate.EntryPrice,
		StopLoss:   candidate.StopLoss,
		TakeProfit: candidate.EntryPrice + candidate.Direction.Sign()*risk*s.params.RewardRatio,
		Size:       s.params.RiskPerTrade * s.params.AccountBalance / risk,
		Time:       candidate.Time,
	}

	s.log.Infof("generated signal %s", signal)
	return signal, RejectNone
}

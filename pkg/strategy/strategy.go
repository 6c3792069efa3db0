package strategy

import (
	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/indicator"
	"github.com/raykavin/bosfvg/pkg/logger"
)

// Strategy produces at most one signal per bar. Bars are fed in index order.
type Strategy interface {
	OnBar(index int) (*core.Signal, error)
	Stats() Stats
}

// Stats counts what the strategy did over a run
type Stats struct {
	Candidates int
	Signals    int
	Rejections map[Rejection]int
}

// BOSFVG composes the structure detector and the signal synthesizer
type BOSFVG struct {
	candles     []core.Candle
	detector    *Detector
	synthesizer *Synthesizer
	log         logger.Logger

	// used when the series carries no adx column
	trend *indicator.RollingADX

	stats Stats
}

// TrendPeriod is the ADX period used for the trend filter
const TrendPeriod = 14

// NewBOSFVG validates params and builds a strategy over candles
func NewBOSFVG(candles []core.Candle, params Params, log logger.Logger) (*BOSFVG, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	clock, err := params.Clock()
	if err != nil {
		return nil, err
	}

	return &BOSFVG{
		candles:     candles,
		detector:    NewDetector(candles, clock, log),
		synthesizer: NewSynthesizer(params, clock, log),
		log:         log,
		trend:       indicator.NewRollingADX(TrendPeriod),
		stats:       Stats{Rejections: make(map[Rejection]int)},
	}, nil
}

// OnBar evaluates the bar at index and returns a signal when a gap tap passes
// every filter
func (s *BOSFVG) OnBar(index int) (*core.Signal, error) {
	candidate, err := s.detector.Evaluate(index)
	if err != nil {
		return nil, err
	}

	candle := s.candles[index]
	if candle.Valid() {
		s.trend.Update(candle.High, candle.Low, candle.Close)
	}

	if candidate == nil {
		return nil, nil
	}
	s.stats.Candidates++

	signal, rejection := s.synthesizer.Synthesize(*candidate, s.trendStrength(candle))
	if rejection != RejectNone {
		s.stats.Rejections[rejection]++
		return nil, nil
	}

	s.detector.MarkTradeTaken()
	s.stats.Signals++
	return signal, nil
}

func (s *BOSFVG) trendStrength(candle core.Candle) float64 {
	if _, ok := candle.Metadata[indicator.ColumnADX]; ok {
		return candle.Value(indicator.ColumnADX)
	}
	return s.trend.Value()
}

// State exposes the detector session state
func (s *BOSFVG) State() SessionState {
	return s.detector.State()
}

// Stats returns a copy of the run counters
func (s *BOSFVG) Stats() Stats {
	out := Stats{
		Candidates: s.stats.Candidates,
		Signals:    s.stats.Signals,
		Rejections: make(map[Rejection]int, len(s.stats.Rejections)),
	}
	for k, v := range s.stats.Rejections {
		out.Rejections[k] = v
	}
	return out
}

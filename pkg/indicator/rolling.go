package indicator

import "math"

// RollingSMA is a ring buffer simple moving average
type RollingSMA struct {
	period int
	window []float64
	pos    int
	count  int
	sum    float64
}

// NewRollingSMA creates a simple moving average over period values
func NewRollingSMA(period int) *RollingSMA {
	return &RollingSMA{period: period, window: make([]float64, period)}
}

// Update pushes a value and returns the current average (NaN while warming up)
func (s *RollingSMA) Update(value float64) float64 {
	if s.count == s.period {
		s.sum -= s.window[s.pos]
	} else {
		s.count++
	}

	s.window[s.pos] = value
	s.sum += value
	s.pos = (s.pos + 1) % s.period

	return s.Value()
}

func (s *RollingSMA) Value() float64 {
	if !s.Ready() {
		return math.NaN()
	}
	return s.sum / float64(s.period)
}

func (s *RollingSMA) Ready() bool { return s.period > 0 && s.count == s.period }

// RollingEMA is an exponential moving average seeded with the simple average
// of its first period values
type RollingEMA struct {
	seed  *RollingSMA
	k     float64
	value float64
	ready bool
}

// NewRollingEMA creates an exponential moving average with k = 2/(period+1)
func NewRollingEMA(period int) *RollingEMA {
	return &RollingEMA{
		seed:  NewRollingSMA(period),
		k:     2.0 / float64(period+1),
		value: math.NaN(),
	}
}

func (e *RollingEMA) Update(value float64) float64 {
	if e.ready {
		e.value = (value-e.value)*e.k + e.value
		return e.value
	}

	if avg := e.seed.Update(value); e.seed.Ready() {
		e.value = avg
		e.ready = true
	}
	return e.value
}

func (e *RollingEMA) Value() float64 { return e.value }

func (e *RollingEMA) Ready() bool { return e.ready }

// RollingADX is Wilder's average directional index. The smoothing follows
// TA-Lib: directional movement and true range are summed over period-1 bars,
// then smoothed, and the first ADX is the mean of the next period DX values.
type RollingADX struct {
	period int
	bars   int

	prevHigh, prevLow, prevClose float64
	plusDM, minusDM, tr          float64

	sumDX float64
	value float64
}

func NewRollingADX(period int) *RollingADX {
	return &RollingADX{period: period, value: math.NaN()}
}

func (a *RollingADX) Update(high, low, close float64) float64 {
	a.bars++
	if a.bars == 1 {
		a.prevHigh, a.prevLow, a.prevClose = high, low, close
		return a.value
	}

	diffP := high - a.prevHigh
	diffM := a.prevLow - low
	tr := trueRange(high, low, a.prevClose)
	a.prevHigh, a.prevLow, a.prevClose = high, low, close

	n := float64(a.period)
	seen := a.bars - 1
	if seen >= a.period {
		a.minusDM -= a.minusDM / n
		a.plusDM -= a.plusDM / n
		a.tr -= a.tr / n
	}

	if diffM > 0 && diffP < diffM {
		a.minusDM += diffM
	} else if diffP > 0 && diffP > diffM {
		a.plusDM += diffP
	}
	a.tr += tr

	if seen < a.period {
		return a.value
	}

	dx, ok := a.dx()
	switch {
	case seen < 2*a.period-1:
		if ok {
			a.sumDX += dx
		}
	case seen == 2*a.period-1:
		if ok {
			a.sumDX += dx
		}
		a.value = a.sumDX / n
	default:
		if ok {
			a.value = (a.value*(n-1) + dx) / n
		}
	}

	return a.value
}

func (a *RollingADX) dx() (float64, bool) {
	if isZero(a.tr) {
		return 0, false
	}

	minusDI := 100 * a.minusDM / a.tr
	plusDI := 100 * a.plusDM / a.tr
	sum := minusDI + plusDI
	if isZero(sum) {
		return 0, false
	}

	return 100 * math.Abs(minusDI-plusDI) / sum, true
}

func (a *RollingADX) Value() float64 { return a.value }

func (a *RollingADX) Ready() bool { return !math.IsNaN(a.value) }

func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

func isZero(v float64) bool {
	return -0.00000001 < v && v < 0.00000001
}

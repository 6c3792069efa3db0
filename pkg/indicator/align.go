package indicator

import (
	"math"
	"time"
)

// AlignBackward maps source values onto target times: every target receives
// the most recent source value whose time is at or before it, or NaN when no
// source value is available yet. Both time slices must be sorted ascending.
func AlignBackward(times []time.Time, srcTimes []time.Time, srcValues []float64) []float64 {
	out := make([]float64, len(times))

	j := -1
	for i, t := range times {
		for j+1 < len(srcTimes) && !srcTimes[j+1].After(t) {
			j++
		}

		if j < 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = srcValues[j]
	}

	return out
}

package audioengine

import (
	"math"
	"math/cmplx"
)

// clamp01 keeps v inside [0,1].
func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// magnitudes writes |bins[i]| scaled by 2/fftSize into out, DC forced to zero.
// Only the first half of bins carries information for a real signal.
func magnitudes(bins []complex128, out []float64) {
	norm := 2 / float64(len(bins))
	for i := range out {
		if i >= len(bins) {
			out[i] = 0
			continue
		}
		out[i] = cmplx.Abs(bins[i]) * norm
	}
	if len(out) > 0 {
		out[0] = 0
	}
}

// bandRMS is the root mean square of mags over [lo, hi).
func bandRMS(mags []float64, lo, hi int) float64 {
	if hi <= lo {
		return 0
	}
	var sum float64
	for i := lo; i < hi; i++ {
		sum += mags[i] * mags[i]
	}
	return math.Sqrt(sum / float64(hi-lo))
}

// compress maps an RMS magnitude onto a 0..1 level.
func compress(rms, gain float64) float64 {
	return clamp01(math.Log10(1 + rms*gain))
}

// onset is one attack/decay follower fed by positive level flux.
type onset struct {
	prev float64
	env  float64
}

func (o *onset) update(level, sensitivity, attack, decay float64) float64 {
	flux := math.Max(0, level-o.prev)
	o.prev = level
	signal := clamp01(flux * sensitivity)
	if signal > o.env {
		o.env += (signal - o.env) * attack
	} else {
		o.env *= decay
	}
	return o.env
}

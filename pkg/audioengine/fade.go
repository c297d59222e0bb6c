package audioengine

import (
	"time"

	"hdxpreview/pkg/spec"
)

// FadeState counts the steps of one crossfade ramp.
type FadeState struct {
	elapsed int
	total   int
}

// newFade sizes a ramp of max(MinFade, d) split into tick-long steps.
func newFade(d, tick time.Duration) *FadeState {
	if d < spec.MinFade {
		d = spec.MinFade
	}
	if tick <= 0 {
		tick = spec.FadeTick
	}
	total := int((d + tick - 1) / tick)
	return &FadeState{total: total}
}

// Step advances the ramp and reports whether it has reached the end.
func (f *FadeState) Step() bool {
	if f.elapsed < f.total {
		f.elapsed++
	}
	return f.elapsed == f.total
}

// Progress is t in [0,1], linear in elapsed/total.
func (f *FadeState) Progress() float64 {
	return float64(f.elapsed) / float64(f.total)
}

func (f *FadeState) Elapsed() int { return f.elapsed }
func (f *FadeState) Total() int   { return f.total }

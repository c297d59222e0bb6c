package audioengine

import (
	"testing"
	"time"
)

func TestNewFadeSteps(t *testing.T) {
	tests := []struct {
		d    time.Duration
		tick time.Duration
		want int
	}{
		{0, 25 * time.Millisecond, 6},
		{100 * time.Millisecond, 25 * time.Millisecond, 6},
		{150 * time.Millisecond, 25 * time.Millisecond, 6},
		{1000 * time.Millisecond, 25 * time.Millisecond, 40},
		{1010 * time.Millisecond, 25 * time.Millisecond, 41},
		{1000 * time.Millisecond, 0, 40},
		{200 * time.Millisecond, 30 * time.Millisecond, 7},
	}
	for _, tt := range tests {
		if got := newFade(tt.d, tt.tick).Total(); got != tt.want {
			t.Errorf("newFade(%v, %v).Total() = %d, want %d", tt.d, tt.tick, got, tt.want)
		}
	}
}

func TestFadeProgress(t *testing.T) {
	f := newFade(time.Second, 25*time.Millisecond)
	if f.Progress() != 0 {
		t.Fatalf("initial progress = %v", f.Progress())
	}
	prev := 0.0
	for i := 1; i <= f.Total(); i++ {
		done := f.Step()
		if done != (i == f.Total()) {
			t.Fatalf("step %d: done = %v", i, done)
		}
		p := f.Progress()
		if p <= prev {
			t.Fatalf("step %d: progress %v not increasing from %v", i, p, prev)
		}
		if !nearly((1-p)+p, 1) {
			t.Fatalf("step %d: gains don't sum to 1", i)
		}
		prev = p
	}
	if prev != 1 {
		t.Fatalf("final progress = %v, want 1", prev)
	}

	// stepping past the end stays at the end
	if !f.Step() || f.Elapsed() != f.Total() {
		t.Errorf("extra step: elapsed %d of %d", f.Elapsed(), f.Total())
	}
}

package audioengine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
)

// Source is one decodable audio handle, already converted to the engine's
// sample rate. Closing it releases the underlying decoder.
type Source interface {
	beep.Streamer

	// Duration reports the total length, or false when the decoder can't tell.
	Duration() (time.Duration, bool)
	Position() time.Duration
	Close() error
}

// Opener turns a URL into a Source.
type Opener interface {
	Open(url string) (Source, error)
}

// gain is a float64 shared between the fade stepper and the audio callback.
type gain struct {
	bits atomic.Uint64
}

func (g *gain) Load() float64 { return math.Float64frombits(g.bits.Load()) }

func (g *gain) Store(v float64) { g.bits.Store(math.Float64bits(v)) }

// Channel wraps one Source and exposes it as a gain-scaled stream. With no
// source attached it streams silence.
//
// Swapping the source must happen while the sink is locked; gain may be
// changed at any time.
type Channel struct {
	name string
	src  Source
	gain gain

	// fault is called (from the audio callback) when the source reports an error.
	fault func(error)
}

// NewChannel creates a silent channel at gain 0.
func NewChannel(name string) *Channel {
	return &Channel{name: name}
}

func (c *Channel) Name() string { return c.name }

// SetSource attaches s, closing the previous source if there was one.
func (c *Channel) SetSource(s Source) error {
	var err error
	if c.src != nil && c.src != s {
		err = c.src.Close()
	}
	c.src = s
	return err
}

// ClearSource detaches and closes the current source.
func (c *Channel) ClearSource() error {
	return c.SetSource(nil)
}

// take detaches the source without closing it, handing ownership to the caller.
func (c *Channel) take() Source {
	s := c.src
	c.src = nil
	return s
}

func (c *Channel) HasSource() bool { return c.src != nil }

// Volume returns the current linear gain.
func (c *Channel) Volume() float64 { return c.gain.Load() }

// SetVolume sets the linear gain. The value is not clamped.
func (c *Channel) SetVolume(v float64) { c.gain.Store(v) }

// Remaining reports how much of the attached source is left to play.
func (c *Channel) Remaining() (time.Duration, bool) {
	if c.src == nil {
		return 0, false
	}
	total, ok := c.src.Duration()
	if !ok {
		return 0, false
	}
	left := total - c.src.Position()
	if left < 0 {
		left = 0
	}
	return left, true
}

// Stream always fills every frame of samples and never ends.
func (c *Channel) Stream(samples [][2]float64) (int, bool) {
	if c.src == nil {
		clear(samples)
		return len(samples), true
	}

	filled := 0
	for filled < len(samples) {
		n, ok := c.src.Stream(samples[filled:])
		filled += n
		if !ok || n == 0 {
			break
		}
	}
	if err := c.src.Err(); err != nil && c.fault != nil {
		c.fault(&FaultError{Stage: "channel " + c.name, Err: err})
	}

	// under-run: pad the tail so the mixer never sees a short read
	clear(samples[filled:])

	g := c.gain.Load()
	for i := range filled {
		samples[i][0] *= g
		samples[i][1] *= g
	}
	return len(samples), true
}

func (c *Channel) Err() error { return nil }

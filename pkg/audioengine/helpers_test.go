package audioengine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
)

const testRate = beep.SampleRate(48000)

// --- fake source ---

type fakeSource struct {
	name   string
	value  float64
	frames int
	pos    int
	known  bool
	err    error
	panics bool

	mu     sync.Mutex
	closed bool
}

func newFakeSource(name string, value float64, d time.Duration) *fakeSource {
	return &fakeSource{name: name, value: value, frames: testRate.N(d), known: true}
}

func (s *fakeSource) Stream(samples [][2]float64) (int, bool) {
	if s.panics {
		panic("decoder exploded")
	}
	if s.pos >= s.frames {
		return 0, false
	}
	n := min(len(samples), s.frames-s.pos)
	for i := range n {
		samples[i] = [2]float64{s.value, s.value}
	}
	s.pos += n
	return n, true
}

func (s *fakeSource) Err() error { return s.err }

func (s *fakeSource) Duration() (time.Duration, bool) {
	return testRate.D(s.frames), s.known
}

func (s *fakeSource) Position() time.Duration { return testRate.D(s.pos) }

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// --- fake opener ---

var errNotFound = errors.New("not found")

type fakeOpener struct {
	mu      sync.Mutex
	sources map[string]*fakeSource
	opened  []string
}

func newFakeOpener(srcs ...*fakeSource) *fakeOpener {
	o := &fakeOpener{sources: map[string]*fakeSource{}}
	for _, s := range srcs {
		o.sources[s.name] = s
	}
	return o
}

func (o *fakeOpener) Open(url string) (Source, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sources[url]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, errNotFound)
	}
	o.opened = append(o.opened, url)
	return s, nil
}

// --- fake sink: pulls happen only when the test calls Pull ---

type fakeSink struct {
	mu       sync.Mutex
	s        beep.Streamer
	started  int
	closed   int
	paused   bool
	volume   float64
	startErr error
}

func (f *fakeSink) Start(s beep.Streamer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.s = s
	f.started++
	return nil
}

func (f *fakeSink) SetPaused(p bool) {
	f.mu.Lock()
	f.paused = p
	f.mu.Unlock()
}

func (f *fakeSink) SetVolume(v float64) {
	f.mu.Lock()
	f.volume = v
	f.mu.Unlock()
}

func (f *fakeSink) Lock()   { f.mu.Lock() }
func (f *fakeSink) Unlock() { f.mu.Unlock() }

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.s = nil
	f.closed++
	return nil
}

// Pull asks the graph for n frames like the device callback would. It
// returns nil when the sink is closed or paused.
func (f *fakeSink) Pull(n int) [][2]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.s == nil || f.paused {
		return nil
	}
	buf := make([][2]float64, n)
	f.s.Stream(buf)
	for i := range buf {
		buf[i][0] *= f.volume
		buf[i][1] *= f.volume
	}
	return buf
}

func (f *fakeSink) isPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

// --- plain streamers ---

type sliceStreamer struct {
	data [][2]float64
	pos  int
}

func (s *sliceStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}
	n := copy(samples, s.data[s.pos:])
	s.pos += n
	return n, true
}

func (s *sliceStreamer) Err() error { return nil }

// sliceSource adapts sliceStreamer to Source for channel tests.
type sliceSource struct {
	sliceStreamer
	closed bool
}

func (s *sliceSource) Duration() (time.Duration, bool) { return testRate.D(len(s.data)), true }
func (s *sliceSource) Position() time.Duration         { return testRate.D(s.pos) }
func (s *sliceSource) Close() error                    { s.closed = true; return nil }

func ramp(n int) [][2]float64 {
	out := make([][2]float64, n)
	for i := range out {
		v := float64(i%97)/97 - 0.5
		out[i] = [2]float64{v, -v / 2}
	}
	return out
}

func nearly(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

package audioengine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/rs/zerolog"

	"hdxpreview/pkg/spec"
)

var ErrClosed = errors.New("audioengine: engine closed")

type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
	StateCrossfading
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateCrossfading:
		return "CROSSFADING"
	default:
		return "STOPPED"
	}
}

// Options configures an Engine. Zero values fall back to the defaults in
// pkg/spec.
type Options struct {
	BarCount     int
	FFTSize      int
	SampleRate   beep.SampleRate
	TickInterval time.Duration

	// ExternalClock disables the internal fade ticker; the host calls Tick.
	ExternalClock bool

	// Bars overrides the tuned bar constants. Geometry fields are replaced
	// by BarCount, FFTSize and SampleRate.
	Bars *BarConfig

	Opener Opener
	Sink   Sink
	Logger *zerolog.Logger

	// OnBars receives one bar frame per completed FFT block.
	OnBars func(levels []float64)
	// OnStopped is called when playback halts on a runtime fault.
	OnStopped func(err error)
}

type fault struct {
	gen uint64
	err error
}

// Engine is the two-channel preview player. The sink pulls
//
//	[Channel A] + [Channel B] -> [Mixer] -> [SpectrumTap] -> [Sink volume] -> device
//
// and a low-rate ticker walks the crossfade ramp.
type Engine struct {
	opts Options
	log  zerolog.Logger

	a, b  *Channel
	mixer *Mixer
	tap   *SpectrumTap
	head  beep.Streamer
	bars  *BarComputer
	sink  Sink

	mu            sync.Mutex
	current, next *Channel
	sinkOpen      bool
	paused        bool
	fade          *FadeState
	volume        int
	closed        bool
	tickStop      chan struct{}

	// gen changes with every sink session and source swap; faults tagged
	// with an older value are dropped
	gen atomic.Uint64

	spectra chan int
	faults  chan fault
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewEngine builds the mixing graph. The sink is not opened until the first
// PlayURL or CrossfadeTo.
func NewEngine(opts Options) (*Engine, error) {
	if opts.BarCount == 0 {
		opts.BarCount = spec.DefaultBarCount
	}
	if opts.FFTSize == 0 {
		opts.FFTSize = spec.DefaultFFTSize
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = spec.SampleRate
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = spec.FadeTick
	}
	if opts.BarCount < 1 {
		return nil, ErrBarCount
	}
	if !isPowerOfTwo(opts.FFTSize) {
		return nil, ErrFFTSize
	}
	if opts.Opener == nil {
		return nil, ErrNoOpener
	}
	if opts.Sink == nil {
		return nil, ErrNoSink
	}

	barCfg := DefaultBarConfig(opts.BarCount, opts.FFTSize, float64(opts.SampleRate))
	if opts.Bars != nil {
		barCfg = *opts.Bars
		barCfg.Bars, barCfg.FFTSize, barCfg.SampleRate = opts.BarCount, opts.FFTSize, float64(opts.SampleRate)
	}
	bars, err := NewBarComputer(barCfg)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		opts:    opts,
		log:     zerolog.Nop(),
		a:       NewChannel("A"),
		b:       NewChannel("B"),
		bars:    bars,
		sink:    opts.Sink,
		volume:  100,
		spectra: make(chan int, tapSlots),
		faults:  make(chan fault, 1),
		quit:    make(chan struct{}),
	}
	if opts.Logger != nil {
		e.log = opts.Logger.With().Str("component", "audioengine").Logger()
	}

	e.a.fault = e.reportFault
	e.b.fault = e.reportFault
	e.current, e.next = e.a, e.b
	e.mixer = NewMixer(e.a, e.b)

	e.tap, err = NewSpectrumTap(e.mixer, opts.FFTSize)
	if err != nil {
		return nil, err
	}
	e.tap.OnBlock = func(slot int) {
		select {
		case e.spectra <- slot:
		default:
			// consumer is behind, drop the block
			e.tap.Release(slot)
		}
	}
	e.head = &guard{s: e.tap, fault: e.reportFault}

	e.wg.Add(1)
	go e.dispatch()
	return e, nil
}

// ======================================================
// Control surface
// ======================================================

// PlayURL starts url on channel A from the beginning, dropping whatever was
// playing. If the handle can't be opened the engine is left untouched.
func (e *Engine) PlayURL(url string) error {
	src, err := e.open(url)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		src.Close()
		return ErrClosed
	}
	return e.playLocked(url, src)
}

// CrossfadeTo fades from the current track into url over max(150ms, d).
// With nothing playing it behaves like PlayURL.
func (e *Engine) CrossfadeTo(url string, d time.Duration) error {
	src, err := e.open(url)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		src.Close()
		return ErrClosed
	}
	if !e.sinkOpen || !e.current.HasSource() {
		return e.playLocked(url, src)
	}

	e.cancelFadeLocked()

	e.sink.Lock()
	e.gen.Add(1)
	old := e.next.take()
	e.next.SetSource(src)
	e.next.SetVolume(0)
	e.current.SetVolume(1)
	e.sink.Unlock()
	closeSources(e.log, old)

	e.unpauseLocked()
	e.fade = newFade(d, e.opts.TickInterval)
	e.startClockLocked()

	e.log.Info().
		Str("url", url).
		Str("from", e.current.Name()).
		Str("to", e.next.Name()).
		Int("steps", e.fade.Total()).
		Msg("crossfade armed")
	return nil
}

// Pause holds the sink. It is a no-op without an open sink.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sinkOpen || e.paused {
		return
	}
	e.sink.SetPaused(true)
	e.paused = true
	e.log.Debug().Msg("paused")
}

// Resume continues a paused sink; otherwise it does nothing.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sinkOpen || !e.paused {
		return
	}
	e.unpauseLocked()
	e.log.Debug().Msg("resumed")
}

// Stop cancels any fade, closes both sources and releases the sink. Calling
// it again is safe.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// SetVolume sets the post-mix output level, clamped to 0..100.
func (e *Engine) SetVolume(percent int) {
	percent = max(0, min(percent, 100))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = percent
	if e.sinkOpen {
		e.sink.SetVolume(float64(percent) / 100)
	}
}

func (e *Engine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// CurrentRemainingSeconds reports what is left of the current track, or
// false when there is no track or its length is unknown.
func (e *Engine) CurrentRemainingSeconds() (float64, bool) {
	d, ok := e.CurrentRemaining()
	return d.Seconds(), ok
}

func (e *Engine) CurrentRemaining() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sinkOpen {
		return 0, false
	}
	e.sink.Lock()
	defer e.sink.Unlock()
	return e.current.Remaining()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Status is a point-in-time view for status reporting.
type Status struct {
	State          State
	Volume         int
	Remaining      time.Duration
	RemainingKnown bool
	FadeProgress   float64
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{State: e.stateLocked(), Volume: e.volume}
	if e.fade != nil {
		st.FadeProgress = e.fade.Progress()
	}
	if e.sinkOpen {
		e.sink.Lock()
		st.Remaining, st.RemainingKnown = e.current.Remaining()
		e.sink.Unlock()
	}
	return st
}

// Tick advances an active crossfade by one step. The internal ticker calls
// it every TickInterval; with ExternalClock the host does.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked()
}

// Close stops playback and ends the event goroutine.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.stopLocked()
	e.mu.Unlock()

	close(e.quit)
	e.wg.Wait()
}

// ======================================================
// State machine internals (e.mu held)
// ======================================================

func (e *Engine) stateLocked() State {
	switch {
	case !e.sinkOpen || !e.current.HasSource():
		return StateStopped
	case e.paused:
		return StatePaused
	case e.fade != nil:
		return StateCrossfading
	default:
		return StatePlaying
	}
}

func (e *Engine) playLocked(url string, src Source) error {
	if err := e.openSinkLocked(); err != nil {
		src.Close()
		return err
	}
	e.cancelFadeLocked()

	e.sink.Lock()
	e.gen.Add(1)
	oldA, oldB := e.a.take(), e.b.take()
	e.a.SetSource(src)
	e.a.SetVolume(1)
	e.b.SetVolume(0)
	e.current, e.next = e.a, e.b
	e.sink.Unlock()
	closeSources(e.log, oldA, oldB)

	e.unpauseLocked()
	e.log.Info().Str("url", url).Msg("playing")
	return nil
}

func (e *Engine) stepLocked() {
	if e.fade == nil || e.paused {
		return
	}
	done := e.fade.Step()
	t := e.fade.Progress()
	e.current.SetVolume(1 - t)
	e.next.SetVolume(t)
	if done {
		e.promoteLocked()
	}
}

// promoteLocked makes next the audible channel once the ramp hits 1.
func (e *Engine) promoteLocked() {
	e.sink.Lock()
	e.gen.Add(1)
	old := e.current
	e.current, e.next = e.next, old
	e.current.SetVolume(1)
	old.SetVolume(0)
	retired := old.take()
	e.sink.Unlock()
	closeSources(e.log, retired)

	e.fade = nil
	e.stopClockLocked()
	e.log.Info().Str("current", e.current.Name()).Msg("crossfade complete")
}

func (e *Engine) cancelFadeLocked() {
	if e.fade == nil {
		return
	}
	e.log.Debug().
		Int("elapsed", e.fade.Elapsed()).
		Int("steps", e.fade.Total()).
		Msg("crossfade cancelled")
	e.fade = nil
	e.stopClockLocked()
	e.current.SetVolume(1)
	e.next.SetVolume(0)
}

func (e *Engine) stopLocked() {
	e.cancelFadeLocked()
	if !e.sinkOpen && !e.a.HasSource() && !e.b.HasSource() {
		return
	}

	e.sink.Lock()
	oldA, oldB := e.a.take(), e.b.take()
	e.a.SetVolume(0)
	e.b.SetVolume(0)
	e.sink.Unlock()

	if e.sinkOpen {
		if err := e.sink.Close(); err != nil {
			e.log.Warn().Err(err).Msg("sink close")
		}
		e.sinkOpen = false
	}
	e.paused = false
	e.current, e.next = e.a, e.b
	closeSources(e.log, oldA, oldB)
	e.log.Info().Msg("stopped")
}

func (e *Engine) openSinkLocked() error {
	if e.sinkOpen {
		return nil
	}
	e.tap.reset()
	e.gen.Add(1)
	if err := e.sink.Start(e.head); err != nil {
		return fmt.Errorf("audioengine: start sink: %w", err)
	}
	e.sink.SetVolume(float64(e.volume) / 100)
	e.sinkOpen = true
	e.paused = false
	e.log.Debug().Uint64("session", e.gen.Load()).Msg("sink opened")
	return nil
}

func (e *Engine) unpauseLocked() {
	if e.paused {
		e.sink.SetPaused(false)
		e.paused = false
	}
}

// startClockLocked runs the fade ticker for the lifetime of one fade.
func (e *Engine) startClockLocked() {
	if e.opts.ExternalClock || e.tickStop != nil {
		return
	}
	stop := make(chan struct{})
	e.tickStop = stop

	go func() {
		t := time.NewTicker(e.opts.TickInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				e.mu.Lock()
				// a tick racing with cancellation must not step the next fade
				if e.tickStop == stop {
					e.stepLocked()
				}
				e.mu.Unlock()
			}
		}
	}()
}

func (e *Engine) stopClockLocked() {
	if e.tickStop == nil {
		return
	}
	close(e.tickStop)
	e.tickStop = nil
}

// ======================================================
// Sources, faults, events
// ======================================================

func (e *Engine) open(url string) (Source, error) {
	src, err := e.opts.Opener.Open(url)
	if err != nil {
		e.log.Warn().Err(err).Str("url", url).Msg("open source")
		return nil, &SourceError{URL: url, Err: err}
	}
	return src, nil
}

// reportFault runs on the audio callback and never blocks.
func (e *Engine) reportFault(err error) {
	select {
	case e.faults <- fault{gen: e.gen.Load(), err: err}:
	default:
	}
}

func (e *Engine) dispatch() {
	defer e.wg.Done()
	for {
		select {
		case <-e.quit:
			return
		case slot := <-e.spectra:
			levels := e.bars.Compute(e.tap.Spectrum(slot))
			if e.opts.OnBars != nil {
				e.opts.OnBars(levels)
			}
		case f := <-e.faults:
			e.fail(f)
		}
	}
}

// fail tears playback down after a fault raised since the last source swap.
func (e *Engine) fail(f fault) {
	e.mu.Lock()
	if !e.sinkOpen || f.gen != e.gen.Load() {
		e.mu.Unlock()
		return
	}
	e.log.Error().Err(f.err).Msg("playback stopped with error")
	e.stopLocked()
	e.mu.Unlock()

	if e.opts.OnStopped != nil {
		e.opts.OnStopped(f.err)
	}
}

func closeSources(log zerolog.Logger, srcs ...Source) {
	for _, s := range srcs {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Msg("close source")
		}
	}
}

// guard turns a panic in the pull path into a fault and a silent block.
type guard struct {
	s     beep.Streamer
	fault func(error)
}

func (g *guard) Stream(samples [][2]float64) (n int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			clear(samples)
			g.fault(&FaultError{Stage: "stream", Err: fmt.Errorf("%v", r)})
			n, ok = len(samples), true
		}
	}()
	return g.s.Stream(samples)
}

func (g *guard) Err() error { return g.s.Err() }

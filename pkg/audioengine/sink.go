package audioengine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
)

// Sink is the audio output. It pulls fixed-size blocks from the streamer it
// was started with, on its own real-time goroutine.
type Sink interface {
	// Start opens the device if needed and begins pulling s.
	Start(s beep.Streamer) error
	SetPaused(paused bool)
	// SetVolume sets the post-mix linear multiplier in [0,1].
	SetVolume(v float64)
	// Lock stops the device from pulling until Unlock.
	Lock()
	Unlock()
	// Close stops pulling and releases the device.
	Close() error
}

// SpeakerSink plays through the beep speaker (oto). Only one SpeakerSink may
// be open per process.
type SpeakerSink struct {
	sr     beep.SampleRate
	buffer time.Duration

	mu     sync.Mutex
	open   bool
	volume float64
	ctrl   *beep.Ctrl
	vol    *effects.Volume
}

func NewSpeakerSink(sr beep.SampleRate, buffer time.Duration) *SpeakerSink {
	return &SpeakerSink{sr: sr, buffer: buffer, volume: 1}
}

func (s *SpeakerSink) Start(st beep.Streamer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		speaker.Clear()
	} else {
		if err := speaker.Init(s.sr, s.sr.N(s.buffer)); err != nil {
			return fmt.Errorf("speaker init: %w", err)
		}
		s.open = true
	}

	vol := &effects.Volume{Streamer: st, Base: 2}
	applyVolume(vol, s.volume)
	ctrl := &beep.Ctrl{Streamer: vol}

	speaker.Lock()
	s.vol, s.ctrl = vol, ctrl
	speaker.Unlock()

	speaker.Play(ctrl)
	return nil
}

func (s *SpeakerSink) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	speaker.Lock()
	if s.ctrl != nil {
		s.ctrl.Paused = paused
	}
	speaker.Unlock()
}

func (s *SpeakerSink) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
	speaker.Lock()
	if s.vol != nil {
		applyVolume(s.vol, v)
	}
	speaker.Unlock()
}

func (s *SpeakerSink) Lock()   { speaker.Lock() }
func (s *SpeakerSink) Unlock() { speaker.Unlock() }

func (s *SpeakerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	s.open = false
	s.ctrl, s.vol = nil, nil
	return nil
}

// applyVolume expresses a linear gain through effects.Volume (gain = 2^Volume).
func applyVolume(v *effects.Volume, linear float64) {
	if linear <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = math.Log2(linear)
}

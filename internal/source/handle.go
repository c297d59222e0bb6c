package source

import (
	"time"

	"github.com/faiface/beep"
	"github.com/rs/zerolog"
)

type closer interface {
	Close() error
}

// handle is the audioengine.Source every Open returns. Position counts what
// has been streamed at the engine rate.
type handle struct {
	id     string
	kind   string
	s      beep.Streamer
	closer closer
	sr     beep.SampleRate
	total  time.Duration
	known  bool
	played int
	closed bool
	log    zerolog.Logger
}

func (h *handle) Stream(samples [][2]float64) (int, bool) {
	n, ok := h.s.Stream(samples)
	h.played += n
	return n, ok
}

func (h *handle) Err() error { return h.s.Err() }

func (h *handle) Duration() (time.Duration, bool) { return h.total, h.known }

func (h *handle) Position() time.Duration { return h.sr.D(h.played) }

// ID is the handle's log correlation id.
func (h *handle) ID() string { return h.id }

func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.log.Debug().Dur("position", h.Position()).Msg("source closed")
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

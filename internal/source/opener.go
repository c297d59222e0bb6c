// Package source opens preview URLs as engine sources: local mp3, wav and
// hdxp files plus synthetic silence and tone handles.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hdxpreview/pkg/audioengine"
)

var (
	ErrUnsupportedScheme = errors.New("source: unsupported scheme")
	ErrUnsupportedFormat = errors.New("source: unsupported format")
	ErrSealed            = errors.New("source: preview is sealed")
)

// Opener implements audioengine.Opener. Every handle it returns plays at
// SampleRate.
type Opener struct {
	SampleRate beep.SampleRate

	// Passphrase unlocks sealed .hdxp previews.
	Passphrase string

	log zerolog.Logger
}

func NewOpener(sr beep.SampleRate, log zerolog.Logger) *Opener {
	return &Opener{SampleRate: sr, log: log.With().Str("component", "source").Logger()}
}

// Open resolves url. Bare paths and file:// URLs are dispatched by
// extension; silence:// and tone:// are generated.
func (o *Opener) Open(rawURL string) (audioengine.Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		// not a URL, try it as a path
		u = &url.URL{Path: rawURL}
	}

	var h *handle
	switch strings.ToLower(u.Scheme) {
	case "", "file":
		h, err = o.openFile(u.Path)
	case "silence":
		h, err = o.openSilence(u)
	case "tone":
		h, err = o.openTone(u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	h.id = uuid.NewString()
	h.log = o.log.With().Str("handle", h.id).Logger()
	h.log.Debug().
		Str("url", rawURL).
		Str("kind", h.kind).
		Dur("duration", h.total).
		Bool("known", h.known).
		Msg("source opened")
	return h, nil
}

func (o *Opener) openFile(path string) (*handle, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return o.openMP3(path)
	case ".wav":
		return o.openWAV(path)
	case ".hdxp":
		return o.openPreview(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (o *Opener) openMP3(path string) (*handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: decode mp3: %w", err)
	}
	return o.newHandle("mp3", st, st, format.SampleRate, format.SampleRate.D(st.Len()), true), nil
}

// newHandle wraps s, resampling when its rate differs from the engine's.
func (o *Opener) newHandle(kind string, s beep.Streamer, c closer, from beep.SampleRate, total time.Duration, known bool) *handle {
	if from != o.SampleRate {
		s = beep.Resample(4, from, o.SampleRate, s)
	}
	return &handle{
		kind:   kind,
		s:      s,
		closer: c,
		sr:     o.SampleRate,
		total:  total,
		known:  known,
	}
}

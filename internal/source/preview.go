package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/faiface/beep"

	"hdxpreview/internal/codec"
	"hdxpreview/internal/container"
	"hdxpreview/internal/security"
)

// previewStreamer plays the opus frames of a .hdxp file, opening sealed
// frames first. Output stops at the header's sample count so the padding of
// the last frame is never heard.
type previewStreamer struct {
	r      *container.Reader
	dec    *codec.FrameDecoder
	sealer *security.Sealer
	limit  int // 0 when unknown
	served int
	buf    [][2]float64
	pos    int
	done   bool
	err    error
}

func (o *Opener) openPreview(path string) (*handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	h, err := o.newPreview(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return h, nil
}

func (o *Opener) newPreview(f *os.File) (*handle, error) {
	r, err := container.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	hdr := r.Header
	if hdr.Channels != 1 && hdr.Channels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, hdr.Channels)
	}

	dec, err := codec.NewFrameDecoder(int(hdr.SampleRate), int(hdr.Channels))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	ps := &previewStreamer{r: r, dec: dec, limit: int(hdr.Samples)}

	if hdr.Sealed() {
		if o.Passphrase == "" {
			return nil, fmt.Errorf("%w: no passphrase configured", ErrSealed)
		}
		ps.sealer, err = security.NewSealer(security.DeriveKey(o.Passphrase, hdr.Salt))
		if err != nil {
			return nil, err
		}
	}

	// decode the first frame now so a wrong passphrase fails the open
	if err := ps.fill(); err != nil {
		if errors.Is(err, security.ErrOpen) {
			return nil, fmt.Errorf("%w: wrong passphrase", ErrSealed)
		}
		return nil, fmt.Errorf("source: first frame: %w", err)
	}

	sr := beep.SampleRate(hdr.SampleRate)
	total, known := hdr.Duration()
	return o.newHandle("hdxp", ps, f, sr, total, known), nil
}

// fill decodes the next frame into buf. It sets done at the end of the file.
func (p *previewStreamer) fill() error {
	frame, err := p.r.NextFrame()
	if err == io.EOF {
		p.done = true
		return nil
	}
	if err != nil {
		return err
	}
	if p.sealer != nil {
		if frame, err = p.sealer.Open(frame); err != nil {
			return err
		}
	}
	p.buf, err = p.dec.Decode(frame, p.buf[:0])
	p.pos = 0
	return err
}

func (p *previewStreamer) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) && p.err == nil {
		if p.limit > 0 && p.served >= p.limit {
			p.done = true
			break
		}
		if p.pos == len(p.buf) {
			if p.done {
				break
			}
			if err := p.fill(); err != nil {
				p.err = err
				break
			}
			continue
		}
		n := copy(samples[filled:], p.buf[p.pos:])
		if p.limit > 0 {
			n = min(n, p.limit-p.served)
		}
		p.pos += n
		p.served += n
		filled += n
	}
	return filled, filled > 0
}

func (p *previewStreamer) Err() error { return p.err }

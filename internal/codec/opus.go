package codec

import (
	"errors"
	"fmt"
	"math"

	"github.com/hraban/opus"

	"hdxpreview/pkg/spec"
)

// FrameSamples is the number of samples per channel in one 20 ms frame.
const FrameSamples = spec.SampleRate * spec.FrameSize / 1000

// maxFrameSamples covers the longest opus frame (120 ms).
const maxFrameSamples = spec.SampleRate * 120 / 1000

var ErrSampleRate = errors.New("codec: only 48 kHz input is supported")

// FrameEncoder cuts interleaved 48 kHz stereo PCM into 20 ms opus frames
// and hands each one to emit.
type FrameEncoder struct {
	enc     *opus.Encoder
	emit    func(frame []byte) error
	gain    float64
	pending []int16
	out     []byte
	samples uint64
}

func NewFrameEncoder(emit func(frame []byte) error) (*FrameEncoder, error) {
	enc, err := opus.NewEncoder(spec.SampleRate, spec.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("codec: opus encoder: %w", err)
	}
	return &FrameEncoder{
		enc:     enc,
		emit:    emit,
		gain:    1,
		pending: make([]int16, 0, FrameSamples*spec.Channels),
		out:     make([]byte, 1500),
	}, nil
}

// SetGain scales every following sample, saturating at full scale.
func (e *FrameEncoder) SetGain(g float64) { e.gain = g }

// Samples returns the frames per channel accepted so far, padding excluded.
func (e *FrameEncoder) Samples() uint64 { return e.samples }

// Write buffers pcm and encodes every complete frame.
func (e *FrameEncoder) Write(pcm []int16) error {
	e.samples += uint64(len(pcm) / spec.Channels)
	full := FrameSamples * spec.Channels
	for _, s := range pcm {
		e.pending = append(e.pending, e.scale(s))
		if len(e.pending) == full {
			if err := e.encode(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush zero-pads and encodes a final partial frame, if any.
func (e *FrameEncoder) Flush() error {
	if len(e.pending) == 0 {
		return nil
	}
	full := FrameSamples * spec.Channels
	for len(e.pending) < full {
		e.pending = append(e.pending, 0)
	}
	return e.encode()
}

func (e *FrameEncoder) encode() error {
	n, err := e.enc.Encode(e.pending, e.out)
	e.pending = e.pending[:0]
	if err != nil {
		return fmt.Errorf("codec: opus encode: %w", err)
	}
	frame := make([]byte, n)
	copy(frame, e.out[:n])
	return e.emit(frame)
}

func (e *FrameEncoder) scale(s int16) int16 {
	if e.gain == 1 {
		return s
	}
	v := math.Round(float64(s) * e.gain)
	return int16(max(math.MinInt16, min(math.MaxInt16, v)))
}

// EncodeWAV streams a 48 kHz WAV file through a FrameEncoder. Mono input is
// duplicated to both channels. It returns the frames per channel encoded.
func EncodeWAV(path string, gain float64, emit func(frame []byte) error) (uint64, error) {
	enc, err := NewFrameEncoder(emit)
	if err != nil {
		return 0, err
	}
	enc.SetGain(gain)

	check := func(info WAVInfo) error {
		if info.SampleRate != spec.SampleRate {
			return fmt.Errorf("%w (got %d Hz)", ErrSampleRate, info.SampleRate)
		}
		return nil
	}
	if _, err := readWAV(path, check, enc.Write); err != nil {
		return 0, err
	}
	if err := enc.Flush(); err != nil {
		return 0, err
	}
	return enc.Samples(), nil
}

// FrameDecoder turns opus frames back into float stereo frames.
type FrameDecoder struct {
	dec      *opus.Decoder
	channels int
	pcm      []int16
}

func NewFrameDecoder(rate, channels int) (*FrameDecoder, error) {
	dec, err := opus.NewDecoder(rate, channels)
	if err != nil {
		return nil, fmt.Errorf("codec: opus decoder: %w", err)
	}
	return &FrameDecoder{
		dec:      dec,
		channels: channels,
		pcm:      make([]int16, maxFrameSamples*channels),
	}, nil
}

// Decode appends the decoded frame to out and returns the extended slice.
// Mono streams are duplicated to both sides.
func (d *FrameDecoder) Decode(frame []byte, out [][2]float64) ([][2]float64, error) {
	n, err := d.dec.Decode(frame, d.pcm)
	if err != nil {
		return out, fmt.Errorf("codec: opus decode: %w", err)
	}
	for i := range n {
		l := float64(d.pcm[i*d.channels]) / 32768
		r := l
		if d.channels > 1 {
			r = float64(d.pcm[i*d.channels+1]) / 32768
		}
		out = append(out, [2]float64{l, r})
	}
	return out, nil
}

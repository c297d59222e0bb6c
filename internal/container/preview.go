package container

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"hdxpreview/pkg/spec"
)

var (
	ErrMagic     = errors.New("container: not an hdx preview file")
	ErrNoAudio   = errors.New("container: missing audio tag")
	ErrFrameSize = errors.New("container: frame larger than 65535 bytes")
	ErrTagSize   = errors.New("container: header tag too large")
)

// MaxTagSize bounds a single header tag. Unknown tags are skipped without
// buffering, but still count against it.
const MaxTagSize = 1 << 20

// Header is everything stored ahead of the audio frames.
type Header struct {
	SampleRate uint32
	Channels   uint16
	Samples    uint64 // frames per channel, 0 when unknown
	Salt       []byte // present only when frames are sealed
	Waveform   []byte // optional overview for listings
}

func (h Header) Sealed() bool { return len(h.Salt) > 0 }

// Duration reports the playing time, or false when Samples is unknown.
func (h Header) Duration() (time.Duration, bool) {
	if h.Samples == 0 || h.SampleRate == 0 {
		return 0, false
	}
	return time.Duration(h.Samples) * time.Second / time.Duration(h.SampleRate), true
}

// Writer produces a .hdxp stream: magic, header tags, then an AUDI tag
// followed by length-prefixed frames until EOF.
type Writer struct {
	w      *bufio.Writer
	frames int
}

// NewWriter writes the magic and header immediately.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(spec.PreviewMagic); err != nil {
		return nil, err
	}

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], h.SampleRate)
	var u16 [2]byte
	binary.BigEndian.PutUint16(u16[:], h.Channels)
	var u64 [8]byte
	binary.BigEndian.PutUint64(u64[:], h.Samples)

	tags := []tlv{
		{spec.Rate, u32[:]},
		{spec.Chan, u16[:]},
		{spec.Samples, u64[:]},
	}
	if h.Sealed() {
		tags = append(tags, tlv{spec.Salt, h.Salt})
	}
	if len(h.Waveform) > 0 {
		tags = append(tags, tlv{spec.Wave, h.Waveform})
	}
	for _, t := range tags {
		if err := writeTag(bw, t.tag, t.data); err != nil {
			return nil, err
		}
	}

	// the audio payload runs to EOF, so its size field is left at zero
	if err := writeTag(bw, spec.AudioData, nil); err != nil {
		return nil, err
	}
	return &Writer{w: bw}, nil
}

type tlv struct {
	tag  string
	data []byte
}

func writeTag(w io.Writer, tag string, data []byte) error {
	if _, err := io.WriteString(w, tag); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// WriteFrame appends one frame record.
func (w *Writer) WriteFrame(frame []byte) error {
	if len(frame) > math.MaxUint16 {
		return ErrFrameSize
	}
	if err := binary.Write(w.w, binary.BigEndian, uint16(len(frame))); err != nil {
		return err
	}
	if _, err := w.w.Write(frame); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames returns how many frames have been written.
func (w *Writer) Frames() int { return w.frames }

// Flush pushes buffered records to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }

// Reader walks a .hdxp stream. The header is parsed by NewReader; frames are
// pulled one at a time with NextFrame.
type Reader struct {
	r      *bufio.Reader
	Header Header
}

func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(spec.PreviewMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, ErrMagic
	}
	if string(magic) != spec.PreviewMagic {
		return nil, ErrMagic
	}

	pr := &Reader{r: br}
	for {
		tagBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, tagBuf); err != nil {
			if err == io.EOF {
				return nil, ErrNoAudio
			}
			return nil, fmt.Errorf("container: read tag: %w", err)
		}
		tag := string(tagBuf)

		var size uint32
		if err := binary.Read(br, binary.BigEndian, &size); err != nil {
			return nil, fmt.Errorf("container: read %s size: %w", tag, err)
		}
		if tag == spec.AudioData {
			return pr, nil
		}

		if size > MaxTagSize {
			return nil, fmt.Errorf("%w: %s is %d bytes", ErrTagSize, tag, size)
		}
		if !knownTag(tag) {
			if _, err := br.Discard(int(size)); err != nil {
				return nil, fmt.Errorf("container: skip %s: %w", tag, err)
			}
			continue
		}

		buf := make([]byte, size)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("container: read %s: %w", tag, err)
		}

		switch tag {
		case spec.Rate:
			if size != 4 {
				return nil, fmt.Errorf("container: %s has %d bytes", tag, size)
			}
			pr.Header.SampleRate = binary.BigEndian.Uint32(buf)
		case spec.Chan:
			if size != 2 {
				return nil, fmt.Errorf("container: %s has %d bytes", tag, size)
			}
			pr.Header.Channels = binary.BigEndian.Uint16(buf)
		case spec.Samples:
			if size != 8 {
				return nil, fmt.Errorf("container: %s has %d bytes", tag, size)
			}
			pr.Header.Samples = binary.BigEndian.Uint64(buf)
		case spec.Salt:
			pr.Header.Salt = buf
		case spec.Wave:
			pr.Header.Waveform = buf
		}
	}
}

func knownTag(tag string) bool {
	switch tag {
	case spec.Rate, spec.Chan, spec.Samples, spec.Salt, spec.Wave:
		return true
	}
	return false
}

// NextFrame returns the next frame, or io.EOF after the last one. A record
// cut short returns io.ErrUnexpectedEOF.
func (r *Reader) NextFrame() ([]byte, error) {
	var size uint16
	if err := binary.Read(r.r, binary.BigEndian, &size); err != nil {
		return nil, err
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(r.r, frame); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

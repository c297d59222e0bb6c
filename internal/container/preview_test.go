package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
	"time"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	h := Header{SampleRate: 48000, Channels: 2, Samples: 96000, Salt: []byte("pepper"), Waveform: []byte{0, 128, 255}}
	w, err := NewWriter(&buf, h)
	if err != nil {
		t.Fatal(err)
	}
	frames := [][]byte{[]byte("one"), {}, bytes.Repeat([]byte{0xab}, 1200)}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if w.Frames() != 3 {
		t.Errorf("Frames() = %d", w.Frames())
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got := r.Header
	if got.SampleRate != 48000 || got.Channels != 2 || got.Samples != 96000 || string(got.Salt) != "pepper" {
		t.Fatalf("header = %+v", got)
	}
	if !bytes.Equal(got.Waveform, []byte{0, 128, 255}) {
		t.Errorf("waveform = %v", got.Waveform)
	}
	if d, ok := got.Duration(); !ok || d != 2*time.Second {
		t.Errorf("Duration = %v %v, want 2s", d, ok)
	}

	for i, want := range frames {
		f, err := r.NextFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(f, want) {
			t.Fatalf("frame %d: %d bytes, want %d", i, len(f), len(want))
		}
	}
	if _, err := r.NextFrame(); err != io.EOF {
		t.Errorf("after last frame: err = %v, want io.EOF", err)
	}
}

func TestUnsealedHeader(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, Header{SampleRate: 48000, Channels: 2})
	w.Flush()

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if r.Header.Sealed() {
		t.Error("unsealed file reports sealed")
	}
	if _, ok := r.Header.Duration(); ok {
		t.Error("duration known without a sample count")
	}
}

func TestReaderErrors(t *testing.T) {
	if _, err := NewReader(bytes.NewReader([]byte("HARDIX02xxxx"))); !errors.Is(err, ErrMagic) {
		t.Errorf("wrong magic: err = %v", err)
	}
	if _, err := NewReader(bytes.NewReader([]byte("HDX"))); !errors.Is(err, ErrMagic) {
		t.Errorf("short magic: err = %v", err)
	}
	if _, err := NewReader(bytes.NewReader([]byte("HDXPRV01"))); !errors.Is(err, ErrNoAudio) {
		t.Errorf("no tags: err = %v", err)
	}

	// unknown tags are skipped, a truncated frame is reported
	var buf bytes.Buffer
	buf.WriteString("HDXPRV01")
	writeTag(&buf, "XTRA", []byte("ignored"))
	writeTag(&buf, "AUDI", nil)
	binary.Write(&buf, binary.BigEndian, uint16(10))
	buf.WriteString("abc")

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.NextFrame(); err != io.ErrUnexpectedEOF {
		t.Errorf("truncated frame: err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	w, _ := NewWriter(io.Discard, Header{})
	if err := w.WriteFrame(make([]byte, 70000)); !errors.Is(err, ErrFrameSize) {
		t.Errorf("err = %v, want ErrFrameSize", err)
	}
}

func TestReaderRejectsOversizedTag(t *testing.T) {
	for _, tag := range []string{"WAVE", "SALT", "XTRA"} {
		var buf bytes.Buffer
		buf.WriteString("HDXPRV01")
		buf.WriteString(tag)
		binary.Write(&buf, binary.BigEndian, uint32(math.MaxUint32))

		if _, err := NewReader(&buf); !errors.Is(err, ErrTagSize) {
			t.Errorf("%s: err = %v, want ErrTagSize", tag, err)
		}
	}

	// a tag at the limit is fine
	var buf bytes.Buffer
	buf.WriteString("HDXPRV01")
	writeTag(&buf, "WAVE", make([]byte, MaxTagSize))
	writeTag(&buf, "AUDI", nil)
	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Header.Waveform) != MaxTagSize {
		t.Errorf("waveform = %d bytes, want %d", len(r.Header.Waveform), MaxTagSize)
	}
}

func TestReaderTruncatedUnknownTag(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("HDXPRV01")
	buf.WriteString("XTRA")
	binary.Write(&buf, binary.BigEndian, uint32(64))
	buf.WriteString("short")

	if _, err := NewReader(&buf); err == nil {
		t.Error("truncated unknown tag accepted")
	}
}

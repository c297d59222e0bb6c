package main

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"hdxpreview/internal/container"
)

func TestInspect(t *testing.T) {
	var buf bytes.Buffer
	w, err := container.NewWriter(&buf, container.Header{
		SampleRate: 48000,
		Channels:   2,
		Samples:    96000,
		Waveform:   []byte{10, 200, 30},
	})
	if err != nil {
		t.Fatal(err)
	}
	w.WriteFrame(make([]byte, 100))
	w.WriteFrame(make([]byte, 50))
	w.Flush()

	info, err := inspect(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if info.Frames != 2 || info.AudioBytes != 154 {
		t.Errorf("frames %d bytes %d, want 2 and 154", info.Frames, info.AudioBytes)
	}
	if info.Duration != 2 || info.Sealed {
		t.Errorf("info = %+v", info)
	}
}

func TestSparkline(t *testing.T) {
	wave := make([]byte, 400)
	wave[0] = 255
	s := sparkline(wave, 60)
	if utf8.RuneCountInString(s) != 60 {
		t.Fatalf("width = %d", utf8.RuneCountInString(s))
	}
	if r, _ := utf8.DecodeRuneInString(s); r != '█' {
		t.Errorf("first block = %q, want full", r)
	}
	if got := sparkline([]byte{0, 255}, 60); got != "▁█" {
		t.Errorf("short wave = %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	for in, want := range map[int64]string{
		512:     "512 B",
		2048:    "2.00 Kb",
		3 << 20: "3.00 Mb",
	} {
		if got := formatSize(in); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", in, got, want)
		}
	}
}

package codec

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV writes a 16-bit sine fixture of the given length.
func writeWAV(t *testing.T, rate, chans, frames int, amp float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, frames*chans)
	for i := range frames {
		v := int(amp * 32767 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		for c := range chans {
			data[i*chans+c] = v
		}
	}
	enc := wav.NewEncoder(f, rate, 16, chans, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: chans, SampleRate: rate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanWAV(t *testing.T) {
	path := writeWAV(t, 48000, 2, 48000, 0.5)
	info, err := ScanWAV(path, 100)
	if err != nil {
		t.Fatal(err)
	}
	if info.SampleRate != 48000 || info.Channels != 2 || info.BitDepth != 16 {
		t.Errorf("format = %+v", info)
	}
	if info.Frames != 48000 {
		t.Errorf("frames = %d, want 48000", info.Frames)
	}
	if info.Peak < 16000 || info.Peak > 16384 {
		t.Errorf("peak = %d, want about half scale", info.Peak)
	}
	if len(info.Waveform) == 0 || len(info.Waveform) > 100 {
		t.Errorf("waveform has %d points", len(info.Waveform))
	}
}

func TestScanWAVMono(t *testing.T) {
	path := writeWAV(t, 48000, 1, 4800, 0.25)
	info, err := ScanWAV(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if info.Channels != 1 || info.Frames != 4800 {
		t.Errorf("info = %+v", info)
	}
}

func TestScanRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.wav")
	os.WriteFile(path, []byte("definitely not a riff file"), 0o644)
	if _, err := ScanWAV(path, 10); !errors.Is(err, ErrNotWAV) {
		t.Errorf("err = %v, want ErrNotWAV", err)
	}
}

func TestEncodeDecodeWAV(t *testing.T) {
	const frames = 48000/2 + 100 // not a whole number of opus frames
	path := writeWAV(t, 48000, 2, frames, 0.5)

	var packets [][]byte
	n, err := EncodeWAV(path, 1, func(frame []byte) error {
		packets = append(packets, frame)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != frames {
		t.Errorf("EncodeWAV = %d frames, want %d", n, frames)
	}
	want := (frames + FrameSamples - 1) / FrameSamples
	if len(packets) != want {
		t.Fatalf("%d opus packets, want %d", len(packets), want)
	}

	dec, err := NewFrameDecoder(48000, 2)
	if err != nil {
		t.Fatal(err)
	}
	var out [][2]float64
	for _, p := range packets {
		if out, err = dec.Decode(p, out); err != nil {
			t.Fatal(err)
		}
	}
	if len(out) != want*FrameSamples {
		t.Fatalf("decoded %d frames, want %d", len(out), want*FrameSamples)
	}

	var energy float64
	for _, s := range out[FrameSamples:frames] {
		energy += s[0] * s[0]
	}
	rms := math.Sqrt(energy / float64(frames-FrameSamples))
	// a 0.5 sine has RMS ~0.354
	if rms < 0.2 || rms > 0.5 {
		t.Errorf("decoded RMS = %.3f, want about 0.35", rms)
	}
}

func TestEncodeWAVRejectsRate(t *testing.T) {
	path := writeWAV(t, 44100, 2, 4410, 0.5)
	called := false
	_, err := EncodeWAV(path, 1, func([]byte) error { called = true; return nil })
	if !errors.Is(err, ErrSampleRate) {
		t.Errorf("err = %v, want ErrSampleRate", err)
	}
	if called {
		t.Error("frames emitted for a rejected file")
	}
}

func TestFrameEncoderGainSaturates(t *testing.T) {
	enc, err := NewFrameEncoder(func([]byte) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	enc.SetGain(4)
	if got := enc.scale(20000); got != math.MaxInt16 {
		t.Errorf("scale(20000) = %d, want %d", got, math.MaxInt16)
	}
	if got := enc.scale(-20000); got != math.MinInt16 {
		t.Errorf("scale(-20000) = %d, want %d", got, math.MinInt16)
	}
	if got := enc.scale(100); got != 400 {
		t.Errorf("scale(100) = %d, want 400", got)
	}
}

func TestWaveform(t *testing.T) {
	if Waveform(nil, 10) != nil {
		t.Error("waveform of nothing")
	}
	pcm := make([]int16, 1000)
	for i := range pcm {
		pcm[i] = 32000
	}
	w := Waveform(pcm, 10)
	if len(w) != 10 {
		t.Fatalf("%d points, want 10", len(w))
	}
	for i, v := range w {
		if v != 255 {
			t.Errorf("point %d = %d, want saturated 255", i, v)
		}
	}

	if NormalizeGain(0) != 1 {
		t.Error("silence should not be amplified")
	}
	if g := NormalizeGain(16380); math.Abs(g-2) > 1e-9 {
		t.Errorf("NormalizeGain(16380) = %v, want 2", g)
	}
}

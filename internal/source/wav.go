package source

import (
	"fmt"
	"io"
	"os"

	"github.com/faiface/beep"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavStreamer decodes PCM WAV blocks on demand.
type wavStreamer struct {
	dec   *wav.Decoder
	buf   *audio.IntBuffer
	chans int
	depth int
	done  bool
	err   error
}

func (o *Opener) openWAV(path string) (*handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: invalid wav header", ErrUnsupportedFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("source: wav pcm chunk: %w", err)
	}

	chans, depth := int(dec.NumChans), int(dec.BitDepth)
	if chans < 1 || depth == 0 || depth%8 != 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %d channels at %d bits", ErrUnsupportedFormat, chans, depth)
	}
	sr := beep.SampleRate(dec.SampleRate)
	frames := int(dec.PCMLen()) / (chans * depth / 8)

	ws := &wavStreamer{
		dec: dec,
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: chans, SampleRate: int(sr)},
			SourceBitDepth: depth,
		},
		chans: chans,
		depth: depth,
	}
	return o.newHandle("wav", ws, f, sr, sr.D(frames), true), nil
}

func (w *wavStreamer) Stream(samples [][2]float64) (int, bool) {
	if w.done || w.err != nil {
		return 0, false
	}
	want := len(samples) * w.chans
	if cap(w.buf.Data) < want {
		w.buf.Data = make([]int, want)
	}
	w.buf.Data = w.buf.Data[:want]

	n, err := w.dec.PCMBuffer(w.buf)
	if err != nil && err != io.EOF {
		w.err = err
		return 0, false
	}
	frames := n / w.chans
	if frames == 0 {
		w.done = true
		return 0, false
	}
	for i := range frames {
		l := toFloat(w.buf.Data[i*w.chans], w.depth)
		r := l
		if w.chans > 1 {
			r = toFloat(w.buf.Data[i*w.chans+1], w.depth)
		}
		samples[i] = [2]float64{l, r}
	}
	if err == io.EOF {
		w.done = true
	}
	return frames, true
}

func (w *wavStreamer) Err() error { return w.err }

// toFloat maps an integer sample of the given depth onto [-1,1). 8-bit WAV
// data is unsigned.
func toFloat(v, depth int) float64 {
	if depth == 8 {
		return float64(v-128) / 128
	}
	return float64(v) / float64(int(1)<<(depth-1))
}

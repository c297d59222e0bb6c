package audioengine

import (
	"github.com/faiface/beep"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// tapSlots is how many windowed blocks can wait for analysis at once.
const tapSlots = 4

// SpectrumTap is a pass-through stage that accumulates Hann-windowed mono
// samples into a block of fftSize. Every full block is copied into a free
// slot and handed to OnBlock; the FFT runs later, off the audio path, when
// the consumer calls Spectrum. The audio it returns is exactly what it pulled.
type SpectrumTap struct {
	s      beep.Streamer
	size   int
	window []float64
	buf    []complex128
	cursor int

	slots [][]complex128
	free  chan int

	// OnBlock receives the slot index of every published block. It runs on
	// the audio callback and must not block. The receiver owns the slot until
	// it calls Spectrum or Release.
	OnBlock func(slot int)
}

// NewSpectrumTap wraps s. fftSize must be a power of two.
func NewSpectrumTap(s beep.Streamer, fftSize int) (*SpectrumTap, error) {
	if !isPowerOfTwo(fftSize) {
		return nil, ErrFFTSize
	}
	t := &SpectrumTap{
		s:      s,
		size:   fftSize,
		window: window.Hann(fftSize),
		buf:    make([]complex128, fftSize),
		slots:  make([][]complex128, tapSlots),
		free:   make(chan int, tapSlots),
	}
	for i := range t.slots {
		t.slots[i] = make([]complex128, fftSize)
		t.free <- i
	}
	return t, nil
}

func (t *SpectrumTap) Size() int { return t.size }

// Cursor returns the fill position inside the current block.
func (t *SpectrumTap) Cursor() int { return t.cursor }

// Stream passes audio through while feeding the analysis block.
func (t *SpectrumTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	for i := range n {
		mono := (samples[i][0] + samples[i][1]) / 2
		t.buf[t.cursor] = complex(mono*t.window[t.cursor], 0)
		t.cursor++
		if t.cursor == t.size {
			t.cursor = 0
			t.publish()
		}
	}
	return n, ok
}

func (t *SpectrumTap) Err() error { return t.s.Err() }

// publish hands the finished block to OnBlock. With every slot taken the
// block is dropped.
func (t *SpectrumTap) publish() {
	select {
	case slot := <-t.free:
		copy(t.slots[slot], t.buf)
		if t.OnBlock == nil {
			t.free <- slot
			return
		}
		t.OnBlock(slot)
	default:
	}
}

// Spectrum transforms the block in slot and returns the slot to the tap.
func (t *SpectrumTap) Spectrum(slot int) []complex128 {
	// fft.FFT works on its own copy, so the slot can go back right after
	bins := fft.FFT(t.slots[slot])
	t.Release(slot)
	return bins
}

// Release returns slot without analysing it.
func (t *SpectrumTap) Release(slot int) {
	t.free <- slot
}

// reset drops a partially filled block. Only call it while nothing pulls.
func (t *SpectrumTap) reset() {
	t.cursor = 0
	clear(t.buf)
}

func isPowerOfTwo(n int) bool {
	return n > 1 && n&(n-1) == 0
}

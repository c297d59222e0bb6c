package audioengine

import (
	"testing"
	"time"
)

func TestChannelSilentWithoutSource(t *testing.T) {
	c := NewChannel("A")
	c.SetVolume(1)

	buf := make([][2]float64, 256)
	for i := range buf {
		buf[i] = [2]float64{0.7, -0.7} // stale data must be overwritten
	}

	n, ok := c.Stream(buf)
	if n != len(buf) || !ok {
		t.Fatalf("Stream = (%d, %v), want (%d, true)", n, ok, len(buf))
	}
	for i, s := range buf {
		if s != [2]float64{} {
			t.Fatalf("sample[%d] = %v, want silence", i, s)
		}
	}
}

func TestChannelUnderrunIsZeroPadded(t *testing.T) {
	c := NewChannel("A")
	c.SetVolume(0.5)
	src := &sliceSource{sliceStreamer: sliceStreamer{data: ramp(100)}}
	c.SetSource(src)

	buf := make([][2]float64, 160)
	for i := range buf {
		buf[i] = [2]float64{9, 9}
	}
	n, ok := c.Stream(buf)
	if n != 160 || !ok {
		t.Fatalf("Stream = (%d, %v), want (160, true)", n, ok)
	}

	want := ramp(100)
	for i := range 100 {
		if !nearly(buf[i][0], want[i][0]*0.5) || !nearly(buf[i][1], want[i][1]*0.5) {
			t.Fatalf("sample[%d] = %v, want %v scaled by 0.5", i, buf[i], want[i])
		}
	}
	for i := 100; i < 160; i++ {
		if buf[i] != [2]float64{} {
			t.Fatalf("tail sample[%d] = %v, want zero", i, buf[i])
		}
	}

	// exhausted source keeps producing full silent blocks
	n, _ = c.Stream(buf)
	if n != len(buf) || buf[0] != [2]float64{} {
		t.Errorf("after end: n=%d first=%v, want full silent block", n, buf[0])
	}
}

func TestChannelSetSourceClosesPrevious(t *testing.T) {
	c := NewChannel("B")
	first := &sliceSource{sliceStreamer: sliceStreamer{data: ramp(10)}}
	second := &sliceSource{sliceStreamer: sliceStreamer{data: ramp(10)}}

	c.SetSource(first)
	c.SetSource(second)
	if !first.closed {
		t.Error("first source not closed on replacement")
	}
	if second.closed {
		t.Error("second source closed too early")
	}

	c.ClearSource()
	if !second.closed {
		t.Error("ClearSource did not close the source")
	}
	if c.HasSource() {
		t.Error("HasSource after ClearSource")
	}
}

func TestChannelRemaining(t *testing.T) {
	c := NewChannel("A")
	if _, ok := c.Remaining(); ok {
		t.Error("Remaining known without a source")
	}

	src := newFakeSource("x", 0.1, 2*time.Second)
	c.SetSource(src)
	c.Stream(make([][2]float64, testRate.N(500*time.Millisecond)))

	left, ok := c.Remaining()
	if !ok {
		t.Fatal("Remaining unknown for a source with duration")
	}
	if want := 1500 * time.Millisecond; left != want {
		t.Errorf("Remaining = %v, want %v", left, want)
	}

	src.known = false
	if _, ok := c.Remaining(); ok {
		t.Error("Remaining known although the source can't report duration")
	}
}

func TestChannelReportsSourceError(t *testing.T) {
	var got error
	c := NewChannel("A")
	c.fault = func(err error) { got = err }

	src := newFakeSource("x", 0.1, time.Second)
	src.err = errNotFound
	c.SetSource(src)
	c.Stream(make([][2]float64, 64))

	if got == nil {
		t.Fatal("source error not reported")
	}
}

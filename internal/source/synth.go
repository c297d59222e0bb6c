package source

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/faiface/beep"
)

const defaultToneLength = time.Second

// openSilence serves silence://<duration>, e.g. silence://2s.
func (o *Opener) openSilence(u *url.URL) (*handle, error) {
	d, err := time.ParseDuration(u.Host)
	if err != nil || d <= 0 {
		return nil, fmt.Errorf("source: silence duration %q: bad value", u.Host)
	}
	n := o.SampleRate.N(d)
	return o.newHandle("silence", beep.Silence(n), nil, o.SampleRate, d, true), nil
}

// openTone serves tone://<hz>?d=<duration>&amp=<0..1>, a plain sine.
func (o *Opener) openTone(u *url.URL) (*handle, error) {
	hz, err := strconv.ParseFloat(u.Host, 64)
	if err != nil || hz <= 0 || hz >= float64(o.SampleRate)/2 {
		return nil, fmt.Errorf("source: tone frequency %q: bad value", u.Host)
	}

	q := u.Query()
	d := defaultToneLength
	if v := q.Get("d"); v != "" {
		if d, err = time.ParseDuration(v); err != nil || d <= 0 {
			return nil, fmt.Errorf("source: tone duration %q: bad value", v)
		}
	}
	amp := 0.5
	if v := q.Get("amp"); v != "" {
		if amp, err = strconv.ParseFloat(v, 64); err != nil || amp < 0 || amp > 1 {
			return nil, fmt.Errorf("source: tone amplitude %q: bad value", v)
		}
	}

	total := o.SampleRate.N(d)
	step := 2 * math.Pi * hz / float64(o.SampleRate)
	i := 0
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if i >= total {
			return 0, false
		}
		n := min(len(samples), total-i)
		for k := range n {
			v := amp * math.Sin(step*float64(i+k))
			samples[k] = [2]float64{v, v}
		}
		i += n
		return n, true
	})
	return o.newHandle("tone", tone, nil, o.SampleRate, d, true), nil
}

package audioengine

import (
	"math"
)

// BarConfig holds the zone layout and the tuned "feel" constants of the bar
// analysis. None of the numbers are load-bearing; they shape how the bars
// look, not whether they are correct.
type BarConfig struct {
	Bars       int
	FFTSize    int
	SampleRate float64

	// zone proportions; the vocal zone takes the remainder
	BeatShare float64
	MidShare  float64

	BeatLowHz, BeatHighHz   float64
	MidLowHz, MidHighHz     float64
	VocalLowHz, VocalHighHz float64
	KickLowHz, KickHighHz   float64

	// LevelGain scales RMS before log10(1 + rms*gain).
	LevelGain float64

	BeatSensitivity float64
	BeatAttack      float64
	BeatDecay       float64
	BeatRawMix      float64 // share of raw level mixed into the envelope

	KickSensitivity float64
	KickAttack      float64
	KickDecay       float64
	KickMaxBoost    float64 // multiplier applied at full kick envelope

	VocalBoost float64
	VocalGamma float64
	VocalFloor float64

	MidSmoothing   float64 // weight of the previous value
	MidAttenuation float64
}

// DefaultBarConfig returns the tuned defaults for the given geometry.
func DefaultBarConfig(bars, fftSize int, sampleRate float64) BarConfig {
	return BarConfig{
		Bars:       bars,
		FFTSize:    fftSize,
		SampleRate: sampleRate,

		BeatShare: 0.40,
		MidShare:  0.16,

		BeatLowHz: 55, BeatHighHz: 260,
		MidLowHz: 260, MidHighHz: 900,
		VocalLowHz: 900, VocalHighHz: 6500,
		KickLowHz: 55, KickHighHz: 120,

		LevelGain: 60,

		BeatSensitivity: 4,
		BeatAttack:      0.6,
		BeatDecay:       0.86,
		BeatRawMix:      0.25,

		KickSensitivity: 5,
		KickAttack:      0.7,
		KickDecay:       0.8,
		KickMaxBoost:    1.6,

		VocalBoost: 1.4,
		VocalGamma: 2.2,
		VocalFloor: 0.08,

		MidSmoothing:   0.6,
		MidAttenuation: 0.55,
	}
}

func (c BarConfig) validate() error {
	if c.Bars < 1 {
		return ErrBarCount
	}
	if !isPowerOfTwo(c.FFTSize) {
		return ErrFFTSize
	}
	return nil
}

type binRange struct{ lo, hi int }

// BarComputer turns FFT frames into bar levels. It keeps per-bar smoothing
// state between calls and is not safe for concurrent use.
type BarComputer struct {
	cfg BarConfig

	beatN, midN, vocalN int
	ranges              []binRange
	kick                binRange

	mags     []float64
	beat     []onset   // per beat-zone bar
	midLevel []float64 // per mid-zone bar
	kickEnv  onset
}

// NewBarComputer sizes all smoothing state from cfg.Bars.
func NewBarComputer(cfg BarConfig) (*BarComputer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}

	beatN := int(math.Round(float64(cfg.Bars) * cfg.BeatShare))
	midN := int(math.Round(float64(cfg.Bars) * cfg.MidShare))
	if beatN > cfg.Bars {
		beatN = cfg.Bars
	}
	if beatN+midN > cfg.Bars {
		midN = cfg.Bars - beatN
	}
	vocalN := cfg.Bars - beatN - midN

	half := cfg.FFTSize / 2
	binHz := cfg.SampleRate / float64(cfg.FFTSize)

	b := &BarComputer{
		cfg:      cfg,
		beatN:    beatN,
		midN:     midN,
		vocalN:   vocalN,
		mags:     make([]float64, half),
		beat:     make([]onset, beatN),
		midLevel: make([]float64, midN),
	}
	b.ranges = append(b.ranges, logBands(cfg.BeatLowHz, cfg.BeatHighHz, beatN, binHz, half)...)
	b.ranges = append(b.ranges, logBands(cfg.MidLowHz, cfg.MidHighHz, midN, binHz, half)...)
	b.ranges = append(b.ranges, logBands(cfg.VocalLowHz, cfg.VocalHighHz, vocalN, binHz, half)...)
	b.kick = toBins(cfg.KickLowHz, cfg.KickHighHz, binHz, half)
	return b, nil
}

// Zones returns the bar counts of the beat, mid and vocal zones.
func (b *BarComputer) Zones() (beat, mid, vocal int) {
	return b.beatN, b.midN, b.vocalN
}

func (b *BarComputer) Bars() int { return b.cfg.Bars }

// Compute maps one FFT frame onto Bars levels in [0,1].
func (b *BarComputer) Compute(bins []complex128) []float64 {
	cfg := &b.cfg
	out := make([]float64, cfg.Bars)
	magnitudes(bins, b.mags)

	kickLevel := compress(bandRMS(b.mags, b.kick.lo, b.kick.hi), cfg.LevelGain)
	kick := b.kickEnv.update(kickLevel, cfg.KickSensitivity, cfg.KickAttack, cfg.KickDecay)
	boost := 1 + (cfg.KickMaxBoost-1)*kick

	for i, r := range b.ranges {
		level := compress(bandRMS(b.mags, r.lo, r.hi), cfg.LevelGain)

		switch {
		case i < b.beatN:
			env := b.beat[i].update(level, cfg.BeatSensitivity, cfg.BeatAttack, cfg.BeatDecay)
			v := cfg.BeatRawMix*level + (1-cfg.BeatRawMix)*env
			out[i] = clamp01(v * boost)

		case i < b.beatN+b.midN:
			m := i - b.beatN
			b.midLevel[m] = b.midLevel[m]*cfg.MidSmoothing + level*(1-cfg.MidSmoothing)
			out[i] = clamp01(b.midLevel[m] * cfg.MidAttenuation)

		default:
			v := clamp01(level * cfg.VocalBoost)
			v = 1 - math.Pow(1-v, cfg.VocalGamma)
			out[i] = clamp01(cfg.VocalFloor + (1-cfg.VocalFloor)*v)
		}
	}
	return out
}

// KickEnvelope exposes the current kick onset envelope.
func (b *BarComputer) KickEnvelope() float64 { return b.kickEnv.env }

// logBands splits [lo,hi] Hz into n logarithmically spaced bin ranges.
func logBands(lo, hi float64, n int, binHz float64, half int) []binRange {
	out := make([]binRange, n)
	ratio := hi / lo
	for k := range n {
		f0 := lo * math.Pow(ratio, float64(k)/float64(n))
		f1 := lo * math.Pow(ratio, float64(k+1)/float64(n))
		out[k] = toBins(f0, f1, binHz, half)
	}
	return out
}

func toBins(f0, f1, binHz float64, half int) binRange {
	lo := int(math.Floor(f0 / binHz))
	hi := int(math.Ceil(f1 / binHz))
	if lo < 1 {
		lo = 1
	}
	if lo > half-1 {
		lo = half - 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	if hi > half {
		hi = half
	}
	return binRange{lo: lo, hi: hi}
}

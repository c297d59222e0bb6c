package spec

import "time"

const (
	// === IDENTITY & VERSIONING ===
	VersionPreview = "1.0.0"

	// === MAGIC NUMBERS (PREVIEW CONTAINER) ===
	PreviewMagic = "HDXPRV01"

	// === ENGINE SPECS ===
	SampleRate = 48000
	Channels   = 2
	FrameSize  = 20 // ms per opus frame

	DefaultBarCount = 24
	DefaultFFTSize  = 2048

	FadeTick      = 25 * time.Millisecond
	MinFade       = 150 * time.Millisecond
	SpeakerBuffer = 100 * time.Millisecond

	// === KEY DERIVATION ===
	KeyRounds = 4096
	KeyLen    = 32

	// === TLV TAGS (header .hdxp) ===
	Rate      = "RATE" // uint32 sample rate
	Chan      = "CHAN" // uint16 channel count
	Samples   = "SMPL" // uint64 frames per channel
	Salt      = "SALT" // salt for sealed frames
	Wave      = "WAVE" // waveform overview, one 0-255 RMS byte per point
	AudioData = "AUDI" // length-prefixed opus frames until EOF
)

package codec

import (
	"math"
)

// Waveform reduces interleaved pcm to at most points RMS amplitudes, each
// scaled to 0-255. It is stored with a preview so listings can draw it
// without decoding audio.
func Waveform(pcm []int16, points int) []byte {
	if len(pcm) == 0 || points <= 0 {
		return nil
	}
	step := (len(pcm) + points - 1) / points

	waveform := make([]byte, 0, points)
	for i := 0; i < len(pcm); i += step {
		var sum float64
		count := 0
		for j := 0; j < step && i+j < len(pcm); j++ {
			val := float64(pcm[i+j])
			sum += val * val
			count++
		}

		rms := math.Sqrt(sum / float64(count))
		// x5 lifts typical program material into the visible range
		waveform = append(waveform, uint8(math.Min(rms/32768*255*5, 255)))
	}
	return waveform
}

// NormalizeGain returns the multiplier that brings peak up to just below
// full scale, or 1 for silence.
func NormalizeGain(peak int16) float64 {
	if peak <= 0 {
		return 1
	}
	return 32760.0 / float64(peak)
}

package codec

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrNotWAV = errors.New("codec: not a PCM wav file")

// WAVInfo describes a WAV file after a full scan.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     uint64 // frames per channel
	Peak       int16  // loudest sample after conversion to 16-bit
	Waveform   []byte
}

// readWAV streams path as interleaved 16-bit stereo blocks. check, when
// set, sees the format before any audio is read. fn must not keep pcm; the
// slice is reused between calls.
func readWAV(path string, check func(WAVInfo) error, fn func(pcm []int16) error) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return WAVInfo{}, ErrNotWAV
	}
	if err := dec.FwdToPCM(); err != nil {
		return WAVInfo{}, fmt.Errorf("codec: seek pcm: %w", err)
	}

	info := WAVInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if info.Channels < 1 || info.BitDepth == 0 {
		return info, ErrNotWAV
	}
	if check != nil {
		if err := check(info); err != nil {
			return info, err
		}
	}

	const block = 4096
	intBuf := &audio.IntBuffer{
		Data:           make([]int, block*info.Channels),
		Format:         &audio.Format{NumChannels: info.Channels, SampleRate: info.SampleRate},
		SourceBitDepth: info.BitDepth,
	}
	pcm := make([]int16, 0, block*2)

	for {
		n, err := dec.PCMBuffer(intBuf)
		if err != nil && err != io.EOF {
			return info, fmt.Errorf("codec: read pcm: %w", err)
		}
		if n == 0 {
			break
		}

		frames := n / info.Channels
		pcm = pcm[:0]
		for i := range frames {
			l := to16(intBuf.Data[i*info.Channels], info.BitDepth)
			r := l
			if info.Channels > 1 {
				r = to16(intBuf.Data[i*info.Channels+1], info.BitDepth)
			}
			pcm = append(pcm, l, r)
		}
		info.Frames += uint64(frames)

		if err := fn(pcm); err != nil {
			return info, err
		}
		if err == io.EOF {
			break
		}
	}
	return info, nil
}

// to16 rescales an integer sample of the given depth to 16 bits. 8-bit WAV
// data is unsigned.
func to16(v, depth int) int16 {
	switch depth {
	case 8:
		return int16((v - 128) << 8)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	default:
		return int16(v)
	}
}

// ScanWAV reads the whole file once and reports its format, length, peak
// and a waveform overview of the given number of points.
func ScanWAV(path string, points int) (WAVInfo, error) {
	var peak int16
	var samples []int16

	info, err := readWAV(path, nil, func(pcm []int16) error {
		for _, s := range pcm {
			a := s
			if a < 0 {
				a = -a
			}
			if a > peak {
				peak = a
			}
		}
		samples = append(samples, pcm...)
		return nil
	})
	if err != nil {
		return info, err
	}
	info.Peak = peak
	info.Waveform = Waveform(samples, points)
	return info, nil
}

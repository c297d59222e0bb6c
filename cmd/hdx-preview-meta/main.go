/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"hdxpreview/internal/container"
)

const (
	version_major = 1
	version_minor = 0
	app_name      = "HDX-Preview-Meta"
	general_usage = "Usage: ./hdx-preview-meta -hdxp <file.hdxp> [-jsondump]"
	wave_width    = 60
)

type previewInfo struct {
	SampleRate uint32  `json:"sample_rate"`
	Channels   uint16  `json:"channels"`
	Samples    uint64  `json:"samples"`
	Duration   float64 `json:"duration"`
	Sealed     bool    `json:"sealed"`
	Frames     int     `json:"frames"`
	AudioBytes int64   `json:"audio_bytes"`
	Waveform   []byte  `json:"waveform,omitempty"`
}

func main() {
	pathFlag := flag.String("hdxp", "", "path of the .hdxp file")
	jsonDump := flag.Bool("jsondump", false, "print the header as JSON")
	flag.Parse()

	if *pathFlag == "" {
		fmt.Printf("\n%s %d.%d\n", app_name, version_major, version_minor)
		fmt.Println(general_usage)
		return
	}

	f, err := os.Open(*pathFlag)
	if err != nil {
		fmt.Printf("cannot open file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	info, err := inspect(f)
	if err != nil {
		fmt.Printf("[!] %v\n", err)
		os.Exit(1)
	}

	if *jsonDump {
		j, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(j))
		return
	}

	mins := int(info.Duration) / 60
	sec := int(info.Duration) % 60
	fmt.Println(strings.Repeat("=", 75))
	fmt.Printf(" FILE          : %s\n", *pathFlag)
	fmt.Printf(" FORMAT        : opus %d Hz, %d ch\n", info.SampleRate, info.Channels)
	fmt.Printf(" DURATION      : %02d:%02d (%d samples)\n", mins, sec, info.Samples)
	fmt.Printf(" SEALED        : %v\n", info.Sealed)
	fmt.Printf(" FRAMES        : %d (%s)\n", info.Frames, formatSize(info.AudioBytes))
	if len(info.Waveform) > 0 {
		fmt.Printf(" WAVEFORM      : %s\n", sparkline(info.Waveform, wave_width))
	}
	fmt.Println(strings.Repeat("=", 75))
}

// inspect reads the header and walks every frame record.
func inspect(r io.Reader) (previewInfo, error) {
	pr, err := container.NewReader(r)
	if err != nil {
		return previewInfo{}, err
	}
	h := pr.Header
	info := previewInfo{
		SampleRate: h.SampleRate,
		Channels:   h.Channels,
		Samples:    h.Samples,
		Sealed:     h.Sealed(),
		Waveform:   h.Waveform,
	}
	if d, ok := h.Duration(); ok {
		info.Duration = d.Seconds()
	}
	for {
		frame, err := pr.NextFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return info, fmt.Errorf("frame %d: %w", info.Frames, err)
		}
		info.Frames++
		info.AudioBytes += int64(2 + len(frame))
	}
	return info, nil
}

// sparkline squeezes a 0-255 waveform into width block characters.
func sparkline(wave []byte, width int) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	if len(wave) < width {
		width = len(wave)
	}
	var b strings.Builder
	for i := range width {
		lo := i * len(wave) / width
		hi := max((i+1)*len(wave)/width, lo+1)
		peak := byte(0)
		for _, v := range wave[lo:hi] {
			peak = max(peak, v)
		}
		b.WriteRune(blocks[int(peak)*(len(blocks)-1)/255])
	}
	return b.String()
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	if exp == 0 {
		return fmt.Sprintf("%.2f Kb", float64(b)/float64(unit))
	}
	return fmt.Sprintf("%.2f Mb", float64(b)/float64(div))
}

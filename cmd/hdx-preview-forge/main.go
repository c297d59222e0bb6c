/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"hdxpreview/internal/codec"
	"hdxpreview/internal/config"
	"hdxpreview/internal/container"
	"hdxpreview/internal/security"
	"hdxpreview/pkg/spec"
)

const (
	version_major   = 1
	version_minor   = 0
	app_name        = "HDX-Preview-Forge"
	waveform_points = 400
	salt_len        = 16
)

type forgeJob struct {
	In        string
	Out       string
	Pass      string
	Normalize bool
}

func main() {
	var job forgeJob
	flag.StringVar(&job.In, "in", "", "input WAV (48 kHz)")
	flag.StringVar(&job.Out, "out", "", "output .hdxp (default: input name)")
	flag.StringVar(&job.Pass, "pass", "", "seal frames with this passphrase")
	flag.BoolVar(&job.Normalize, "normalize", false, "peak-normalize before encoding")
	flag.Parse()

	cfg := config.Load()
	log := cfg.Logger(os.Stderr)

	fmt.Printf("\n%s version %d.%d\n", app_name, version_major, version_minor)

	if job.In == "" {
		job = interview()
	}
	if job.Out == "" {
		job.Out = strings.TrimSuffix(job.In, filepath.Ext(job.In)) + ".hdxp"
	}

	if err := forge(job, log); err != nil {
		log.Error().Err(err).Str("in", job.In).Msg("forge failed")
		os.Exit(1)
	}
	fmt.Printf("\n[SUCCESS] Preview Forged: %s\n", job.Out)
}

// forge writes job.Out. A partial output is removed on failure.
func forge(job forgeJob, log zerolog.Logger) (err error) {
	info, err := codec.ScanWAV(job.In, waveform_points)
	if err != nil {
		return err
	}
	if info.SampleRate != spec.SampleRate {
		return fmt.Errorf("%w (got %d Hz)", codec.ErrSampleRate, info.SampleRate)
	}
	if info.Frames == 0 {
		return errors.New("input has no audio")
	}
	log.Info().
		Int("channels", info.Channels).
		Int("bits", info.BitDepth).
		Uint64("frames", info.Frames).
		Int16("peak", info.Peak).
		Msg("input scanned")

	hdr := container.Header{
		SampleRate: spec.SampleRate,
		Channels:   spec.Channels,
		Samples:    info.Frames,
		Waveform:   info.Waveform,
	}

	var sealer *security.Sealer
	if job.Pass != "" {
		if hdr.Salt, err = security.NewSalt(salt_len); err != nil {
			return err
		}
		if sealer, err = security.NewSealer(security.DeriveKey(job.Pass, hdr.Salt)); err != nil {
			return err
		}
	}

	f, err := os.Create(job.Out)
	if err != nil {
		return err
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(job.Out)
		}
	}()

	w, err := container.NewWriter(f, hdr)
	if err != nil {
		return err
	}

	gain := 1.0
	if job.Normalize {
		gain = codec.NormalizeGain(info.Peak)
	}

	total := int((info.Frames + codec.FrameSamples - 1) / codec.FrameSamples)
	progress := NewProgress(total)
	fmt.Printf("\n[START] FORGING: %s\n", filepath.Base(job.In))

	_, err = codec.EncodeWAV(job.In, gain, func(frame []byte) error {
		if sealer != nil {
			sealed, err := sealer.Seal(frame)
			if err != nil {
				return err
			}
			frame = sealed
		}
		if err := w.WriteFrame(frame); err != nil {
			return err
		}
		progress.Add(1)
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	log.Info().
		Int("frames", w.Frames()).
		Bool("sealed", sealer != nil).
		Float64("gain", gain).
		Msg("preview written")
	return f.Sync()
}

func interview() forgeJob {
	rl, err := readline.NewEx(&readline.Config{Prompt: ">> "})
	if err != nil {
		fmt.Fprintln(os.Stderr, "no terminal; pass -in")
		os.Exit(2)
	}
	defer rl.Close()

	var job forgeJob
	job.In = ask(rl, "1. Input WAV (48 kHz)", "preview.wav")
	job.Out = ask(rl, "2. Output .hdxp", strings.TrimSuffix(job.In, filepath.Ext(job.In))+".hdxp")
	job.Pass = ask(rl, "3. Passphrase (empty = open)", "")
	job.Normalize = strings.EqualFold(ask(rl, "4. Normalize (y/n)", "n"), "y")
	return job
}

func ask(rl *readline.Instance, prompt, def string) string {
	rl.SetPrompt(fmt.Sprintf("%s [%s]: ", prompt, def))
	line, _ := rl.Readline()
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

// Package config loads runtime settings for the preview tools from the
// environment.
package config

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hdxpreview/pkg/spec"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	Socket string

	// Engine
	SampleRate int
	Buffer     time.Duration // speaker buffer
	Bars       int
	FFTSize    int
	Tick       time.Duration // crossfade step
	Volume     int           // 0-100 at startup

	LogLevel   string
	Passphrase string // unlocks sealed previews
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Socket: envStr("HDX_PREVIEW_SOCKET", "/tmp/hdx-preview.sock"),

		SampleRate: envInt("HDX_PREVIEW_SAMPLE_RATE", spec.SampleRate),
		Buffer:     time.Duration(envInt("HDX_PREVIEW_BUFFER_MS", int(spec.SpeakerBuffer/time.Millisecond))) * time.Millisecond,
		Bars:       envInt("HDX_PREVIEW_BARS", spec.DefaultBarCount),
		FFTSize:    envInt("HDX_PREVIEW_FFT", spec.DefaultFFTSize),
		Tick:       time.Duration(envInt("HDX_PREVIEW_TICK_MS", int(spec.FadeTick/time.Millisecond))) * time.Millisecond,
		Volume:     envInt("HDX_PREVIEW_VOLUME", 100),

		LogLevel:   envStr("HDX_PREVIEW_LOG_LEVEL", "info"),
		Passphrase: envStr("HDX_PREVIEW_PASSPHRASE", ""),
	}
}

// Validate reports the first setting the engine would reject.
func (c Config) Validate() error {
	var errs []error
	if c.Socket == "" {
		errs = append(errs, errors.New("config: socket path is empty"))
	}
	if c.SampleRate < 8000 {
		errs = append(errs, errors.New("config: sample rate below 8000"))
	}
	if c.Bars < 1 {
		errs = append(errs, errors.New("config: bar count must be positive"))
	}
	if c.FFTSize < 2 || c.FFTSize&(c.FFTSize-1) != 0 {
		errs = append(errs, errors.New("config: fft size must be a power of two"))
	}
	if c.Tick <= 0 {
		errs = append(errs, errors.New("config: tick must be positive"))
	}
	if c.Buffer <= 0 {
		errs = append(errs, errors.New("config: speaker buffer must be positive"))
	}
	if c.Volume < 0 || c.Volume > 100 {
		errs = append(errs, errors.New("config: volume outside 0-100"))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Logger builds the console logger every command uses.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

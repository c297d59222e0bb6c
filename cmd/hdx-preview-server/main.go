/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/faiface/beep"

	"hdxpreview/internal/config"
	"hdxpreview/internal/source"
	"hdxpreview/pkg/audioengine"
)

const (
	version_major = 1
	version_minor = 0
	server_name   = "HDX-Preview-Server"
)

func main() {
	cfg := config.Load()
	flag.StringVar(&cfg.Socket, "socket", cfg.Socket, "unix socket path")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn, error")
	flag.Parse()

	log := cfg.Logger(os.Stderr)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	sr := beep.SampleRate(cfg.SampleRate)
	opener := source.NewOpener(sr, log)
	opener.Passphrase = cfg.Passphrase

	srv := newServer(log)
	engine, err := audioengine.NewEngine(audioengine.Options{
		BarCount:     cfg.Bars,
		FFTSize:      cfg.FFTSize,
		SampleRate:   sr,
		TickInterval: cfg.Tick,
		Opener:       opener,
		Sink:         audioengine.NewSpeakerSink(sr, cfg.Buffer),
		Logger:       &log,
		OnBars:       srv.onBars,
		OnStopped:    srv.onStopped,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("engine init")
	}
	engine.SetVolume(cfg.Volume)
	srv.engine = engine

	_ = os.Remove(cfg.Socket)
	ln, err := net.Listen("unix", cfg.Socket)
	if err != nil {
		log.Fatal().Err(err).Str("socket", cfg.Socket).Msg("listen")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Info().Str("signal", s.String()).Msg("shutting down")
		ln.Close()
	}()

	log.Info().
		Str("socket", cfg.Socket).
		Int("bars", cfg.Bars).
		Int("fft", cfg.FFTSize).
		Msgf("%s V.%d.%d ready", server_name, version_major, version_minor)

	srv.serve(ln)

	engine.Close()
	os.Remove(cfg.Socket)
}

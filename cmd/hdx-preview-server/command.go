/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */
package main

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"time"

	"hdxpreview/internal/source"
	"hdxpreview/pkg/audioengine"
)

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func (s *server) status() map[string]interface{} {
	st := s.engine.Status()

	s.stateMu.Lock()
	url, bars := s.state.URL, s.state.BarsOn
	s.stateMu.Unlock()

	var remaining interface{}
	if st.RemainingKnown {
		remaining = round3(st.Remaining.Seconds())
	}
	return map[string]interface{}{
		"state":         st.State.String(),
		"url":           url,
		"volume":        st.Volume,
		"remaining":     remaining,
		"fade_progress": round3(st.FadeProgress),
		"bars":          bars,
	}
}

func (s *server) emit(ev map[string]interface{}) {
	s.stateMu.Lock()
	sink := s.state.EventSink
	s.stateMu.Unlock()
	if sink == nil {
		return
	}
	b, _ := json.Marshal(ev)
	sink("EVENT " + string(b))
}

func (s *server) emitEvent(t string) {
	ev := s.status()
	ev["type"] = t
	s.emit(ev)
}

// sourceReply maps an open failure onto a protocol error code.
func sourceReply(err error) string {
	switch {
	case errors.Is(err, source.ErrUnsupportedScheme):
		return "ERR UNSUPPORTED_SCHEME"
	case errors.Is(err, source.ErrUnsupportedFormat):
		return "ERR UNSUPPORTED_FORMAT"
	case errors.Is(err, source.ErrSealed):
		return "ERR SEALED"
	case errors.Is(err, os.ErrNotExist):
		return "ERR NOT_FOUND"
	}
	var se *audioengine.SourceError
	if errors.As(err, &se) {
		return "ERR SOURCE"
	}
	return "ERR INTERNAL"
}

func (s *server) setURL(url string) {
	s.stateMu.Lock()
	s.state.URL = url
	s.stateMu.Unlock()
}

func (s *server) cmdPlay(url string) string {
	if err := s.engine.PlayURL(url); err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("play")
		return sourceReply(err)
	}
	s.setURL(url)
	s.emitEvent("STATUS")
	return "Playing"
}

func (s *server) cmdXfade(url string, d time.Duration) string {
	if err := s.engine.CrossfadeTo(url, d); err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("crossfade")
		return sourceReply(err)
	}
	s.setURL(url)
	s.emitEvent("STATUS")
	return "Crossfading"
}

func (s *server) cmdStop() {
	s.engine.Stop()
	s.setURL("")
	s.emitEvent("STATUS")
}

func (s *server) cmdPause() {
	s.engine.Pause()
	s.emitEvent("STATUS")
}

func (s *server) cmdResume() {
	s.engine.Resume()
	s.emitEvent("STATUS")
}

func (s *server) cmdVolume(v int) int {
	s.engine.SetVolume(v)
	s.emitEvent("STATUS")
	return s.engine.Volume()
}

func (s *server) cmdBars(on bool) {
	s.stateMu.Lock()
	s.state.BarsOn = on
	s.stateMu.Unlock()
}

// onBars runs on the engine's event goroutine.
func (s *server) onBars(levels []float64) {
	s.stateMu.Lock()
	on := s.state.BarsOn
	s.stateMu.Unlock()
	if !on {
		return
	}
	out := make([]float64, len(levels))
	for i, v := range levels {
		out[i] = round3(v)
	}
	s.emit(map[string]interface{}{"type": "BARS", "levels": out})
}

// onStopped runs on the engine's event goroutine after a playback fault.
func (s *server) onStopped(err error) {
	s.setURL("")
	ev := s.status()
	ev["type"] = "STOPPED_ERROR"
	ev["error"] = err.Error()
	s.emit(ev)
}

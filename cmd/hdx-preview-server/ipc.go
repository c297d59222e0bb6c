/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hdxpreview/pkg/audioengine"
)

const writeTimeout = 2 * time.Second

type server struct {
	log    zerolog.Logger
	engine *audioengine.Engine

	controlMu    sync.Mutex
	controlOwner *client

	stateMu sync.Mutex
	state   PlayerState
}

func newServer(log zerolog.Logger) *server {
	return &server{log: log.With().Str("component", "ipc").Logger()}
}

// ===============================
// Ownership
// ===============================

func (s *server) isOwner(c *client) bool {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	return s.controlOwner == c
}

func (s *server) claimOwner(c *client) bool {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	if s.controlOwner == nil {
		s.controlOwner = c
		s.log.Info().Str("client", c.RemoteAddr().String()).Msg("control claimed")
		return true
	}
	return s.controlOwner == c
}

// releaseOwner drops control and stops playback when the owner leaves.
func (s *server) releaseOwner(c *client) {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	if s.controlOwner != c {
		return
	}
	s.controlOwner = nil
	s.stateMu.Lock()
	s.state.EventSink = nil
	s.stateMu.Unlock()
	s.cmdStop()
	s.log.Info().Msg("control released")
}

// ===============================
// IPC Server
// ===============================

// serve accepts until ln is closed.
func (s *server) serve(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn().Err(err).Msg("accept")
			continue
		}
		go s.handleConn(c)
	}
}

func argInt(arg string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *server) handleConn(conn net.Conn) {
	c := &client{Conn: conn}
	defer func() {
		s.releaseOwner(c)
		c.Close()
	}()

	sc := bufio.NewScanner(c)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := c.send(s.exec(c, line)); err != nil {
			return
		}
	}
}

// exec runs one command line and returns the reply.
func (s *server) exec(c *client, line string) string {
	// VERB + RAW ARG (urls may contain spaces)
	parts := strings.SplitN(line, " ", 2)
	cmd := strings.ToUpper(parts[0])
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}

	// ==================================================
	// READ-ONLY COMMANDS
	// ==================================================
	switch cmd {
	case "ABOUT":
		return fmt.Sprintf("%s V.%d.%d", server_name, version_major, version_minor)

	case "PING":
		return "Pong"

	case "WHOAMI":
		if s.isOwner(c) {
			return "OWNER"
		}
		return "OBSERVER"

	case "STATUS":
		j, _ := json.Marshal(s.status())
		return string(j)

	case "REMAINING":
		left, ok := s.engine.CurrentRemainingSeconds()
		if !ok {
			return "UNKNOWN"
		}
		return strconv.FormatFloat(left, 'f', 3, 64)
	}

	// ==================================================
	// CONTROL COMMANDS (OWNER ONLY)
	// ==================================================
	// a bad line is answered without touching ownership
	run, reply := s.parseControl(cmd, arg)
	if run == nil {
		return reply
	}
	if !s.claimOwner(c) {
		return "ERR CONTROL_LOCKED"
	}

	s.stateMu.Lock()
	s.state.EventSink = func(msg string) {
		if err := c.send(msg); err != nil {
			// unblocks the reader; handleConn then releases control
			c.Close()
		}
	}
	s.stateMu.Unlock()

	return run()
}

// parseControl validates a control command. It returns the action to run,
// or nil and the error reply.
func (s *server) parseControl(cmd, arg string) (func() string, string) {
	switch cmd {
	case "PLAY":
		if arg == "" {
			return nil, "ERR ARG"
		}
		return func() string { return s.cmdPlay(arg) }, ""

	case "XFADE":
		args := strings.SplitN(arg, " ", 2)
		if len(args) != 2 {
			return nil, "ERR ARG"
		}
		ms, ok := argInt(args[0])
		url := strings.TrimSpace(args[1])
		if !ok || ms < 0 || url == "" {
			return nil, "ERR ARG"
		}
		return func() string { return s.cmdXfade(url, time.Duration(ms)*time.Millisecond) }, ""

	case "PAUSE":
		return func() string {
			s.cmdPause()
			return "Paused"
		}, ""

	case "RESUME":
		return func() string {
			s.cmdResume()
			return "Resume Playing"
		}, ""

	case "STOP":
		return func() string {
			s.cmdStop()
			return "Stopped"
		}, ""

	case "VOLUME":
		v, ok := argInt(arg)
		if !ok {
			return nil, "ERR ARG"
		}
		return func() string { return fmt.Sprintf("Volume %d", s.cmdVolume(v)) }, ""

	case "BARS":
		switch strings.ToUpper(arg) {
		case "ON":
			return func() string {
				s.cmdBars(true)
				return "Bars On"
			}, ""
		case "OFF":
			return func() string {
				s.cmdBars(false)
				return "Bars Off"
			}, ""
		}
		return nil, "ERR ARG"

	default:
		return nil, "ERR UNKNOWN"
	}
}

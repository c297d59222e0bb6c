/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"hdxpreview/internal/config"
)

const (
	version_major = 1
	version_minor = 0
	app_name      = "HDX-Preview-Client"
	history_file  = ".hdx-preview-history"
)

func main() {
	cfg := config.Load()
	flag.StringVar(&cfg.Socket, "socket", cfg.Socket, "server socket path")
	flag.Parse()

	log := cfg.Logger(os.Stderr)

	fmt.Printf("\n%s V.%d.%d\n", app_name, version_major, version_minor)
	conn, err := net.Dial("unix", cfg.Socket)
	if err != nil {
		log.Fatal().Err(err).Str("socket", cfg.Socket).Msg("connect")
	}
	defer conn.Close()

	home, _ := os.UserHomeDir()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "hdx> ",
		HistoryFile: filepath.Join(home, history_file),
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("PLAY"),
			readline.PcItem("XFADE"),
			readline.PcItem("PAUSE"),
			readline.PcItem("RESUME"),
			readline.PcItem("STOP"),
			readline.PcItem("VOLUME"),
			readline.PcItem("BARS", readline.PcItem("ON"), readline.PcItem("OFF")),
			readline.PcItem("STATUS"),
			readline.PcItem("REMAINING"),
			readline.PcItem("WHOAMI"),
			readline.PcItem("ABOUT"),
			readline.PcItem("PING"),
			readline.PcItem("QUIT"),
		),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("terminal")
	}
	defer rl.Close()

	fmt.Println(`Type IPC command, press Enter. "QUIT" to exit.`)

	// IPC -> terminal
	go func() {
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			fmt.Fprintln(rl.Stdout(), render(sc.Text()))
		}
		fmt.Fprintln(rl.Stdout(), "SOCKET CLOSED")
		rl.Close()
	}()

	// terminal -> IPC
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				break
			}
			continue
		}
		if err != nil { // io.EOF on ctrl-d or socket close
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			fmt.Println("Bye.")
			break
		}
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			log.Error().Err(err).Msg("write")
			break
		}
	}
}

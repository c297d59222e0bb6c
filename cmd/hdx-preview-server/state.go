/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */
package main

import (
	"net"
	"sync"
	"time"
)

// PlayerState is what the server knows beyond the engine itself.
type PlayerState struct {
	URL       string // last url started or faded to
	BarsOn    bool
	EventSink func(string)
}

// client serialises writes from the command loop and the event dispatcher.
type client struct {
	net.Conn
	wmu sync.Mutex
}

func (c *client) send(line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.Write([]byte(line + "\n"))
	return err
}

package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

var blocks = []rune(" ▁▂▃▄▅▆▇█")

// bar draws levels in [0,1] as one block character each.
func bar(levels []float64) string {
	var b strings.Builder
	top := float64(len(blocks) - 1)
	for _, v := range levels {
		v = math.Max(0, math.Min(1, v))
		b.WriteRune(blocks[int(math.Round(v*top))])
	}
	return b.String()
}

type event struct {
	Type      string    `json:"type"`
	State     string    `json:"state"`
	URL       string    `json:"url"`
	Volume    int       `json:"volume"`
	Remaining *float64  `json:"remaining"`
	Error     string    `json:"error"`
	Levels    []float64 `json:"levels"`
}

// render turns one server line into what the terminal shows.
func render(line string) string {
	payload, ok := strings.CutPrefix(line, "EVENT ")
	if !ok {
		return "RECV: " + line
	}
	var ev event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return "EVENT " + payload
	}

	switch ev.Type {
	case "BARS":
		return "│" + bar(ev.Levels) + "│"
	case "STOPPED_ERROR":
		return fmt.Sprintf("!! STOPPED: %s", ev.Error)
	default:
		left := "--"
		if ev.Remaining != nil {
			left = fmt.Sprintf("%.1fs", *ev.Remaining)
		}
		return fmt.Sprintf("[%s] vol %d%% left %s %s", ev.State, ev.Volume, left, ev.URL)
	}
}

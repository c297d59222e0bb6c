package main

import (
	"fmt"
	"strings"
	"sync"
)

type Progress struct {
	total   int
	current int
	mu      sync.Mutex
}

func NewProgress(total int) *Progress {
	return &Progress{total: max(total, 1)}
}

// Add advances by n frames and redraws at most once per percent.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	before := p.current * 100 / p.total
	p.current = min(p.current+n, p.total)
	if p.current*100/p.total != before || p.current == p.total {
		p.draw()
	}
}

func (p *Progress) draw() {
	width := 30
	percent := float64(p.current) / float64(p.total)
	filled := int(float64(width) * percent)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	// \r returns the cursor to the start of the line
	fmt.Printf("\r [FORGING] [%s] %d%% (%d/%d frames)", bar, int(percent*100), p.current, p.total)

	if p.current == p.total {
		fmt.Println()
	}
}

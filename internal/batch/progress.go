package batch

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// liveProgress redraws a single terminal status line while a batch runs.
type liveProgress struct {
	enabled bool
	out     io.Writer
	total   int

	mu        sync.Mutex
	index     int
	phase     string
	name      string
	processed int
	skipped   int
	failed    int

	stop chan struct{}
}

func newLiveProgress(enabled bool, out io.Writer, total, start int) *liveProgress {
	return &liveProgress{
		enabled: enabled,
		out:     out,
		total:   total,
		index:   start,
		phase:   "starting",
		stop:    make(chan struct{}),
	}
}

func (p *liveProgress) Start() {
	if !p.enabled {
		return
	}
	go func() {
		t := time.NewTicker(500 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-t.C:
				fmt.Fprintf(p.out, "\r\033[2K%s", p.render())
			}
		}
	}()
}

func (p *liveProgress) Stop(final string) {
	if !p.enabled {
		return
	}
	close(p.stop)
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r\033[2K%s\n", final)
}

func (p *liveProgress) Update(index int, phase, name string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	p.index, p.phase, p.name = index, phase, name
	p.mu.Unlock()
}

func (p *liveProgress) Counts(processed, skipped, failed int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	p.processed, p.skipped, p.failed = processed, skipped, failed
	p.mu.Unlock()
}

func (p *liveProgress) render() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := p.name
	if r := []rune(name); len(r) > 48 {
		name = string(r[:48]) + "..."
	}
	parts := []string{fmt.Sprintf("[%d/%d]", min(p.index+1, p.total), p.total), p.phase}
	parts = append(parts, fmt.Sprintf("ok %d", p.processed))
	if p.skipped > 0 {
		parts = append(parts, fmt.Sprintf("skipped %d", p.skipped))
	}
	if p.failed > 0 {
		parts = append(parts, fmt.Sprintf("failed %d", p.failed))
	}
	if name != "" {
		parts = append(parts, "| "+name)
	}
	return strings.Join(parts, "  ")
}

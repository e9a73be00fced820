package main

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progressTracker prints seed progress on a single, rewritten line.
type progressTracker struct {
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	mu             sync.Mutex
}

func newProgressTracker(writer io.Writer, total, reportInterval int) *progressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &progressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
		startTime:      time.Now(),
	}
}

// Update records done entries out of total and reports every
// reportInterval entries.
func (p *progressTracker) Update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = min(done, p.total)
	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final line.
func (p *progressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.report()
	fmt.Fprintln(p.writer)
}

// report must be called with the lock held.
func (p *progressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rSeeding: %d/%d (%.1f%%) - %.1f docs/s",
		p.current, p.total, percentage, rate)
}

package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/srg/hai/inspector"
	"golang.org/x/term"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// progressStopPhases end the progress line. A failed attempt may be retried,
// so PhaseFailed keeps the line alive until the caller stops it.
var progressStopPhases = []string{inspector.PhaseReading}

// ProgressPrinter shows the current connection phase with elapsed seconds on a
// single, continuously rewritten line.
//
// Usage:
//
//	p := NewProgressPrinter(os.Stderr, "Polling AA:BB", inspector.PhaseReading)
//	p.Start()
//	defer p.Stop()
//
// A ProgressPrinter is single-use. The caller must call Stop to terminate the
// internal goroutine.
type ProgressPrinter struct {
	out        io.Writer
	prefix     string
	phase      atomic.Value // string
	stopPhases map[string]struct{}
	startTime  time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewProgressPrinter creates a progress printer writing to out.
// stopPhases are phase names that stop the printer when set via Callback.
func NewProgressPrinter(out io.Writer, prefix string, stopPhases ...string) *ProgressPrinter {
	stopSet := make(map[string]struct{}, len(stopPhases))
	for _, p := range stopPhases {
		stopSet[p] = struct{}{}
	}
	p := &ProgressPrinter{
		out:        out,
		prefix:     prefix,
		stopPhases: stopSet,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	p.phase.Store(inspector.PhaseConnecting)
	return p
}

// newTerminalProgress returns a printer on stderr, or nil when stderr is not a
// terminal (pipes and log files get no carriage-return noise)
func newTerminalProgress(prefix string) *ProgressPrinter {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return NewProgressPrinter(os.Stderr, prefix, progressStopPhases...)
}

// Start begins displaying progress updates in a background goroutine
func (p *ProgressPrinter) Start() {
	if p == nil {
		return
	}
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.startTime = time.Now()
	p.print(p.phase.Load().(string), 0)

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(progressUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopChan:
				return
			case <-ticker.C:
				p.print(p.phase.Load().(string), int(time.Since(p.startTime).Seconds()))
			}
		}
	}()
}

func (p *ProgressPrinter) print(phase string, seconds int) {
	if seconds > 0 {
		fmt.Fprintf(p.out, "\r%s (%s %ds)   ", p.prefix, phase, seconds)
	} else {
		fmt.Fprintf(p.out, "\r%s (%s...)   ", p.prefix, phase)
	}
}

// Callback returns an inspector.ProgressCallback that updates the phase.
// Setting a stop phase stops the printer.
func (p *ProgressPrinter) Callback() inspector.ProgressCallback {
	if p == nil {
		return nil
	}
	return func(phase string) {
		p.phase.Store(phase)
		if _, stop := p.stopPhases[phase]; stop {
			p.Stop()
		}
	}
}

// Stop stops the progress display and clears the line. Safe to call more than once.
func (p *ProgressPrinter) Stop() {
	if p == nil {
		return
	}
	p.stopOnce.Do(func() {
		close(p.stopChan)
		if p.started.Load() {
			<-p.done
			fmt.Fprint(p.out, clearLineSequence)
		}
	})
}

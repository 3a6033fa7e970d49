package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner shows an animated indicator while a query runs.
// It writes to its own writer, normally stderr, so results on stdout stay
// clean.
type Spinner struct {
	ui      *UI
	w       io.Writer
	label   string
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
	stopped bool
	mu      sync.Mutex
}

// Spinner animation frames (braille pattern).
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner that draws on w.
func (u *UI) NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{
		ui:    u,
		w:     w,
		label: label,
		done:  make(chan struct{}),
	}
}

// Start begins the animation. Without a styled terminal it prints nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || !s.ui.shouldStyle() {
		return
	}
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		frame := 0

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				fmt.Fprintf(s.w, "\r%s %s...", StyleProgress.Render(spinnerFrames[frame]), s.label)
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}()
}

// Stop ends the animation and clears its line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return
	}
	s.stopped = true

	close(s.done)
	s.wg.Wait()
	fmt.Fprint(s.w, "\r\033[K")
}

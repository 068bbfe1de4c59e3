package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows progress on stderr while a long operation runs.
// Callers should gate creation on IsTerminal.
type Spinner struct {
	w       io.Writer
	msg     string
	styles  *Styles
	mu      sync.Mutex
	done    chan struct{}
	stopped bool
}

// NewSpinner creates a spinner writing to the renderer's stderr.
func (r *Renderer) NewSpinner(msg string) *Spinner {
	return &Spinner{
		w:      r.stderr,
		msg:    msg,
		styles: r.styles,
		done:   make(chan struct{}),
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		frame := 0
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.stopped {
					_, _ = fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[frame%len(spinnerFrames)], s.msg)
				}
				s.mu.Unlock()
				frame++
			}
		}
	}()
}

// Success stops the spinner and prints a success line.
func (s *Spinner) Success(msg string) {
	s.finish(s.styles.Success.Render("✓ " + msg))
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail(msg string) {
	s.finish(s.styles.Error.Render("✗ " + msg))
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.finish("")
}

func (s *Spinner) finish(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)

	_, _ = fmt.Fprintf(s.w, "\r\033[K")
	if line != "" {
		_, _ = fmt.Fprintln(s.w, line)
	}
}

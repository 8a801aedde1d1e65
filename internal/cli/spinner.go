package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner draws an animated status line until stopped or until its
// context ends. The message can change while it runs, which the import
// command uses to show how many songs are done.
type Spinner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	started atomic.Bool
	exited  chan struct{}

	mu      sync.Mutex
	message string
	drawn   int // cells written by the last frame
}

func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that stops drawing when ctx is
// cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{ctx: sctx, cancel: cancel, message: message, exited: make(chan struct{})}
}

// Start begins the animation in its own goroutine.
func (s *Spinner) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.exited)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the text shown next to the frame.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop ends the animation and clears the line. It waits for the drawing
// goroutine when Start was called and is safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		if s.started.Load() {
			<-s.exited
		}
	})
}

// Cancelled reports whether the spinner's context has ended.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	pad := ""
	if w := lipgloss.Width(line); w < s.drawn {
		pad = strings.Repeat(" ", s.drawn-w)
	} else {
		s.drawn = w
	}
	fmt.Fprintf(statusOut, "\r%s%s", line, pad)
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn > 0 {
		fmt.Fprintf(statusOut, "\r%s\r", strings.Repeat(" ", s.drawn))
		s.drawn = 0
	}
}

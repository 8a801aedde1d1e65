package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

// captureStatus redirects status output to a buffer for the test.
func captureStatus(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := statusOut
	statusOut = &buf
	t.Cleanup(func() { statusOut = old })
	return &buf
}

func TestSpinnerDrawsMessage(t *testing.T) {
	buf := captureStatus(t)

	s := newSpinner("Importing songs...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Importing songs...") {
		t.Errorf("spinner output = %q, want message", buf.String())
	}
	// Stop cancels the spinner's own context.
	if !s.Cancelled() {
		t.Error("Cancelled() should be true after Stop")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	captureStatus(t)
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Rendering...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerWithTimeout(t *testing.T) {
	captureStatus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Rendering...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context timeout")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	captureStatus(t)
	s := newSpinner("Importing songs...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	buf := captureStatus(t)
	done := make(chan struct{})
	go func() {
		newSpinner("Importing songs...").Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a spinner that never started")
	}
	if buf.Len() != 0 {
		t.Errorf("unstarted spinner wrote %q", buf.String())
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	buf := captureStatus(t)

	s := newSpinner("Importing songs...")
	s.Start()
	time.Sleep(120 * time.Millisecond)
	s.SetMessage("Importing songs... 3/12")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "3/12") {
		t.Errorf("spinner output = %q, want updated message", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("spinner should clear its line on stop, got %q", out)
	}
}

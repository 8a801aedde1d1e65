package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cantai/cifra/pkg/errors"
)

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "santo.md")
	if err := os.WriteFile(path, []byte("[C]Santo"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 20*time.Millisecond, func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.md"), []byte("[G]x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[D]Santo"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchFile returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not stop on cancel")
	}
}

func TestWatchFileMissingDir(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "gone", "santo.md"), time.Millisecond, func() {})
	if err == nil {
		t.Error("watching a file in a missing directory should fail")
	}
}

func TestWatchCommandRendersOnce(t *testing.T) {
	env := newTestEnv(t)
	song := env.write(t, "santo.md", "[C]Santo, [Am]santo\n")
	dest := filepath.Join(env.dir, "santo.txt")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := env.runContext(ctx, t, "", "watch", song, "-o", dest, "--output", "text", "-t", "2"); err != nil {
		t.Fatalf("watch: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "D      Bm\nSanto, santo" {
		t.Errorf("output = %q", data)
	}
	if !strings.Contains(env.status.String(), "Watching") {
		t.Errorf("status = %q", env.status.String())
	}
}

func TestWatchCommandErrors(t *testing.T) {
	env := newTestEnv(t)
	song := env.write(t, "santo.md", "[C]Santo")

	_, err := env.run(t, "", "watch", song)
	wantCode(t, err, errors.ErrCodeInvalidInput)
	_, err = env.run(t, "", "watch", filepath.Join(env.dir, "santo.pdf"), "-o", "out.html")
	wantCode(t, err, errors.ErrCodeInvalidPath)
}

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	logger.Info("rendered", "song", "Santo")

	if !strings.Contains(buf.String(), "song=Santo") {
		t.Errorf("logger output = %q", buf.String())
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	time.Sleep(10 * time.Millisecond)
	prog.done("import finished", "files", 3, "imported", 2)

	out := buf.String()
	for _, want := range []string{"import finished", "files=3", "imported=2", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("progress output = %q, want %q", out, want)
		}
	}
	if strings.Contains(out, "elapsed=0s") {
		t.Errorf("elapsed should be measured, got %q", out)
	}
}

func TestProgressBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.WarnLevel))
	prog.done("import finished")
	if buf.Len() != 0 {
		t.Errorf("info progress written at warn level: %q", buf.String())
	}
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	logger := log.Default()

	ctxWithLogger := withLogger(ctx, logger)

	retrieved := loggerFromContext(ctxWithLogger)
	if retrieved != logger {
		t.Error("loggerFromContext should return the same logger")
	}
}

func TestLoggerFromContextDefault(t *testing.T) {
	ctx := context.Background()

	if loggerFromContext(ctx) != log.Default() {
		t.Error("loggerFromContext should fall back to log.Default()")
	}
}

func TestLoggerFromContextWithValue(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	customLogger := newLogger(&buf, log.InfoLevel)

	ctx = withLogger(ctx, customLogger)
	retrieved := loggerFromContext(ctx)

	if retrieved != customLogger {
		t.Error("loggerFromContext should return the custom logger")
	}

	retrieved.Info("test")
	if buf.Len() == 0 {
		t.Error("custom logger should write to buffer")
	}
}

package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug lines to a
// charmbracelet logger.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger with a "hook" prefix.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithPrefix("hook")}
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)

func (h *LogHooks) OnDetect(_ context.Context, format string, ambiguous int) {
	h.logger.Debug("detect", "format", format, "ambiguous", ambiguous)
}

func (h *LogHooks) OnParseComplete(_ context.Context, format string, lines, chords int, d time.Duration) {
	h.logger.Debug("parse", "format", format, "lines", lines, "chords", chords, "took", d)
}

func (h *LogHooks) OnTranspose(_ context.Context, interval int, spelling string) {
	h.logger.Debug("transpose", "interval", interval, "spelling", spelling)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, output string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render failed", "output", output, "err", err)
		return
	}
	h.logger.Debug("render", "output", output, "bytes", size, "took", d)
}

func (h *LogHooks) OnClamp(_ context.Context, line, offset, length int) {
	h.logger.Warn("chord offset clamped", "line", line, "offset", offset, "len", length)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnCacheError(_ context.Context, keyType string, err error) {
	h.logger.Warn("cache error", "type", keyType, "err", err)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("http", "method", method, "route", route, "status", status, "took", d)
}

func (h *LogHooks) OnLiveMessage(_ context.Context, session string, seq int, err error) {
	if err != nil {
		h.logger.Debug("live message rejected", "session", session, "seq", seq, "err", err)
		return
	}
	h.logger.Debug("live message", "session", session, "seq", seq)
}

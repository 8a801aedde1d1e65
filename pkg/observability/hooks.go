// Package observability provides hooks for metrics, tracing, and logging.
//
// The chord engine is pure and never logs. The layers around it (pipeline,
// caches, HTTP server) emit events through the hooks registered here, so a
// deployment can attach Prometheus, OpenTelemetry or plain logs without the
// engine depending on any of them.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [LogHooks] is the implementation the CLI and server install when running
// with --verbose.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := observability.NewLogHooks(logger)
//	    observability.SetPipelineHooks(hooks)
//	    observability.SetCacheHooks(hooks)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnDetect(ctx, format, ambiguous)
//	observability.Pipeline().OnRenderComplete(ctx, "html", len(out), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the render pipeline.
type PipelineHooks interface {
	// OnDetect records the detected notation and the lines flagged for review.
	OnDetect(ctx context.Context, format string, ambiguous int)

	// OnParseComplete records a parsed document.
	OnParseComplete(ctx context.Context, format string, lines, chords int, duration time.Duration)

	// OnTranspose records a transposition by interval semitones.
	OnTranspose(ctx context.Context, interval int, spelling string)

	// OnRenderComplete records a finished render.
	OnRenderComplete(ctx context.Context, output string, size int, duration time.Duration, err error)

	// OnClamp records an anchor offset that the renderer had to clamp.
	OnClamp(ctx context.Context, line, offset, length int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)

	// OnCacheError records a backend failure that was degraded to a miss.
	OnCacheError(ctx context.Context, keyType string, err error)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives events from the HTTP and WebSocket server.
type ServerHooks interface {
	// OnResponse records a served HTTP request.
	OnResponse(ctx context.Context, method, route string, status int, duration time.Duration)

	// OnLiveMessage records one rendered live-editor message.
	OnLiveMessage(ctx context.Context, session string, seq int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnDetect(context.Context, string, int)                            {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, int, int, time.Duration) {}
func (NoopPipelineHooks) OnTranspose(context.Context, int, string)                         {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnClamp(context.Context, int, int, int) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)          {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)         {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)     {}
func (NoopCacheHooks) OnCacheError(context.Context, string, error) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopServerHooks) OnLiveMessage(context.Context, string, int, error)              {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	serverHooks   ServerHooks   = NoopServerHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetServerHooks registers custom server hooks.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Server returns the registered server hooks.
func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	serverHooks = NoopServerHooks{}
}

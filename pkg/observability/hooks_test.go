package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnDetect(ctx, "inline", 2)
	p.OnParseComplete(ctx, "inline", 10, 24, time.Millisecond)
	p.OnTranspose(ctx, 2, "flat")
	p.OnRenderComplete(ctx, "html", 512, time.Millisecond, nil)
	p.OnClamp(ctx, 3, 12, 5)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "sheet")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)
	c.OnCacheError(ctx, "sheet", errors.New("down"))

	s := NoopServerHooks{}
	s.OnResponse(ctx, "POST", "/api/v1/render", 200, time.Millisecond)
	s.OnLiveMessage(ctx, "abc", 1, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() should return NoopServerHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customServer := &testServerHooks{}
	SetServerHooks(customServer)
	if Server() != customServer {
		t.Error("SetServerHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Reset() should restore NoopServerHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := NewLogHooks(logger)
	ctx := context.Background()

	h.OnDetect(ctx, "mixed", 1)
	h.OnCacheError(ctx, "sheet", errors.New("connection refused"))
	h.OnClamp(ctx, 4, 9, 3)

	out := buf.String()
	for _, want := range []string{"hook", "detect", "format=mixed", "cache error", "connection refused", "clamped"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testServerHooks struct{ NoopServerHooks }

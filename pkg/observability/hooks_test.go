package observability

import (
	"context"
	"testing"
	"time"
)

type testArrangeHooks struct {
	starts int
}

func (h *testArrangeHooks) OnArrangeStart(ctx context.Context, rootID string, entryCount int) {
	h.starts++
}
func (h *testArrangeHooks) OnArrangeProgress(context.Context, string, float64) {}
func (h *testArrangeHooks) OnArrangeComplete(context.Context, string, int, time.Duration, error) {
}

type testCacheHooks struct {
	hits int
}

func (h *testCacheHooks) OnCacheHit(ctx context.Context, keyType string) { h.hits++ }
func (h *testCacheHooks) OnCacheMiss(context.Context, string)            {}
func (h *testCacheHooks) OnCacheSet(context.Context, string, int)        {}

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Arrange hooks
	a := NoopArrangeHooks{}
	a.OnArrangeStart(ctx, "root-1", 100)
	a.OnArrangeProgress(ctx, "root-1", 0.5)
	a.OnArrangeComplete(ctx, "root-1", 99, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "arrange")
	c.OnCacheMiss(ctx, "arrange")
	c.OnCacheSet(ctx, "arrange", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/api/v1/arrange")
	h.OnResponse(ctx, "POST", "/api/v1/arrange", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()
	t.Cleanup(Reset)

	// Verify defaults are noop
	if _, ok := Arrange().(NoopArrangeHooks); !ok {
		t.Error("Arrange() should return NoopArrangeHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customArrange := &testArrangeHooks{}
	SetArrangeHooks(customArrange)
	if Arrange() != customArrange {
		t.Error("SetArrangeHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Events reach the registered hooks
	Arrange().OnArrangeStart(context.Background(), "r", 5)
	Cache().OnCacheHit(context.Background(), "arrange")
	if customArrange.starts != 1 || customCache.hits != 1 {
		t.Errorf("events not delivered: starts=%d hits=%d", customArrange.starts, customCache.hits)
	}

	// Nil registration is ignored
	SetArrangeHooks(nil)
	if Arrange() != customArrange {
		t.Error("SetArrangeHooks(nil) should keep existing hooks")
	}

	// Reset restores defaults
	Reset()
	if _, ok := Arrange().(NoopArrangeHooks); !ok {
		t.Error("Reset should restore noop arrange hooks")
	}
}

package observability

import (
	"context"
	"testing"
	"time"
)

type countingPipeline struct {
	NoopPipelineHooks
	batches int
}

func (c *countingPipeline) OnBatchComplete(context.Context, int, int, time.Duration) { c.batches++ }

type countingCache struct {
	NoopCacheHooks
	hits int
}

func (c *countingCache) OnCacheHit(context.Context, string) { c.hits++ }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T", HTTP())
	}

	// The no-op hooks accept every event.
	ctx := context.Background()
	Pipeline().OnLoadComplete(ctx, "city.obj", 100, time.Second, nil)
	Pipeline().OnBatchComplete(ctx, 3, 1, time.Second)
	Cache().OnCacheSet(ctx, "bounds", 64)
	HTTP().OnResponse(ctx, "POST", "/v1/fit", 200, time.Second)
}

func TestRegisterKeepsNilCategories(t *testing.T) {
	Reset()
	defer Reset()

	p := &countingPipeline{}
	restore := Register(Hooks{Pipeline: p})

	Pipeline().OnBatchComplete(context.Background(), 2, 0, time.Millisecond)
	if p.batches != 1 {
		t.Errorf("batches = %d, want 1", p.batches)
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("unregistered Cache() = %T, want the no-op", Cache())
	}

	restore()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("restored Pipeline() = %T", Pipeline())
	}
}

func TestRegisterNests(t *testing.T) {
	Reset()
	defer Reset()

	outer := &countingCache{}
	restoreOuter := Register(Hooks{Cache: outer})
	inner := &countingCache{}
	restoreInner := Register(Hooks{Cache: inner})

	Cache().OnCacheHit(context.Background(), "bounds")
	restoreInner()
	Cache().OnCacheHit(context.Background(), "bounds")
	restoreOuter()

	if inner.hits != 1 || outer.hits != 1 {
		t.Errorf("hits inner=%d outer=%d, want 1 each", inner.hits, outer.hits)
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() after both restores = %T", Cache())
	}
}

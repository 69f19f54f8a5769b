// Package observability lets the pipeline, the caches and the HTTP API
// report events without depending on a metrics or tracing backend.
//
// Each event category has its own interface with a no-op implementation.
// Libraries look up the registered implementation when an event happens;
// main (or a test) decides what is registered:
//
//	restore := observability.Register(observability.Hooks{
//	    Pipeline: observability.NewLogHooks(logger),
//	})
//	defer restore()
//
// Categories left nil in [Hooks] keep their current registration.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks receives events from scene loading, camera fitting,
// rendering and batches.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, input string)
	OnLoadComplete(ctx context.Context, input string, vertexCount int, duration time.Duration, err error)

	// OnFit records a camera fit. resX and resY are zero when err is set.
	OnFit(ctx context.Context, input string, resX, resY int, err error)

	OnRenderStart(ctx context.Context, backend, output string)
	OnRenderComplete(ctx context.Context, backend, output string, duration time.Duration, err error)

	// OnBatchComplete records a finished batch. failed counts the jobs
	// that returned an error.
	OnBatchComplete(ctx context.Context, jobs, failed int, duration time.Duration)
}

// CacheHooks receives events from cache lookups. keyType names what was
// looked up, e.g. "bounds".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                                    {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnFit(context.Context, string, int, int, error)                         {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string, string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, string, time.Duration, error) {}
func (NoopPipelineHooks) OnBatchComplete(context.Context, int, int, time.Duration)               {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every HTTP event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Registry
// =============================================================================

// Hooks is one registration per event category.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

func noopHooks() *Hooks {
	return &Hooks{Pipeline: NoopPipelineHooks{}, Cache: NoopCacheHooks{}, HTTP: NoopHTTPHooks{}}
}

var registered atomic.Pointer[Hooks]

func init() {
	registered.Store(noopHooks())
}

// Register installs the non-nil hooks in h and returns a function that
// restores the previous registration.
func Register(h Hooks) (restore func()) {
	for {
		prev := registered.Load()
		next := *prev
		if h.Pipeline != nil {
			next.Pipeline = h.Pipeline
		}
		if h.Cache != nil {
			next.Cache = h.Cache
		}
		if h.HTTP != nil {
			next.HTTP = h.HTTP
		}
		if registered.CompareAndSwap(prev, &next) {
			return func() { registered.Store(prev) }
		}
	}
}

// Reset restores the no-op hooks for every category.
func Reset() {
	registered.Store(noopHooks())
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return registered.Load().Pipeline }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return registered.Load().Cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return registered.Load().HTTP }

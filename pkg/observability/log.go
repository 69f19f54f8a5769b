package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug log line. The CLI registers it
// for all three categories when run with --verbose.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnLoadStart(_ context.Context, input string) {
	h.logger.Debug("load start", "input", input)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, input string, vertexCount int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "input", input, "duration", d, "err", err)
		return
	}
	h.logger.Debug("load complete", "input", input, "vertices", vertexCount, "duration", d)
}

func (h *LogHooks) OnFit(_ context.Context, input string, resX, resY int, err error) {
	if err != nil {
		h.logger.Debug("fit failed", "input", input, "err", err)
		return
	}
	h.logger.Debug("fit", "input", input, "res_x", resX, "res_y", resY)
}

func (h *LogHooks) OnRenderStart(_ context.Context, backend, output string) {
	h.logger.Debug("render start", "backend", backend, "output", output)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, backend, output string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "backend", backend, "duration", d, "err", err)
		return
	}
	h.logger.Debug("render complete", "backend", backend, "output", output, "duration", d)
}

func (h *LogHooks) OnBatchComplete(_ context.Context, jobs, failed int, d time.Duration) {
	h.logger.Debug("batch complete", "jobs", jobs, "failed", failed, "duration", d)
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

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)

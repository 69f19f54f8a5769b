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

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := NewLogHooks(logger)
	ctx := context.Background()

	h.OnLoadStart(ctx, "city.obj")
	h.OnLoadComplete(ctx, "city.obj", 42, time.Millisecond, nil)
	h.OnFit(ctx, "city.obj", 0, 0, errors.New("degenerate"))
	h.OnRenderComplete(ctx, "raster", "out.png", time.Millisecond, nil)
	h.OnBatchComplete(ctx, 4, 1, time.Second)
	h.OnCacheMiss(ctx, "bounds")
	h.OnResponse(ctx, "POST", "/v1/fit", 422, time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"load start", "vertices=42", "fit failed", "degenerate",
		"render complete", "jobs=4", "failed=1", "cache miss", "status=422",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksRespectLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel}))
	h.OnCacheHit(context.Background(), "bounds")
	if buf.Len() != 0 {
		t.Errorf("debug events should be dropped at info level, got %q", buf.String())
	}
}

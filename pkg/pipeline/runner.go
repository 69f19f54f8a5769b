package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nadir/pkg/cache"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/observability"
	"github.com/matzehuels/nadir/pkg/ortho"
	"github.com/matzehuels/nadir/pkg/scene"
)

// keyTypeBounds labels bounding-box cache events.
const keyTypeBounds = "bounds"

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Hooks receives pipeline events. Nil means the globally registered
	// observability hooks.
	Hooks observability.PipelineHooks
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// sceneLoader supplies the mesh for an input. Execute loads from disk;
// RunBatch shares one load per scene between jobs.
type sceneLoader func(ctx context.Context, input string, conv ortho.Convention) (*scene.Mesh, error)

// Execute runs the complete load → fit → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	return r.execute(ctx, opts, r.LoadScene)
}

func (r *Runner) execute(ctx context.Context, opts Options, load sceneLoader) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Name: opts.Name, Backend: opts.Backend}

	// Stage 1: Load. The raster backend needs the mesh itself; the others
	// only need bounds, which may be cached.
	var mesh *scene.Mesh
	loadStart := time.Now()
	if needsMesh(opts.Backend) {
		m, err := load(ctx, opts.Input, opts.Convention)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		mesh = m
		box, _ := mesh.Bounds()
		result.Bounds = box
		result.Stats.Vertices = len(mesh.Vertices)
		result.Stats.Triangles = len(mesh.Triangles)
		r.storeBounds(ctx, opts, box)
	} else {
		box, hit, err := r.BoundsWithCacheInfo(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		result.Bounds = box
		result.CacheInfo.BoundsHit = hit
	}
	result.Stats.LoadTime = time.Since(loadStart)

	// Stage 2: Fit
	if err := r.fit(ctx, opts, result); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	// Stage 3: Render
	result.Output = opts.OutputPath(result.Fit)
	if err := r.render(ctx, opts, mesh, result); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	opts.Logger.Info("rendered image",
		"job", opts.label(),
		"backend", opts.Backend,
		"output", result.Output,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Fit computes the camera fit for opts without rendering. Only the
// bounding box of the scene is needed, so a cached box avoids loading the
// scene entirely.
func (r *Runner) Fit(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForFit(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Name: opts.Name}
	loadStart := time.Now()
	box, hit, err := r.BoundsWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Bounds = box
	result.CacheInfo.BoundsHit = hit
	result.Stats.LoadTime = time.Since(loadStart)

	if err := r.fit(ctx, opts, result); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	return result, nil
}

// FitBounds fits a camera to a known bounding box without reading a scene.
// opts.Input is only used to label events.
func (r *Runner) FitBounds(ctx context.Context, box geom.BoundingBox, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.validateFitParams(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Name: opts.Name, Bounds: box}
	if err := r.fit(ctx, opts, result); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	return result, nil
}

// fit runs the ortho fit on result.Bounds and fills in the fit fields.
// Strict rejection of ambiguous regions happens during validation.
func (r *Runner) fit(ctx context.Context, opts Options, result *Result) error {
	if opts.Region.Ambiguous() {
		msg := "region (0,0)-(0,0) is treated as the whole scene"
		result.Warnings = append(result.Warnings, msg)
		opts.Logger.Warn(msg, "job", opts.label())
	}

	fit, err := ortho.Fit(result.Bounds, opts.Region, opts.GSD, opts.Convention)
	r.hooks().OnFit(ctx, opts.Input, fit.Params.ResolutionX, fit.Params.ResolutionY, err)
	if err != nil {
		return err
	}
	result.Fit = fit
	result.ImageName = ortho.ImageStem(fit) + "." + formatOrPNG(opts.Format)

	pos := fit.Placement.Position
	opts.Logger.Info("fitted camera",
		"job", opts.label(),
		"region", fit.Region.Kind,
		"camera", fmt.Sprintf("(%g, %g, %g)", pos.X, pos.Y, pos.Z),
		"ortho_scale", fit.Params.OrthoScale,
		"res_x", fit.Params.ResolutionX,
		"res_y", fit.Params.ResolutionY,
		"aspect", fmt.Sprintf("%.3f", fit.Params.AspectRatio()))
	return nil
}

// render configures a backend and writes result.Output.
func (r *Runner) render(ctx context.Context, opts Options, mesh *scene.Mesh, result *Result) error {
	b, err := NewBackend(opts, mesh)
	if err != nil {
		return err
	}
	if err := b.SetCamera(opts.Camera(result.Fit.Placement)); err != nil {
		return err
	}
	if err := b.SetRenderParams(opts.Settings(result.Fit.Params)); err != nil {
		return err
	}

	r.hooks().OnRenderStart(ctx, b.Name(), result.Output)
	start := time.Now()
	err = b.RenderTo(ctx, result.Output)
	result.Stats.RenderTime = time.Since(start)
	r.hooks().OnRenderComplete(ctx, b.Name(), result.Output, result.Stats.RenderTime, err)
	return err
}

// =============================================================================
// Scene and Bounds
// =============================================================================

// LoadScene reads the scene at input with the given convention.
func (r *Runner) LoadScene(ctx context.Context, input string, conv ortho.Convention) (*scene.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.hooks().OnLoadStart(ctx, input)
	start := time.Now()
	mesh, err := scene.Load(input, conv)

	vertices := 0
	if mesh != nil {
		vertices = len(mesh.Vertices)
	}
	r.hooks().OnLoadComplete(ctx, input, vertices, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("loaded scene",
		"input", input,
		"vertices", len(mesh.Vertices),
		"triangles", len(mesh.Triangles),
		"materials", len(mesh.Materials),
		"duration", time.Since(start))
	return mesh, nil
}

// BoundsWithCacheInfo returns the scene bounding box, loading the scene on
// a cache miss, and reports whether the cache was hit.
func (r *Runner) BoundsWithCacheInfo(ctx context.Context, opts Options) (geom.BoundingBox, bool, error) {
	key, keyErr := r.boundsKey(opts)
	if keyErr != nil {
		r.Logger.Debug("bounds cache disabled for input", "input", opts.Input, "err", keyErr)
	}

	if keyErr == nil && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var box geom.BoundingBox
			if err := json.Unmarshal(data, &box); err == nil {
				r.cacheHooks().OnCacheHit(ctx, keyTypeBounds)
				return box, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		r.cacheHooks().OnCacheMiss(ctx, keyTypeBounds)
	}

	mesh, err := r.LoadScene(ctx, opts.Input, opts.Convention)
	if err != nil {
		return geom.BoundingBox{}, false, err
	}
	box, ok := mesh.Bounds()
	if !ok {
		return geom.BoundingBox{}, false, errors.New(errors.ErrCodeMissingGeometry, "scene has no vertices")
	}
	if keyErr == nil {
		r.setBounds(ctx, key, box)
	}
	return box, false, nil
}

// Bounds is a convenience wrapper that calls BoundsWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Bounds(ctx context.Context, opts Options) (geom.BoundingBox, error) {
	box, _, err := r.BoundsWithCacheInfo(ctx, opts)
	return box, err
}

// storeBounds caches bounds computed from an already loaded mesh.
func (r *Runner) storeBounds(ctx context.Context, opts Options, box geom.BoundingBox) {
	if key, err := r.boundsKey(opts); err == nil {
		r.setBounds(ctx, key, box)
	}
}

func (r *Runner) setBounds(ctx context.Context, key string, box geom.BoundingBox) {
	data, err := json.Marshal(box)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLBounds); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	r.cacheHooks().OnCacheSet(ctx, keyTypeBounds, len(data))
}

func (r *Runner) boundsKey(opts Options) (string, error) {
	hash, err := cache.HashFile(opts.Input)
	if err != nil {
		return "", err
	}
	return r.Keyer.BoundsKey(hash, cache.BoundsKeyOpts{Convention: opts.Convention.String()}), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (r *Runner) hooks() observability.PipelineHooks {
	if r.Hooks != nil {
		return r.Hooks
	}
	return observability.Pipeline()
}

func (r *Runner) cacheHooks() observability.CacheHooks {
	return observability.Cache()
}

func formatOrPNG(format string) string {
	if format == "" {
		return "png"
	}
	return format
}

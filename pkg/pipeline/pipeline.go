// Package pipeline runs the load → fit → render workflow shared by the
// CLI, the batch runner and the HTTP API.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read the scene and compute its bounding box (cached by the
//     scene file's content hash)
//  2. Fit: resolve the region and compute camera placement and render
//     parameters with package ortho
//  3. Render: hand the camera to a backend, which writes the image
//
// Fit can run on its own; it never needs more than the bounding box.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "city/tiles.obj",
//	    GSD:     0.5,
//	    Region:  ortho.FromCorners(0, 0, 200, -100),
//	    Backend: backend.KindRaster,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Output)
//
// Batches of AOIs run in parallel with [Runner.RunBatch].
package pipeline

import (
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/ortho"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultBackend renders in process.
	DefaultBackend = backend.KindRaster

	// OutputDirName is the directory next to the input scene that
	// receives rendered images when no output directory is given.
	OutputDirName = "rendered_images"

	// DefaultWorkers is the batch parallelism when none is given.
	DefaultWorkers = 4
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one AOI.
type Options struct {
	// Name labels the job in logs and batch results.
	Name string `json:"name,omitempty"`

	// Scene options
	Input      string           `json:"input"`
	Convention ortho.Convention `json:"convention"`
	Refresh    bool             `json:"refresh,omitempty"` // Recompute cached bounds

	// Fit options
	GSD    float64      `json:"gsd"`
	Region ortho.Region `json:"region"`
	Strict bool         `json:"strict,omitempty"` // Reject ambiguous all-zero regions

	// Render options. Zero Samples, ClipStart or ClipEnd select the
	// defaults; callers that accept user input reject explicit zeros.
	Backend   string  `json:"backend,omitempty"`
	Format    string  `json:"format,omitempty"`
	Samples   int     `json:"samples,omitempty"`
	ClipStart float64 `json:"clip_start,omitempty"`
	ClipEnd   float64 `json:"clip_end,omitempty"`
	OutputDir string  `json:"output_dir,omitempty"`
	Output    string  `json:"output,omitempty"` // Explicit output file; overrides OutputDir and naming

	// Backend-specific options
	BlenderPath string `json:"blender_path,omitempty"`
	KeepScript  bool   `json:"keep_script,omitempty"`
	MaxPixels   int    `json:"max_pixels,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Name is copied from the options.
	Name string

	// Bounds is the scene bounding box the fit used.
	Bounds geom.BoundingBox

	// Fit is the camera fit.
	Fit ortho.Result

	// ImageName is the output file name derived from the fit.
	ImageName string

	// Output is the path of the written file. Empty for Fit.
	Output string

	// Backend is the backend kind that rendered. Empty for Fit.
	Backend string

	// Warnings are non-fatal diagnostics (e.g. an ambiguous region).
	Warnings []string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Vertices   int // Zero when bounds came from the cache
	Triangles  int
	LoadTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BoundsHit bool // Whether the bounding box came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForFit(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForFit checks the fields a fit needs: the scene, the GSD, the
// convention and the region.
func (o *Options) ValidateForFit() error {
	if err := errors.ValidateInputPath(o.Input, ".obj"); err != nil {
		return err
	}
	return o.validateFitParams()
}

// validateFitParams checks everything a fit needs except the scene.
func (o *Options) validateFitParams() error {
	if err := errors.ValidatePositive("gsd", o.GSD); err != nil {
		return err
	}
	if !o.Convention.Valid() {
		return errors.New(errors.ErrCodeInvalidArgument, "invalid convention %v", o.Convention)
	}
	if err := o.Region.Validate(); err != nil {
		return err
	}
	if o.Strict && o.Region.Ambiguous() {
		return ambiguousRegionError()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.Backend == "" {
		o.Backend = DefaultBackend
	}
	if o.Format == "" {
		o.Format = backend.DefaultFormat(o.Backend)
	}
	if o.Samples == 0 {
		o.Samples = ortho.DefaultSamples
	}
	if o.ClipStart == 0 {
		o.ClipStart = ortho.DefaultClipStart
	}
	if o.ClipEnd == 0 {
		o.ClipEnd = ortho.DefaultClipEnd
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender applies render defaults and checks backend, format,
// samples and clip planes.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := backend.ValidateFormat(o.Backend, o.Format); err != nil {
		return err
	}
	if o.Samples < 1 {
		return errors.New(errors.ErrCodeInvalidArgument, "samples must be at least 1, got %d", o.Samples)
	}
	if o.MaxPixels < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "max pixels must not be negative, got %d", o.MaxPixels)
	}
	return backend.Camera{
		Placement: ortho.Placement{},
		ClipStart: o.ClipStart,
		ClipEnd:   o.ClipEnd,
	}.Validate()
}

// Camera returns the backend camera for a fitted placement.
func (o *Options) Camera(p ortho.Placement) backend.Camera {
	return backend.Camera{Placement: p, ClipStart: o.ClipStart, ClipEnd: o.ClipEnd}
}

// Settings returns the backend render settings for fitted parameters.
func (o *Options) Settings(p ortho.RenderParams) backend.Settings {
	return backend.Settings{Params: p, Samples: o.Samples}
}

// OutputPath returns where the image for fit is written: Output when set,
// otherwise <OutputDir>/<image stem>.<format> with OutputDir defaulting to
// rendered_images/ next to the input.
func (o *Options) OutputPath(fit ortho.Result) string {
	if o.Output != "" {
		return o.Output
	}
	dir := o.OutputDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(o.Input), OutputDirName)
	}
	return filepath.Join(dir, ortho.ImageStem(fit)+"."+o.Format)
}

// label names the job in logs.
func (o *Options) label() string {
	switch {
	case o.Name != "":
		return o.Name
	case o.Input == "":
		return "bounds"
	}
	return filepath.Base(o.Input)
}

func ambiguousRegionError() error {
	return errors.New(errors.ErrCodeAmbiguousRegion,
		"region (0,0)-(0,0) collides with the whole-scene sentinel; omit the corners to image the whole scene")
}

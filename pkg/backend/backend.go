// Package backend defines the rendering collaborator that turns a fitted
// camera into an image.
//
// A Backend receives the camera and render settings computed by package
// ortho and writes one image per RenderTo call. Everything a backend needs
// from its host (the scene, the input file, the up-axis convention) is
// passed to its constructor; backends never look anything up globally.
//
// Three implementations exist:
//
//   - raster: a built-in software orthographic rasterizer
//   - blender: drives an external Blender process with a generated script
//   - manifest: writes a JSON description of the render instead of pixels
package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/ortho"
)

// Backend renders a scene from an orthographic nadir camera.
//
// Callers configure the camera and the render settings before each
// RenderTo. Implementations are not safe for concurrent use; create one
// backend per job.
type Backend interface {
	// Name returns the backend kind, e.g. "raster".
	Name() string

	// SetCamera makes cam the active orthographic camera.
	SetCamera(cam Camera) error

	// SetRenderParams sets output resolution, ortho scale and samples.
	SetRenderParams(s Settings) error

	// RenderTo renders the scene and writes the result to path. Parent
	// directories are created as needed.
	RenderTo(ctx context.Context, path string) error
}

// Camera is an orthographic camera placement with its clip planes.
type Camera struct {
	Placement ortho.Placement
	ClipStart float64
	ClipEnd   float64
}

// NewCamera returns a camera at p with the default clip planes.
func NewCamera(p ortho.Placement) Camera {
	return Camera{
		Placement: p,
		ClipStart: ortho.DefaultClipStart,
		ClipEnd:   ortho.DefaultClipEnd,
	}
}

// Validate checks the clip planes and the placement.
func (c Camera) Validate() error {
	if err := errors.ValidatePositive("clip start", c.ClipStart); err != nil {
		return err
	}
	if err := errors.ValidateFinite("clip end", c.ClipEnd); err != nil {
		return err
	}
	if c.ClipEnd <= c.ClipStart {
		return errors.New(errors.ErrCodeInvalidArgument,
			"clip end (%g) must be greater than clip start (%g)", c.ClipEnd, c.ClipStart)
	}
	pos, rot := c.Placement.Position, c.Placement.Rotation
	for _, v := range []float64{pos.X, pos.Y, pos.Z, rot.X, rot.Y, rot.Z} {
		if err := errors.ValidateFinite("camera placement", v); err != nil {
			return err
		}
	}
	return nil
}

// Settings are the image parameters of a render.
type Settings struct {
	Params  ortho.RenderParams
	Samples int
}

// NewSettings returns settings for p with the default sample count.
func NewSettings(p ortho.RenderParams) Settings {
	return Settings{Params: p, Samples: ortho.DefaultSamples}
}

// Validate checks resolution, scale and samples.
func (s Settings) Validate() error {
	if s.Params.ResolutionX <= 0 || s.Params.ResolutionY <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument,
			"resolution must be positive, got %dx%d", s.Params.ResolutionX, s.Params.ResolutionY)
	}
	if err := errors.ValidatePositive("ortho scale", s.Params.OrthoScale); err != nil {
		return err
	}
	if s.Samples < 1 {
		return errors.New(errors.ErrCodeInvalidArgument, "samples must be at least 1, got %d", s.Samples)
	}
	return nil
}

// =============================================================================
// Kinds and Formats
// =============================================================================

// Backend kinds.
const (
	KindRaster   = "raster"
	KindBlender  = "blender"
	KindManifest = "manifest"
)

// Kinds lists the supported backend kinds, default first.
var Kinds = []string{KindRaster, KindBlender, KindManifest}

// formats maps each backend kind to the output formats it writes, default
// first.
var formats = map[string][]string{
	KindRaster:   {"png", "webp"},
	KindBlender:  {"png"},
	KindManifest: {"json"},
}

// ValidKind reports whether kind names a supported backend.
func ValidKind(kind string) bool {
	_, ok := formats[kind]
	return ok
}

// Formats returns the output formats supported by kind.
func Formats(kind string) []string {
	return formats[kind]
}

// DefaultFormat returns the default output format for kind, or "" for an
// unknown kind.
func DefaultFormat(kind string) string {
	if f := formats[kind]; len(f) > 0 {
		return f[0]
	}
	return ""
}

// ValidateFormat checks that kind can write format.
func ValidateFormat(kind, format string) error {
	if !ValidKind(kind) {
		return errors.New(errors.ErrCodeInvalidBackend,
			"unknown backend %q (must be one of %s)", kind, strings.Join(Kinds, ", "))
	}
	for _, f := range formats[kind] {
		if f == format {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidFormat,
		"backend %s cannot write %q (supported: %s)", kind, format, strings.Join(formats[kind], ", "))
}

// PrepareOutput creates the parent directory of path.
func PrepareOutput(path string) error {
	if path == "" {
		return errors.New(errors.ErrCodeInvalidPath, "output path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
	}
	return nil
}

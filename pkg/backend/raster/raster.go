// Package raster is a software orthographic renderer for triangle meshes.
//
// It draws every triangle in its material's diffuse colour without
// lighting, depth-tested from an unrotated camera looking straight down
// the Z axis. Fragments outside the camera's clip range are dropped. The
// render samples are spent on supersampling: the frame is drawn at
// round(sqrt(samples)) times the output resolution and filtered down with
// golang.org/x/image/draw.
//
// Output format follows the file extension: .png or .webp.
package raster

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/scene"
)

const (
	// DefaultMaxPixels bounds the supersampled frame. At 12 bytes per
	// pixel (colour plus depth) this is about 400 MiB.
	DefaultMaxPixels = 1 << 25

	// maxSupersample caps the per-axis supersampling factor.
	maxSupersample = 4

	// cancelCheckInterval is how many triangles are drawn between
	// context checks.
	cancelCheckInterval = 4096
)

// Options configures a raster Backend.
type Options struct {
	// MaxPixels bounds the supersampled frame. Supersampling is reduced
	// to fit; a frame that does not fit even without it is an error.
	MaxPixels int

	// Background fills pixels no triangle covers. The zero value is
	// transparent.
	Background color.NRGBA

	Logger *log.Logger
}

// Backend renders a [scene.Mesh] in process.
type Backend struct {
	mesh     *scene.Mesh
	opts     Options
	camera   *backend.Camera
	settings *backend.Settings
}

// New creates a raster backend for mesh.
func New(mesh *scene.Mesh, opts Options) *Backend {
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Backend{mesh: mesh, opts: opts}
}

// Name returns "raster".
func (b *Backend) Name() string { return backend.KindRaster }

// SetCamera sets the active camera. Only unrotated cameras are supported.
func (b *Backend) SetCamera(cam backend.Camera) error {
	if err := cam.Validate(); err != nil {
		return err
	}
	if cam.Placement.Rotation != (geom.Vector3{}) {
		return errors.New(errors.ErrCodeUnsupported,
			"raster backend only renders unrotated nadir cameras, got rotation %v", cam.Placement.Rotation)
	}
	b.camera = &cam
	return nil
}

// SetRenderParams sets the output resolution, ortho scale and samples.
func (b *Backend) SetRenderParams(s backend.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Params.PixelCount() > b.opts.MaxPixels {
		return errors.New(errors.ErrCodeInvalidArgument,
			"image of %dx%d pixels exceeds the raster budget of %d pixels",
			s.Params.ResolutionX, s.Params.ResolutionY, b.opts.MaxPixels)
	}
	b.settings = &s
	return nil
}

// Render draws the scene and returns the image at the output resolution.
func (b *Backend) Render(ctx context.Context) (*image.NRGBA, error) {
	if b.camera == nil || b.settings == nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "camera and render params must be set before rendering")
	}
	if b.mesh == nil {
		return nil, errors.New(errors.ErrCodeMissingGeometry, "no scene loaded")
	}

	resX, resY := b.settings.Params.ResolutionX, b.settings.Params.ResolutionY
	ss := supersampleFactor(b.settings.Samples, resX*resY, b.opts.MaxPixels)
	w, h := resX*ss, resY*ss

	b.opts.Logger.Debug("rasterizing",
		"triangles", len(b.mesh.Triangles),
		"width", w,
		"height", h,
		"supersample", ss)

	fb := newFrameBuffer(w, h, b.opts.Background)
	proj := newProjection(*b.camera, b.settings.Params.OrthoScale, w, h)

	screen := make([]screenVertex, len(b.mesh.Vertices))
	for i, v := range b.mesh.Vertices {
		screen[i] = proj.apply(v)
	}

	for i, tri := range b.mesh.Triangles {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rasterizeTriangle(fb,
			screen[tri.V[0]], screen[tri.V[1]], screen[tri.V[2]],
			b.mesh.ColorOf(tri),
			b.camera.ClipStart, b.camera.ClipEnd)
	}

	return downsample(fb.image(), resX, resY), nil
}

// RenderTo renders and encodes the image to path.
func (b *Backend) RenderTo(ctx context.Context, path string) error {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}
	img, err := b.Render(ctx)
	if err != nil {
		return err
	}
	if err := backend.PrepareOutput(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBackend, err, "create %s", path)
	}
	if err := encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrap(errors.ErrCodeBackend, err, "encode %s", filepath.Base(path))
	}
	return f.Close()
}

// encoderFor selects the image encoder from the path extension.
func encoderFor(path string) (func(io.Writer, image.Image) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode, nil
	case ".webp":
		return func(w io.Writer, img image.Image) error {
			return nativewebp.Encode(w, img, nil)
		}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "raster backend writes .png or .webp, got %q", filepath.Ext(path))
}

// supersampleFactor is round(sqrt(samples)) clamped to [1, maxSupersample]
// and reduced until the supersampled frame fits in budget.
func supersampleFactor(samples, pixels, budget int) int {
	ss := int(math.Round(math.Sqrt(float64(samples))))
	if ss > maxSupersample {
		ss = maxSupersample
	}
	for ss > 1 && pixels*ss*ss > budget {
		ss--
	}
	if ss < 1 {
		ss = 1
	}
	return ss
}

// projection maps world points to supersampled pixel space. The view is
// centered on the camera; the larger image axis spans orthoScale world
// units.
type projection struct {
	cx, cy, cz float64
	ppu        float64
	halfW      float64
	halfH      float64
}

func newProjection(cam backend.Camera, orthoScale float64, w, h int) projection {
	pos := cam.Placement.Position
	return projection{
		cx:    pos.X,
		cy:    pos.Y,
		cz:    pos.Z,
		ppu:   float64(max(w, h)) / orthoScale,
		halfW: float64(w) / 2,
		halfH: float64(h) / 2,
	}
}

func (p projection) apply(v geom.Vector3) screenVertex {
	return screenVertex{
		x: p.halfW + (v.X-p.cx)*p.ppu,
		y: p.halfH - (v.Y-p.cy)*p.ppu,
		d: p.cz - v.Z,
	}
}

// Ensure Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

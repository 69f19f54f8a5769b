// Package manifest is a dry-run backend. Instead of an image it writes a
// JSON document describing the render that would have happened, which is
// useful for inspecting batch jobs and for handing the fit to another
// renderer.
package manifest

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/ortho"
)

// Manifest is the document written by RenderTo.
type Manifest struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Input      string    `json:"input"`
	Convention string    `json:"convention"`
	Camera     Camera    `json:"camera"`
	Render     Render    `json:"render"`
}

// Camera describes the orthographic camera.
type Camera struct {
	Type      string       `json:"type"`
	Position  geom.Vector3 `json:"position"`
	Rotation  geom.Vector3 `json:"rotation_deg"`
	ClipStart float64      `json:"clip_start"`
	ClipEnd   float64      `json:"clip_end"`
}

// Render describes the image settings.
type Render struct {
	OrthoScale  float64 `json:"ortho_scale"`
	ResolutionX int     `json:"resolution_x"`
	ResolutionY int     `json:"resolution_y"`
	Samples     int     `json:"samples"`
}

// Backend writes render manifests.
type Backend struct {
	input    string
	conv     ortho.Convention
	camera   *backend.Camera
	settings *backend.Settings

	now func() time.Time
}

// New creates a manifest backend for the scene at input.
func New(input string, conv ortho.Convention) *Backend {
	return &Backend{input: input, conv: conv, now: time.Now}
}

// Name returns "manifest".
func (b *Backend) Name() string { return backend.KindManifest }

func (b *Backend) SetCamera(cam backend.Camera) error {
	if err := cam.Validate(); err != nil {
		return err
	}
	b.camera = &cam
	return nil
}

func (b *Backend) SetRenderParams(s backend.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	b.settings = &s
	return nil
}

// Manifest builds the document without writing it.
func (b *Backend) Manifest() (*Manifest, error) {
	if b.camera == nil || b.settings == nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "camera and render params must be set before rendering")
	}
	return &Manifest{
		ID:         uuid.NewString(),
		CreatedAt:  b.now().UTC(),
		Input:      b.input,
		Convention: b.conv.String(),
		Camera: Camera{
			Type:      "ORTHO",
			Position:  b.camera.Placement.Position,
			Rotation:  b.camera.Placement.Rotation,
			ClipStart: b.camera.ClipStart,
			ClipEnd:   b.camera.ClipEnd,
		},
		Render: Render{
			OrthoScale:  b.settings.Params.OrthoScale,
			ResolutionX: b.settings.Params.ResolutionX,
			ResolutionY: b.settings.Params.ResolutionY,
			Samples:     b.settings.Samples,
		},
	}, nil
}

// RenderTo writes the manifest as indented JSON to path.
func (b *Backend) RenderTo(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := b.Manifest()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode manifest")
	}
	if err := backend.PrepareOutput(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeBackend, err, "write manifest")
	}
	return nil
}

// Ensure Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/ortho"
)

func TestRenderToWritesManifest(t *testing.T) {
	b := New("city.obj", ortho.YUp)
	b.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	if err := b.SetCamera(backend.NewCamera(ortho.Placement{Position: geom.Vec(10, 5, 5.5)})); err != nil {
		t.Fatal(err)
	}
	params := ortho.RenderParams{OrthoScale: 20, ResolutionX: 40, ResolutionY: 20}
	if err := b.SetRenderParams(backend.Settings{Params: params, Samples: 16}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "rendered_images", "job.json")
	if err := b.RenderTo(context.Background(), path); err != nil {
		t.Fatalf("RenderTo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if _, err := uuid.Parse(m.ID); err != nil {
		t.Errorf("ID %q is not a UUID", m.ID)
	}
	if !m.CreatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", m.CreatedAt)
	}
	if m.Input != "city.obj" || m.Convention != "y-up" {
		t.Errorf("input/convention = %q/%q", m.Input, m.Convention)
	}
	if m.Camera.Type != "ORTHO" || m.Camera.Position != geom.Vec(10, 5, 5.5) {
		t.Errorf("camera = %+v", m.Camera)
	}
	if m.Camera.ClipStart != ortho.DefaultClipStart || m.Camera.ClipEnd != ortho.DefaultClipEnd {
		t.Errorf("clip = %g/%g", m.Camera.ClipStart, m.Camera.ClipEnd)
	}
	want := Render{OrthoScale: 20, ResolutionX: 40, ResolutionY: 20, Samples: 16}
	if m.Render != want {
		t.Errorf("render = %+v, want %+v", m.Render, want)
	}
}

func TestManifestRequiresConfiguration(t *testing.T) {
	err := New("a.obj", ortho.ZUp).RenderTo(context.Background(), filepath.Join(t.TempDir(), "a.json"))
	if !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("err = %v, want INVALID_ARGUMENT", err)
	}
}

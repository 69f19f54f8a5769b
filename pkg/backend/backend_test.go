package backend

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/ortho"
)

func TestCameraValidate(t *testing.T) {
	place := ortho.Placement{Position: geom.Vec(10, 5, 5.5)}

	tests := []struct {
		name    string
		cam     Camera
		wantErr bool
	}{
		{"defaults", NewCamera(place), false},
		{"zero clip start", Camera{Placement: place, ClipStart: 0, ClipEnd: 10}, true},
		{"end before start", Camera{Placement: place, ClipStart: 5, ClipEnd: 1}, true},
		{"infinite end", Camera{Placement: place, ClipStart: 0.1, ClipEnd: math.Inf(1)}, true},
		{"nan position", NewCamera(ortho.Placement{Position: geom.Vec(math.NaN(), 0, 0)}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cam.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidArgument) {
				t.Errorf("code = %s, want INVALID_ARGUMENT", errors.GetCode(err))
			}
		})
	}
}

func TestSettingsValidate(t *testing.T) {
	params := ortho.RenderParams{OrthoScale: 100, ResolutionX: 200, ResolutionY: 100}

	if err := NewSettings(params).Validate(); err != nil {
		t.Errorf("default settings: %v", err)
	}
	if NewSettings(params).Samples != ortho.DefaultSamples {
		t.Error("NewSettings should use the default sample count")
	}

	bad := []Settings{
		{Params: ortho.RenderParams{OrthoScale: 100, ResolutionX: 0, ResolutionY: 100}, Samples: 1},
		{Params: ortho.RenderParams{OrthoScale: 0, ResolutionX: 10, ResolutionY: 10}, Samples: 1},
		{Params: params, Samples: 0},
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		kind, format string
		code         errors.Code
	}{
		{KindRaster, "png", ""},
		{KindRaster, "webp", ""},
		{KindBlender, "png", ""},
		{KindBlender, "webp", errors.ErrCodeInvalidFormat},
		{KindManifest, "json", ""},
		{"povray", "png", errors.ErrCodeInvalidBackend},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.format, func(t *testing.T) {
			err := ValidateFormat(tt.kind, tt.format)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestDefaultFormat(t *testing.T) {
	for _, kind := range Kinds {
		if DefaultFormat(kind) == "" {
			t.Errorf("kind %s has no default format", kind)
		}
	}
	if DefaultFormat("nope") != "" {
		t.Error("unknown kind should have no default format")
	}
}

func TestPrepareOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rendered_images", "nested", "out.png")
	if err := PrepareOutput(path); err != nil {
		t.Fatalf("PrepareOutput: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Errorf("parent directory not created: %v", err)
	}
	if err := PrepareOutput(""); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("empty path: err = %v", err)
	}
}

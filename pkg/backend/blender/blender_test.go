package blender

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/ortho"
)

func configured(t *testing.T, conv ortho.Convention, opts Options) *Backend {
	t.Helper()
	b := New("scenes/city.obj", conv, opts)
	cam := backend.NewCamera(ortho.Placement{Position: geom.Vec(50, 25, 11)})
	if err := b.SetCamera(cam); err != nil {
		t.Fatalf("SetCamera: %v", err)
	}
	params := ortho.RenderParams{OrthoScale: 100, ResolutionX: 200, ResolutionY: 100}
	if err := b.SetRenderParams(backend.NewSettings(params)); err != nil {
		t.Fatalf("SetRenderParams: %v", err)
	}
	return b
}

// scriptFor renders the script for b's own input path.
func scriptFor(b *Backend, output string) ([]byte, error) {
	return b.script(b.input, output)
}

func TestScriptContent(t *testing.T) {
	script, err := scriptFor(configured(t, ortho.ZUp, Options{}), "/tmp/out/ortho.png")
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	s := string(script)

	for _, want := range []string{
		`INPUT = "scenes/city.obj"`,
		`OUTPUT = "/tmp/out/ortho.png"`,
		`location=(50.0, 25.0, 11.0)`,
		`rotation=(0.0, 0.0, 0.0)`,
		`camera.data.type = 'ORTHO'`,
		`camera.data.clip_start = 0.1`,
		`camera.data.clip_end = 10000.0`,
		`camera.data.ortho_scale = 100.0`,
		`scene.render.engine = 'CYCLES'`,
		`scene.render.resolution_x = 200`,
		`scene.render.resolution_y = 100`,
		`scene.cycles.samples = 8`,
		`forward_axis='Y', up_axis='Z'`,
		`axis_forward='Y', axis_up='Z'`,
		`bpy.ops.render.render(write_still=True)`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestScriptYUpUsesImporterDefaults(t *testing.T) {
	script, err := scriptFor(configured(t, ortho.YUp, Options{}), "out.png")
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	s := string(script)
	if strings.Contains(s, "up_axis") || strings.Contains(s, "axis_up") {
		t.Error("Y-up import should use the importer's default axes")
	}
	if !strings.Contains(s, "bpy.ops.import_scene.obj(filepath=INPUT)") {
		t.Error("Y-up script should import with filepath only")
	}
}

func TestScriptQuotesPaths(t *testing.T) {
	b := New(`C:\scans\"odd".obj`, ortho.ZUp, Options{})
	_ = b.SetCamera(backend.NewCamera(ortho.Placement{Position: geom.Vec(0, 0, 1)}))
	_ = b.SetRenderParams(backend.NewSettings(ortho.RenderParams{OrthoScale: 1, ResolutionX: 2, ResolutionY: 2}))

	script, err := scriptFor(b, "out.png")
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	if !strings.Contains(string(script), `INPUT = "C:\\scans\\\"odd\".obj"`) {
		t.Errorf("input path not escaped:\n%s", script)
	}
}

func TestScriptRequiresConfiguration(t *testing.T) {
	if _, err := scriptFor(New("a.obj", ortho.ZUp, Options{}), "out.png"); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestSetRenderParamsLimit(t *testing.T) {
	b := New("a.obj", ortho.ZUp, Options{})
	s := backend.NewSettings(ortho.RenderParams{OrthoScale: 1, ResolutionX: MaxResolution + 1, ResolutionY: 1})
	if err := b.SetRenderParams(s); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestPyFloat(t *testing.T) {
	tests := map[float64]string{
		0:      "0.0",
		0.1:    "0.1",
		-12:    "-12.0",
		1e21:   "1e+21",
		2.5e-7: "2.5e-07",
	}
	for in, want := range tests {
		if got := pyFloat(in); got != want {
			t.Errorf("pyFloat(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTail(t *testing.T) {
	if got := tail("a\nb\nc\n", 2); got != "b\nc" {
		t.Errorf("tail = %q", got)
	}
	if got := tail("only", 5); got != "only" {
		t.Errorf("tail = %q", got)
	}
}

// fakeBlender writes an executable shell script standing in for Blender.
// The generated render script is the sixth argument.
func fakeBlender(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake blender needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "blender")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderToRunsBlender(t *testing.T) {
	bin := fakeBlender(t, `out=$(sed -n 's/^OUTPUT = "\(.*\)"$/\1/p' "$6")
printf 'png' > "$out"
`)
	scripts := t.TempDir()
	b := configured(t, ortho.ZUp, Options{Binary: bin, ScriptDir: scripts, KeepScript: true})

	out := filepath.Join(t.TempDir(), "rendered_images", "ortho.png")
	if err := b.RenderTo(context.Background(), out); err != nil {
		t.Fatalf("RenderTo: %v", err)
	}
	if data, err := os.ReadFile(out); err != nil || string(data) != "png" {
		t.Errorf("output = %q, %v", data, err)
	}

	kept, _ := filepath.Glob(filepath.Join(scripts, "nadir-*.py"))
	if len(kept) != 1 {
		t.Errorf("KeepScript: found %d scripts, want 1", len(kept))
	}
}

func TestRenderToRemovesScript(t *testing.T) {
	bin := fakeBlender(t, `out=$(sed -n 's/^OUTPUT = "\(.*\)"$/\1/p' "$6")
printf 'png' > "$out"
`)
	scripts := t.TempDir()
	b := configured(t, ortho.ZUp, Options{Binary: bin, ScriptDir: scripts})
	if err := b.RenderTo(context.Background(), filepath.Join(t.TempDir(), "ortho.png")); err != nil {
		t.Fatalf("RenderTo: %v", err)
	}
	if kept, _ := filepath.Glob(filepath.Join(scripts, "*.py")); len(kept) != 0 {
		t.Errorf("script not removed: %v", kept)
	}
}

func TestRenderToFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"python error", "echo 'Traceback: boom' >&2\nexit 1\n", "Traceback: boom"},
		{"no image written", "echo 'Blender quit'\nexit 0\n", "without writing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := configured(t, ortho.ZUp, Options{Binary: fakeBlender(t, tt.body), ScriptDir: t.TempDir()})
			err := b.RenderTo(context.Background(), filepath.Join(t.TempDir(), "ortho.png"))
			if !errors.Is(err, errors.ErrCodeBackend) {
				t.Fatalf("err = %v, want BACKEND_ERROR", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRenderToMissingBinary(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "no-such-blender")
	b := configured(t, ortho.ZUp, Options{Binary: bin, ScriptDir: t.TempDir()})
	err := b.RenderTo(context.Background(), filepath.Join(t.TempDir(), "ortho.png"))
	if !errors.Is(err, errors.ErrCodeBackend) || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want BACKEND_ERROR mentioning not found", err)
	}
}

func TestRenderToRejectsNonPNG(t *testing.T) {
	b := configured(t, ortho.ZUp, Options{})
	if err := b.RenderTo(context.Background(), "out.webp"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

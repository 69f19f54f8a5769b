package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/ortho"
	"github.com/matzehuels/nadir/pkg/pipeline"
)

// sceneOBJ is a 20 × 10 plate rising to z = 5 along y.
const sceneOBJ = `v 0 0 0
v 20 0 0
v 20 10 5
v 0 10 5
f 1 2 3 4
`

// setup isolates the cache and writes the test scene. It returns the
// scene path.
func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("NADIR_CACHE_URL", "")

	path := filepath.Join(t.TempDir(), "plate.obj")
	if err := os.WriteFile(path, []byte(sceneOBJ), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the CLI with args and returns what commands wrote to their
// output stream.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := map[string]bool{"fit": false, "render": false, "batch": false, "serve": false, "cache": false, "completion": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestFitFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		want          ortho.Region
		wantAmbiguous bool
	}{
		{"no corners", nil, ortho.Whole(), false},
		{"y negated", []string{"-x", "100", "-y", "50", "-X", "300", "-Y", "200"}, ortho.Rect(100, -50, 300, -200), false},
		{"zero y keeps sign", []string{"-x", "0", "-y", "0", "-X", "10", "-Y", "5"}, ortho.Rect(0, 0, 10, 5), false},
		{"long names", []string{"--x1", "1", "--y1", "2", "--x2", "3", "--y2", "4"}, ortho.Rect(1, -2, 3, -4), false},
		{"explicit zeros", []string{"-x", "0"}, ortho.Rect(0, 0, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			var f fitFlags
			f.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			opts, err := f.options(cmd, []string{"a.obj"})
			if err != nil {
				t.Fatal(err)
			}
			if opts.Region != tt.want {
				t.Errorf("region = %+v, want %+v", opts.Region, tt.want)
			}
			if opts.Region.Ambiguous() != tt.wantAmbiguous {
				t.Errorf("Ambiguous() = %v", opts.Region.Ambiguous())
			}
			if opts.GSD != 0.5 || opts.Convention != ortho.ZUp {
				t.Errorf("defaults: gsd %g convention %v", opts.GSD, opts.Convention)
			}
		})
	}
}

func TestFitFlagsConvention(t *testing.T) {
	tests := []struct {
		args    []string
		want    ortho.Convention
		wantErr bool
	}{
		{nil, ortho.ZUp, false},
		{[]string{"-z", "False"}, ortho.YUp, false},
		{[]string{"-z", "TRUE"}, ortho.ZUp, false},
		{[]string{"-z=false"}, ortho.YUp, false},
		{[]string{"--z-up", "y-up"}, ortho.YUp, false},
		{[]string{"-z", "sideways"}, ortho.ZUp, true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			var f fitFlags
			f.register(cmd)
			err := cmd.ParseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFlags error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			opts, err := f.options(cmd, []string{"a.obj"})
			if err != nil {
				t.Fatal(err)
			}
			if opts.Convention != tt.want {
				t.Errorf("convention = %v, want %v", opts.Convention, tt.want)
			}
		})
	}
}

func TestRenderFlagsRejectExplicitZero(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr bool
	}{
		{nil, false},
		{[]string{"--samples", "16", "--clip-start", "0.5"}, false},
		{[]string{"--samples", "0"}, true},
		{[]string{"--clip-start", "0"}, true},
		{[]string{"--clip-end", "-1"}, true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			var f renderFlags
			f.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			var opts pipeline.Options
			err := f.apply(cmd, &opts)
			if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidArgument) {
				t.Errorf("err = %v, want INVALID_ARGUMENT", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestFitFlagsInput(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		args    []string
		want    string
		wantErr bool
	}{
		{"argument", nil, []string{"a.obj"}, "a.obj", false},
		{"path flag", []string{"-p", "b.obj"}, nil, "b.obj", false},
		{"same twice", []string{"-p", "a.obj"}, []string{"a.obj"}, "a.obj", false},
		{"conflict", []string{"-p", "b.obj"}, []string{"a.obj"}, "", true},
		{"missing", nil, nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			var f fitFlags
			f.register(cmd)
			if err := cmd.ParseFlags(tt.flags); err != nil {
				t.Fatal(err)
			}
			got, err := f.input(tt.args)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("input = %q, %v; want %q, wantErr %v", got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestFitCommandJSON(t *testing.T) {
	scene := setup(t)

	out, err := execute(t, "fit", scene, "-g", "0.5", "--json")
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	var got fitOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Position != [3]float64{10, 5, 5.5} || got.ResolutionX != 40 || got.ResolutionY != 20 {
		t.Errorf("fit = %+v", got)
	}
	if got.ImageName != "ortho_image_40_20_gsd_0.5_loc_default_z_True.png" || got.Cached {
		t.Errorf("image/cached = %s/%v", got.ImageName, got.Cached)
	}

	// The second run reads the bounds from the file cache.
	out, err = execute(t, "fit", "-p", scene, "--json")
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Cached {
		t.Error("second fit should use cached bounds")
	}
}

func TestFitCommandText(t *testing.T) {
	scene := setup(t)

	out, err := execute(t, "fit", scene, "-x", "0", "-y", "0", "-X", "10", "-Y", "5")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Fitted camera for " + scene, "(0, 0) - (10, 5)", "20 × 10", "fresh bounds"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestFitCommandYUp(t *testing.T) {
	scene := setup(t)

	out, err := execute(t, "fit", scene, "-z", "False", "--json")
	if err != nil {
		t.Fatalf("fit -z False: %v", err)
	}
	var got fitOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	// Y-up: file (x, y, z) is world (x, -z, y), so the plate spans
	// 20 × 5 on the ground and 10 in height.
	if got.ResolutionX != 40 || got.ResolutionY != 10 {
		t.Errorf("resolution = %dx%d, want 40x10", got.ResolutionX, got.ResolutionY)
	}
	if !strings.HasSuffix(got.ImageName, "_z_False.png") {
		t.Errorf("image name = %s", got.ImageName)
	}
}

func TestFitCommandStrict(t *testing.T) {
	scene := setup(t)

	out, err := execute(t, "fit", scene, "-x", "0", "-y", "0", "-X", "0", "-Y", "0", "--json")
	if err != nil {
		t.Fatalf("non-strict fit: %v", err)
	}
	if !strings.Contains(out, "warnings") {
		t.Errorf("expected a warning in %s", out)
	}

	_, err = execute(t, "fit", scene, "-x", "0", "--strict")
	if !errors.Is(err, errors.ErrCodeAmbiguousRegion) {
		t.Errorf("strict fit: err = %v, want AMBIGUOUS_REGION", err)
	}
}

func TestRenderCommand(t *testing.T) {
	scene := setup(t)
	outDir := t.TempDir()

	if _, err := execute(t, "render", scene, "--samples", "1", "--output-dir", outDir, "--no-cache"); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := filepath.Join(outDir, "ortho_image_40_20_gsd_0.5_loc_default_z_True.png")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected %s: %v", want, err)
	}

	if _, err := execute(t, "render", scene, "--backend", "povray"); !errors.Is(err, errors.ErrCodeInvalidBackend) {
		t.Errorf("unknown backend: err = %v", err)
	}
	if _, err := execute(t, "render", scene, "--samples", "0", "--no-cache"); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("explicit zero samples: err = %v", err)
	}
}

func TestBatchCommand(t *testing.T) {
	scene := setup(t)
	dir := filepath.Dir(scene)
	job := `input = "plate.obj"
gsd = 1.0
backend = "manifest"
output_dir = "out"

[[aoi]]
name = "west"
x1 = 0.0
y1 = 0.0
x2 = 10.0
y2 = 10.0

[[aoi]]
name = "all"
`
	jobPath := filepath.Join(dir, "job.toml")
	if err := os.WriteFile(jobPath, []byte(job), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "batch", jobPath, "-j", "2"); err != nil {
		t.Fatalf("batch: %v", err)
	}
	for _, name := range []string{
		"ortho_image_10_10_gsd_1.0_loc_x1y1x2y2_0.0_0.0_10.0_10.0_z_True.json",
		"ortho_image_20_10_gsd_1.0_loc_default_z_True.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, "out", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	bad := job + "\n[[aoi]]\nname = \"thin\"\nx1 = 3.0\nx2 = 3.0\ny1 = 1.0\ny2 = 2.0\n"
	if err := os.WriteFile(jobPath, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "batch", jobPath); err == nil || !strings.Contains(err.Error(), "1 of 3 AOIs failed") {
		t.Errorf("batch with failing AOI: err = %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	scene := setup(t)

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	dir := strings.TrimSpace(out)
	if dir != filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName) {
		t.Errorf("cache path = %s", dir)
	}

	if _, err := execute(t, "fit", scene); err != nil {
		t.Fatal(err)
	}
	if n := countFiles(t, dir); n == 0 {
		t.Fatal("fit should have cached the scene bounds")
	}
	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if n := countFiles(t, dir); n != 0 {
		t.Errorf("%d files left after cache clear", n)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	if dir, _ := cacheDir(); dir != filepath.Join("/tmp/xdg", appName) {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %s", dir)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if dir, _ := cacheDir(); dir != filepath.Join(home, ".cache", appName) {
		t.Errorf("cacheDir() = %s", dir)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

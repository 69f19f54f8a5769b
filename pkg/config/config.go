// Package config reads batch job files.
//
// A job file is TOML. Top-level keys describe the scene and the render
// settings shared by every area of interest; each [[aoi]] table adds one
// image:
//
//	input = "tiles.obj"
//	gsd = 0.5
//	z_up = true
//	backend = "raster"
//	output_dir = "out"
//	workers = 4
//
//	[[aoi]]
//	name = "harbour"
//	x1 = 120.0
//	y1 = 40.0
//	x2 = 380.0
//	y2 = 210.0
//
//	[[aoi]]
//	name = "overview"
//	gsd = 2.0
//
// A missing gsd defaults to 0.5 and missing render settings take the
// pipeline defaults. A key that is present must be valid: gsd = 0 or
// samples = 0 is an error, not a request for the default.
//
// An [[aoi]] without corners images the whole scene. Y corners follow the
// same rule as the command line: both are negated when both are non-zero.
// A job file without any [[aoi]] renders the whole scene once.
//
// Relative input and output paths are resolved against the directory of
// the job file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/ortho"
	"github.com/matzehuels/nadir/pkg/pipeline"
)

// DefaultGSD is the ground sample distance used when a job file sets none.
const DefaultGSD = 0.5

// Job is a parsed job file. Pointer fields distinguish a key that is
// absent (nil, use the default) from one set to zero (an error).
type Job struct {
	Input     string   `toml:"input"`
	GSD       *float64 `toml:"gsd"`
	ZUp       *bool    `toml:"z_up"`
	Strict    bool     `toml:"strict"`
	Backend   string   `toml:"backend"`
	Format    string   `toml:"format"`
	Samples   *int     `toml:"samples"`
	ClipStart *float64 `toml:"clip_start"`
	ClipEnd   *float64 `toml:"clip_end"`
	OutputDir string   `toml:"output_dir"`
	Blender   string   `toml:"blender"`
	Workers   int      `toml:"workers"`
	AOIs      []AOI    `toml:"aoi"`
}

// AOI is one area of interest. Nil corners are zero; an AOI with no
// corners at all is the whole scene.
type AOI struct {
	Name   string   `toml:"name"`
	X1     *float64 `toml:"x1"`
	Y1     *float64 `toml:"y1"`
	X2     *float64 `toml:"x2"`
	Y2     *float64 `toml:"y2"`
	GSD    *float64 `toml:"gsd"`    // Overrides the job GSD
	Output string   `toml:"output"` // Explicit output file
}

// Load reads and validates the job file at path, with defaults applied
// and relative paths resolved against its directory.
func Load(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "job file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open job file")
	}
	defer f.Close()

	job, err := Parse(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	job.resolvePaths(filepath.Dir(path))
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// Parse decodes a job file from r and applies defaults. Unknown keys are
// rejected so that typos do not silently fall back to defaults. name is
// used in error messages.
func Parse(r io.Reader, name string) (*Job, error) {
	var job Job
	md, err := toml.NewDecoder(r).Decode(&job)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", name)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", name, strings.Join(keys, ", "))
	}
	job.SetDefaults()
	return &job, nil
}

// SetDefaults fills in unset top-level values.
func (j *Job) SetDefaults() {
	if j.GSD == nil {
		gsd := DefaultGSD
		j.GSD = &gsd
	}
	if j.ZUp == nil {
		zUp := true
		j.ZUp = &zUp
	}
	if j.Backend == "" {
		j.Backend = pipeline.DefaultBackend
	}
	if j.Workers == 0 {
		j.Workers = pipeline.DefaultWorkers
	}
}

// Validate checks the job-level settings and AOI names. Per-AOI fit and
// render settings are validated by the pipeline when each job runs.
func (j *Job) Validate() error {
	if j.Input == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "input is required")
	}
	if err := positive("gsd", j.GSD); err != nil {
		return err
	}
	if j.Samples != nil && *j.Samples < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "samples must be at least 1, got %d", *j.Samples)
	}
	if err := positive("clip_start", j.ClipStart); err != nil {
		return err
	}
	if err := positive("clip_end", j.ClipEnd); err != nil {
		return err
	}
	if !backend.ValidKind(j.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown backend %q (want one of %s)",
			j.Backend, strings.Join(backend.Kinds, ", "))
	}
	if j.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must not be negative, got %d", j.Workers)
	}

	seen := make(map[string]int, len(j.AOIs))
	for i, a := range j.AOIs {
		if err := positive("aoi "+a.label(i)+": gsd", a.GSD); err != nil {
			return err
		}
		if a.Name == "" {
			continue
		}
		if prev, ok := seen[a.Name]; ok {
			return errors.New(errors.ErrCodeInvalidConfig, "aoi %d: duplicate name %q (also aoi %d)", i+1, a.Name, prev+1)
		}
		seen[a.Name] = i
	}
	return nil
}

// Convention returns the up-axis convention of the scene.
func (j *Job) Convention() ortho.Convention {
	return ortho.ConventionFromZUp(j.ZUp == nil || *j.ZUp)
}

// Jobs expands the job file into one pipeline.Options per AOI.
func (j *Job) Jobs() []pipeline.Options {
	aois := j.AOIs
	if len(aois) == 0 {
		aois = []AOI{{}}
	}

	jobs := make([]pipeline.Options, len(aois))
	for i, a := range aois {
		gsd := DefaultGSD
		if j.GSD != nil {
			gsd = *j.GSD
		}
		if a.GSD != nil {
			gsd = *a.GSD
		}
		jobs[i] = pipeline.Options{
			Name:        a.label(i),
			Input:       j.Input,
			Convention:  j.Convention(),
			GSD:         gsd,
			Region:      a.Region(),
			Strict:      j.Strict,
			Backend:     j.Backend,
			Format:      j.Format,
			Samples:     derefInt(j.Samples),
			ClipStart:   deref(j.ClipStart),
			ClipEnd:     deref(j.ClipEnd),
			OutputDir:   j.OutputDir,
			Output:      a.Output,
			BlenderPath: j.Blender,
		}
	}
	return jobs
}

// Region returns the AOI's region with the Y negation rule applied. Any
// corner key marks the AOI as an explicit rectangle, so all-zero corners
// given explicitly are reported as ambiguous by the pipeline.
func (a AOI) Region() ortho.Region {
	if a.X1 == nil && a.Y1 == nil && a.X2 == nil && a.Y2 == nil {
		return ortho.Whole()
	}
	y1, y2 := ortho.NegateY(deref(a.Y1), deref(a.Y2))
	return ortho.Rect(deref(a.X1), y1, deref(a.X2), y2)
}

func (a AOI) label(i int) string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("aoi-%d", i+1)
}

func (j *Job) resolvePaths(dir string) {
	j.Input = resolve(dir, j.Input)
	j.OutputDir = resolve(dir, j.OutputDir)
	for i := range j.AOIs {
		j.AOIs[i].Output = resolve(dir, j.AOIs[i].Output)
	}
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// positive checks an optional value: nil passes, anything set must be a
// finite number greater than zero.
func positive(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if err := errors.ValidatePositive(name, *v); err != nil {
		return errors.New(errors.ErrCodeInvalidConfig, "%s", errors.UserMessage(err))
	}
	return nil
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

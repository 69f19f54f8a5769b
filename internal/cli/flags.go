package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/config"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/ortho"
	"github.com/matzehuels/nadir/pkg/pipeline"
)

// cornerFlags are the region corner flag names, in x1, y1, x2, y2 order.
var cornerFlags = []string{"x1", "y1", "x2", "y2"}

// fitFlags holds the flags shared by every command that fits a camera.
type fitFlags struct {
	path    string
	gsd     float64
	corners [4]float64
	conv    ortho.Convention
	strict  bool
	refresh bool
}

func (f *fitFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.path, "path", "p", "", "scene file (.obj); may also be given as an argument")
	fl.Float64VarP(&f.gsd, "gsd", "g", config.DefaultGSD, "ground sample distance in world units per pixel")
	fl.Float64VarP(&f.corners[0], "x1", "x", 0, "region corner x1")
	fl.Float64VarP(&f.corners[1], "y1", "y", 0, "region corner y1 (entered positive; negated with y2 when both are non-zero)")
	fl.Float64VarP(&f.corners[2], "x2", "X", 0, "region corner x2")
	fl.Float64VarP(&f.corners[3], "y2", "Y", 0, "region corner y2 (entered positive; negated with y1 when both are non-zero)")
	fl.VarP(conventionValue{&f.conv}, "z-up", "z", "scene up axis: true or z-up, false or y-up (e.g. -z False for Y-up exports)")
	fl.BoolVar(&f.strict, "strict", false, "reject an explicit all-zero region instead of imaging the whole scene")
	fl.BoolVar(&f.refresh, "refresh", false, "recompute the scene bounds even if cached")
}

// input returns the scene path from --path or the single argument.
func (f *fitFlags) input(args []string) (string, error) {
	switch {
	case len(args) == 1 && f.path != "" && args[0] != f.path:
		return "", fmt.Errorf("scene given twice: %s and --path %s", args[0], f.path)
	case len(args) == 1:
		return args[0], nil
	case f.path != "":
		return f.path, nil
	}
	return "", fmt.Errorf("no scene given: pass a .obj file or --path")
}

// region builds the region from the corner flags. Untouched flags mean the
// whole scene; any corner flag set explicitly makes the region a rectangle,
// so an all-zero rectangle given on purpose is reported as ambiguous.
func (f *fitFlags) region(cmd *cobra.Command) ortho.Region {
	if !anyChanged(cmd, cornerFlags...) {
		return ortho.Whole()
	}
	c := f.corners
	y1, y2 := ortho.NegateY(c[1], c[3])
	return ortho.Rect(c[0], y1, c[2], y2)
}

// options converts the flags into pipeline options.
func (f *fitFlags) options(cmd *cobra.Command, args []string) (pipeline.Options, error) {
	input, err := f.input(args)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Input:      input,
		GSD:        f.gsd,
		Region:     f.region(cmd),
		Convention: f.conv,
		Strict:     f.strict,
		Refresh:    f.refresh,
	}, nil
}

// conventionValue backs -z/--z-up. Unlike a boolean flag it always takes a
// value, so both "-z False" and "-z=false" parse. Spellings are those of
// [ortho.ParseConvention].
type conventionValue struct{ conv *ortho.Convention }

func (v conventionValue) String() string {
	if v.conv == nil {
		return ""
	}
	return strconv.FormatBool(v.conv.ZUpFlag())
}

func (v conventionValue) Set(s string) error {
	c, err := ortho.ParseConvention(s)
	if err != nil {
		return err
	}
	*v.conv = c
	return nil
}

func (conventionValue) Type() string { return "axis" }

// renderFlags holds the backend and output flags.
type renderFlags struct {
	backend    string
	format     string
	samples    int
	clipStart  float64
	clipEnd    float64
	outputDir  string
	output     string
	blender    string
	keepScript bool
	maxPixels  int
}

func (f *renderFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.backend, "backend", "b", pipeline.DefaultBackend, "render backend: "+strings.Join(backend.Kinds, ", "))
	fl.StringVarP(&f.format, "format", "f", "", "image format (default: the backend's first format)")
	fl.IntVar(&f.samples, "samples", ortho.DefaultSamples, "render samples (supersampling for raster, Cycles samples for blender)")
	fl.Float64Var(&f.clipStart, "clip-start", ortho.DefaultClipStart, "camera near clip distance")
	fl.Float64Var(&f.clipEnd, "clip-end", ortho.DefaultClipEnd, "camera far clip distance")
	fl.StringVar(&f.outputDir, "output-dir", "", "output directory (default: rendered_images/ next to the scene)")
	fl.StringVarP(&f.output, "output", "o", "", "explicit output file (overrides --output-dir and naming)")
	fl.StringVar(&f.blender, "blender", "", "Blender executable (default: blender on PATH)")
	fl.BoolVar(&f.keepScript, "keep-script", false, "keep the generated Blender script")
	fl.IntVar(&f.maxPixels, "max-pixels", 0, "raster pixel budget including supersampling (default: built-in limit)")

	_ = cmd.RegisterFlagCompletionFunc("backend", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return backend.Kinds, cobra.ShellCompDirectiveNoFileComp
	})
}

// apply copies the render flags into opts. The pipeline treats a zero
// sample count or clip plane as unset, so explicit non-positive values are
// rejected here instead of silently becoming defaults.
func (f *renderFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	if cmd.Flags().Changed("samples") && f.samples < 1 {
		return errors.New(errors.ErrCodeInvalidArgument, "--samples must be at least 1, got %d", f.samples)
	}
	for _, fl := range []struct {
		name string
		v    float64
	}{{"clip-start", f.clipStart}, {"clip-end", f.clipEnd}} {
		if cmd.Flags().Changed(fl.name) {
			if err := errors.ValidatePositive("--"+fl.name, fl.v); err != nil {
				return err
			}
		}
	}

	opts.Backend = f.backend
	opts.Format = f.format
	opts.Samples = f.samples
	opts.ClipStart = f.clipStart
	opts.ClipEnd = f.clipEnd
	opts.OutputDir = f.outputDir
	opts.Output = f.output
	opts.BlenderPath = f.blender
	opts.KeepScript = f.keepScript
	opts.MaxPixels = f.maxPixels
	return nil
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

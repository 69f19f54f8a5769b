package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/pipeline"
)

// renderCommand creates the render command: fit, then render with a backend.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags fitFlags
		rf    renderFlags
		copts cacheOpts
	)

	cmd := &cobra.Command{
		Use:   "render [scene.obj]",
		Short: "Render an orthographic top-down image of a scene",
		Long: `Render fits the camera like "nadir fit" and renders the image. The raster
backend renders in process; the blender backend drives a Blender installation
in background mode; the manifest backend writes the camera and render settings
as JSON without rendering.

Images are written to rendered_images/ next to the scene unless --output-dir
or --output is given.`,
		Example: `  nadir render city.obj -g 0.25
  nadir render city.obj -x 100 -y 50 -X 300 -Y 200 --format webp
  nadir render city.obj -z False --backend blender --samples 64`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args)
			if err != nil {
				return err
			}
			if err := rf.apply(cmd, &opts); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), opts, copts)
		},
	}

	flags.register(cmd)
	rf.register(cmd)
	copts.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, w io.Writer, opts pipeline.Options, copts cacheOpts) error {
	runner, err := c.newRunner(ctx, copts)
	if err != nil {
		return err
	}
	defer runner.Close()

	sw := startStopwatch(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s", opts.Input))
	spinner.Start()

	res, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	out := printer{w}

	for _, warning := range res.Warnings {
		out.warning("%s", warning)
	}
	verb := "Rendered"
	if res.Backend == backend.KindManifest {
		verb = "Wrote manifest for"
	}
	out.success("%s %d × %d image", verb, res.Fit.Params.ResolutionX, res.Fit.Params.ResolutionY)
	out.file(res.Output)
	out.stats(res.Stats.Vertices, res.CacheInfo.BoundsHit)
	sw.done("render finished", "backend", res.Backend)
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nadir/pkg/pipeline"
)

// fitCommand creates the fit command, which computes the camera without
// rendering.
func (c *CLI) fitCommand() *cobra.Command {
	var (
		flags  fitFlags
		copts  cacheOpts
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "fit [scene.obj]",
		Short: "Compute the orthographic camera and render parameters for a region",
		Long: `Fit computes where an orthographic nadir camera has to sit to image a scene or
a rectangle of it, the ortho scale, and the image resolution for the requested
ground sample distance. Nothing is rendered.`,
		Example: `  nadir fit city.obj -g 0.5
  nadir fit -p city.obj -x 100 -y 50 -X 300 -Y 200 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args)
			if err != nil {
				return err
			}
			return c.runFit(cmd.Context(), cmd.OutOrStdout(), opts, copts, asJSON)
		},
	}

	flags.register(cmd)
	copts.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the fit as JSON")

	return cmd
}

func (c *CLI) runFit(ctx context.Context, w io.Writer, opts pipeline.Options, copts cacheOpts, asJSON bool) error {
	runner, err := c.newRunner(ctx, copts)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Fit(ctx, opts)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newFitOutput(opts.Input, res))
	}

	out := printer{w}
	for _, warning := range res.Warnings {
		out.warning("%s", warning)
	}
	pos := res.Fit.Placement.Position
	out.success("Fitted camera for %s", opts.Input)
	out.keyValue("Region", regionText(res))
	out.keyValue("Camera", fmt.Sprintf("(%g, %g, %g)", pos.X, pos.Y, pos.Z))
	out.keyValue("Ortho scale", fmt.Sprintf("%g", res.Fit.Params.OrthoScale))
	out.keyValue("Resolution", fmt.Sprintf("%d × %d", res.Fit.Params.ResolutionX, res.Fit.Params.ResolutionY))
	out.keyValue("Image", res.ImageName)
	out.stats(res.Stats.Vertices, res.CacheInfo.BoundsHit)
	return nil
}

// fitOutput is the --json form of a fit.
type fitOutput struct {
	Input       string     `json:"input"`
	Region      string     `json:"region"`
	Position    [3]float64 `json:"position"`
	RotationDeg [3]float64 `json:"rotation_deg"`
	OrthoScale  float64    `json:"ortho_scale"`
	ResolutionX int        `json:"resolution_x"`
	ResolutionY int        `json:"resolution_y"`
	ImageName   string     `json:"image_name"`
	Warnings    []string   `json:"warnings,omitempty"`
	Cached      bool       `json:"cached"`
}

func newFitOutput(input string, res *pipeline.Result) fitOutput {
	pos, rot := res.Fit.Placement.Position, res.Fit.Placement.Rotation
	return fitOutput{
		Input:       input,
		Region:      regionText(res),
		Position:    [3]float64{pos.X, pos.Y, pos.Z},
		RotationDeg: [3]float64{rot.X, rot.Y, rot.Z},
		OrthoScale:  res.Fit.Params.OrthoScale,
		ResolutionX: res.Fit.Params.ResolutionX,
		ResolutionY: res.Fit.Params.ResolutionY,
		ImageName:   res.ImageName,
		Warnings:    res.Warnings,
		Cached:      res.CacheInfo.BoundsHit,
	}
}

func regionText(res *pipeline.Result) string {
	r := res.Fit.Region
	if r.IsWhole() {
		return "whole scene"
	}
	return fmt.Sprintf("(%g, %g) - (%g, %g)", r.X1, r.Y1, r.X2, r.Y2)
}

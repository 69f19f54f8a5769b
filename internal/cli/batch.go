package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/config"
	"github.com/matzehuels/nadir/pkg/errors"
)

// batchCommand creates the batch command, which renders every AOI of a
// TOML job file.
func (c *CLI) batchCommand() *cobra.Command {
	var (
		copts   cacheOpts
		workers int
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "batch <job.toml>",
		Short: "Render all areas of interest listed in a job file",
		Long: `Batch reads a TOML job file with one scene and any number of [[aoi]] tables
and renders them in parallel. The scene is loaded once and shared between
AOIs. A failing AOI does not stop the others; the command fails if any AOI
failed.

  input = "city.obj"
  gsd = 0.5

  [[aoi]]
  name = "harbour"
  x1 = 120.0
  y1 = 40.0
  x2 = 380.0
  y2 = 210.0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				job.Workers = workers
			}
			if dryRun {
				job.Backend = backend.KindManifest
				job.Format = ""
			}
			return c.runBatch(cmd.Context(), cmd.OutOrStdout(), job, copts)
		},
	}

	copts.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "parallel AOIs (overrides the job file)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "write manifests instead of images")

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, w io.Writer, job *config.Job, copts cacheOpts) error {
	runner, err := c.newRunner(ctx, copts)
	if err != nil {
		return err
	}
	defer runner.Close()

	jobs := job.Jobs()
	out := printer{w}
	out.info("Rendering %d AOIs from %s with %d workers", len(jobs), job.Input, job.Workers)

	sw := startStopwatch(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d AOIs", len(jobs)))
	spinner.Start()
	results, summary := runner.RunBatch(ctx, jobs, job.Workers)
	spinner.Stop()

	for _, res := range results {
		if res.Err != nil {
			out.failure("%s: %s", res.Name, errors.UserMessage(res.Err))
			continue
		}
		for _, warning := range res.Result.Warnings {
			out.warning("%s: %s", res.Name, warning)
		}
		out.success("%s", res.Name)
		out.file(res.Result.Output)
	}
	sw.done("batch finished", "succeeded", summary.Succeeded, "failed", summary.Failed)

	if err := ctx.Err(); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d AOIs failed", summary.Failed, len(jobs))
	}
	return nil
}

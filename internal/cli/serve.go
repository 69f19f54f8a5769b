package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nadir/pkg/server"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		copts     cacheOpts
		addr      string
		sceneRoot string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve camera fitting over HTTP",
		Long: `Serve exposes POST /v1/fit, GET /healthz and GET /version. Fits take an
explicit bounding box; with --scene-root they may also name a scene file
inside that directory, whose bounds are cached like on the command line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, copts)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(server.Config{
				Addr:           addr,
				SceneRoot:      sceneRoot,
				Runner:         runner,
				RequestTimeout: timeout,
				Logger:         loggerFromContext(ctx),
			})
			printer{cmd.OutOrStdout()}.info("Serving on %s", StyleLink.Render("http://"+addr))
			return srv.Run(ctx)
		},
	}

	copts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&sceneRoot, "scene-root", "", "directory of scenes that requests may fit by path")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultRequestTimeout, "per-request timeout")

	return cmd
}

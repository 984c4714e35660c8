package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/depfresh/depfresh/internal/watch"
)

// newWatchCmd creates the "watch" command: keep checking manifests
// under the given directories as they change, until interrupted.
func newWatchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Watch directories and re-check manifests on change",
		Args:  cobra.MinimumNArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}

			svc, err := newService(cmd, *configPath)
			if err != nil {
				return err
			}

			logger := loggerFromContext(cmd.Context())
			w, err := watch.New(svc, logger, args...)
			if err != nil {
				return err
			}

			logger.Info("watching for manifest changes", "dirs", args)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return svc.Run(ctx) })
			g.Go(func() error { return w.Run(ctx) })

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

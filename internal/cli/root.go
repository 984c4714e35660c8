package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/depfresh/depfresh"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. Main
// calls this with values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the depfresh CLI.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "depfresh",
		Short:        "depfresh keeps npm dependency versions fresh",
		Long:         `depfresh reads package.json manifests, resolves the latest published version of every dependency from the npm registry, and reports which declarations are out of date.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("depfresh %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to depfresh.toml")

	root.AddCommand(newCheckCmd(&configPath))
	root.AddCommand(newRefreshCmd(&configPath))
	root.AddCommand(newWatchCmd(&configPath))

	return root.ExecuteContext(ctx)
}

// newService loads configuration and builds the pipeline for a command.
func newService(cmd *cobra.Command, configPath string) (*depfresh.Service, error) {
	cfg, err := depfresh.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return depfresh.NewService(cfg, loggerFromContext(cmd.Context()))
}

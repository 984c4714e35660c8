package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/depfresh/depfresh"
)

// newCheckCmd creates the "check" command: resolve every dependency of
// the given manifests and print one annotated line per dependency.
func newCheckCmd(configPath *string) *cobra.Command {
	var showStats bool

	cmd := &cobra.Command{
		Use:   "check [package.json...]",
		Short: "Check manifests against the registry once",
		Args:  cobra.MinimumNArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"package.json"}
			}

			svc, err := newService(cmd, *configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			for _, path := range args {
				if err := exitIfMissing(path); err != nil {
					return err
				}
				if err := svc.CheckFile(ctx, path); err != nil {
					return err
				}
			}
			if err := svc.Wait(ctx); err != nil {
				return err
			}

			for _, path := range args {
				anns, err := svc.Annotate(path)
				if err != nil {
					return err
				}
				if len(args) > 1 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", path)
				}
				printAnnotations(cmd, anns)
			}

			if showStats {
				stats := svc.Stats()
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d packages cached across %d files\n",
					stats.Packages, stats.Files)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showStats, "stats", false, "print cache statistics after checking")
	return cmd
}

func printAnnotations(cmd *cobra.Command, anns []depfresh.Annotation) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, a := range anns {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Package, a.Spec, a.Text)
	}
	w.Flush()
}

// exitIfMissing reports a friendlier error when the manifest is absent.
func exitIfMissing(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no %s found (run from a directory with one, or pass a path)", path)
	}
	return nil
}

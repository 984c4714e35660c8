package cli

import (
	"fmt"
	"strings"

	"github.com/git-pkgs/purl"
	"github.com/spf13/cobra"
)

// newRefreshCmd creates the "refresh" command: force a refetch of the
// named packages, bypassing the cache TTL and any backoff window.
// Packages may be given as bare names or as package URLs
// (pkg:npm/left-pad).
func newRefreshCmd(configPath *string) *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "refresh <package|purl>...",
		Short: "Force a refetch of specific packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(args))
			for _, arg := range args {
				name, err := packageName(arg)
				if err != nil {
					return err
				}
				names = append(names, name)
			}

			svc, err := newService(cmd, *configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc.Refresh(names, manifestPath)
			if err := svc.Wait(ctx); err != nil {
				return err
			}

			for _, name := range names {
				st := svc.Status(name)
				if st.Version != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, st.Version)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, st.State)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "file", "f", "package.json", "manifest the packages belong to")
	return cmd
}

// packageName resolves an argument to an npm package name. Package URLs
// are parsed; anything else is taken as a bare name.
func packageName(arg string) (string, error) {
	if !strings.HasPrefix(arg, "pkg:") {
		return arg, nil
	}

	p, err := purl.Parse(arg)
	if err != nil {
		return "", fmt.Errorf("invalid package URL %q: %w", arg, err)
	}
	if p.Type != "npm" {
		return "", fmt.Errorf("unsupported ecosystem %q in %q (only npm)", p.Type, arg)
	}
	if p.Namespace != "" {
		return p.Namespace + "/" + p.Name, nil
	}
	return p.Name, nil
}

package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var extended bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := "gofirehose"
			if id := GetAppIdentity(); id != nil && id.BinaryName != "" {
				name = id.BinaryName
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%s %s\n", name, versionInfo.Version)
			if !extended {
				return nil
			}
			v := crucible.GetVersion()
			_, _ = fmt.Fprintf(w, "commit:     %s\n", versionInfo.Commit)
			_, _ = fmt.Fprintf(w, "built:      %s\n", versionInfo.BuildDate)
			_, _ = fmt.Fprintf(w, "go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(w, "gofulmen:   %s\n", v.Gofulmen)
			_, _ = fmt.Fprintf(w, "crucible:   %s\n", v.Crucible)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&extended, "extended", "e", false, "Include commit, build, and dependency versions")
	return cmd
}

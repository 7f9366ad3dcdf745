package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand attaches a `version` subcommand to the provided root command.
// It prints detailed build info, or only the semantic version with --short.
func AttachCobraVersionCommand(root *cobra.Command) {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Long:  "Print detailed version information including build metadata, commit hash, and build timestamp. Values come from ldflags when set, otherwise from the VCS stamp embedded by the Go toolchain.",
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), Short())

				return
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Full())
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the semantic version")

	// Subcommand: `version`.
	root.AddCommand(cmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/photon-entanglement/internal/service/evolve"
)

var (
	// evolveQuick enables the reduced grid and relaxed tolerances.
	evolveQuick bool

	// evolveCmd evolves the configured state once.
	evolveCmd = &cobra.Command{
		Use:   "evolve",
		Short: "Evolve the configured state and report its entanglement diagnostics.",
		Long: `Integrates the two-level Schrödinger equation over the configured time grid,
derives entropy, survival, conversion and coherence, and prints the dynamics checks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return evolve.Run(ctx, &evolve.Options{
				ConfigPath: configPath,
				ResultsDir: resultsDir,
				Quick:      evolveQuick,
				Output:     cmd.OutOrStdout(),
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	evolveCmd.Flags().BoolVar(&evolveQuick, "quick", false, "use a small grid and loose tolerances")
	rootCmd.AddCommand(evolveCmd)
}

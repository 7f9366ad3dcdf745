package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/photon-entanglement/internal/service/verify"
)

var (
	// verifyQuick enables the reduced grids and relaxed tolerances.
	verifyQuick bool

	// verifyCmd runs every check and exits non-zero on failure.
	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Run the dynamics, spectra and constraint checks.",
		Long: `Runs the benchmark evolution, the mock polarization spectra and the analytic
constraint scan, prints every check and exits with a non-zero status when any
required check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return verify.Run(ctx, &verify.Options{
				ConfigPath: configPath,
				ResultsDir: resultsDir,
				Quick:      verifyQuick,
				Output:     cmd.OutOrStdout(),
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	verifyCmd.Flags().BoolVar(&verifyQuick, "quick", false, "use small grids and loose tolerances")
	rootCmd.AddCommand(verifyCmd)
}

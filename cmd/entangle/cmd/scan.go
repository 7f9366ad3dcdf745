package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/photon-entanglement/internal/config"
	"github.com/oshokin/photon-entanglement/internal/service/scan"
)

var (
	// scanMetric overrides scan.metric.
	scanMetric string
	// scanWorkers overrides scan.workers.
	scanWorkers int
	// scanQuick enables the reduced grid.
	scanQuick bool

	// scanCmd sweeps the coupling × mass grid.
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Sweep a coupling × mass grid and summarize one metric.",
		Long: `Evaluates the chosen metric on a logarithmic coupling × dark-mass grid.

Metrics:
  analytic        closed-form peak conversion sin²2θ (fast)
  max_entropy     peak entanglement entropy of a full evolution per point
  max_conversion  peak conversion probability of a full evolution per point`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return scan.Run(ctx, &scan.Options{
				ConfigPath: configPath,
				ResultsDir: resultsDir,
				Metric:     scanMetric,
				Workers:    scanWorkers,
				Quick:      scanQuick,
				Output:     cmd.OutOrStdout(),
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	scanCmd.Flags().StringVar(&scanMetric, "metric", "",
		"metric: "+config.MetricAnalytic+", "+config.MetricMaxEntropy+", "+config.MetricMaxConversion)
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "parallel workers (0 uses settings or one per CPU)")
	scanCmd.Flags().BoolVar(&scanQuick, "quick", false, "use a 10 x 10 grid and loose tolerances")
	rootCmd.AddCommand(scanCmd)
}

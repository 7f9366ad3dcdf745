package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/photon-entanglement/internal/config"
	"github.com/oshokin/photon-entanglement/internal/logger"
	"github.com/oshokin/photon-entanglement/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides log_level from the settings file.
	logLevel string
	// resultsDir overrides results_dir from the settings file.
	resultsDir string

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "entangle",
		Short: "Simulate photon to dark-photon mixing and its entanglement entropy.",
		Long: `Evolves a two-level photon/dark-photon system, derives entanglement diagnostics
and checks them against reference benchmarks.

Settings are read from a YAML file (entangle-settings.yaml by default). A missing
file means built-in defaults. Reports go to stdout, logs go to stderr, and every
run writes a JSON record into the results directory.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
)

// Execute runs the entangle CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the log level and format from the settings file,
// letting --log-level win.
func setupLogging(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		// The command itself reports the settings error.
		cfg = config.Default()
	}

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}

	return logger.Setup(level, cfg.LogFormat)
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&resultsDir, "results-dir", "", "directory for run records (overrides settings)")
}

package evolve

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/photon-entanglement/internal/logger"
	"github.com/oshokin/photon-entanglement/internal/report"
	"github.com/oshokin/photon-entanglement/internal/service/common"
)

// Options controls a single evolution run.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ResultsDir overrides the directory for the run record.
	ResultsDir string
	// Quick shrinks the time grid and relaxes tolerances.
	Quick bool
	// Output receives the report; nil means stdout.
	Output io.Writer
}

// recordName is the run record prefix.
const recordName = "evolve"

// Run evolves the configured state, prints the dynamics report and saves a run record.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "evolve")

	cfg, err := common.LoadSettings(ctx, opts.ConfigPath, common.Overrides{
		ResultsDir: opts.ResultsDir,
		Quick:      opts.Quick,
	})
	if err != nil {
		return err
	}

	eng, err := common.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	logger.InfoKV(ctx, "Evolving state",
		"coupling", cfg.Physics.Coupling,
		"dark_mass", cfg.Physics.DarkMass,
		"reference_frequency", cfg.Physics.ReferenceFrequency,
		"samples", cfg.Time.Samples,
	)

	sim, err := common.Simulate(ctx, eng, cfg, cfg.Physics.Parameters(), cfg.Time)
	if err != nil {
		return err
	}

	common.LogWarnings(ctx, sim.Diagnostics)

	logger.InfoKV(ctx, "Evolution finished",
		"steps", sim.Trajectory.Steps(),
		"max_entropy", sim.Diagnostics.MaxEntropy,
		"max_conversion", sim.Diagnostics.MaxConversion,
	)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	sections := []report.Section{report.EvaluateDynamics(sim.Diagnostics, cfg.Benchmark)}
	if err = report.Write(out, sections); err != nil {
		return err
	}

	rec := common.NewRecord(ctx, recordName, cfg, opts.Quick)
	common.AddDiagnostics(rec, sim)
	rec.SetResult("passed", report.Passed(sections))

	if _, err = common.SaveRecord(ctx, cfg.ResultsDir, rec); err != nil {
		return err
	}

	return nil
}

package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/photon-entanglement/internal/config"
	"github.com/oshokin/photon-entanglement/internal/constraints"
	"github.com/oshokin/photon-entanglement/internal/engine"
	"github.com/oshokin/photon-entanglement/internal/grid"
	"github.com/oshokin/photon-entanglement/internal/logger"
	"github.com/oshokin/photon-entanglement/internal/report"
	"github.com/oshokin/photon-entanglement/internal/service/common"
	"github.com/oshokin/photon-entanglement/internal/spectrum"
)

// Options controls the verification suite.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ResultsDir overrides the directory for the run record.
	ResultsDir string
	// Quick shrinks grids and relaxes tolerances.
	Quick bool
	// Output receives the report; nil means stdout.
	Output io.Writer
}

// recordName is the run record prefix.
const recordName = "verify"

// ErrVerificationFailed is returned when at least one check failed.
var ErrVerificationFailed = errors.New("verification failed")

// Run executes every section, prints the report, saves a record and returns
// ErrVerificationFailed when the verdict is negative.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "verify")

	cfg, err := common.LoadSettings(ctx, opts.ConfigPath, common.Overrides{
		ResultsDir: opts.ResultsDir,
		Quick:      opts.Quick,
	})
	if err != nil {
		return err
	}

	var (
		sim         *common.Simulation
		signatures  spectrum.Signatures
		constraint  *constraints.Result
		group, gctx = errgroup.WithContext(ctx)
	)

	group.Go(func() error {
		eng, err := common.NewEngine(cfg)
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}

		sim, err = common.Simulate(gctx, eng, cfg, cfg.Physics.Parameters(), cfg.Time)

		return err
	})

	group.Go(func() error {
		res, err := spectrum.Compute(cfg.Spectrum)
		if err != nil {
			return err
		}

		signatures = res.Signatures()

		return nil
	})

	group.Go(func() error {
		var err error

		constraint, err = runConstraints(gctx, cfg)

		return err
	})

	if err = group.Wait(); err != nil {
		return err
	}

	common.LogWarnings(ctx, sim.Diagnostics)

	sections := []report.Section{
		report.EvaluateDynamics(sim.Diagnostics, cfg.Benchmark),
		report.EvaluateSpectra(cfg.Spectrum, signatures),
		report.EvaluateConstraints(constraint, cfg.Benchmark),
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if err = report.Write(out, sections); err != nil {
		return err
	}

	passed := report.Passed(sections)

	rec := common.NewRecord(ctx, recordName, cfg, opts.Quick)
	common.AddDiagnostics(rec, sim)
	rec.SetResult("passed", passed)
	rec.SetResult("enhancement_scale", signatures.EnhancementScale)
	rec.SetResult("detectable", signatures.Detectable)
	rec.SetResult("viable_fraction", constraint.ViableFraction)
	rec.SetResult("detectable_fraction", constraint.DetectableFraction)

	for _, c := range signatures.Channels {
		rec.SetResult("snr_"+string(c.Channel), c.SNR)
		rec.SetResult("max_enhancement_"+string(c.Channel), c.MaxEnhancement)
	}

	for _, s := range sections {
		rec.SetResult("section_"+strings.ReplaceAll(strings.ToLower(s.Title), " ", "_"), s.Passed())
	}

	if _, err = common.SaveRecord(ctx, cfg.ResultsDir, rec); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Verification finished", "passed", passed)

	if !passed {
		return ErrVerificationFailed
	}

	return nil
}

func runConstraints(ctx context.Context, cfg *config.Config) (*constraints.Result, error) {
	convention, err := engine.ConventionByName(cfg.Physics.Convention)
	if err != nil {
		return nil, err
	}

	couplings, err := grid.Logarithmic("coupling", cfg.Scan.CouplingMin, cfg.Scan.CouplingMax, cfg.Scan.CouplingPoints)
	if err != nil {
		return nil, fmt.Errorf("build coupling axis: %w", err)
	}

	masses, err := grid.Logarithmic("dark_mass", cfg.Scan.MassMin, cfg.Scan.MassMax, cfg.Scan.MassPoints)
	if err != nil {
		return nil, fmt.Errorf("build mass axis: %w", err)
	}

	return constraints.Run(ctx, constraints.Scan{
		Couplings:          couplings,
		Masses:             masses,
		ReferenceFrequency: cfg.Physics.ReferenceFrequency,
		Convention:         convention,
		Limits:             cfg.Limits,
		Workers:            cfg.Scan.Workers,
	})
}

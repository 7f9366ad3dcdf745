package scan

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/photon-entanglement/internal/config"
	"github.com/oshokin/photon-entanglement/internal/constraints"
	"github.com/oshokin/photon-entanglement/internal/engine"
	"github.com/oshokin/photon-entanglement/internal/grid"
	"github.com/oshokin/photon-entanglement/internal/logger"
	"github.com/oshokin/photon-entanglement/internal/service/common"
)

// Options controls a parameter scan.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ResultsDir overrides the directory for the run record.
	ResultsDir string
	// Metric overrides scan.metric when set.
	Metric string
	// Workers overrides scan.workers when positive.
	Workers int
	// Quick shrinks the grid and relaxes tolerances.
	Quick bool
	// Output receives the summary; nil means stdout.
	Output io.Writer
}

// recordName is the run record prefix.
const recordName = "scan"

// Summary is the outcome of a scan.
type Summary struct {
	// Metric is the evaluated quantity.
	Metric string
	// Map holds the metric per (coupling, mass).
	Map *grid.Map
	// Best is the largest metric value.
	Best float64
	// BestCoupling and BestMass locate Best.
	BestCoupling, BestMass float64
	// ViableFraction is the share of points below every coupling bound.
	ViableFraction float64
	// DetectableFraction is the share of viable points a future survey would
	// see; only set for conversion metrics.
	DetectableFraction float64
}

// Run sweeps the grid, prints a summary and saves a run record.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "scan")

	cfg, err := common.LoadSettings(ctx, opts.ConfigPath, common.Overrides{
		ResultsDir: opts.ResultsDir,
		Quick:      opts.Quick,
	})
	if err != nil {
		return err
	}

	if opts.Metric != "" {
		cfg.Scan.Metric = opts.Metric
	}

	if opts.Workers > 0 {
		cfg.Scan.Workers = opts.Workers
	}

	if err = config.Validate(cfg); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	summary, err := Sweep(ctx, cfg)
	if err != nil {
		return err
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if err = writeSummary(out, summary); err != nil {
		return err
	}

	rec := common.NewRecord(ctx, recordName, cfg, opts.Quick)
	rec.SetParameter("metric", summary.Metric)
	rec.SetParameter("couplings", summary.Map.Rows.Values)
	rec.SetParameter("masses", summary.Map.Cols.Values)
	rec.SetResult("map", summary.Map.Values)
	rec.SetResult("best", summary.Best)
	rec.SetResult("best_coupling", summary.BestCoupling)
	rec.SetResult("best_mass", summary.BestMass)
	rec.SetResult("viable_fraction", summary.ViableFraction)
	rec.SetResult("detectable_fraction", summary.DetectableFraction)
	rec.SetResult("points", summary.Map.Len())

	if _, err = common.SaveRecord(ctx, cfg.ResultsDir, rec); err != nil {
		return err
	}

	return nil
}

// Sweep evaluates the configured metric over the configured grid.
func Sweep(ctx context.Context, cfg *config.Config) (*Summary, error) {
	couplings, err := grid.Logarithmic("coupling", cfg.Scan.CouplingMin, cfg.Scan.CouplingMax, cfg.Scan.CouplingPoints)
	if err != nil {
		return nil, fmt.Errorf("build coupling axis: %w", err)
	}

	masses, err := grid.Logarithmic("dark_mass", cfg.Scan.MassMin, cfg.Scan.MassMax, cfg.Scan.MassPoints)
	if err != nil {
		return nil, fmt.Errorf("build mass axis: %w", err)
	}

	logger.InfoKV(ctx, "Scanning parameter grid",
		"metric", cfg.Scan.Metric,
		"points", len(couplings.Values)*len(masses.Values),
		"workers", cfg.Scan.Workers,
	)

	var m *grid.Map

	switch cfg.Scan.Metric {
	case config.MetricAnalytic:
		m, err = analytic(ctx, cfg, couplings, masses)
	default:
		m, err = dynamic(ctx, cfg, couplings, masses)
	}

	if err != nil {
		return nil, err
	}

	best, bi, bj := m.Max()
	s := &Summary{
		Metric: cfg.Scan.Metric,
		Map:    m,
		Best:   best,
	}

	if bi >= 0 {
		s.BestCoupling, s.BestMass = couplings.Values[bi], masses.Values[bj]
	}

	s.ViableFraction, s.DetectableFraction = cfg.Limits.Classify(m)

	// Entropy maps carry no conversion to compare against the threshold.
	if cfg.Scan.Metric == config.MetricMaxEntropy {
		s.DetectableFraction = 0
	}

	return s, nil
}

func analytic(ctx context.Context, cfg *config.Config, couplings, masses grid.Axis) (*grid.Map, error) {
	convention, err := engine.ConventionByName(cfg.Physics.Convention)
	if err != nil {
		return nil, err
	}

	res, err := constraints.Run(ctx, constraints.Scan{
		Couplings:          couplings,
		Masses:             masses,
		ReferenceFrequency: cfg.Physics.ReferenceFrequency,
		Convention:         convention,
		Limits:             cfg.Limits,
		Workers:            cfg.Scan.Workers,
	})
	if err != nil {
		return nil, err
	}

	return res.Conversion, nil
}

func dynamic(ctx context.Context, cfg *config.Config, couplings, masses grid.Axis) (*grid.Map, error) {
	eng, err := common.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	window := cfg.Time
	window.Samples = cfg.Scan.Samples

	m, err := grid.Evaluate(ctx, couplings, masses,
		func(ctx context.Context, coupling, mass float64) (float64, error) {
			sim, err := common.Simulate(ctx, eng, cfg, common.Parameters(cfg, coupling, mass), window)
			if err != nil {
				return 0, err
			}

			if cfg.Scan.Metric == config.MetricMaxEntropy {
				return sim.Diagnostics.MaxEntropy, nil
			}

			return sim.Diagnostics.MaxConversion, nil
		},
		grid.WithWorkers(cfg.Scan.Workers),
	)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", cfg.Scan.Metric, err)
	}

	return m, nil
}

func writeSummary(w io.Writer, s *Summary) error {
	_, err := fmt.Fprintf(w,
		"Scan: %s over %d x %d points\n"+
			"  best:                %.6g at coupling=%.3g, dark_mass=%.3g\n"+
			"  viable fraction:     %.3f\n"+
			"  detectable fraction: %.3f\n",
		s.Metric, len(s.Map.Rows.Values), len(s.Map.Cols.Values),
		s.Best, s.BestCoupling, s.BestMass,
		s.ViableFraction, s.DetectableFraction,
	)
	if err != nil {
		return fmt.Errorf("write scan summary: %w", err)
	}

	return nil
}

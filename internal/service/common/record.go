//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"

	"github.com/oshokin/photon-entanglement/internal/config"
	"github.com/oshokin/photon-entanglement/internal/domain/run"
	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
	"github.com/oshokin/photon-entanglement/internal/logger"
	"github.com/oshokin/photon-entanglement/internal/repository/results"
)

// NewRecord starts a run record carrying the physics settings. A failure to
// detect the actor is logged and leaves the actor empty.
func NewRecord(ctx context.Context, name string, cfg *config.Config, quick bool) *run.Record {
	actor, err := DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Failed to detect actor", "error", err)
	}

	rec := run.NewRecord(name, actor, quick)
	rec.SetParameter("coupling", cfg.Physics.Coupling)
	rec.SetParameter("dark_mass", cfg.Physics.DarkMass)
	rec.SetParameter("reference_frequency", cfg.Physics.ReferenceFrequency)
	rec.SetParameter("time_unit", cfg.Physics.TimeUnit)
	rec.SetParameter("convention", cfg.Physics.Convention)
	rec.SetParameter("method", cfg.Integrator.Method)
	rec.SetParameter("entropy_mode", cfg.Diagnostics.EntropyMode)

	return rec
}

// AddDiagnostics stores the scalar diagnostics and the main series of a simulation.
func AddDiagnostics(rec *run.Record, sim *Simulation) {
	d := sim.Diagnostics

	warnings := make([]any, 0, len(d.Warnings))
	for _, w := range d.Warnings {
		warnings = append(warnings, w.String())
	}

	rec.SetResult("max_entropy", d.MaxEntropy)
	rec.SetResult("max_conversion", d.MaxConversion)
	rec.SetResult("mean_coherence", d.MeanCoherence)
	rec.SetResult("max_norm_drift", d.MaxNormDrift)
	rec.SetResult("period_defined", d.OscillationPeriod.Defined())
	rec.SetResult("period_peaks", d.OscillationPeriod.Peaks)
	rec.SetResult("steps", sim.Trajectory.Steps())
	rec.SetResult("entropy_within_bounds", d.EntropyWithinBounds)
	rec.SetResult("probability_within_bounds", d.ProbabilityWithinBounds)
	rec.SetResult("warnings", warnings)
	rec.SetResult("times", d.Times)
	rec.SetResult("entropy", d.Entropy)
	rec.SetResult("survival", d.Survival)
	rec.SetResult("conversion", d.Conversion)

	if d.OscillationPeriod.Defined() {
		rec.SetResult("period", d.OscillationPeriod.Value)
	}
}

// SaveRecord writes the record into dir and logs its location.
func SaveRecord(ctx context.Context, dir string, rec *run.Record) (string, error) {
	var repo results.Repository = results.NewFileRepository(dir)

	path, err := repo.Save(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("save run record: %w", err)
	}

	logger.InfoKV(ctx, "Run record saved", "path", path, "id", rec.ID)

	return path, nil
}

// Parameters returns the configured physics with a different coupling and mass.
func Parameters(cfg *config.Config, coupling, mass float64) twolevel.Parameters {
	p := cfg.Physics.Parameters()
	p.Coupling = coupling
	p.DarkMass = mass

	return p
}

//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"

	"github.com/oshokin/photon-entanglement/internal/config"
	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
	"github.com/oshokin/photon-entanglement/internal/engine"
	"github.com/oshokin/photon-entanglement/internal/logger"
)

// NewEngine builds an engine from the physics and integrator settings.
func NewEngine(cfg *config.Config) (*engine.Engine, error) {
	convention, err := engine.ConventionByName(cfg.Physics.Convention)
	if err != nil {
		return nil, err
	}

	method, err := engine.ParseMethod(cfg.Integrator.Method)
	if err != nil {
		return nil, err
	}

	return engine.New(
		engine.WithConvention(convention),
		engine.WithMethod(method),
		engine.WithTolerances(cfg.Integrator.Tolerances()),
	), nil
}

// Simulation is the outcome of one evolution plus its diagnostics.
type Simulation struct {
	// Trajectory is the sampled state.
	Trajectory *twolevel.Trajectory
	// Diagnostics are derived from Trajectory.
	Diagnostics *twolevel.Diagnostics
}

// Simulate evolves the configured initial state over the configured window
// with the given parameters and derives its diagnostics.
func Simulate(
	ctx context.Context,
	eng *engine.Engine,
	cfg *config.Config,
	params twolevel.Parameters,
	window config.Time,
) (*Simulation, error) {
	grid, err := twolevel.UniformGrid(window.Start, window.End, window.Samples)
	if err != nil {
		return nil, fmt.Errorf("build time grid: %w", err)
	}

	trajectory, err := eng.Evolve(ctx, params, cfg.InitialState.Amplitudes(), grid)
	if err != nil {
		return nil, fmt.Errorf("evolve: %w", err)
	}

	diagnostics, err := engine.DeriveDiagnostics(trajectory, cfg.Diagnostics.Options())
	if err != nil {
		return nil, fmt.Errorf("derive diagnostics: %w", err)
	}

	return &Simulation{
		Trajectory:  trajectory,
		Diagnostics: diagnostics,
	}, nil
}

// LogWarnings reports every physical-bounds warning at warn level.
func LogWarnings(ctx context.Context, d *twolevel.Diagnostics) {
	for _, w := range d.Warnings {
		logger.WarnKV(ctx, "Physical bounds violated",
			"kind", w.Kind,
			"count", w.Count,
			"first_index", w.FirstIndex,
			"first_time", w.FirstTime,
			"worst", w.Worst,
		)
	}
}

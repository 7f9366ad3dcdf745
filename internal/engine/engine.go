package engine

import (
	"context"
	"fmt"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
)

// Method selects the propagation scheme.
type Method string

const (
	// MethodDormandPrince is the adaptive Dormand–Prince 5(4) Runge–Kutta scheme.
	MethodDormandPrince Method = "dopri5"
	// MethodExact applies the closed-form propagator exp(−iHt); Hermitian H only.
	MethodExact Method = "exact"
)

// Tolerances controls the adaptive solver and the drift diagnostic.
type Tolerances struct {
	// Rel is the relative error tolerance per step.
	Rel float64
	// Abs is the absolute error tolerance per step.
	Abs float64
	// MaxSteps bounds the number of attempted steps per invocation.
	MaxSteps int
	// DriftThreshold is the |norm-1| above which a trajectory is flagged.
	DriftThreshold float64
}

const (
	// DefaultMaxSteps is the step budget used when Tolerances.MaxSteps is unset.
	DefaultMaxSteps = 1_000_000

	// hermitianTolerance is the absolute tolerance for the exact method's input check.
	hermitianTolerance = 1e-12
)

// DefaultTolerances is the stringent setting used when entropy fidelity matters.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Rel:            1e-8,
		Abs:            1e-10,
		MaxSteps:       DefaultMaxSteps,
		DriftThreshold: 1e-6,
	}
}

// QuickTolerances is the loose setting for demo runs.
func QuickTolerances() Tolerances {
	return Tolerances{
		Rel:            1e-3,
		Abs:            1e-6,
		MaxSteps:       DefaultMaxSteps,
		DriftThreshold: 1e-2,
	}
}

// Validate checks the tolerance values.
func (t Tolerances) Validate() error {
	if t.Rel <= 0 {
		return &twolevel.ConfigurationError{Field: "rtol", Value: t.Rel, Reason: "must be positive"}
	}

	if t.Abs < 0 {
		return &twolevel.ConfigurationError{Field: "atol", Value: t.Abs, Reason: "must be non-negative"}
	}

	if t.MaxSteps < 0 {
		return &twolevel.ConfigurationError{Field: "max_steps", Value: t.MaxSteps, Reason: "must be non-negative"}
	}

	if t.DriftThreshold < 0 {
		return &twolevel.ConfigurationError{
			Field:  "drift_threshold",
			Value:  t.DriftThreshold,
			Reason: "must be non-negative",
		}
	}

	return nil
}

// Engine evolves two-level states. It holds configuration only and is safe
// for concurrent use.
type Engine struct {
	// convention builds the Hamiltonian from the parameters.
	convention Convention
	// method selects the propagation scheme.
	method Method
	// tolerances configures the adaptive solver.
	tolerances Tolerances
}

// Option configures an Engine.
type Option func(*Engine)

// WithConvention sets the Hamiltonian construction.
func WithConvention(c Convention) Option {
	return func(e *Engine) {
		if c != nil {
			e.convention = c
		}
	}
}

// WithMethod sets the propagation scheme.
func WithMethod(m Method) Option {
	return func(e *Engine) {
		if m != "" {
			e.method = m
		}
	}
}

// WithTolerances sets the solver tolerances.
func WithTolerances(t Tolerances) Option {
	return func(e *Engine) {
		e.tolerances = t
	}
}

// New returns an engine using the dispersive convention, the Dormand–Prince
// method and DefaultTolerances unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{
		convention: Dispersive,
		method:     MethodDormandPrince,
		tolerances: DefaultTolerances(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.tolerances.MaxSteps == 0 {
		e.tolerances.MaxSteps = DefaultMaxSteps
	}

	return e
}

// Hamiltonian returns the generator the engine uses for p, including the time unit.
func (e *Engine) Hamiltonian(p twolevel.Parameters) Hamiltonian {
	return e.convention(p).Scale(p.EffectiveTimeUnit())
}

// Evolve integrates state0 over grid and returns the sampled trajectory.
// The first grid time is the time of state0.
func (e *Engine) Evolve(
	ctx context.Context,
	params twolevel.Parameters,
	state0 twolevel.Amplitudes,
	grid twolevel.TimeGrid,
) (*twolevel.Trajectory, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if err := state0.ValidateInitial(); err != nil {
		return nil, err
	}

	if err := e.tolerances.Validate(); err != nil {
		return nil, err
	}

	if err := grid.Validate(); err != nil {
		return nil, &twolevel.IntegrationError{Wrapped: err}
	}

	h := e.Hamiltonian(params)
	if !h.IsFinite() {
		return nil, &twolevel.ConfigurationError{
			Field:  "hamiltonian",
			Value:  h,
			Reason: "entries must be finite",
		}
	}

	switch e.method {
	case MethodDormandPrince:
		return e.evolveAdaptive(ctx, h, state0, grid)
	case MethodExact:
		if !h.IsHermitian(hermitianTolerance) {
			return nil, &twolevel.ConfigurationError{
				Field:  "hamiltonian",
				Value:  h,
				Reason: "exact propagation requires a Hermitian generator",
			}
		}

		return e.evolveExact(ctx, h, state0, grid)
	default:
		return nil, &twolevel.ConfigurationError{
			Field:  "method",
			Value:  e.method,
			Reason: fmt.Sprintf("unknown method, expected %q or %q", MethodDormandPrince, MethodExact),
		}
	}
}

// ParseMethod converts a configuration string into a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodDormandPrince, MethodExact:
		return m, nil
	case "":
		return MethodDormandPrince, nil
	default:
		return "", &twolevel.ConfigurationError{
			Field:  "method",
			Value:  s,
			Reason: fmt.Sprintf("unknown method, expected %q or %q", MethodDormandPrince, MethodExact),
		}
	}
}

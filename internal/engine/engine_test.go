package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
)

// oscillator is the ε=1, m=0.5 direct-convention system used by several tests.
var oscillator = twolevel.Parameters{ //nolint:gochecknoglobals // Shared read-only fixture.
	Coupling:           1,
	DarkMass:           0.5,
	ReferenceFrequency: 1,
}

func mustGrid(t *testing.T, start, end float64, n int) twolevel.TimeGrid {
	t.Helper()

	g, err := twolevel.UniformGrid(start, end, n)
	require.NoError(t, err)

	return g
}

func evolveAndDerive(
	t *testing.T,
	e *Engine,
	p twolevel.Parameters,
	g twolevel.TimeGrid,
) (*twolevel.Trajectory, *twolevel.Diagnostics) {
	t.Helper()

	tr, err := e.Evolve(context.Background(), p, twolevel.PureVisible, g)
	require.NoError(t, err)

	d, err := DeriveDiagnostics(tr, DefaultDiagnosticsOptions())
	require.NoError(t, err)

	return tr, d
}

// TestEvolve_ConservesProbabilityAndBounds checks probability conservation and the entropy band.
func TestEvolve_ConservesProbabilityAndBounds(t *testing.T) {
	t.Parallel()

	e := New(WithConvention(Direct))
	tr, d := evolveAndDerive(t, e, oscillator, mustGrid(t, 0, 20, 401))

	require.Equal(t, 401, tr.Len())
	require.False(t, tr.DriftFlagged())
	require.True(t, d.EntropyWithinBounds)
	require.True(t, d.ProbabilityWithinBounds)
	require.Empty(t, d.Warnings)

	for i := range d.Survival {
		require.InDelta(t, 1, d.Survival[i]+d.Conversion[i], 1e-6, "sample %d", i)
		require.GreaterOrEqual(t, d.Entropy[i], -1e-6)
		require.LessOrEqual(t, d.Entropy[i], math.Ln2+1e-6)
	}
}

// TestEvolve_InitialSample asserts a pure visible photon starts unentangled.
func TestEvolve_InitialSample(t *testing.T) {
	t.Parallel()

	_, d := evolveAndDerive(t, New(WithConvention(Direct)), oscillator, mustGrid(t, 0, 5, 50))

	require.InDelta(t, 0, d.Entropy[0], 1e-12)
	require.InDelta(t, 1, d.Survival[0], 1e-12)
	require.InDelta(t, 1, d.Purity[0], 1e-12)
}

// TestEvolve_Deterministic verifies identical inputs produce identical trajectories.
func TestEvolve_Deterministic(t *testing.T) {
	t.Parallel()

	e := New(WithConvention(Direct))
	g := mustGrid(t, 0, 30, 300)

	first, err := e.Evolve(context.Background(), oscillator, twolevel.PureVisible, g)
	require.NoError(t, err)

	second, err := e.Evolve(context.Background(), oscillator, twolevel.PureVisible, g)
	require.NoError(t, err)

	require.Equal(t, first.Samples(), second.Samples())
	require.Equal(t, first.Steps(), second.Steps())
}

// TestEvolve_MatchesExactPropagator compares the adaptive solver against the closed form.
func TestEvolve_MatchesExactPropagator(t *testing.T) {
	t.Parallel()

	g := mustGrid(t, 0, 20, 201)

	_, adaptive := evolveAndDerive(t, New(WithConvention(Direct)), oscillator, g)
	_, exact := evolveAndDerive(t, New(WithConvention(Direct), WithMethod(MethodExact)), oscillator, g)

	approx := cmpopts.EquateApprox(0, 1e-6)
	if diff := cmp.Diff(exact.Survival, adaptive.Survival, approx); diff != "" {
		t.Errorf("survival mismatch (-exact +adaptive):\n%s", diff)
	}

	if diff := cmp.Diff(exact.Entropy, adaptive.Entropy, approx); diff != "" {
		t.Errorf("entropy mismatch (-exact +adaptive):\n%s", diff)
	}
}

// TestEvolve_NoCouplingNoEntanglement asserts ε=0 never develops entropy.
func TestEvolve_NoCouplingNoEntanglement(t *testing.T) {
	t.Parallel()

	for _, conv := range []Convention{Direct, Dispersive} {
		p := twolevel.Parameters{Coupling: 0, DarkMass: 3, ReferenceFrequency: 0.7}
		_, d := evolveAndDerive(t, New(WithConvention(conv)), p, mustGrid(t, 0, 50, 200))

		for i, s := range d.Entropy {
			require.InDelta(t, 0, s, 1e-15, "sample %d", i)
		}

		require.InDelta(t, 0, d.MaxConversion, 0)
	}
}

// TestEvolve_OscillationPeriod checks the survival period of the resonant system is π.
func TestEvolve_OscillationPeriod(t *testing.T) {
	t.Parallel()

	p := twolevel.Parameters{Coupling: 1, ReferenceFrequency: 1}
	_, d := evolveAndDerive(t, New(WithConvention(Direct)), p, mustGrid(t, 0, 10, 1001))

	require.True(t, d.OscillationPeriod.Defined())
	require.Equal(t, 3, d.OscillationPeriod.Peaks)
	require.InDelta(t, math.Pi, d.OscillationPeriod.Value, 0.011)
	require.InDelta(t, 1, d.MaxConversion, 1e-4)
	require.InDelta(t, math.Ln2, d.MaxEntropy, 1e-4)
}

// TestEvolve_BenchmarkScenario reproduces the ε=5e-6, m=2e-23, ω=1e-5 benchmark.
// The grid spans [0, 1e-15] in units of 1e25 inverse Hamiltonian units.
func TestEvolve_BenchmarkScenario(t *testing.T) {
	t.Parallel()

	p := twolevel.Parameters{
		Coupling:           5e-6,
		DarkMass:           2e-23,
		ReferenceFrequency: 1e-5,
		TimeUnit:           1e25,
	}

	_, d := evolveAndDerive(t, New(), p, mustGrid(t, 0, 1e-15, 1000))

	require.Greater(t, d.MaxEntropy, 0.1*math.Ln2)
	require.Less(t, d.MaxEntropy, math.Ln2+0.1)
	require.Greater(t, d.MaxConversion, 0.01)
	require.InDelta(t, math.Pow(math.Sin(0.5), 2), d.MaxConversion, 1e-6)
}

// TestEvolve_BenchmarkLiteralUnits shows the benchmark in unit time barely mixes.
func TestEvolve_BenchmarkLiteralUnits(t *testing.T) {
	t.Parallel()

	p := twolevel.Parameters{Coupling: 5e-6, DarkMass: 2e-23, ReferenceFrequency: 1e-5}
	_, d := evolveAndDerive(t, New(), p, mustGrid(t, 0, 1e-15, 1000))

	require.Less(t, d.MaxConversion, 1e-20)
	require.True(t, d.EntropyWithinBounds)
}

// TestEvolve_Errors covers grid, state, budget and cancellation failures.
func TestEvolve_Errors(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		e   = New(WithConvention(Direct))
	)

	// Empty grid: an integration error caused by a configuration error.
	_, err := e.Evolve(ctx, oscillator, twolevel.PureVisible, twolevel.ExplicitGrid(nil))

	var (
		integrationErr *twolevel.IntegrationError
		cfgErr         *twolevel.ConfigurationError
	)

	require.True(t, errors.As(err, &integrationErr))
	require.True(t, errors.As(err, &cfgErr))
	require.ErrorIs(t, err, twolevel.ErrEmptyGrid)

	// Non-monotonic grid.
	_, err = e.Evolve(ctx, oscillator, twolevel.PureVisible, twolevel.ExplicitGrid([]float64{0, 2, 1}))
	require.ErrorIs(t, err, twolevel.ErrNonMonotonicGrid)

	// Unnormalized initial state.
	_, err = e.Evolve(ctx, oscillator, twolevel.Amplitudes{Visible: 2}, mustGrid(t, 0, 1, 10))
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "initial_state", cfgErr.Field)

	// Exhausted step budget.
	tight := DefaultTolerances()
	tight.MaxSteps = 3

	_, err = New(WithConvention(Direct), WithTolerances(tight)).
		Evolve(ctx, oscillator, twolevel.PureVisible, mustGrid(t, 0, 100, 3))
	require.ErrorIs(t, err, twolevel.ErrStepBudgetExhausted)
	require.True(t, errors.As(err, &integrationErr))
	require.Equal(t, 3, integrationErr.Step)

	// Canceled context.
	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = e.Evolve(canceled, oscillator, twolevel.PureVisible, mustGrid(t, 0, 1, 10))
	require.ErrorIs(t, err, context.Canceled)

	// Unknown method.
	_, err = New(WithMethod("euler")).Evolve(ctx, oscillator, twolevel.PureVisible, mustGrid(t, 0, 1, 10))
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "method", cfgErr.Field)
}

// TestEvolve_ExactRejectsNonHermitian ensures the exact method validates its generator.
func TestEvolve_ExactRejectsNonHermitian(t *testing.T) {
	t.Parallel()

	skew := func(twolevel.Parameters) Hamiltonian {
		return Hamiltonian{{0, 1}, {-1, 0}}
	}

	_, err := New(WithConvention(skew), WithMethod(MethodExact)).
		Evolve(context.Background(), oscillator, twolevel.PureVisible, mustGrid(t, 0, 1, 10))

	var cfgErr *twolevel.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "hamiltonian", cfgErr.Field)
}

// TestEvolve_QuickToleranceDriftIsDiagnostic ensures drift is flagged, not returned as an error.
func TestEvolve_QuickToleranceDriftIsDiagnostic(t *testing.T) {
	t.Parallel()

	loose := QuickTolerances()
	loose.DriftThreshold = 1e-15

	tr, err := New(WithConvention(Direct), WithTolerances(loose)).
		Evolve(context.Background(), oscillator, twolevel.PureVisible, mustGrid(t, 0, 200, 100))
	require.NoError(t, err)
	require.True(t, tr.DriftFlagged())

	d, err := DeriveDiagnostics(tr, DefaultDiagnosticsOptions())
	require.NoError(t, err)
	require.NotEmpty(t, d.Warnings)
	require.Equal(t, twolevel.WarningNormDrift, d.Warnings[len(d.Warnings)-1].Kind)
}

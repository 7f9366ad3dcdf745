package constraints

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
	"github.com/oshokin/photon-entanglement/internal/engine"
	"github.com/oshokin/photon-entanglement/internal/grid"
)

// TestLimits_Classification checks the viability and detectability rules.
func TestLimits_Classification(t *testing.T) {
	t.Parallel()

	l := DefaultLimits()
	require.NoError(t, l.Validate())
	require.InDelta(t, 1e-8, l.Tightest(), 0)

	require.True(t, l.Viable(5e-9))
	require.False(t, l.Viable(1e-8))

	require.True(t, l.Detectable(5e-9, 0.02))
	require.False(t, l.Detectable(5e-9, 0.001), "below minimum conversion")
	require.False(t, l.Detectable(5e-10, 0.5), "below future sensitivity")
	require.False(t, l.Detectable(1e-7, 0.5), "excluded by existing bounds")

	l.Laboratory = 0
	require.ErrorIs(t, l.Validate(), errLimitNotPositive)
}

// TestMaxConversion matches sin²2θ for the direct convention.
func TestMaxConversion(t *testing.T) {
	t.Parallel()

	p := twolevel.Parameters{Coupling: 1e-7, DarkMass: 1e-7, ReferenceFrequency: 1}
	require.InDelta(t, 0.8, MaxConversion(engine.Direct, p), 1e-12)

	p.Coupling = 0
	require.Zero(t, MaxConversion(engine.Direct, p))
}

// TestRun_Fractions classifies a small hand-checked grid.
func TestRun_Fractions(t *testing.T) {
	t.Parallel()

	couplings := grid.Axis{Name: "coupling", Values: []float64{1e-9, 1e-8, 1e-7, 1e-6, 1e-5}}

	res, err := Run(context.Background(), Scan{
		Couplings:          couplings,
		Masses:             grid.Axis{Name: "dark_mass", Values: []float64{1e-12, 1e-7}},
		ReferenceFrequency: 1,
		Convention:         engine.Direct,
		Limits: Limits{
			CMB:               1e-6,
			Laboratory:        1e-6,
			Astrophysical:     1e-6,
			FutureSensitivity: 1e-9,
			MinConversion:     0.5,
		},
		Workers: 2,
	})
	require.NoError(t, err)
	require.Equal(t, 10, res.Points)
	require.InDelta(t, 0.6, res.ViableFraction, 1e-12)
	require.InDelta(t, 0.5, res.DetectableFraction, 1e-12, "3 of 6 viable points")
	require.InDelta(t, 1, res.MaxConversion, 1e-9)

	for _, row := range res.Conversion.Values {
		for _, v := range row {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
		}
	}
}

// TestLimits_Classify counts detectable points against the viable ones only.
func TestLimits_Classify(t *testing.T) {
	t.Parallel()

	l := DefaultLimits()
	m := &grid.Map{
		Rows:   grid.Axis{Name: "coupling", Values: []float64{5e-9, 5e-9, 1e-5, 1e-4}},
		Cols:   grid.Axis{Name: "dark_mass", Values: []float64{1}},
		Values: [][]float64{{0.5}, {0.001}, {0.9}, {0.9}},
	}

	viable, detectable := l.Classify(m)
	require.InDelta(t, 0.5, viable, 1e-12)
	require.InDelta(t, 0.5, detectable, 1e-12)

	m.Rows.Values = []float64{1e-5, 1e-5, 1e-4, 1e-4}
	viable, detectable = l.Classify(m)
	require.Zero(t, viable)
	require.Zero(t, detectable, "nothing viable")
}

// TestRun_InvalidInput rejects a missing convention, bad limits and bad cells.
func TestRun_InvalidInput(t *testing.T) {
	t.Parallel()

	axis := grid.Axis{Name: "x", Values: []float64{1e-8}}

	_, err := Run(context.Background(), Scan{Couplings: axis, Masses: axis, Limits: DefaultLimits()})
	require.ErrorIs(t, err, errNoConvention)

	_, err = Run(context.Background(), Scan{
		Couplings: axis, Masses: axis, Convention: engine.Direct,
		ReferenceFrequency: 1,
	})
	require.ErrorIs(t, err, errLimitNotPositive)

	_, err = Run(context.Background(), Scan{
		Couplings: axis, Masses: axis, Convention: engine.Dispersive,
		Limits: DefaultLimits(),
	})

	var cfgErr *twolevel.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "reference_frequency", cfgErr.Field)
}

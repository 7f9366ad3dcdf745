// Package constraints maps the analytic maximum conversion probability over a
// coupling × mass grid and classifies each point against experimental limits.
package constraints

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
	"github.com/oshokin/photon-entanglement/internal/engine"
	"github.com/oshokin/photon-entanglement/internal/grid"
	"github.com/oshokin/photon-entanglement/internal/logger"
)

var (
	errLimitNotPositive = errors.New("limit must be positive")
	errNoConvention     = errors.New("convention is required")
)

// Limits are the coupling bounds and the conversion threshold used to
// classify a parameter point.
type Limits struct {
	// CMB is the cosmological coupling bound.
	CMB float64 `yaml:"cmb"`
	// Laboratory is the bound from laboratory searches.
	Laboratory float64 `yaml:"laboratory"`
	// Astrophysical is the bound from stellar cooling.
	Astrophysical float64 `yaml:"astrophysical"`
	// FutureSensitivity is the weakest coupling a planned survey could see.
	FutureSensitivity float64 `yaml:"future_sensitivity"`
	// MinConversion is the smallest conversion probability counted as a signal.
	MinConversion float64 `yaml:"min_conversion"`
}

// DefaultLimits returns the reference bounds.
func DefaultLimits() Limits {
	return Limits{
		CMB:               1e-6,
		Laboratory:        1e-7,
		Astrophysical:     1e-8,
		FutureSensitivity: 1e-9,
		MinConversion:     0.01,
	}
}

// Validate rejects non-positive limits.
func (l Limits) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"cmb", l.CMB},
		{"laboratory", l.Laboratory},
		{"astrophysical", l.Astrophysical},
		{"future_sensitivity", l.FutureSensitivity},
		{"min_conversion", l.MinConversion},
	} {
		if !(v.value > 0) {
			return fmt.Errorf("%s=%g: %w", v.name, v.value, errLimitNotPositive)
		}
	}

	return nil
}

// Tightest returns the smallest existing coupling bound.
func (l Limits) Tightest() float64 {
	return min(l.CMB, l.Laboratory, l.Astrophysical)
}

// Viable reports whether the coupling evades every existing bound.
func (l Limits) Viable(coupling float64) bool {
	return coupling < l.Tightest()
}

// Detectable reports whether a viable point is strong enough for a future
// survey and converts at least MinConversion of the photons.
func (l Limits) Detectable(coupling, conversion float64) bool {
	return l.Viable(coupling) &&
		coupling > l.FutureSensitivity &&
		conversion >= l.MinConversion
}

// Classify returns the share of cells in a coupling × mass conversion map
// that evade every bound, and the share of those viable cells a future survey
// would see. The detectable fraction is zero when nothing is viable.
func (l Limits) Classify(m *grid.Map) (viable, detectable float64) {
	nViable := m.CountWhere(func(coupling, _, _ float64) bool {
		return l.Viable(coupling)
	})
	if nViable == 0 {
		return 0, 0
	}

	nDetectable := m.CountWhere(func(coupling, _, conversion float64) bool {
		return l.Detectable(coupling, conversion)
	})

	return float64(nViable) / float64(m.Len()), float64(nDetectable) / float64(nViable)
}

// Scan describes a constraint scan.
type Scan struct {
	// Couplings is the row axis.
	Couplings grid.Axis
	// Masses is the column axis.
	Masses grid.Axis
	// ReferenceFrequency is ω shared by every point.
	ReferenceFrequency float64
	// Convention builds the Hamiltonian for each point.
	Convention engine.Convention
	// Limits classify the points.
	Limits Limits
	// Workers bounds the scan parallelism.
	Workers int
}

// Result summarizes a constraint scan.
type Result struct {
	// Conversion holds sin²2θ per (coupling, mass).
	Conversion *grid.Map
	// ViableFraction is the share of points below every coupling bound.
	ViableFraction float64
	// DetectableFraction is the share of viable points a future survey would see.
	DetectableFraction float64
	// MaxConversion is the largest conversion on the grid.
	MaxConversion float64
	// Points is the number of grid points.
	Points int
}

// MaxConversion returns the analytic peak conversion for p under conv.
func MaxConversion(conv engine.Convention, p twolevel.Parameters) float64 {
	return conv(p).MixingAmplitude()
}

// Run evaluates the conversion map and classifies it.
func Run(ctx context.Context, s Scan) (*Result, error) {
	if s.Convention == nil {
		return nil, errNoConvention
	}

	if err := s.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("validate limits: %w", err)
	}

	ctx = logger.WithName(ctx, "constraints")

	m, err := grid.Evaluate(ctx, s.Couplings, s.Masses,
		func(_ context.Context, coupling, mass float64) (float64, error) {
			p := twolevel.Parameters{
				Coupling:           coupling,
				DarkMass:           mass,
				ReferenceFrequency: s.ReferenceFrequency,
			}
			if err := p.Validate(); err != nil {
				return 0, err
			}

			return MaxConversion(s.Convention, p), nil
		},
		grid.WithWorkers(s.Workers),
	)
	if err != nil {
		return nil, fmt.Errorf("scan conversion map: %w", err)
	}

	best, _, _ := m.Max()
	res := &Result{
		Conversion:    m,
		MaxConversion: best,
		Points:        m.Len(),
	}
	res.ViableFraction, res.DetectableFraction = s.Limits.Classify(m)

	logger.InfoKV(ctx, "Constraint scan finished",
		"points", res.Points,
		"viable_fraction", res.ViableFraction,
		"detectable_fraction", res.DetectableFraction,
		"max_conversion", res.MaxConversion,
	)

	return res, nil
}

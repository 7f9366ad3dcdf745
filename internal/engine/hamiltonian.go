package engine

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
)

// Hamiltonian is the 2×2 generator of the evolution in the (visible, dark) basis.
type Hamiltonian [2][2]complex128

// Convention builds the mixing Hamiltonian from the physical parameters.
type Convention func(p twolevel.Parameters) Hamiltonian

const (
	// ConventionDirect names the H = [[0, ε], [ε, m]] convention.
	ConventionDirect = "direct"
	// ConventionDispersive names the H = [[0, εω], [εω, m²/(2ω)]] convention.
	ConventionDispersive = "dispersive"
)

// Direct uses the coupling and the dark mass as matrix entries.
func Direct(p twolevel.Parameters) Hamiltonian {
	c := complex(p.Coupling, 0)

	return Hamiltonian{
		{0, c},
		{c, complex(p.DarkMass, 0)},
	}
}

// Dispersive scales the coupling by ω and uses the relativistic m²/(2ω) detuning.
func Dispersive(p twolevel.Parameters) Hamiltonian {
	omega := p.ReferenceFrequency
	c := complex(p.Coupling*omega, 0)

	return Hamiltonian{
		{0, c},
		{c, complex(p.DarkMass*p.DarkMass/(2*omega), 0)},
	}
}

//nolint:gochecknoglobals // Read-only registry of the built-in conventions.
var conventions = map[string]Convention{
	ConventionDirect:     Direct,
	ConventionDispersive: Dispersive,
}

// ConventionByName looks up a built-in convention.
func ConventionByName(name string) (Convention, error) {
	c, ok := conventions[name]
	if !ok {
		return nil, &twolevel.ConfigurationError{
			Field:  "convention",
			Value:  name,
			Reason: fmt.Sprintf("unknown convention, expected one of %v", ConventionNames()),
		}
	}

	return c, nil
}

// ConventionNames lists the built-in convention names in sorted order.
func ConventionNames() []string {
	names := make([]string, 0, len(conventions))
	for name := range conventions {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Scale returns s·H.
func (h Hamiltonian) Scale(s float64) Hamiltonian {
	f := complex(s, 0)

	return Hamiltonian{
		{h[0][0] * f, h[0][1] * f},
		{h[1][0] * f, h[1][1] * f},
	}
}

// IsHermitian reports whether H equals its conjugate transpose within tol.
func (h Hamiltonian) IsHermitian(tol float64) bool {
	return math.Abs(imag(h[0][0])) <= tol &&
		math.Abs(imag(h[1][1])) <= tol &&
		cmplx.Abs(h[0][1]-cmplx.Conj(h[1][0])) <= tol
}

// IsFinite reports whether every entry is finite.
func (h Hamiltonian) IsFinite() bool {
	for i := range 2 {
		for j := range 2 {
			if cmplx.IsNaN(h[i][j]) || cmplx.IsInf(h[i][j]) {
				return false
			}
		}
	}

	return true
}

// MixingAmplitude returns the peak conversion probability sin²2θ reached by a
// pure visible state, 4|H12|² / ((H22−H11)² + 4|H12|²). A Hamiltonian without
// off-diagonal coupling yields 0.
func (h Hamiltonian) MixingAmplitude() float64 {
	off := cmplx.Abs(h[0][1])
	if off == 0 {
		return 0
	}

	detuning := real(h[1][1]) - real(h[0][0])
	coupling := 4 * off * off

	return coupling / (detuning*detuning + coupling)
}

// apply returns -i·H·y.
func (h Hamiltonian) apply(y vector) vector {
	return vector{
		-1i * (h[0][0]*y[0] + h[0][1]*y[1]),
		-1i * (h[1][0]*y[0] + h[1][1]*y[1]),
	}
}

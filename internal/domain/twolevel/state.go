package twolevel

import (
	"math"
	"math/cmplx"
)

// NormTolerance is the maximum deviation of |visible|²+|dark|² from 1 accepted
// for an initial state.
const NormTolerance = 1e-6

// Amplitudes is a pure two-level state expressed in the (visible, dark) basis.
type Amplitudes struct {
	// Visible is the photon amplitude.
	Visible complex128
	// Dark is the dark-photon amplitude.
	Dark complex128
}

// PureVisible is the unmixed photon state (1, 0).
var PureVisible = Amplitudes{Visible: 1}

// Norm returns the total probability |visible|²+|dark|².
func (a Amplitudes) Norm() float64 {
	return absSquared(a.Visible) + absSquared(a.Dark)
}

// IsFinite reports whether both amplitudes are free of NaN and infinities.
func (a Amplitudes) IsFinite() bool {
	return !cmplx.IsNaN(a.Visible) && !cmplx.IsInf(a.Visible) &&
		!cmplx.IsNaN(a.Dark) && !cmplx.IsInf(a.Dark)
}

// ValidateInitial checks that a is usable as an initial state.
func (a Amplitudes) ValidateInitial() error {
	if !a.IsFinite() {
		return configError("initial_state", a, "amplitudes must be finite")
	}

	if norm := a.Norm(); math.Abs(norm-1) > NormTolerance {
		return configError("initial_state", a, "state must be normalized (|visible|²+|dark|² = 1)")
	}

	return nil
}

// Survival returns the visible-state probability |visible|².
func (a Amplitudes) Survival() float64 {
	return absSquared(a.Visible)
}

// Conversion returns the dark-state probability |dark|².
func (a Amplitudes) Conversion() float64 {
	return absSquared(a.Dark)
}

// Coherence returns |visible·conj(dark)|.
func (a Amplitudes) Coherence() float64 {
	return cmplx.Abs(a.Visible * cmplx.Conj(a.Dark))
}

// Concurrence returns 2|visible·dark|.
func (a Amplitudes) Concurrence() float64 {
	return 2 * cmplx.Abs(a.Visible*a.Dark)
}

// DensityMatrix is a 2×2 complex matrix in the (visible, dark) basis.
type DensityMatrix [2][2]complex128

// NewDensityMatrix returns the outer product |a⟩⟨a| normalized by its trace.
// A zero state yields the zero matrix.
func NewDensityMatrix(a Amplitudes) DensityMatrix {
	v := [2]complex128{a.Visible, a.Dark}

	var rho DensityMatrix

	for i := range 2 {
		for j := range 2 {
			rho[i][j] = v[i] * cmplx.Conj(v[j])
		}
	}

	trace := real(rho[0][0] + rho[1][1])
	if trace == 0 {
		return rho
	}

	for i := range 2 {
		for j := range 2 {
			rho[i][j] /= complex(trace, 0)
		}
	}

	return rho
}

// Trace returns the (real part of the) trace.
func (m DensityMatrix) Trace() float64 {
	return real(m[0][0] + m[1][1])
}

// IsHermitian reports whether m equals its conjugate transpose within tol.
func (m DensityMatrix) IsHermitian(tol float64) bool {
	return math.Abs(imag(m[0][0])) <= tol &&
		math.Abs(imag(m[1][1])) <= tol &&
		cmplx.Abs(m[0][1]-cmplx.Conj(m[1][0])) <= tol
}

// Eigenvalues returns the eigenvalues of the Hermitian part of m in ascending order.
func (m DensityMatrix) Eigenvalues() [2]float64 {
	a := real(m[0][0])
	d := real(m[1][1])
	b := (m[0][1] + cmplx.Conj(m[1][0])) / 2

	mean := (a + d) / 2
	half := (a - d) / 2
	radius := math.Sqrt(half*half + absSquared(b))

	return [2]float64{mean - radius, mean + radius}
}

// Reduced returns the single-mode reduced density matrix diag(ρ00, ρ11): the
// state of either mode after tracing out the other one.
func (m DensityMatrix) Reduced() DensityMatrix {
	return DensityMatrix{
		{m[0][0], 0},
		{0, m[1][1]},
	}
}

// Purity returns Tr ρ².
func (m DensityMatrix) Purity() float64 {
	var sum float64

	for i := range 2 {
		for j := range 2 {
			sum += real(m[i][j] * m[j][i])
		}
	}

	return sum
}

func absSquared(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

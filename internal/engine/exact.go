package engine

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
)

// propagator returns exp(−iHτ) for a Hermitian H.
//
// Writing H = μI + K with μ = (H11+H22)/2 and Ω² = ((H11−H22)/2)² + |H12|²,
// K² = Ω²I, so exp(−iHτ) = e^{−iμτ}(cos(Ωτ)I − i·sin(Ωτ)/Ω·K).
func propagator(h Hamiltonian, tau float64) Hamiltonian {
	mean := (real(h[0][0]) + real(h[1][1])) / 2
	half := (real(h[0][0]) - real(h[1][1])) / 2
	off := cmplx.Abs(h[0][1])
	omega := math.Hypot(half, off)

	c := math.Cos(omega * tau)

	sinc := tau
	if omega != 0 {
		sinc = math.Sin(omega*tau) / omega
	}

	phase := cmplx.Exp(complex(0, -mean*tau))
	s := complex(0, -sinc)

	return Hamiltonian{
		{phase * (complex(c, 0) + s*complex(half, 0)), phase * s * h[0][1]},
		{phase * s * h[1][0], phase * (complex(c, 0) - s*complex(half, 0))},
	}
}

// evolveExact applies the closed-form propagator from the first grid time to
// every sample, so no error accumulates between samples.
func (e *Engine) evolveExact(
	ctx context.Context,
	h Hamiltonian,
	state0 twolevel.Amplitudes,
	grid twolevel.TimeGrid,
) (*twolevel.Trajectory, error) {
	var (
		n       = grid.Len()
		t0      = grid.At(0)
		samples = make([]twolevel.Sample, n)
	)

	samples[0] = twolevel.Sample{Time: t0, State: state0}

	for i := 1; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, &twolevel.IntegrationError{Step: i - 1, Time: grid.At(i - 1), Wrapped: err}
		}

		u := propagator(h, grid.At(i)-t0)
		state := twolevel.Amplitudes{
			Visible: u[0][0]*state0.Visible + u[0][1]*state0.Dark,
			Dark:    u[1][0]*state0.Visible + u[1][1]*state0.Dark,
		}

		if !state.IsFinite() {
			return nil, &twolevel.IntegrationError{Step: i, Time: grid.At(i), Wrapped: twolevel.ErrNonFiniteState}
		}

		samples[i] = twolevel.Sample{Time: grid.At(i), State: state}
	}

	return twolevel.NewTrajectory(samples, n-1, e.tolerances.DriftThreshold), nil
}

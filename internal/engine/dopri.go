package engine

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
)

// vector is the (visible, dark) amplitude pair used by the solvers.
type vector [2]complex128

func (v vector) amplitudes() twolevel.Amplitudes {
	return twolevel.Amplitudes{Visible: v[0], Dark: v[1]}
}

func (v vector) finite() bool {
	return v.amplitudes().IsFinite()
}

// axpy returns y + Σ c_k·h·k_k.
func axpy(y vector, h float64, coeffs []float64, ks []vector) vector {
	out := y

	for i := range out {
		var sum complex128

		for k, c := range coeffs {
			if c != 0 {
				sum += complex(c, 0) * ks[k][i]
			}
		}

		out[i] += complex(h, 0) * sum
	}

	return out
}

// Dormand–Prince 5(4) tableau.
//
//nolint:gochecknoglobals,mnd // Butcher tableau constants.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][]float64{
		nil,
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// dpE is the difference between the 5th and the embedded 4th order weights.
	dpE = []float64{
		71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40,
	}
)

const (
	// stepSafety damps the optimal step estimate.
	stepSafety = 0.9
	// minStepFactor and maxStepFactor bound step changes between attempts.
	minStepFactor = 0.2
	maxStepFactor = 10.0
	// errorExponent is −1/(q+1) for the embedded 4th order estimate.
	errorExponent = -1.0 / 5
)

// dopriStep advances y by h and returns the 5th order solution and the scaled
// RMS error norm. The system is autonomous so t is not needed.
func dopriStep(h Hamiltonian, y vector, step float64, tol Tolerances) (vector, float64) {
	var ks [7]vector

	ks[0] = h.apply(y)
	for s := 1; s < 7; s++ {
		ks[s] = h.apply(axpy(y, step, dpA[s], ks[:s]))
	}

	// Row 6 of the tableau equals the 5th order weights (FSAL).
	next := axpy(y, step, dpA[6], ks[:6])

	errVec := axpy(vector{}, step, dpE, ks[:])

	var sum float64

	for i := range y {
		scale := tol.Abs + tol.Rel*math.Max(cmplx.Abs(y[i]), cmplx.Abs(next[i]))
		r := cmplx.Abs(errVec[i]) / scale
		sum += r * r
	}

	return next, math.Sqrt(sum / float64(len(y)))
}

// rmsScaled is the weighted RMS norm used by the initial step heuristic.
func rmsScaled(v, ref vector, tol Tolerances) float64 {
	var sum float64

	for i := range v {
		scale := tol.Abs + tol.Rel*cmplx.Abs(ref[i])
		r := cmplx.Abs(v[i]) / scale
		sum += r * r
	}

	return math.Sqrt(sum / float64(len(v)))
}

// initialStep follows the Hairer–Nørsett–Wanner starting step heuristic.
func initialStep(h Hamiltonian, y vector, span float64, tol Tolerances) float64 {
	f0 := h.apply(y)
	d0 := rmsScaled(y, y, tol)
	d1 := rmsScaled(f0, y, tol)

	h0 := 1e-6 * span
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}

	h0 = math.Min(h0, span)

	y1 := axpy(y, h0, []float64{1}, []vector{f0})
	f1 := h.apply(y1)
	d2 := rmsScaled(vector{f1[0] - f0[0], f1[1] - f0[1]}, y, tol) / h0

	var h1 float64
	if math.Max(d1, d2) <= 1e-15 {
		h1 = math.Max(1e-6*span, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/5)
	}

	return math.Min(math.Min(100*h0, h1), span)
}

// minStepAt is the smallest step distinguishable from t.
func minStepAt(t float64) float64 {
	return 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
}

// evolveAdaptive integrates with error-controlled Dormand–Prince steps that land
// exactly on every grid time.
func (e *Engine) evolveAdaptive(
	ctx context.Context,
	h Hamiltonian,
	state0 twolevel.Amplitudes,
	grid twolevel.TimeGrid,
) (*twolevel.Trajectory, error) {
	var (
		tol     = e.tolerances
		n       = grid.Len()
		samples = make([]twolevel.Sample, n)
		y       = vector{state0.Visible, state0.Dark}
		t       = grid.At(0)
		span    = grid.At(n-1) - t
		step    = initialStep(h, y, span, tol)
		steps   int
	)

	samples[0] = twolevel.Sample{Time: t, State: state0}

	for i := 1; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, &twolevel.IntegrationError{Step: steps, Time: t, Wrapped: err}
		}

		target := grid.At(i)

		for t < target {
			if steps >= tol.MaxSteps {
				return nil, &twolevel.IntegrationError{
					Step:    steps,
					Time:    t,
					Wrapped: twolevel.ErrStepBudgetExhausted,
				}
			}

			remaining := target - t
			clipped := step >= remaining
			attempt := step

			if clipped {
				attempt = remaining
			}

			next, errNorm := dopriStep(h, y, attempt, tol)
			steps++

			if !next.finite() || math.IsNaN(errNorm) {
				return nil, &twolevel.IntegrationError{Step: steps, Time: t, Wrapped: twolevel.ErrNonFiniteState}
			}

			factor := maxStepFactor
			if errNorm > 0 {
				factor = math.Min(maxStepFactor, math.Max(minStepFactor, stepSafety*math.Pow(errNorm, errorExponent)))
			}

			if errNorm <= 1 {
				if clipped {
					t = target
				} else {
					t += attempt
				}

				y = next

				// A step shortened to hit the grid says nothing about the optimal size.
				step = math.Max(step, attempt*factor)
				if !clipped {
					step = attempt * factor
				}

				continue
			}

			step = attempt * math.Min(1, factor)
			if step < minStepAt(t) {
				return nil, &twolevel.IntegrationError{Step: steps, Time: t, Wrapped: twolevel.ErrStepTooSmall}
			}
		}

		samples[i] = twolevel.Sample{Time: target, State: y.amplitudes()}
	}

	return twolevel.NewTrajectory(samples, steps, tol.DriftThreshold), nil
}

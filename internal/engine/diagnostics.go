package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
)

// EntropyMode selects which density matrix the entropy is computed from.
type EntropyMode string

const (
	// EntropySubsystem uses the single-mode reduced density matrix: the
	// entanglement entropy between the visible and the dark mode.
	EntropySubsystem EntropyMode = "subsystem"
	// EntropyState uses the full two-level density matrix (zero for pure states).
	EntropyState EntropyMode = "state"
)

// MaxEntropy is the largest entropy of a two-level system, ln 2.
const MaxEntropy = math.Ln2

// DiagnosticsOptions tunes DeriveDiagnostics.
type DiagnosticsOptions struct {
	// EntropyFloor drops eigenvalues at or below it to avoid 0·ln 0.
	EntropyFloor float64
	// BoundsTolerance is the slack allowed around [0, ln 2] and [0, 1].
	BoundsTolerance float64
	// PeakHeight is the minimum survival probability of an oscillation peak.
	PeakHeight float64
	// Mode selects the entropy source.
	Mode EntropyMode
}

// DefaultDiagnosticsOptions returns the recommended settings.
func DefaultDiagnosticsOptions() DiagnosticsOptions {
	return DiagnosticsOptions{
		EntropyFloor:    1e-12,
		BoundsTolerance: 1e-6,
		PeakHeight:      DefaultPeakHeight,
		Mode:            EntropySubsystem,
	}
}

// ParseEntropyMode converts a configuration string into an EntropyMode.
func ParseEntropyMode(s string) (EntropyMode, error) {
	switch m := EntropyMode(s); m {
	case EntropySubsystem, EntropyState:
		return m, nil
	case "":
		return EntropySubsystem, nil
	default:
		return "", &twolevel.ConfigurationError{
			Field:  "entropy_mode",
			Value:  s,
			Reason: fmt.Sprintf("expected %q or %q", EntropySubsystem, EntropyState),
		}
	}
}

// VonNeumannEntropy returns −Σ λ ln λ over eigenvalues strictly above floor.
func VonNeumannEntropy(eigenvalues []float64, floor float64) float64 {
	var s float64

	for _, l := range eigenvalues {
		if l > floor {
			s -= l * math.Log(l)
		}
	}

	return s
}

// warningTracker accumulates out-of-band samples of one kind.
type warningTracker struct {
	warning twolevel.Warning
	excess  float64
}

func (w *warningTracker) observe(index int, t, value, excess float64) {
	if w.warning.Count == 0 {
		w.warning.FirstIndex = index
		w.warning.FirstTime = t
	}

	w.warning.Count++

	if excess > w.excess || w.warning.Count == 1 {
		w.excess = excess
		w.warning.Worst = value
	}
}

// outside returns how far v lies outside [lo-tol, hi+tol], or 0.
func outside(v, lo, hi, tol float64) float64 {
	switch {
	case v < lo-tol:
		return lo - v
	case v > hi+tol:
		return v - hi
	default:
		return 0
	}
}

// DeriveDiagnostics computes per-sample density matrices, entropies,
// probabilities and coherences plus the summary scalars of trajectory.
// Values outside their physical range are reported as warnings, never clamped.
func DeriveDiagnostics(trajectory *twolevel.Trajectory, opts DiagnosticsOptions) (*twolevel.Diagnostics, error) {
	mode, err := ParseEntropyMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}

	n := trajectory.Len()
	d := &twolevel.Diagnostics{
		Times:        trajectory.Times(),
		Densities:    make([]twolevel.DensityMatrix, n),
		Eigenvalues:  make([][2]float64, n),
		Purity:       make([]float64, n),
		Entropy:      make([]float64, n),
		Survival:     make([]float64, n),
		Conversion:   make([]float64, n),
		Coherence:    make([]float64, n),
		Concurrence:  make([]float64, n),
		MaxNormDrift: trajectory.MaxNormDrift(),
	}

	var entropyWarn, probabilityWarn warningTracker

	entropyWarn.warning.Kind = twolevel.WarningEntropyOutOfBounds
	probabilityWarn.warning.Kind = twolevel.WarningProbabilityOutOfBounds

	for i := range n {
		sample := trajectory.At(i)
		rho := twolevel.NewDensityMatrix(sample.State)

		d.Densities[i] = rho
		d.Eigenvalues[i] = rho.Eigenvalues()
		d.Purity[i] = rho.Purity()

		source := rho
		if mode == EntropySubsystem {
			source = rho.Reduced()
		}

		eig := source.Eigenvalues()
		d.Entropy[i] = VonNeumannEntropy(eig[:], opts.EntropyFloor)

		d.Survival[i] = sample.State.Survival()
		d.Conversion[i] = sample.State.Conversion()
		d.Coherence[i] = sample.State.Coherence()
		d.Concurrence[i] = sample.State.Concurrence()

		if ex := outside(d.Entropy[i], 0, MaxEntropy, opts.BoundsTolerance); ex > 0 {
			entropyWarn.observe(i, sample.Time, d.Entropy[i], ex)
		}

		for _, p := range [2]float64{d.Survival[i], d.Conversion[i]} {
			if ex := outside(p, 0, 1, opts.BoundsTolerance); ex > 0 {
				probabilityWarn.observe(i, sample.Time, p, ex)
			}
		}
	}

	if n > 0 {
		d.MaxEntropy = floats.Max(d.Entropy)
		d.MaxConversion = floats.Max(d.Conversion)
		d.MeanCoherence = stat.Mean(d.Coherence, nil)
	}

	d.OscillationPeriod, err = FindOscillationPeriod(d.Survival, d.Times, opts.PeakHeight)
	if err != nil {
		return nil, err
	}

	d.EntropyWithinBounds = entropyWarn.warning.Count == 0
	d.ProbabilityWithinBounds = probabilityWarn.warning.Count == 0

	for _, w := range []warningTracker{entropyWarn, probabilityWarn} {
		if w.warning.Count > 0 {
			d.Warnings = append(d.Warnings, w.warning)
		}
	}

	if trajectory.DriftFlagged() {
		d.Warnings = append(d.Warnings, twolevel.Warning{
			Kind:  twolevel.WarningNormDrift,
			Count: 1,
			Worst: d.MaxNormDrift,
		})
	}

	return d, nil
}

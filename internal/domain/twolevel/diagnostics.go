package twolevel

import "fmt"

// WarningKind classifies a non-fatal physical-bounds violation.
type WarningKind string

const (
	// WarningEntropyOutOfBounds marks entropy outside [0, ln 2] beyond tolerance.
	WarningEntropyOutOfBounds WarningKind = "entropy_out_of_bounds"
	// WarningProbabilityOutOfBounds marks a probability outside [0, 1] beyond tolerance.
	WarningProbabilityOutOfBounds WarningKind = "probability_out_of_bounds"
	// WarningNormDrift marks total probability drifting past the caller threshold.
	WarningNormDrift WarningKind = "norm_drift"
)

// Warning aggregates all samples that violated one physical bound.
type Warning struct {
	// Kind identifies the violated bound.
	Kind WarningKind
	// Count is the number of offending samples.
	Count int
	// FirstIndex is the index of the first offending sample.
	FirstIndex int
	// FirstTime is the grid time of the first offending sample.
	FirstTime float64
	// Worst is the offending value furthest from the allowed band.
	Worst float64
}

// String renders the warning for logs and reports.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %d sample(s), first at index %d (t=%g), worst value %g",
		w.Kind, w.Count, w.FirstIndex, w.FirstTime, w.Worst)
}

// Period is the measured oscillation period of a probability series.
type Period struct {
	// Value is the mean spacing between consecutive peaks; meaningful only when Defined.
	Value float64
	// Peaks is the number of peaks found.
	Peaks int
}

// Defined reports whether at least two peaks were found.
func (p Period) Defined() bool {
	return p.Peaks >= 2
}

// Diagnostics is the structured result of DeriveDiagnostics.
type Diagnostics struct {
	// Times are the sample times.
	Times []float64
	// Densities are the per-sample density matrices.
	Densities []DensityMatrix
	// Eigenvalues are the ascending eigenvalues of each density matrix.
	Eigenvalues [][2]float64
	// Purity is Tr ρ² per sample.
	Purity []float64
	// Entropy is the von Neumann entropy per sample.
	Entropy []float64
	// Survival is |visible|² per sample.
	Survival []float64
	// Conversion is |dark|² per sample.
	Conversion []float64
	// Coherence is |visible·conj(dark)| per sample.
	Coherence []float64
	// Concurrence is 2|visible·dark| per sample.
	Concurrence []float64

	// MaxEntropy is the largest entropy over the trajectory.
	MaxEntropy float64
	// MaxConversion is the largest conversion probability.
	MaxConversion float64
	// MeanCoherence is the average coherence magnitude.
	MeanCoherence float64
	// OscillationPeriod is derived from the survival series.
	OscillationPeriod Period
	// MaxNormDrift is copied from the trajectory.
	MaxNormDrift float64

	// EntropyWithinBounds is false when any entropy fell outside [0, ln 2] beyond tolerance.
	EntropyWithinBounds bool
	// ProbabilityWithinBounds is false when any probability fell outside [0, 1] beyond tolerance.
	ProbabilityWithinBounds bool
	// Warnings lists the physical-bounds violations, one entry per kind.
	Warnings []Warning
}

// HasWarnings reports whether any physical-bounds warning was raised.
func (d *Diagnostics) HasWarnings() bool {
	return len(d.Warnings) > 0
}

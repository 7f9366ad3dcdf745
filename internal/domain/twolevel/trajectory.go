package twolevel

// Sample is the state of the system at one grid time.
type Sample struct {
	// Time is the grid time of the sample.
	Time float64
	// State holds the amplitudes at Time.
	State Amplitudes
}

// Trajectory is the immutable result of one Evolve invocation.
type Trajectory struct {
	// samples is ordered by ascending time.
	samples []Sample
	// steps is the number of solver steps attempted.
	steps int
	// maxNormDrift is the largest |norm-1| observed over the samples.
	maxNormDrift float64
	// driftFlagged is set when maxNormDrift exceeded the caller threshold.
	driftFlagged bool
}

// NewTrajectory assembles a trajectory; samples are taken over, not copied.
func NewTrajectory(samples []Sample, steps int, driftThreshold float64) *Trajectory {
	var drift float64

	for _, s := range samples {
		d := s.State.Norm() - 1
		if d < 0 {
			d = -d
		}

		if d > drift {
			drift = d
		}
	}

	return &Trajectory{
		samples:      samples,
		steps:        steps,
		maxNormDrift: drift,
		driftFlagged: drift > driftThreshold,
	}
}

// Len returns the number of samples.
func (t *Trajectory) Len() int {
	return len(t.samples)
}

// At returns the i-th sample.
func (t *Trajectory) At(i int) Sample {
	return t.samples[i]
}

// Samples returns a copy of all samples.
func (t *Trajectory) Samples() []Sample {
	return append([]Sample(nil), t.samples...)
}

// Times returns the sample times.
func (t *Trajectory) Times() []float64 {
	times := make([]float64, len(t.samples))
	for i, s := range t.samples {
		times[i] = s.Time
	}

	return times
}

// Steps returns the number of solver steps attempted.
func (t *Trajectory) Steps() int {
	return t.steps
}

// MaxNormDrift returns the largest deviation of the total probability from 1.
func (t *Trajectory) MaxNormDrift() float64 {
	return t.maxNormDrift
}

// DriftFlagged reports whether MaxNormDrift exceeded the drift threshold.
func (t *Trajectory) DriftFlagged() bool {
	return t.driftFlagged
}

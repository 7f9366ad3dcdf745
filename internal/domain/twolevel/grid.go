package twolevel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MinSamples is the smallest number of samples a time grid may hold.
const MinSamples = 2

// TimeGrid is an ascending sequence of sample times.
type TimeGrid struct {
	// times holds the sample times; never mutated after construction.
	times []float64
}

// ExplicitGrid wraps caller-provided sample times. The slice is copied and
// validated lazily by Validate so that Evolve can report grid problems as
// integration failures.
func ExplicitGrid(times []float64) TimeGrid {
	return TimeGrid{
		times: append([]float64(nil), times...),
	}
}

// UniformGrid returns count evenly spaced samples covering [start, end].
func UniformGrid(start, end float64, count int) (TimeGrid, error) {
	if count < MinSamples {
		return TimeGrid{}, configError("samples", count, fmt.Sprintf("must be at least %d", MinSamples))
	}

	if !isFinite(start) || !isFinite(end) || end <= start {
		return TimeGrid{}, configError("time_span", [2]float64{start, end}, "end must be greater than start")
	}

	times := make([]float64, count)
	floats.Span(times, start, end)

	return TimeGrid{times: times}, nil
}

// Len returns the number of samples.
func (g TimeGrid) Len() int {
	return len(g.times)
}

// At returns the i-th sample time.
func (g TimeGrid) At(i int) float64 {
	return g.times[i]
}

// Times returns a copy of the sample times.
func (g TimeGrid) Times() []float64 {
	return append([]float64(nil), g.times...)
}

// Validate checks that the grid is non-empty, holds at least MinSamples finite
// times and is strictly ascending.
func (g TimeGrid) Validate() error {
	if len(g.times) == 0 {
		return &ConfigurationError{
			Field:  "time_grid",
			Value:  0,
			Reason: "no sample times",
			Cause:  ErrEmptyGrid,
		}
	}

	if len(g.times) < MinSamples {
		return configError("time_grid", len(g.times), fmt.Sprintf("must hold at least %d samples", MinSamples))
	}

	for i, t := range g.times {
		if !isFinite(t) {
			return configError("time_grid", t, fmt.Sprintf("sample %d is not finite", i))
		}

		if i > 0 && t <= g.times[i-1] {
			return &ConfigurationError{
				Field:  "time_grid",
				Value:  [2]float64{g.times[i-1], t},
				Reason: fmt.Sprintf("sample %d does not increase", i),
				Cause:  ErrNonMonotonicGrid,
			}
		}
	}

	return nil
}

package engine

import (
	"gonum.org/v1/gonum/stat"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
)

// DefaultPeakHeight is the minimum probability a peak must reach.
const DefaultPeakHeight = 0.5

// FindPeaks returns the indices of local maxima of series whose value is at
// least height. A flat top counts once, at its middle sample. The first and
// last samples are never peaks.
func FindPeaks(series []float64, height float64) []int {
	var peaks []int

	n := len(series)
	for i := 1; i < n-1; i++ {
		if series[i-1] >= series[i] {
			continue
		}

		// Walk across a plateau.
		j := i + 1
		for j < n && series[j] == series[i] {
			j++
		}

		if j < n && series[j] < series[i] && series[i] >= height {
			peaks = append(peaks, (i+j-1)/2)
		}

		i = j - 1
	}

	return peaks
}

// FindOscillationPeriod returns the mean spacing between consecutive peaks of
// series. With fewer than two peaks the period is undefined.
func FindOscillationPeriod(series, times []float64, height float64) (twolevel.Period, error) {
	if len(series) != len(times) {
		return twolevel.Period{}, &twolevel.ConfigurationError{
			Field:  "series",
			Value:  [2]int{len(series), len(times)},
			Reason: "probability series and times must have equal length",
		}
	}

	peaks := FindPeaks(series, height)
	if len(peaks) < 2 {
		return twolevel.Period{Peaks: len(peaks)}, nil
	}

	spacings := make([]float64, len(peaks)-1)
	for k := 1; k < len(peaks); k++ {
		spacings[k-1] = times[peaks[k]] - times[peaks[k-1]]
	}

	return twolevel.Period{
		Value: stat.Mean(spacings, nil),
		Peaks: len(peaks),
	}, nil
}

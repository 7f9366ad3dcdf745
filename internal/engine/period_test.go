package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
)

func integerTimes(n int) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i)
	}

	return times
}

// TestFindOscillationPeriod_MeanSpacing checks peaks at t=10, 20, 31 give 10.5.
func TestFindOscillationPeriod_MeanSpacing(t *testing.T) {
	t.Parallel()

	times := integerTimes(40)
	series := make([]float64, len(times))

	for _, at := range []int{10, 20, 31} {
		series[at] = 1
	}

	p, err := FindOscillationPeriod(series, times, DefaultPeakHeight)
	require.NoError(t, err)
	require.True(t, p.Defined())
	require.Equal(t, 3, p.Peaks)
	require.InDelta(t, 10.5, p.Value, 1e-12)
}

// TestFindOscillationPeriod_SinglePeakUndefined ensures one peak is not reported as zero.
func TestFindOscillationPeriod_SinglePeakUndefined(t *testing.T) {
	t.Parallel()

	p, err := FindOscillationPeriod([]float64{0, 0.9, 0.1}, []float64{0, 1, 2}, DefaultPeakHeight)
	require.NoError(t, err)
	require.False(t, p.Defined())
	require.Equal(t, 1, p.Peaks)
}

// TestFindPeaks_EdgesHeightAndPlateaus covers boundary, threshold and flat-top handling.
func TestFindPeaks_EdgesHeightAndPlateaus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		series []float64
		want   []int
	}{
		{name: "edges ignored", series: []float64{1, 0, 0.8, 0, 1}, want: []int{2}},
		{name: "below height", series: []float64{0, 0.4, 0, 0.6, 0}, want: []int{3}},
		{name: "plateau middle", series: []float64{0, 1, 1, 1, 0}, want: []int{2}},
		{name: "plateau to edge", series: []float64{0, 1, 1, 1}, want: nil},
		{name: "rising plateau", series: []float64{0, 0.7, 0.7, 0.9, 0}, want: []int{3}},
		{name: "too short", series: []float64{1, 2}, want: nil},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, FindPeaks(tc.series, DefaultPeakHeight), tc.name)
	}
}

// TestFindOscillationPeriod_LengthMismatch returns a configuration error.
func TestFindOscillationPeriod_LengthMismatch(t *testing.T) {
	t.Parallel()

	_, err := FindOscillationPeriod([]float64{0, 1, 0}, []float64{0, 1}, DefaultPeakHeight)

	var cfgErr *twolevel.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

// TestVonNeumannEntropy checks the floor and the maximally mixed value.
func TestVonNeumannEntropy(t *testing.T) {
	t.Parallel()

	require.InDelta(t, MaxEntropy, VonNeumannEntropy([]float64{0.5, 0.5}, 1e-12), 1e-15)
	require.InDelta(t, 0, VonNeumannEntropy([]float64{0, 1}, 1e-12), 0)
	require.InDelta(t, 0, VonNeumannEntropy([]float64{1e-13, 1}, 1e-12), 0)
}

// TestDeriveDiagnostics_ReportsOutOfBandValues ensures violations become warnings, not clamps.
func TestDeriveDiagnostics_ReportsOutOfBandValues(t *testing.T) {
	t.Parallel()

	samples := []twolevel.Sample{
		{Time: 0, State: twolevel.PureVisible},
		{Time: 1, State: twolevel.Amplitudes{Visible: 1.1}},
		{Time: 2, State: twolevel.Amplitudes{Visible: 1.2}},
	}

	d, err := DeriveDiagnostics(twolevel.NewTrajectory(samples, 2, 0.5), DefaultDiagnosticsOptions())
	require.NoError(t, err)

	require.False(t, d.ProbabilityWithinBounds)
	require.True(t, d.EntropyWithinBounds)
	require.InDelta(t, 1.44, d.Survival[2], 1e-12)
	require.Len(t, d.Warnings, 1)
	require.Equal(t, twolevel.WarningProbabilityOutOfBounds, d.Warnings[0].Kind)
	require.Equal(t, 2, d.Warnings[0].Count)
	require.Equal(t, 1, d.Warnings[0].FirstIndex)
	require.InDelta(t, 1.44, d.Warnings[0].Worst, 1e-12)
}

// TestDeriveDiagnostics_StateModeIsPure verifies full-state entropy vanishes for pure states.
func TestDeriveDiagnostics_StateModeIsPure(t *testing.T) {
	t.Parallel()

	half := complex(0.7071067811865476, 0)
	samples := []twolevel.Sample{
		{Time: 0, State: twolevel.PureVisible},
		{Time: 1, State: twolevel.Amplitudes{Visible: half, Dark: half}},
	}
	tr := twolevel.NewTrajectory(samples, 1, 1e-6)

	opts := DefaultDiagnosticsOptions()
	opts.Mode = EntropyState

	d, err := DeriveDiagnostics(tr, opts)
	require.NoError(t, err)
	require.InDelta(t, 0, d.MaxEntropy, 1e-9)

	d, err = DeriveDiagnostics(tr, DefaultDiagnosticsOptions())
	require.NoError(t, err)
	require.InDelta(t, MaxEntropy, d.MaxEntropy, 1e-12)

	opts.Mode = "bogus"
	_, err = DeriveDiagnostics(tr, opts)
	require.Error(t, err)
}

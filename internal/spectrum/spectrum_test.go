package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCompute_DefaultModel checks the template shape and the channel weighting.
func TestCompute_DefaultModel(t *testing.T) {
	t.Parallel()

	res, err := Compute(DefaultModel())
	require.NoError(t, err)
	require.Len(t, res.Multipoles, 2498)
	require.InDelta(t, 2, res.Multipoles[0], 0)
	require.InDelta(t, 2499, res.Multipoles[len(res.Multipoles)-1], 0)
	require.Len(t, res.Spectra, 3)

	// ℓ = 60 is the pivot, so the tilt factor is exactly one.
	tt := res.Spectra[0]
	require.Equal(t, TT, tt.Channel)
	require.InEpsilon(t, 1e-10*math.Exp(-60.0/2000), tt.Standard[58], 1e-12)

	for _, sp := range res.Spectra {
		for i := range sp.Standard {
			require.GreaterOrEqual(t, sp.Modified[i], sp.Standard[i])
		}
	}
}

// TestSignatures_DefaultModel locates the strongest resonance and orders channels by weight.
func TestSignatures_DefaultModel(t *testing.T) {
	t.Parallel()

	res, err := Compute(DefaultModel())
	require.NoError(t, err)

	sig := res.Signatures()
	require.InDelta(t, 150, sig.EnhancementScale, 0)

	ee, ok := sig.Channel(EE)
	require.True(t, ok)

	bb, ok := sig.Channel(BB)
	require.True(t, ok)

	tt, ok := sig.Channel(TT)
	require.True(t, ok)

	require.InDelta(t, 2e-3, ee.MaxEnhancement, 1e-6)
	require.InDelta(t, 4e-3, bb.MaxEnhancement, 2e-6)
	require.InEpsilon(t, 2*ee.SNR, bb.SNR, 1e-9)
	require.InEpsilon(t, 0.5*ee.SNR, tt.SNR, 1e-9)
	require.Positive(t, ee.MeanEnhancement)

	// Per-mille resonances stay below unit significance at 10% noise.
	require.False(t, sig.Detectable)
	require.Less(t, bb.SNR, 1.0)
}

// TestSignatures_StrongResonance becomes detectable once the amplitudes grow.
func TestSignatures_StrongResonance(t *testing.T) {
	t.Parallel()

	m := DefaultModel()
	for i := range m.Resonances {
		m.Resonances[i].Amplitude *= 10
	}

	res, err := Compute(m)
	require.NoError(t, err)
	require.True(t, res.Signatures().Detectable)
}

// TestModel_Validate rejects malformed models.
func TestModel_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultModel().Validate())

	m := DefaultModel()
	m.MaxMultipole = 1
	require.ErrorIs(t, m.Validate(), errMultipoleRange)

	m = DefaultModel()
	m.NoiseFraction = 0
	require.ErrorIs(t, m.Validate(), errNonPositive)

	m = DefaultModel()
	delete(m.Weights, BB)
	require.ErrorIs(t, m.Validate(), errMissingChannel)

	m = DefaultModel()
	m.Resonances = append(m.Resonances, Resonance{Scale: -1})
	require.ErrorIs(t, m.Validate(), errNonPositive)

	_, err := Compute(m)
	require.ErrorIs(t, err, errNonPositive)
}

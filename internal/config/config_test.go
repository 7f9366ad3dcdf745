package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
	"github.com/oshokin/photon-entanglement/internal/engine"
)

// TestDefault_IsValid ensures the built-in configuration passes validation.
func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, Validate(cfg))
	require.Equal(t, engine.ConventionDispersive, cfg.Physics.Convention)
	require.Equal(t, 1000, cfg.Time.Samples)
	require.Equal(t, twolevel.PureVisible, cfg.InitialState.Amplitudes())
	require.Equal(t, engine.DefaultTolerances(), cfg.Integrator.Tolerances())
	require.Equal(t, engine.DefaultDiagnosticsOptions(), cfg.Diagnostics.Options())
}

// TestValidate checks rejected values and filled defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)

	cfg := Default()
	cfg.ResultsDir = ""
	cfg.Physics.Convention = ""
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultResultsDir, cfg.ResultsDir)
	require.Equal(t, engine.ConventionDispersive, cfg.Physics.Convention)

	cfg = Default()
	cfg.Physics.Convention = "quantum-gravity"

	var cfgErr *twolevel.ConfigurationError
	require.ErrorAs(t, Validate(cfg), &cfgErr)
	require.Equal(t, "convention", cfgErr.Field)

	cfg = Default()
	cfg.Physics.DarkMass = -1
	require.ErrorAs(t, Validate(cfg), &cfgErr)
	require.Equal(t, "dark_mass", cfgErr.Field)

	cfg = Default()
	cfg.InitialState.Dark.Re = 1
	require.ErrorAs(t, Validate(cfg), &cfgErr)
	require.Equal(t, "initial_state", cfgErr.Field)

	cfg = Default()
	cfg.Time.End = cfg.Time.Start
	require.ErrorIs(t, Validate(cfg), errInvalidTimeWindow)

	cfg = Default()
	cfg.Scan.Metric = "median"
	require.ErrorIs(t, Validate(cfg), errUnknownMetric)

	cfg = Default()
	cfg.Scan.MassMin = 0
	require.ErrorIs(t, Validate(cfg), errInvalidScanAxis)

	cfg = Default()
	cfg.Integrator.RelTol = 0
	require.ErrorAs(t, Validate(cfg), &cfgErr)
	require.Equal(t, "rtol", cfgErr.Field)

	cfg = Default()
	cfg.LogFormat = "xml"
	require.Error(t, Validate(cfg))
}

// TestApplyQuick shrinks grids and loosens tolerances.
func TestApplyQuick(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ApplyQuick()
	require.Equal(t, QuickSamples, cfg.Time.Samples)
	require.Equal(t, QuickScanPoints, cfg.Scan.CouplingPoints)
	require.Equal(t, QuickScanPoints, cfg.Scan.MassPoints)
	require.InDelta(t, engine.QuickTolerances().Rel, cfg.Integrator.RelTol, 0)
	require.NoError(t, Validate(cfg))
}

// TestLoad_OverlaysDefaults keeps unspecified values and honors an explicit zero coupling.
func TestLoad_OverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFilename)
	contents := []byte("physics:\n  coupling: 0\n  convention: direct\ntime:\n  samples: 50\n")
	require.NoError(t, os.WriteFile(path, contents, DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Zero(t, cfg.Physics.Coupling)
	require.Equal(t, engine.ConventionDirect, cfg.Physics.Convention)
	require.Equal(t, 50, cfg.Time.Samples)
	require.InDelta(t, Default().Physics.DarkMass, cfg.Physics.DarkMass, 0)
	require.InDelta(t, Default().Time.End, cfg.Time.End, 0)
}

// TestLoadOrDefault falls back to defaults only for a missing file.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("physics: ["), DefaultFilePermissions))

	_, err = LoadOrDefault(bad)
	require.Error(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	want := Default()
	want.Physics.Coupling = 1e-7
	want.Scan.Metric = MetricMaxEntropy
	want.Spectrum.Resonances = want.Spectrum.Resonances[:1]

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())

	require.ErrorIs(t, Save(path, nil), errConfigIsNotSet)
}

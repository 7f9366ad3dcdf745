package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/photon-entanglement/internal/constraints"
	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
	"github.com/oshokin/photon-entanglement/internal/engine"
	"github.com/oshokin/photon-entanglement/internal/logger"
	"github.com/oshokin/photon-entanglement/internal/report"
	"github.com/oshokin/photon-entanglement/internal/spectrum"
)

// Config holds every setting of a simulation run.
type Config struct {
	// Physics are the Hamiltonian inputs.
	Physics Physics `yaml:"physics"`
	// Time is the observation window.
	Time Time `yaml:"time"`
	// InitialState is the state at the first grid time.
	InitialState InitialState `yaml:"initial_state"`
	// Integrator selects the evolution method and its tolerances.
	Integrator Integrator `yaml:"integrator"`
	// Diagnostics tunes entropy, bounds checking and peak detection.
	Diagnostics Diagnostics `yaml:"diagnostics"`
	// Benchmark are the thresholds of the verification checks.
	Benchmark report.Benchmark `yaml:"benchmark"`
	// Scan configures the coupling × mass grid.
	Scan Scan `yaml:"scan"`
	// Limits classify scanned points.
	Limits constraints.Limits `yaml:"limits"`
	// Spectrum is the mock polarization model.
	Spectrum spectrum.Model `yaml:"spectrum"`
	// ResultsDir is where run records are written.
	ResultsDir string `yaml:"results_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is console or json.
	LogFormat string `yaml:"log_format"`
}

// Physics are the inputs of the mixing Hamiltonian.
type Physics struct {
	// Coupling is the kinetic-mixing strength ε.
	Coupling float64 `yaml:"coupling"`
	// DarkMass is the dark-photon mass m.
	DarkMass float64 `yaml:"dark_mass"`
	// ReferenceFrequency is the photon frequency ω.
	ReferenceFrequency float64 `yaml:"reference_frequency"`
	// TimeUnit converts grid time into inverse Hamiltonian units.
	TimeUnit float64 `yaml:"time_unit"`
	// Convention names the Hamiltonian form, "direct" or "dispersive".
	Convention string `yaml:"convention"`
}

// Parameters converts the settings into engine parameters.
func (p Physics) Parameters() twolevel.Parameters {
	return twolevel.Parameters{
		Coupling:           p.Coupling,
		DarkMass:           p.DarkMass,
		ReferenceFrequency: p.ReferenceFrequency,
		TimeUnit:           p.TimeUnit,
	}
}

// Time is a uniform observation grid.
type Time struct {
	// Start is the first sample time.
	Start float64 `yaml:"start"`
	// End is the last sample time.
	End float64 `yaml:"end"`
	// Samples is the number of grid points including both ends.
	Samples int `yaml:"samples"`
}

// Complex is a YAML-friendly complex number.
type Complex struct {
	// Re is the real part.
	Re float64 `yaml:"re"`
	// Im is the imaginary part.
	Im float64 `yaml:"im"`
}

// InitialState holds the two amplitudes at the first grid time.
type InitialState struct {
	// Visible is the photon amplitude.
	Visible Complex `yaml:"visible"`
	// Dark is the dark-photon amplitude.
	Dark Complex `yaml:"dark"`
}

// Amplitudes converts the settings into the initial state.
func (s InitialState) Amplitudes() twolevel.Amplitudes {
	return twolevel.Amplitudes{
		Visible: complex(s.Visible.Re, s.Visible.Im),
		Dark:    complex(s.Dark.Re, s.Dark.Im),
	}
}

// Integrator selects the evolution method.
type Integrator struct {
	// Method is "dopri5" or "exact".
	Method string `yaml:"method"`
	// RelTol is the relative error tolerance per step.
	RelTol float64 `yaml:"rel_tol"`
	// AbsTol is the absolute error tolerance per step.
	AbsTol float64 `yaml:"abs_tol"`
	// MaxSteps bounds the number of accepted and rejected steps.
	MaxSteps int `yaml:"max_steps"`
	// DriftThreshold flags trajectories whose norm drifts further than this.
	DriftThreshold float64 `yaml:"drift_threshold"`
}

// Tolerances converts the settings into engine tolerances.
func (i Integrator) Tolerances() engine.Tolerances {
	return engine.Tolerances{
		Rel:            i.RelTol,
		Abs:            i.AbsTol,
		MaxSteps:       i.MaxSteps,
		DriftThreshold: i.DriftThreshold,
	}
}

// Diagnostics tunes DeriveDiagnostics.
type Diagnostics struct {
	// EntropyMode is "subsystem" or "state".
	EntropyMode string `yaml:"entropy_mode"`
	// EntropyFloor drops eigenvalues below it from the entropy sum.
	EntropyFloor float64 `yaml:"entropy_floor"`
	// BoundsTolerance is the slack allowed outside physical bounds.
	BoundsTolerance float64 `yaml:"bounds_tolerance"`
	// PeakHeight is the minimum survival value counted as a peak.
	PeakHeight float64 `yaml:"peak_height"`
}

// Options converts the settings into diagnostics options.
func (d Diagnostics) Options() engine.DiagnosticsOptions {
	return engine.DiagnosticsOptions{
		EntropyFloor:    d.EntropyFloor,
		BoundsTolerance: d.BoundsTolerance,
		PeakHeight:      d.PeakHeight,
		Mode:            engine.EntropyMode(d.EntropyMode),
	}
}

// Scan configures a coupling × mass sweep.
type Scan struct {
	// Metric is "analytic", "max_entropy" or "max_conversion".
	Metric string `yaml:"metric"`
	// Workers bounds parallelism; zero means one per CPU.
	Workers int `yaml:"workers"`
	// CouplingMin is the smallest coupling.
	CouplingMin float64 `yaml:"coupling_min"`
	// CouplingMax is the largest coupling.
	CouplingMax float64 `yaml:"coupling_max"`
	// CouplingPoints is the number of logarithmic coupling samples.
	CouplingPoints int `yaml:"coupling_points"`
	// MassMin is the smallest dark mass.
	MassMin float64 `yaml:"mass_min"`
	// MassMax is the largest dark mass.
	MassMax float64 `yaml:"mass_max"`
	// MassPoints is the number of logarithmic mass samples.
	MassPoints int `yaml:"mass_points"`
	// Samples is the time-grid size used by the dynamic metrics.
	Samples int `yaml:"samples"`
}

// Scan metrics.
const (
	MetricAnalytic      = "analytic"
	MetricMaxEntropy    = "max_entropy"
	MetricMaxConversion = "max_conversion"
)

const (
	// DefaultConfigFilename is the default filename for simulation settings.
	DefaultConfigFilename = "entangle-settings.yaml"

	// DefaultResultsDir is the default directory for run records.
	DefaultResultsDir = "results"

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600

	// QuickSamples caps time grids in quick mode.
	QuickSamples = 200

	// QuickScanPoints caps each scan axis in quick mode.
	QuickScanPoints = 10
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidTimeWindow is returned for an empty or reversed window.
	errInvalidTimeWindow = errors.New("time window must satisfy start < end with at least 2 samples")
	// errInvalidScanAxis is returned for malformed scan bounds.
	errInvalidScanAxis = errors.New("scan axis must satisfy 0 < min <= max with at least 1 point")
	// errUnknownMetric is returned for an unsupported scan metric.
	errUnknownMetric = errors.New("unknown scan metric")
	// errNonFinite is returned for NaN or infinite inputs.
	errNonFinite = errors.New("value must be finite")
)

// Default returns the reference configuration: the benchmark scenario with a
// time unit that turns the femtosecond window into half a radian of mixing.
func Default() *Config {
	tol := engine.DefaultTolerances()
	diag := engine.DefaultDiagnosticsOptions()

	return &Config{
		Physics: Physics{
			Coupling:           5e-6,
			DarkMass:           2e-23,
			ReferenceFrequency: 1e-5,
			TimeUnit:           1e25,
			Convention:         engine.ConventionDispersive,
		},
		Time: Time{
			Start:   0,
			End:     1e-15,
			Samples: 1000,
		},
		InitialState: InitialState{
			Visible: Complex{Re: 1},
		},
		Integrator: Integrator{
			Method:         string(engine.MethodDormandPrince),
			RelTol:         tol.Rel,
			AbsTol:         tol.Abs,
			MaxSteps:       tol.MaxSteps,
			DriftThreshold: tol.DriftThreshold,
		},
		Diagnostics: Diagnostics{
			EntropyMode:     string(diag.Mode),
			EntropyFloor:    diag.EntropyFloor,
			BoundsTolerance: diag.BoundsTolerance,
			PeakHeight:      diag.PeakHeight,
		},
		Benchmark: report.DefaultBenchmark(),
		Scan: Scan{
			Metric:         MetricAnalytic,
			CouplingMin:    1e-9,
			CouplingMax:    1e-5,
			CouplingPoints: 50,
			MassMin:        1e-25,
			MassMax:        1e-20,
			MassPoints:     50,
			Samples:        QuickSamples,
		},
		Limits:     constraints.DefaultLimits(),
		Spectrum:   spectrum.DefaultModel(),
		ResultsDir: DefaultResultsDir,
		LogLevel:   "info",
		LogFormat:  string(logger.FormatConsole),
	}
}

// Load reads configuration from the provided path on top of Default and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyQuick shrinks grids and relaxes tolerances for a fast smoke run.
func (c *Config) ApplyQuick() {
	tol := engine.QuickTolerances()

	c.Time.Samples = min(c.Time.Samples, QuickSamples)
	c.Scan.Samples = min(c.Scan.Samples, QuickSamples)
	c.Scan.CouplingPoints = min(c.Scan.CouplingPoints, QuickScanPoints)
	c.Scan.MassPoints = min(c.Scan.MassPoints, QuickScanPoints)
	c.Integrator.RelTol = max(c.Integrator.RelTol, tol.Rel)
	c.Integrator.AbsTol = max(c.Integrator.AbsTol, tol.Abs)
	c.Integrator.DriftThreshold = max(c.Integrator.DriftThreshold, tol.DriftThreshold)
}

// Validate checks the settings and fills defaults for optional fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	// Set defaults for the fields that have no meaningful zero value.
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = DefaultResultsDir
	}

	if cfg.Physics.Convention == "" {
		cfg.Physics.Convention = engine.ConventionDispersive
	}

	if cfg.Integrator.Method == "" {
		cfg.Integrator.Method = string(engine.MethodDormandPrince)
	}

	if cfg.Diagnostics.EntropyMode == "" {
		cfg.Diagnostics.EntropyMode = string(engine.EntropySubsystem)
	}

	if cfg.Scan.Metric == "" {
		cfg.Scan.Metric = MetricAnalytic
	}

	if _, err := engine.ConventionByName(cfg.Physics.Convention); err != nil {
		return err
	}

	if _, err := engine.ParseMethod(cfg.Integrator.Method); err != nil {
		return err
	}

	if err := cfg.Physics.Parameters().Validate(); err != nil {
		return err
	}

	if err := cfg.InitialState.Amplitudes().ValidateInitial(); err != nil {
		return err
	}

	if err := cfg.Integrator.Tolerances().Validate(); err != nil {
		return err
	}

	if _, err := engine.ParseEntropyMode(cfg.Diagnostics.EntropyMode); err != nil {
		return err
	}

	if _, err := logger.ParseFormat(cfg.LogFormat); err != nil {
		return err
	}

	if err := validateTime(cfg.Time); err != nil {
		return err
	}

	if err := validateScan(cfg.Scan); err != nil {
		return err
	}

	if err := cfg.Limits.Validate(); err != nil {
		return fmt.Errorf("invalid limits: %w", err)
	}

	if err := cfg.Spectrum.Validate(); err != nil {
		return fmt.Errorf("invalid spectrum: %w", err)
	}

	return nil
}

func validateTime(t Time) error {
	if !finite(t.Start, t.End) {
		return fmt.Errorf("time [%g, %g]: %w", t.Start, t.End, errNonFinite)
	}

	if t.Start >= t.End || t.Samples < 2 {
		return fmt.Errorf("time [%g, %g] x %d: %w", t.Start, t.End, t.Samples, errInvalidTimeWindow)
	}

	return nil
}

func validateScan(s Scan) error {
	switch s.Metric {
	case MetricAnalytic, MetricMaxEntropy, MetricMaxConversion:
	default:
		return fmt.Errorf("%q: %w", s.Metric, errUnknownMetric)
	}

	if !(s.CouplingMin > 0) || s.CouplingMax < s.CouplingMin || s.CouplingPoints < 1 ||
		!finite(s.CouplingMax) {
		return fmt.Errorf("coupling [%g, %g] x %d: %w",
			s.CouplingMin, s.CouplingMax, s.CouplingPoints, errInvalidScanAxis)
	}

	if !(s.MassMin > 0) || s.MassMax < s.MassMin || s.MassPoints < 1 || !finite(s.MassMax) {
		return fmt.Errorf("mass [%g, %g] x %d: %w", s.MassMin, s.MassMax, s.MassPoints, errInvalidScanAxis)
	}

	if s.Metric != MetricAnalytic && s.Samples < 2 {
		return fmt.Errorf("scan samples %d: %w", s.Samples, errInvalidTimeWindow)
	}

	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

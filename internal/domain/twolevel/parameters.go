package twolevel

import "math"

// Parameters holds the physical inputs of the two-level system.
type Parameters struct {
	// Coupling is the dimensionless kinetic-mixing strength ε.
	Coupling float64
	// DarkMass is the dark-state mass or energy scale m.
	DarkMass float64
	// ReferenceFrequency is the photon frequency or Hubble scale ω.
	ReferenceFrequency float64
	// TimeUnit converts grid time into the inverse unit of the Hamiltonian.
	// Zero means 1.
	TimeUnit float64
}

// EffectiveTimeUnit returns TimeUnit, substituting 1 for the zero value.
func (p Parameters) EffectiveTimeUnit() float64 {
	if p.TimeUnit == 0 {
		return 1
	}

	return p.TimeUnit
}

// Validate checks the invariants of the physical parameters.
func (p Parameters) Validate() error {
	if !isFinite(p.Coupling) {
		return configError("coupling", p.Coupling, "must be finite")
	}

	if !isFinite(p.DarkMass) || p.DarkMass < 0 {
		return configError("dark_mass", p.DarkMass, "must be finite and non-negative")
	}

	if !isFinite(p.ReferenceFrequency) || p.ReferenceFrequency <= 0 {
		return configError("reference_frequency", p.ReferenceFrequency, "must be finite and positive")
	}

	if !isFinite(p.TimeUnit) || p.TimeUnit < 0 {
		return configError("time_unit", p.TimeUnit, "must be finite and non-negative")
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

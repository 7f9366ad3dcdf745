// Package engine evolves the visible/dark photon two-level system and derives
// entanglement diagnostics from the resulting trajectory.
//
// The pipeline is pure: Parameters and an initial state go into Engine.Evolve,
// the Trajectory goes into DeriveDiagnostics, and FindOscillationPeriod reduces
// a probability series to a scalar. Hamiltonian construction is pluggable via
// Convention; two conventions are built in:
//
//	direct:     H = [[0, ε], [ε, m]]
//	dispersive: H = [[0, εω], [εω, m²/(2ω)]]
//
// Evolve integrates with an adaptive Dormand–Prince 5(4) scheme by default, or
// with the closed-form propagator exp(−iHt) when MethodExact is selected.
package engine

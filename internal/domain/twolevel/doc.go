// Package twolevel contains the domain types of the visible/dark photon
// two-level system: physical parameters, amplitude pairs, time grids,
// trajectories, density matrices and the diagnostics derived from them.
//
// It also defines the error taxonomy shared by the engine and the services:
// ConfigurationError for invalid inputs, IntegrationError for solver failures
// and Warning for non-fatal physical-bounds violations.
package twolevel

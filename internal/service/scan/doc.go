// Package scan implements the entangle scan command, which sweeps a
// logarithmic coupling × mass grid and summarizes one metric per point.
//
// The analytic metric uses the closed-form mixing amplitude. The dynamic
// metrics evolve every point over the scan time grid.
package scan

// Package evolve implements the entangle evolve command: a single trajectory
// for the configured parameters, its diagnostics report and a run record.
package evolve

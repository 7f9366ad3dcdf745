// Package verify implements the entangle verify command. It runs the
// dynamics benchmark, the polarization spectra and the constraint scan, then
// prints one report with an overall verdict.
package verify

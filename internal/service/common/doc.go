// Package common holds helpers shared by several services.
//
// It loads and overrides the settings, builds the engine from them, runs the
// evolution plus diagnostics pipeline, and detects the current system actor
// (hostname/username) for run records.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

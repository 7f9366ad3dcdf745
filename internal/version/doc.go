// Package version exposes build metadata for the entangle binary.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. When they are left at their defaults, the VCS stamp that the Go
// toolchain embeds in the binary is used instead.
package version

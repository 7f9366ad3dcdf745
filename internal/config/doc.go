// Package config defines the simulation settings shared by every entangle
// command and provides helpers to load, validate and save them in YAML format.
//
// Load starts from Default and overlays the file, so a settings file only
// needs the values it changes. A zero coupling in the file is a real zero.
package config

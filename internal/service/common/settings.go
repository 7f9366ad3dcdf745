//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"

	"github.com/oshokin/photon-entanglement/internal/config"
	"github.com/oshokin/photon-entanglement/internal/logger"
)

// Overrides are the command-line values that take precedence over the settings file.
type Overrides struct {
	// ResultsDir replaces results_dir when set.
	ResultsDir string
	// Quick shrinks grids and relaxes tolerances.
	Quick bool
}

// LoadSettings reads the settings file (defaults when it is missing), applies
// the overrides and validates the result.
func LoadSettings(ctx context.Context, path string, o Overrides) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if o.ResultsDir != "" {
		cfg.ResultsDir = o.ResultsDir
	}

	if o.Quick {
		cfg.ApplyQuick()
	}

	if err = config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	logger.DebugKV(ctx, "Settings loaded",
		"path", path,
		"convention", cfg.Physics.Convention,
		"method", cfg.Integrator.Method,
		"samples", cfg.Time.Samples,
		"quick", o.Quick,
	)

	return cfg, nil
}

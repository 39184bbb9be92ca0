package config

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/joosthooz/smarttimers/pkg/clock"
	"github.com/joosthooz/smarttimers/pkg/config"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidVersion is returned when the config version is unsupported.
	ErrInvalidVersion = errors.New("unsupported config version")

	// ErrInvalidClock is returned when the configured clock ID is unknown.
	ErrInvalidClock = errors.New("unknown clock")
)

// Validate validates the entire configuration.
func Validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.WithMessage(ErrInvalidConfig, "config is nil")
	}

	// Version 0 means the file predates versioning and is treated as current.
	if cfg.Version != 0 && (cfg.Version < 1 || cfg.Version > config.CurrentConfigVersion) {
		return errors.Wrapf(
			ErrInvalidVersion,
			"version %d (supported: 1..%d)",
			cfg.Version,
			config.CurrentConfigVersion,
		)
	}

	if cfg.Session != nil && cfg.Session.Clock != "" {
		ids := clock.DefaultRegistry().IDs()
		if !slices.Contains(ids, cfg.Session.Clock) {
			return errors.Wrapf(ErrInvalidClock, "%q (known: %v)", cfg.Session.Clock, ids)
		}
	}

	return nil
}

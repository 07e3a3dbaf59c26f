// README: zap logger construction.
package infra

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a named logger: console output in development, JSON
// otherwise. level is any zap level name; empty means info.
func NewLogger(development bool, level, name string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named(name), nil
}

// Package logger builds the process-wide zap logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a logger for the given environment. "prod" and "production"
// select the JSON production config; anything else gets the console
// development config.
func New(environment string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(environment) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// Must builds a logger and panics on failure. Used at process start where
// there is nothing sensible to do without logging.
func Must(environment string) *zap.Logger {
	log, err := New(environment)
	if err != nil {
		panic(err)
	}
	return log
}

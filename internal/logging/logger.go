// Package logging builds the zap logger for tcpchat.
// Logging is controlled by logging.debug_mode in the config file - when false,
// and --verbose is not given, nothing is logged.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tcpchat/internal/config"
)

// New returns the logger described by cfg. verbose forces debug-level
// console output on stderr.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	if !cfg.Enabled() && !verbose {
		return zap.NewNop(), nil
	}

	var zc zap.Config
	if verbose {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zc = zap.NewProductionConfig()
		level, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		zc.Sampling = nil
	}

	switch cfg.Format {
	case "json":
		zc.Encoding = "json"
	case "", "console", "text":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zc.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zc.OutputPaths = []string{cfg.File}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a config level name onto a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

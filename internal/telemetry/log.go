package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLevelFromString maps the config/CLI log-level string onto a zapcore
// level, defaulting to info for an unrecognized value.
func zapLevelFromString(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds the process-wide zap.Logger for the given level string:
// development (human-readable console encoding) for "debug", production
// JSON encoding otherwise.
func NewLogger(level string) (*zap.Logger, error) {
	lvl := zapLevelFromString(level)
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

package logger

import "go.uber.org/zap"

// Log is global logger
var Log *zap.Logger = zap.NewNop()

// Initialize creates logger with log level and sets it as the global one
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = zl
	return nil
}

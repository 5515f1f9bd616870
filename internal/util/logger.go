package util

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a production zap logger at level, writing to stdout and
// to any extra output paths
func NewLogger(level string, outputPaths ...string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(lvl)
	cfgZap.OutputPaths = append([]string{"stdout"}, outputPaths...)
	return cfgZap.Build()
}

package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	logConf := zap.NewProductionConfig()
	if development {
		logConf = zap.NewDevelopmentConfig()
	}
	logConf.Level = zap.NewAtomicLevelAt(lvl)
	logConf.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	logConf.DisableCaller = true
	return logConf.Build()
}

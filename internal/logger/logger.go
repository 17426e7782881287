package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log entry
const ServiceName = "product-dashboard"

// New creates a structured logger for the given environment.
// Production writes JSON, anything else writes colored console output.
func New(env string) (*zap.Logger, error) {
	config := buildConfig(env)

	logger, err := config.Build(options()...)
	if err != nil {
		return nil, err
	}

	return logger, nil
}

func options() []zap.Option {
	return []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", ServiceName)),
	}
}

func buildConfig(env string) zap.Config {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Always log to stdout for container compatibility
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config
}

// NewWithDefaults creates the logger for env and falls back to zap's production
// logger when the configured outputs cannot be opened
func NewWithDefaults(env string) *zap.Logger {
	return buildOrFallback(buildConfig(env))
}

func buildOrFallback(config zap.Config) *zap.Logger {
	logger, err := config.Build(options()...)
	if err == nil {
		return logger
	}

	fallback, fallbackErr := zap.NewProduction(options()...)
	if fallbackErr != nil {
		return zap.NewNop()
	}
	fallback.Warn("Failed to build configured logger, using defaults", zap.Error(err))
	return fallback
}

// Package logger builds the application's zap logger.
package logger

import (
	"fmt"

	"github.com/neemfurnitech/procurement-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// baseConfig picks the encoder. Production and json-format configs get
// the JSON encoder; everything else gets a colored console encoder for
// local development.
func baseConfig(cfg *config.LoggingConfig, appCfg *config.AppConfig) zap.Config {
	if cfg.Format == "json" || appCfg.Environment == "production" {
		return zap.NewProductionConfig()
	}
	devCfg := zap.NewDevelopmentConfig()
	devCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return devCfg
}

// parseLevel maps the configured level name onto a zap level, falling
// back to info when the name is unknown.
func parseLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// NewLogger returns a structured logger tagged with the application
// name and environment.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	zapCfg := baseConfig(cfg, appCfg)
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

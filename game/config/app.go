package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AppConfig holds process-wide settings read from the environment
type AppConfig struct {
	LogLevel        string        `env:"GAME2048_LOG_LEVEL"        envDefault:"info"`
	LogDevelopment  bool          `env:"GAME2048_LOG_DEVELOPMENT"`
	Settle          time.Duration `env:"GAME2048_SETTLE"           envDefault:"150ms"`
	Preset          string        `env:"GAME2048_PRESET"           envDefault:"classic"`
	ConfigDir       string        `env:"GAME2048_CONFIG_DIR"`
	Seed            int64         `env:"GAME2048_SEED"`
	SessionTTL      time.Duration `env:"GAME2048_SESSION_TTL"      envDefault:"1h"`
	CleanupInterval time.Duration `env:"GAME2048_CLEANUP_INTERVAL" envDefault:"10m"`
}

// LoadAppConfig loads the given .env files when they exist, then parses the
// environment. Variables already set win over .env values.
func LoadAppConfig(envFiles ...string) (AppConfig, error) {
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return AppConfig{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate reports settings the game cannot run with
func (c AppConfig) Validate() error {
	var errs error
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.Settle < 0 {
		errs = multierr.Append(errs, fmt.Errorf("settle must not be negative, got %s", c.Settle))
	}
	if c.SessionTTL <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL))
	}
	if c.CleanupInterval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("cleanup interval must be positive, got %s", c.CleanupInterval))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

// NewLogger builds a zap logger writing to stderr. Stdout is left free for
// the MCP transport and command output.
func (c AppConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if c.LogDevelopment {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	return zapCfg.Build()
}

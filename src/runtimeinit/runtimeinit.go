package runtimeinit

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"code-popup/src/config"
	"code-popup/src/logutil"
)

// Options tune the shared startup sequence of the resident and the CLI.
type Options struct {
	LoadOptions config.LoadOptions
	// ForceFileLogging writes the log file even when ENABLE_FILE_LOGGING is off.
	ForceFileLogging bool
	// Level overrides LOG_LEVEL when set.
	Level   string
	Console bool
}

// Bootstrap loads configuration, installs the logger and validates the
// result. The returned config is always usable when err is nil.
func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if opts.Level != "" {
		level = opts.Level
	}
	logutil.Setup(logutil.Options{
		EnableFileLogging: cfg.EnableFileLogging || opts.ForceFileLogging,
		Level:             level,
		Console:           opts.Console,
	})
	log.Info().
		Str("model", cfg.Model).
		Str("key", logutil.RedactKey(cfg.APIKey)).
		Str("key_path", cfg.APIKeyPath).
		Dur("auto_clear", cfg.AutoClear).
		Msg("configuration loaded")

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: checked key file %s and %s env var", err, cfg.APIKeyPath, config.APIKeyEnvVar)
		}
		return nil, err
	}
	return cfg, nil
}

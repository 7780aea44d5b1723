package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/gemini"
	APIKeyPathEnvVar  = "GEMINI_API_KEY_FILE"
	APIKeyEnvVar      = "GEMINI_API_KEY"
	EnvFileEnvVar     = "CODE_POPUP_ENV"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is required")

type LoadOptions struct {
	APIKeyPathOverride string
	EnvFileOverride    string
}

type Config struct {
	APIKey     string `env:"GEMINI_API_KEY"`
	APIKeyPath string
	Model      string `env:"MODEL" envDefault:"gemini-2.5-pro-preview-03-25"`
	Endpoint   string `env:"GEMINI_ENDPOINT" envDefault:"https://generativelanguage.googleapis.com/v1beta"`

	ShowHotkey   string `env:"SHOW_HOTKEY" envDefault:"Alt+Q"`
	SubmitHotkey string `env:"SUBMIT_HOTKEY" envDefault:"Alt+X"`
	ClearHotkey  string `env:"CLEAR_HOTKEY" envDefault:"Alt+C"`
	CloseHotkey  string `env:"CLOSE_HOTKEY" envDefault:"Tab"`

	AutoClear      time.Duration `env:"AUTO_CLEAR" envDefault:"80000s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"0s"`

	EnableFileLogging bool   `env:"ENABLE_FILE_LOGGING"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`

	SingleInstancePort int `env:"SINGLEINSTANCE_PORT" envDefault:"49560"`
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order: explicit --env-file, .env next to the
	// executable, .env in the working directory, then $CODE_POPUP_ENV.
	envPath := resolveEnvPath(opts)
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.APIKeyPath = resolveAPIKeyPath(opts, dotenvValues)
	if fileKey := readAPIKeyFile(cfg.APIKeyPath); fileKey != "" {
		cfg.APIKey = fileKey
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.AutoClear <= 0 {
		cfg.AutoClear = 80000 * time.Second
	}
	if cfg.RequestTimeout < 0 {
		cfg.RequestTimeout = 0
	}

	return cfg, nil
}

// Validate reports configuration the resident cannot start without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("MODEL must not be empty")
	}
	return nil
}

func resolveEnvPath(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.EnvFileOverride); override != "" {
		return override
	}

	var candidates []string
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	}
	candidates = append(candidates, ".env")
	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		candidates = append(candidates, alt)
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func readAPIKeyFile(keyPath string) string {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

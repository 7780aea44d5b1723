package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) {
	t.Helper()
	// Point the key file somewhere empty so a real secret on the host never leaks into tests.
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
	t.Setenv(APIKeyEnvVar, "")
	t.Setenv(EnvFileEnvVar, "")
}

func TestLoad(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "test_api_key")
	t.Setenv("MODEL", "test_model")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("SHOW_HOTKEY", "Ctrl+Shift+T")
	t.Setenv("AUTO_CLEAR", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.APIKey != "test_api_key" {
		t.Errorf("Expected APIKey to be 'test_api_key', got '%s'", cfg.APIKey)
	}
	if cfg.Model != "test_model" {
		t.Errorf("Expected Model to be 'test_model', got '%s'", cfg.Model)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true, got %v", cfg.EnableFileLogging)
	}
	if cfg.ShowHotkey != "Ctrl+Shift+T" {
		t.Errorf("Expected ShowHotkey to be 'Ctrl+Shift+T', got '%s'", cfg.ShowHotkey)
	}
	if cfg.AutoClear != 90*time.Second {
		t.Errorf("Expected AutoClear 90s, got %v", cfg.AutoClear)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	for _, k := range []string{"MODEL", "GEMINI_ENDPOINT", "SHOW_HOTKEY", "SUBMIT_HOTKEY", "CLEAR_HOTKEY", "CLOSE_HOTKEY", "AUTO_CLEAR", "REQUEST_TIMEOUT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ShowHotkey != "Alt+Q" || cfg.SubmitHotkey != "Alt+X" || cfg.ClearHotkey != "Alt+C" || cfg.CloseHotkey != "Tab" {
		t.Errorf("unexpected default hotkeys: %q %q %q %q", cfg.ShowHotkey, cfg.SubmitHotkey, cfg.ClearHotkey, cfg.CloseHotkey)
	}
	if cfg.AutoClear != 80000*time.Second {
		t.Errorf("Expected default AutoClear 80000s, got %v", cfg.AutoClear)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("Expected no request timeout by default, got %v", cfg.RequestTimeout)
	}
	if cfg.Endpoint != "https://generativelanguage.googleapis.com/v1beta" {
		t.Errorf("unexpected default endpoint %q", cfg.Endpoint)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestAPIKeyFileTakesPrecedence(t *testing.T) {
	isolate(t)
	keyPath := filepath.Join(t.TempDir(), "gemini")
	if err := os.WriteFile(keyPath, []byte("  file_key\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINI_API_KEY", "env_key")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: keyPath})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.APIKey != "file_key" {
		t.Errorf("Expected key from file, got %q", cfg.APIKey)
	}
	if cfg.APIKeyPath != keyPath {
		t.Errorf("Expected APIKeyPath %q, got %q", keyPath, cfg.APIKeyPath)
	}
}

func TestEnvFileOverride(t *testing.T) {
	isolate(t)
	os.Unsetenv("MODEL")
	dir := t.TempDir()
	envFile := filepath.Join(dir, "popup.env")
	content := "MODEL=from_dotenv\nCLEAR_HOTKEY=Ctrl+L\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("MODEL")
		os.Unsetenv("CLEAR_HOTKEY")
	})

	cfg, err := LoadWithOptions(LoadOptions{EnvFileOverride: envFile})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.Model != "from_dotenv" {
		t.Errorf("Expected model from .env, got %q", cfg.Model)
	}
	if cfg.ClearHotkey != "Ctrl+L" {
		t.Errorf("Expected clear hotkey from .env, got %q", cfg.ClearHotkey)
	}
}

// Package config handles user configuration and credentials for cleanfire.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/diogo/cleanfire/internal/errors"
	"github.com/diogo/cleanfire/internal/models"
)

// EnvConfigDir overrides the configuration directory
const EnvConfigDir = "CLEANFIRE_CONFIG_DIR"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`             // "dark", "light", "dracula", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
}

// Config represents the user configuration. Persona, model and sampling are
// fixed and deliberately absent.
type Config struct {
	// Verbose enables the debug log file.
	Verbose  bool   `json:"verbose"`
	LogLevel string `json:"log_level"`
	// RequestTimeout bounds a whole streamed reply, in seconds.
	RequestTimeout  int            `json:"request_timeout"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Verbose:         false,
		LogLevel:        "info",
		RequestTimeout:  300,
		CopyToClipboard: false,
		TUITheme:        "ember",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// Timeout returns RequestTimeout as a duration, with 0 meaning no limit
func (c Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".cleanfire"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path to the debug log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cleanfire.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Keys returns the settable configuration keys
func Keys() []string {
	return []string{
		"verbose",
		"log_level",
		"request_timeout",
		"copy_to_clipboard",
		"tui_theme",
		"markdown.style",
		"markdown.enable_emoji",
		"markdown.preserve_newlines",
	}
}

// Set assigns a value to a configuration key given as text
func (c *Config) Set(key, value string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	}

	var err error
	switch strings.ToLower(key) {
	case "verbose":
		c.Verbose, err = parseBool()
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(value)
		default:
			err = fmt.Errorf("log_level must be debug, info, warn or error, got %q", value)
		}
	case "request_timeout":
		var n int
		n, err = strconv.Atoi(value)
		if err == nil && n < 0 {
			err = fmt.Errorf("request_timeout must not be negative")
		}
		if err == nil {
			c.RequestTimeout = n
		}
	case "copy_to_clipboard":
		c.CopyToClipboard, err = parseBool()
	case "tui_theme":
		c.TUITheme = value
	case "markdown.style":
		c.Markdown.Style = value
	case "markdown.enable_emoji":
		c.Markdown.EnableEmoji, err = parseBool()
	case "markdown.preserve_newlines":
		c.Markdown.PreserveNewLines, err = parseBool()
	default:
		err = fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return err
}

// LookupAPIKey reads the API key from the environment. A missing key is a
// ConfigurationError.
func LookupAPIKey() (string, error) {
	for _, name := range []string{models.EnvAPIKey, models.EnvAPIKeyFallback} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key, nil
		}
	}
	return "", apierrors.NewConfigurationError("", apierrors.ErrMissingAPIKey)
}

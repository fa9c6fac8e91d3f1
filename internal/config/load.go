package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

const (
	configFileName = "unwind.json"

	defaultBaseURL   = "http://localhost:8000"
	defaultTimeout   = 60
	defaultBaseDelay = 200 * time.Millisecond
	defaultTitle     = "New chat"

	// Environment overrides.
	envAPIURL    = "UNWIND_API_URL"
	envToken     = "UNWIND_TOKEN"
	envTokenFile = "UNWIND_TOKEN_FILE"
)

// Load finds and loads configuration from standard locations.
// It merges global config with project config (project takes precedence),
// then applies environment overrides and defaults.
func Load() (*Config, error) {
	cfg := NewConfig()
	if err := loadFile(GlobalConfigPath(), cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading global config: %w", err)
	}

	if projectPath := findProjectConfig(); projectPath != "" {
		projectCfg := NewConfig()
		if err := loadFile(projectPath, projectCfg); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
		mergeConfig(cfg, projectCfg)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	//nolint:gosec // G304: Path is from trusted config locations, not user input.
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		hiddenPath := filepath.Join(dir, "."+configFileName)
		if _, err := os.Stat(hiddenPath); err == nil {
			return hiddenPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func mergeConfig(dst, src *Config) {
	if src.API.BaseURL != "" {
		dst.API.BaseURL = src.API.BaseURL
	}
	if src.API.TimeoutSeconds != 0 {
		dst.API.TimeoutSeconds = src.API.TimeoutSeconds
	}
	if src.Auth.Token != "" {
		dst.Auth.Token = src.Auth.Token
	}
	if src.Auth.TokenFile != "" {
		dst.Auth.TokenFile = src.Auth.TokenFile
	}
	if src.Retry.Attempts != 0 {
		dst.Retry.Attempts = src.Retry.Attempts
	}
	if src.Retry.BaseDelay != 0 {
		dst.Retry.BaseDelay = src.Retry.BaseDelay
	}
	if src.Chat.DefaultTitle != "" {
		dst.Chat.DefaultTitle = src.Chat.DefaultTitle
	}

	if src.Options != nil {
		if dst.Options == nil {
			dst.Options = &Options{}
		}
		if src.Options.DataDir != "" {
			dst.Options.DataDir = src.Options.DataDir
		}
		if src.Options.Debug {
			dst.Options.Debug = true
		}
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(envTokenFile); v != "" {
		cfg.Auth.TokenFile = v
		cfg.Auth.Token = ""
	}
	// Keep the reference rather than the value so a rotated token is picked up.
	if os.Getenv(envToken) != "" {
		cfg.Auth.Token = "$" + envToken
	}
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = defaultTimeout
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = Duration(defaultBaseDelay)
	}
	if cfg.Chat.DefaultTitle == "" {
		cfg.Chat.DefaultTitle = defaultTitle
	}
	if cfg.Options == nil {
		cfg.Options = &Options{}
	}
	if cfg.Options.DataDir == "" {
		cfg.Options.DataDir = filepath.Join(xdg.DataHome, appName)
	}
}

// GlobalConfigPath returns the path to the global configuration file.
func GlobalConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// DataDir returns the data directory path from configuration.
func (c *Config) DataDir() string {
	if c.Options != nil && c.Options.DataDir != "" {
		return c.Options.DataDir
	}
	return filepath.Join(xdg.DataHome, appName)
}

// DatabasePath returns the path of the local SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir(), "unwind.db")
}

// DebugLogPath returns the path of the debug log.
func (c *Config) DebugLogPath() string {
	return filepath.Join(c.DataDir(), "debug.log")
}

// envRef reports whether value is "$NAME" or "${NAME}" and returns NAME.
func envRef(value string) (string, bool) {
	if !strings.HasPrefix(value, "$") {
		return "", false
	}
	name := strings.TrimPrefix(value, "$")
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		name = name[1 : len(name)-1]
	}
	if name == "" || strings.ContainsAny(name, " /$") {
		return "", false
	}
	return name, true
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the configuration to the global config file.
func Save(cfg *Config) error {
	return SaveToFile(cfg, GlobalConfigPath())
}

// SaveToFile writes the configuration to a specific file path. Runtime-only
// values such as a token pulled from the environment are written as the
// reference, never the secret.
func SaveToFile(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return writeFile(path, data)
}

// WriteDefault writes a starter config file unless one already exists.
// It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	cfg := NewConfig()
	cfg.Auth.Token = "$" + envToken
	applyDefaults(cfg)
	// The data dir default depends on the machine; leave it implicit.
	cfg.Options = nil
	if err := SaveToFile(cfg, path); err != nil {
		return false, err
	}
	return true, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	//nolint:gosec // 0o600 is intentionally restrictive for security.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

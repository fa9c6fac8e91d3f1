// Package config provides configuration management for the unwind client.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/guilhermegouw/unwind/internal/auth"
)

const appName = "unwind"

// Config is the top-level configuration structure.
//
//nolint:govet // Field order is intentional for JSON readability.
type Config struct {
	API     APIConfig   `json:"api"`
	Auth    AuthConfig  `json:"auth"`
	Retry   RetryConfig `json:"retry"`
	Chat    ChatConfig  `json:"chat"`
	Options *Options    `json:"options,omitempty"`
}

// APIConfig locates the chat backend.
type APIConfig struct {
	BaseURL        string `json:"base_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// Timeout returns the per-request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// AuthConfig says where the bearer token comes from. Token may be a literal
// or an environment reference such as "$UNWIND_TOKEN".
type AuthConfig struct {
	Token     string `json:"token,omitempty"`
	TokenFile string `json:"token_file,omitempty"`
}

// RetryConfig controls retries of idempotent requests. Zero attempts means a
// single try.
type RetryConfig struct {
	Attempts  uint64   `json:"attempts,omitempty"`
	BaseDelay Duration `json:"base_delay,omitempty"`
}

// ChatConfig holds chat behaviour settings.
type ChatConfig struct {
	DefaultTitle string `json:"default_title,omitempty"`
}

// Options holds optional configuration settings.
//
//nolint:govet // Field order is intentional for JSON readability.
type Options struct {
	DataDir string `json:"data_directory,omitempty"`
	Debug   bool   `json:"debug,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of milliseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Duration(d).String())), nil
}

// NewConfig creates a new Config with initialized options.
func NewConfig() *Config {
	return &Config{
		Options: &Options{},
	}
}

// Validate checks the settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds must not be negative")
	}
	return nil
}

// CredentialProvider builds the token source described by the auth section.
// An env reference is re-read on every request; a token file is re-read too.
// When both a token and a file are configured the token wins.
func (c *Config) CredentialProvider() auth.Provider {
	var providers []auth.Provider
	if tok := c.Auth.Token; tok != "" {
		if name, ok := envRef(tok); ok {
			providers = append(providers, auth.NewEnvProvider(name))
		} else {
			providers = append(providers, auth.NewStaticProvider(tok))
		}
	}
	if c.Auth.TokenFile != "" {
		providers = append(providers, auth.NewFileProvider(expandHome(c.Auth.TokenFile)))
	}
	if len(providers) == 1 {
		return providers[0]
	}
	return auth.NewChainProvider(providers...)
}

// HasCredential reports whether a token can currently be obtained.
func (c *Config) HasCredential(ctx context.Context) bool {
	_, err := c.CredentialProvider().Token(ctx)
	return err == nil
}

// SetConfigField updates a single field in the global config file using JSON
// path notation.
func (c *Config) SetConfigField(key string, value any) error {
	return SetField(GlobalConfigPath(), key, value)
}

// SetField updates a single field of the JSON file at path with sjson, leaving
// every other byte of the file alone. A missing file starts as {}.
func SetField(path, key string, value any) error {
	//nolint:gosec // G304: path is a config location.
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading config file: %w", err)
		}
		data = []byte("{}")
	}

	newData, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("setting config field %q: %w", key, err)
	}

	if err := writeFile(path, []byte(newData)); err != nil {
		return err
	}
	return nil
}

// ParseValue turns a command-line value into the JSON type it most likely
// means: booleans and integers stay typed, everything else is a string.
func ParseValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

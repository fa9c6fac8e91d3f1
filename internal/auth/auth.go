// Package auth supplies the bearer credential for backend requests.
//
// Tokens are issued by an external identity provider; the client only reads
// them from wherever the user put them and inspects the standard claims.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/guilhermegouw/unwind/internal/debug"
)

// Credential errors.
var (
	ErrNoCredential = errors.New("no credential available")
	ErrExpiredToken = fmt.Errorf("%w: token expired", ErrNoCredential)
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingClaim = errors.New("missing required claim")
)

// Provider returns the current bearer token. Implementations must be safe for
// concurrent use and return ErrNoCredential when no token is available.
type Provider interface {
	Token(ctx context.Context) (string, error)
	Source() string
}

// StaticProvider always returns the same token.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a provider for a fixed token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: strings.TrimSpace(token)}
}

// Token implements Provider.
func (p *StaticProvider) Token(_ context.Context) (string, error) {
	if p.token == "" {
		return "", ErrNoCredential
	}
	return p.token, nil
}

// Source implements Provider.
func (p *StaticProvider) Source() string { return "static" }

// EnvProvider reads the token from an environment variable on every call.
type EnvProvider struct {
	name string
}

// NewEnvProvider creates a provider backed by the named variable.
func NewEnvProvider(name string) *EnvProvider {
	return &EnvProvider{name: name}
}

// Token implements Provider.
func (p *EnvProvider) Token(_ context.Context) (string, error) {
	tok := strings.TrimSpace(os.Getenv(p.name))
	if tok == "" {
		debug.Auth("lookup", "source=env:"+p.name+" empty")
		return "", fmt.Errorf("%w: $%s is not set", ErrNoCredential, p.name)
	}
	return tok, nil
}

// Source implements Provider.
func (p *EnvProvider) Source() string { return "env:" + p.name }

// FileProvider reads the token from a file on every call, so an external
// login helper can rotate it while the client runs.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider backed by the file at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Token implements Provider.
func (p *FileProvider) Token(_ context.Context) (string, error) {
	//nolint:gosec // G304: path is user configuration.
	data, err := os.ReadFile(p.path)
	if err != nil {
		debug.Auth("lookup", "source=file read failed: "+err.Error())
		return "", fmt.Errorf("%w: reading %s: %v", ErrNoCredential, p.path, err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoCredential, p.path)
	}
	return tok, nil
}

// Source implements Provider.
func (p *FileProvider) Source() string { return "file:" + p.path }

// ChainProvider returns the first token any of its providers yields.
type ChainProvider struct {
	providers []Provider
}

// NewChainProvider creates a provider that tries each provider in order.
func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

// Token implements Provider.
func (p *ChainProvider) Token(ctx context.Context) (string, error) {
	for _, pr := range p.providers {
		tok, err := pr.Token(ctx)
		if err == nil {
			return tok, nil
		}
		if !errors.Is(err, ErrNoCredential) {
			return "", err
		}
	}
	return "", ErrNoCredential
}

// Source implements Provider.
func (p *ChainProvider) Source() string {
	names := make([]string, 0, len(p.providers))
	for _, pr := range p.providers {
		names = append(names, pr.Source())
	}
	return strings.Join(names, ",")
}

package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	tok, err := NewStaticProvider("  abc \n").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = NewStaticProvider("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestEnvProvider(t *testing.T) {
	p := NewEnvProvider("UNWIND_TEST_TOKEN")

	t.Setenv("UNWIND_TEST_TOKEN", "")
	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)

	t.Setenv("UNWIND_TEST_TOKEN", "from-env")
	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)
	assert.Equal(t, "env:UNWIND_TEST_TOKEN", p.Source())
}

func TestFileProvider_RereadsOnEveryCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	p := NewFileProvider(path)

	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential, "missing file")

	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o600))
	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", tok)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o600))
	tok, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", tok)
}

func TestChainProvider(t *testing.T) {
	t.Setenv("UNWIND_TEST_EMPTY", "")
	chain := NewChainProvider(NewEnvProvider("UNWIND_TEST_EMPTY"), NewStaticProvider("fallback"))

	tok, err := chain.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fallback", tok)
	assert.Equal(t, "env:UNWIND_TEST_EMPTY,static", chain.Source())

	_, err = NewChainProvider().Token(context.Background())
	assert.True(t, errors.Is(err, ErrNoCredential))
}

func TestErrExpiredTokenIsNoCredential(t *testing.T) {
	assert.ErrorIs(t, ErrExpiredToken, ErrNoCredential)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeProfile(t, `
endpoint "staging" {
  url       = "wss://staging.example.com/"
  namespace = "/chat"
  auth      = "{\"token\":\"t\"}"
  headers   = { "X-API-Key" = "key123" }

  backoff {
    initial_delay = "500ms"
    max_delay     = "10s"
    factor        = 1.5
  }
}

endpoint "local" {
  url = "ws://localhost:3000/"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Endpoints, 2)

	staging, err := cfg.Endpoint("staging")
	require.NoError(t, err)
	assert.Equal(t, "wss://staging.example.com/", staging.URL)
	assert.Equal(t, "/chat", staging.Namespace)
	assert.Equal(t, `{"token":"t"}`, staging.Auth)
	assert.Equal(t, "key123", staging.Headers["X-API-Key"])

	require.NotNil(t, staging.Backoff)
	initial, max, err := staging.Backoff.Delays()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, initial)
	assert.Equal(t, 10*time.Second, max)
	assert.Equal(t, 1.5, staging.Backoff.Factor)

	local, err := cfg.Endpoint("local")
	require.NoError(t, err)
	assert.Empty(t, local.Namespace)
	assert.Nil(t, local.Backoff)

	_, err = cfg.Endpoint("production")
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	t.Run("url is required", func(t *testing.T) {
		path := writeProfile(t, `
endpoint "bad" {
  url = ""
}
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("namespace must begin with slash", func(t *testing.T) {
		path := writeProfile(t, `
endpoint "bad" {
  url       = "ws://localhost:3000/"
  namespace = "chat"
}
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("duplicate endpoint names", func(t *testing.T) {
		path := writeProfile(t, `
endpoint "dup" {
  url = "ws://a/"
}

endpoint "dup" {
  url = "ws://b/"
}
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid backoff duration", func(t *testing.T) {
		path := writeProfile(t, `
endpoint "bad" {
  url = "ws://localhost:3000/"

  backoff {
    initial_delay = "soon"
  }
}
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("backoff factor too small", func(t *testing.T) {
		path := writeProfile(t, `
endpoint "bad" {
  url = "ws://localhost:3000/"

  backoff {
    factor = 1.01
  }
}
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
		assert.Error(t, err)
	})
}

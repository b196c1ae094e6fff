package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "MONGO_URI",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_EMBED_MODEL", "LOG_MODE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("Should use defaults when the file does not exist", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "articles-data.json", cfg.Generation.Output)
		assert.Equal(t, 5, cfg.Embeddings.BatchSize)
		assert.Equal(t, time.Second, cfg.Embeddings.BatchDelay)
		assert.InDelta(t, 0.7, cfg.Embeddings.Threshold, 1e-9)
		assert.Equal(t, 5*time.Second, cfg.Generation.ArticleDelay)
	})

	t.Run("Should read yaml and let the environment win", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "server:\n  port: \"8081\"\ndatabase:\n  driver: postgres\n  dsn: postgres://file\nllm:\n  model: file-model\nprompts:\n  summary: custom\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		t.Setenv("OPENAI_MODEL", "env-model")
		t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1/")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "8081", cfg.Server.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "postgres://file", cfg.Database.DSN)
		assert.Equal(t, "env-model", cfg.LLM.Model)
		assert.Equal(t, "http://localhost:9999/v1", cfg.LLM.ApiURL)
		assert.Equal(t, "custom", cfg.Prompt("summary", "fallback"))
		assert.Equal(t, "fallback", cfg.Prompt("overview", "fallback"))
	})

	t.Run("Should fail on malformed yaml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestRequire(t *testing.T) {
	t.Run("Should report a missing API key as a configuration error", func(t *testing.T) {
		cfg := Default()
		err := cfg.RequireLLM()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingCredential)
		var cfgErr *Error
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "OPENAI_API_KEY", cfgErr.Env)
	})

	t.Run("Should accept a configured API key", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.ApiKey = "sk-test"
		assert.NoError(t, cfg.RequireLLM())
	})

	t.Run("Should require a DSN for postgres and a URI for mongo", func(t *testing.T) {
		cfg := Default()
		cfg.Database.Driver = "postgres"
		assert.ErrorIs(t, cfg.RequireStore(), ErrMissingCredential)
		cfg.Database.Driver = "mongo"
		assert.ErrorIs(t, cfg.RequireStore(), ErrMissingCredential)
		cfg.Database.Mongo.URI = "mongodb://localhost:27017"
		assert.NoError(t, cfg.RequireStore())
	})

	t.Run("Should reject an unknown driver", func(t *testing.T) {
		cfg := Default()
		cfg.Database.Driver = "oracle"
		err := cfg.RequireStore()
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMissingCredential)
	})
}

func TestGetServerAddress(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":3000", cfg.GetServerAddress())
	cfg.Server.Port = "127.0.0.1:8080"
	assert.Equal(t, "127.0.0.1:8080", cfg.GetServerAddress())
}

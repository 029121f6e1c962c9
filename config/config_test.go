package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults apply without a config file", func(t *testing.T) {
		cfg, err := getDefaultConfig()
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
		assert.Equal(t, "mistral", cfg.LLM.Model)
		assert.Equal(t, 1000, cfg.Chunking.MaxSize)
		assert.Equal(t, 200, cfg.Chunking.Overlap)
		assert.Equal(t, "semantic", cfg.Chunking.Strategy)
		assert.Equal(t, 5, cfg.Search.TopK)
		assert.Equal(t, 500, cfg.Graph.SnapshotLimit)
	})

	t.Run("YAML file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
llm:
  model: llama3
  max_tokens: 512
chunking:
  max_size: 400
  strategy: sentence
search:
  top_k: 3
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "llama3", cfg.LLM.Model)
		assert.Equal(t, 512, cfg.LLM.MaxTokens)
		assert.Equal(t, 400, cfg.Chunking.MaxSize)
		assert.Equal(t, "sentence", cfg.Chunking.Strategy)
		assert.Equal(t, 3, cfg.Search.TopK)

		// Unset values still get defaults
		assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
		assert.Equal(t, 200, cfg.Chunking.Overlap)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("llm:\n  base_url: http://file:1\n"), 0o644))

		t.Setenv("OLLAMA_BASE_URL", "http://env:11434")
		t.Setenv("OLLAMA_MODEL", "phi3")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "http://env:11434", cfg.LLM.BaseURL)
		assert.Equal(t, "phi3", cfg.LLM.Model)
	})

	t.Run("Unreadable explicit path errors", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("Invalid YAML errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

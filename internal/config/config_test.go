package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "codelore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaultsForUnsetFields(t *testing.T) {
	path := writeConfig(t, "api_key: test-key\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1536, cfg.VectorDim)
	assert.Equal(t, 6000, cfg.MaxTokens)
	assert.Equal(t, 50, cfg.EmbedBatch)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := writeConfig(t, "api_key: test-key\nvector_dim: 768\nembed_model: custom-model\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 768, cfg.VectorDim)
	assert.Equal(t, "custom-model", cfg.EmbedModel)
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	path := writeConfig(t, "api_key: from-file\n")
	t.Setenv("CODELORE_API_KEY", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestLoad_MissingFileReturnsNotFoundError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestLoad_MissingAPIKeyFailsValidation(t *testing.T) {
	path := writeConfig(t, "vector_dim: 1536\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsEmbedBatchOutOfRange(t *testing.T) {
	path := writeConfig(t, "api_key: k\nembed_batch: 500\n")
	_, err := Load(path)
	assert.Error(t, err)
}

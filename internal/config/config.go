// Package config loads the closed set of recognized options spec §6
// defines: everything the RepoFetcher, TextPreparer, EmbeddingClient,
// Indexer, and VectorStore need to run, plus secrets overridable from the
// environment so they never need to live in a checked-in file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the closed set of recognized options.
type Config struct {
	StoragePath      string `yaml:"storage_path"`
	VectorDim        int    `yaml:"vector_dim"`
	MaxTokens        int    `yaml:"max_tokens"`
	CharsPerToken    int    `yaml:"chars_per_token"`
	EmbedBatch       int    `yaml:"embed_batch"`
	ProgressInterval int    `yaml:"progress_interval"`
	MaxRetries       int    `yaml:"max_retries"`
	BaseDelayMS      int    `yaml:"base_delay_ms"`

	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	EmbedModel string `yaml:"embed_model"`
	ChatModel  string `yaml:"chat_model"`

	VectorBackendHost string `yaml:"vector_backend_host"`
	VectorBackendPort int    `yaml:"vector_backend_port"`

	// GenerateOverview turns on the post-index project overview synthesis
	// step. Off by default since it costs an extra round of chat calls
	// per repository indexed.
	GenerateOverview bool `yaml:"generate_overview"`
}

// Defaults returns the values every unset field falls back to, matching
// the constants spec §4.2-§4.4 name.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		StoragePath:       filepath.Join(home, ".codelore", "repos"),
		VectorDim:         1536,
		MaxTokens:         6000,
		CharsPerToken:     3,
		EmbedBatch:        50,
		ProgressInterval:  10,
		MaxRetries:        3,
		BaseDelayMS:       1000,
		EmbedModel:        "text-embedding-3-small",
		ChatModel:         "gpt-4o-mini",
		VectorBackendHost: "localhost",
		VectorBackendPort: 6334,
	}
}

// Load reads path, applying Defaults for anything the file leaves unset,
// then overriding APIKey from CODELORE_API_KEY whenever that variable is
// set (even if the file sets one) so credentials never need to sit in a
// checked-in file.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, &NotFoundError{Path: path}
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	fileCfg := cfg
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg = fileCfg

	if v := os.Getenv("CODELORE_API_KEY"); v != "" {
		cfg.APIKey = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the pipeline assumes hold:
// positive sizes and a configured credential.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (set it in the config file or CODELORE_API_KEY)")
	}
	if c.VectorDim <= 0 {
		return fmt.Errorf("vector_dim must be positive, got %d", c.VectorDim)
	}
	if c.MaxTokens <= 0 || c.CharsPerToken <= 0 {
		return fmt.Errorf("max_tokens and chars_per_token must be positive")
	}
	if c.EmbedBatch <= 0 || c.EmbedBatch > 100 {
		return fmt.Errorf("embed_batch must be between 1 and 100, got %d", c.EmbedBatch)
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("progress_interval must be positive, got %d", c.ProgressInterval)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.VectorBackendHost == "" || c.VectorBackendPort <= 0 {
		return fmt.Errorf("vector_backend_host and vector_backend_port are required")
	}
	return nil
}

// NotFoundError is returned when the requested config file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config file not found at %s", e.Path)
}

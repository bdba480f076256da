// Package config loads vaultmind configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"vaultmind/internal/assembly"
	"vaultmind/internal/embedding"
)

// Config is the root configuration.
type Config struct {
	// Vault is the root directory of the note vault.
	Vault string `yaml:"vault"`

	// ExcludedFolders are vault-relative prefixes hidden from reads,
	// traversal and context assembly.
	ExcludedFolders []string `yaml:"excluded_folders"`

	// MarkerTag is appended after every pending edit block.
	MarkerTag string `yaml:"marker_tag"`

	// Scope controls which notes context assembly collects.
	Scope assembly.ScopeConfig `yaml:"scope"`

	// TokenBudget caps assembled context size; OverheadTokens is reserved
	// off the top for the surrounding prompt.
	TokenBudget    int `yaml:"token_budget"`
	OverheadTokens int `yaml:"overhead_tokens"`

	Embedding embedding.Config `yaml:"embedding"`

	// VectorDB is the SQLite file holding note embeddings.
	VectorDB string `yaml:"vector_db"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty means stderr
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Vault:          ".",
		MarkerTag:      "#ai_edit",
		Scope:          assembly.DefaultScopeConfig(),
		TokenBudget:    8000,
		OverheadTokens: 0,
		Embedding:      embedding.DefaultConfig(),
		VectorDB:       filepath.Join(".vaultmind", "vectors.db"),
		Logging:        LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file at path on top of defaults. A missing file is
// not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VAULTMIND_VAULT"); v != "" {
		c.Vault = v
	}
	if v := os.Getenv("VAULTMIND_DB"); v != "" {
		c.VectorDB = v
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
	}
}

func (c *Config) validate() error {
	if c.TokenBudget <= 0 {
		return fmt.Errorf("token_budget must be positive, got %d", c.TokenBudget)
	}
	if c.OverheadTokens < 0 {
		return fmt.Errorf("overhead_tokens must not be negative, got %d", c.OverheadTokens)
	}
	if c.MarkerTag == "" {
		return fmt.Errorf("marker_tag must not be empty")
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

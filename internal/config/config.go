// Package config provides configuration loading and structs for the Annai server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for persisted state.
type StorageConfig struct {
	ChunkDBPath     string `yaml:"chunk_db_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
	HistoryPath     string `yaml:"history_path"`
	ProfilePath     string `yaml:"profile_path"`
	EnvPath         string `yaml:"env_path"`
}

// KnowledgeConfig holds knowledge base ingestion settings.
type KnowledgeConfig struct {
	Dir          string `yaml:"dir"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// EmbeddingConfig holds embedder settings. ModelPath is only used by the
// optional ONNX embedder; the default hash embedder ignores it.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// RetrievalConfig holds similarity search settings.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// LLMConfig holds chat completion settings.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.ChunkDBPath = expandPath(cfg.Storage.ChunkDBPath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.HistoryPath = expandPath(cfg.Storage.HistoryPath, configDir)
	cfg.Storage.ProfilePath = expandPath(cfg.Storage.ProfilePath, configDir)
	cfg.Storage.EnvPath = expandPath(cfg.Storage.EnvPath, configDir)
	cfg.Knowledge.Dir = expandPath(cfg.Knowledge.Dir, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
// Relative paths are resolved against the current working directory.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

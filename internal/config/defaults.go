package config

import (
	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/ingest"
	"github.com/hyperjump/annai/internal/llm"
	"github.com/hyperjump/annai/internal/retrieval"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Storage.ChunkDBPath == "" {
		cfg.Storage.ChunkDBPath = "./career_data/chunks.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "./career_data/vectors.bin"
	}
	if cfg.Storage.HistoryPath == "" {
		cfg.Storage.HistoryPath = "./chat_history.json"
	}
	if cfg.Storage.ProfilePath == "" {
		cfg.Storage.ProfilePath = "./user_profile.json"
	}
	if cfg.Storage.EnvPath == "" {
		cfg.Storage.EnvPath = "./.env"
	}
	if cfg.Knowledge.Dir == "" {
		cfg.Knowledge.Dir = "./knowledge_base"
	}
	if cfg.Knowledge.ChunkSize == 0 {
		cfg.Knowledge.ChunkSize = ingest.DefaultChunkSize
	}
	if cfg.Knowledge.ChunkOverlap == 0 {
		cfg.Knowledge.ChunkOverlap = ingest.DefaultChunkOverlap
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = embedding.DefaultDimensions
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = retrieval.DefaultTopK
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = llm.DefaultBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = llm.DefaultModel
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = llm.DefaultTemperature
	}
}

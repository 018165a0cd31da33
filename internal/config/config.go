package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port            int              `json:"port"`
	DBPath          string           `json:"db_path"`
	VectorstoreDir  string           `json:"vectorstore_dir"`
	DefaultDocument string           `json:"default_document"`
	LogConfig       logger.LogConfig `json:"log_config"`
	FileStore       FileStoreConfig  `json:"file_store"`
	AI              AIConfig         `json:"ai"`
	Index           IndexConfig      `json:"index"`
	Chunk           ChunkConfig      `json:"chunk"`
	TopK            int              `json:"top_k"`
	Cache           CacheConfig      `json:"cache"`
	Session         SessionConfig    `json:"session"`
	RateLimitMs     int              `json:"rate_limit_ms"`
	CORSAllowlist   []string         `json:"cors_allowlist"`
}

// FileStoreConfig selects a document store backend; Data is decoded by the
// backend factory.
type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	Model          string      `json:"model"`
	EmbedModel     string      `json:"embed_model"`
	TimeoutSeconds int         `json:"timeout_seconds"`
}

type IndexConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ChunkConfig struct {
	Size    int `json:"size"`
	Overlap int `json:"overlap"`
}

type CacheConfig struct {
	Size       int `json:"size"`
	TTLSeconds int `json:"ttl_seconds"`
}

type SessionConfig struct {
	TTLHours  int    `json:"ttl_hours"`
	SweepSpec string `json:"sweep_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.0-flash"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-004"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.VectorstoreDir == "" {
		cfg.VectorstoreDir = "./vectorstores"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
		cfg.FileStore.Data = map[string]interface{}{"dir": "./uploads"}
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Chunk.Size == 0 {
		cfg.Chunk.Size = 1000
	}
	if cfg.Chunk.Overlap == 0 {
		cfg.Chunk.Overlap = 200
	}
	if cfg.Chunk.Overlap >= cfg.Chunk.Size {
		return nil, fmt.Errorf("chunk.overlap must be smaller than chunk.size")
	}
	if cfg.TopK == 0 {
		cfg.TopK = 3
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 256
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Session.TTLHours > 0 && cfg.Session.SweepSpec == "" {
		cfg.Session.SweepSpec = "*/30 * * * *"
	}
	return &cfg, nil
}

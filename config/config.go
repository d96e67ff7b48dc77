// Package config manages settings for the menubot service and its
// ingestion tools. Settings layer in the following order (highest to
// lowest precedence):
//  1. Environment variables
//  2. Configuration file (JSON)
//  3. Default values
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the chatbot service and the
// ingestion tools.
type Config struct {
	// Completion provider settings.
	Provider string `json:"provider" env:"MENUBOT_PROVIDER"`
	Model    string `json:"model" env:"MENUBOT_MODEL"`
	APIKey   string `json:"api_key" env:"MENUBOT_API_KEY"`

	// Embedding provider settings. The embedding API key falls back to
	// APIKey when empty.
	EmbeddingProvider string `json:"embedding_provider" env:"MENUBOT_EMBEDDING_PROVIDER"`
	EmbeddingModel    string `json:"embedding_model" env:"MENUBOT_EMBEDDING_MODEL"`
	EmbeddingAPIKey   string `json:"embedding_api_key" env:"MENUBOT_EMBEDDING_API_KEY"`

	// Vector store settings. StoreURL points at a zip archive of the
	// store directory, downloaded when StorePath is absent.
	StorePath string `json:"store_path" env:"MENUBOT_STORE_PATH"`
	StoreURL  string `json:"store_url" env:"MENUBOT_STORE_URL"`

	// HTTP server settings.
	Port        int    `json:"port" env:"PORT"`
	FrontendDir string `json:"frontend_dir" env:"MENUBOT_FRONTEND_DIR"`

	// Feedback log location.
	FeedbackFile string `json:"feedback_file" env:"MENUBOT_FEEDBACK_FILE"`

	// Document processing settings for ingestion.
	ChunkSize    int    `json:"chunk_size" env:"MENUBOT_CHUNK_SIZE"`
	ChunkOverlap int    `json:"chunk_overlap" env:"MENUBOT_CHUNK_OVERLAP"`
	BatchSize    int    `json:"batch_size" env:"MENUBOT_BATCH_SIZE"`
	Counter      string `json:"counter" env:"MENUBOT_COUNTER"`

	LogLevel string `json:"log_level" env:"MENUBOT_LOG_LEVEL"`
}

// Load builds the configuration from defaults, an optional JSON file, and
// environment variable overrides.
//
// Configuration file search paths:
//  1. $MENUBOT_CONFIG environment variable
//  2. ~/.menubot/config.json
//  3. ~/.config/menubot/config.json
//  4. ./menubot.json
func Load() (*Config, error) {
	cfg := &Config{
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		EmbeddingProvider: "hf",
		EmbeddingModel:    "sentence-transformers/all-mpnet-base-v2",
		StorePath:         "chroma_db",
		Port:              7860,
		FrontendDir:       filepath.Join("frontend", "dist"),
		FeedbackFile:      "feedback.json",
		ChunkSize:         512,
		ChunkOverlap:      100,
		BatchSize:         1000,
		Counter:           "chars",
		LogLevel:          "INFO",
	}

	configFile := os.Getenv("MENUBOT_CONFIG")
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			candidates := []string{
				filepath.Join(home, ".menubot", "config.json"),
				filepath.Join(home, ".config", "menubot", "config.json"),
				"menubot.json",
			}
			for _, candidate := range candidates {
				if _, err := os.Stat(candidate); err == nil {
					configFile = candidate
					break
				}
			}
		}
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.APIKey
	}

	return cfg, nil
}

// Save persists the configuration to a JSON file at the specified path,
// creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Package config loads the YAML configuration file and merges it with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		EmbedModel  string  `yaml:"embed_model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
		EmbedRate   float64 `yaml:"embed_rate"`
	} `yaml:"llm"`

	Chunking struct {
		MaxSize  int    `yaml:"max_size"`
		Overlap  int    `yaml:"overlap"`
		Strategy string `yaml:"strategy"`
	} `yaml:"chunking"`

	Graph struct {
		Persist       bool `yaml:"persist"`
		ForceLoadSql  bool `yaml:"force_load_sql"`
		SnapshotLimit int  `yaml:"snapshot_limit"`
	} `yaml:"graph"`

	Search struct {
		TopK int `yaml:"top_k"`
	} `yaml:"search"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/docquery/config.yaml"),
			"/etc/docquery/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.2
	}
	if config.LLM.EmbedRate == 0 {
		config.LLM.EmbedRate = 10.0
	}

	if config.Chunking.MaxSize == 0 {
		config.Chunking.MaxSize = 1000
	}
	if config.Chunking.Overlap == 0 {
		config.Chunking.Overlap = 200
	}
	if config.Chunking.Strategy == "" {
		config.Chunking.Strategy = "semantic"
	}

	if config.Graph.SnapshotLimit == 0 {
		config.Graph.SnapshotLimit = 500
	}

	if config.Search.TopK == 0 {
		config.Search.TopK = 5
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		config.LLM.Model = model
	}
}

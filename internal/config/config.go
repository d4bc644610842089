// Package config loads the autods configuration: an optional YAML file
// layered over defaults, with AUTODS_-prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/autods/autods/internal/vectorstore"
)

// Config is the resolved application configuration.
type Config struct {
	CatalogPath string          `mapstructure:"catalogPath"`
	IndexDir    string          `mapstructure:"indexDir"`
	Embedding   EmbeddingConfig `mapstructure:"embedding"`
	Search      SearchConfig    `mapstructure:"search"`
	Runtime     RuntimeConfig   `mapstructure:"runtime"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider       string `mapstructure:"provider"` // "openai" or "local"
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"baseURL"`
	BatchSize      int    `mapstructure:"batchSize"`
	LocalDimension int    `mapstructure:"localDimension"`
}

// SearchConfig tunes query-time behavior.
type SearchConfig struct {
	TopK int `mapstructure:"topK"`
}

// RuntimeConfig locates the foreign runtime.
type RuntimeConfig struct {
	RscriptBinary string `mapstructure:"rscriptBinary"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalogPath", "autods.db")
	v.SetDefault("indexDir", "index")
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", vectorstore.DefaultEmbeddingModel)
	v.SetDefault("embedding.batchSize", vectorstore.DefaultBatchSize)
	v.SetDefault("embedding.localDimension", vectorstore.DefaultLocalDimension)
	v.SetDefault("search.topK", 1)
	v.SetDefault("runtime.rscriptBinary", "Rscript")
}

// Load reads the configuration. When path is empty the file autods.yaml
// is looked up in the working directory and is optional; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("AUTODS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("autods")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Embedding.Provider {
	case "openai", "local":
	default:
		return fmt.Errorf("unknown embedding provider %q (available: openai, local)", c.Embedding.Provider)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batchSize must be positive")
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.topK must be positive")
	}
	return nil
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the taskmesh CLI.
type Config struct {
	Listen   string         `mapstructure:"listen"`
	Store    StoreConfig    `mapstructure:"store"`
	Provider ProviderConfig `mapstructure:"provider"`
	Routing  RoutingConfig  `mapstructure:"routing"`
}

// StoreConfig selects the conversation store backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `mapstructure:"backend"`
	// Path is the sqlite database file (sqlite backend only).
	Path string `mapstructure:"path"`
}

// ProviderConfig selects the inference provider.
type ProviderConfig struct {
	// Name is "openai", "anthropic" or "mock".
	Name string `mapstructure:"name"`
	// Model overrides the provider's default model id.
	Model string `mapstructure:"model"`
	// APIKey for the provider; usually supplied via environment.
	APIKey string `mapstructure:"api_key"`
}

// RoutingConfig tunes the supervisor.
type RoutingConfig struct {
	// Classifier is "keyword" or "model".
	Classifier string `mapstructure:"classifier"`
	// DefaultSpecialist receives unmatched turns.
	DefaultSpecialist string        `mapstructure:"default_specialist"`
	ClassifyTimeout   time.Duration `mapstructure:"classify_timeout"`
	ExecuteTimeout    time.Duration `mapstructure:"execute_timeout"`
}

// loadConfig merges defaults, an optional config file and TASKMESH_*
// environment variables. Precedence (highest to lowest): environment,
// config file, built-in defaults.
func loadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", ":8080")
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.path", "taskmesh.db")
	v.SetDefault("provider.name", "mock")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("routing.classifier", "keyword")
	v.SetDefault("routing.default_specialist", "general")
	v.SetDefault("routing.classify_timeout", "30s")
	v.SetDefault("routing.execute_timeout", "120s")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("taskmesh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// Missing file is fine; defaults and env still apply.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("TASKMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

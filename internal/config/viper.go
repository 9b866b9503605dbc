package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "AGENTMEM"

// Load builds a Config. Precedence from highest to lowest: AGENTMEM_*
// environment variables, the config file, NewDefaultConfig. With an empty
// path config.{yaml,toml,json} is looked up in configDir (DefaultDir when
// empty) and a missing file is not an error. Unknown keys are ignored.
func Load(path, configDir string) (*Config, error) {
	v, err := InitViper(path, configDir)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitViper returns a viper instance with defaults, the config file and the
// environment wired in.
func InitViper(path, configDir string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if configDir == "" {
			configDir = DefaultDir()
		}
		v.SetConfigName("config")
		v.AddConfigPath(configDir)
	}
	if err := v.ReadInConfig(); err != nil {
		if path != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// setViperDefaults registers every key so environment variables bind even
// without a config file.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("short_term.buffer_size", d.ShortTerm.BufferSize)
	v.SetDefault("short_term.max_age_hours", d.ShortTerm.MaxAgeHours)
	v.SetDefault("short_term.working_ttl_seconds", d.ShortTerm.WorkingTTLSeconds)

	v.SetDefault("orchestrator.consolidation_threshold", d.Orchestrator.ConsolidationThreshold)
	v.SetDefault("orchestrator.importance_decay_hours", d.Orchestrator.ImportanceDecayHours)
	v.SetDefault("orchestrator.min_summary_batch", d.Orchestrator.MinSummaryBatch)
	v.SetDefault("orchestrator.sweep_interval", d.Orchestrator.SweepInterval)

	v.SetDefault("long_term.backend", d.LongTerm.Backend)
	v.SetDefault("long_term.path", d.LongTerm.Path)
	v.SetDefault("long_term.index_dir", d.LongTerm.IndexDir)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.base_url", d.Embedding.BaseURL)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)

	v.SetDefault("summarizer.provider", d.Summarizer.Provider)
	v.SetDefault("summarizer.model", d.Summarizer.Model)
	v.SetDefault("summarizer.api_key", d.Summarizer.APIKey)
	v.SetDefault("summarizer.base_url", d.Summarizer.BaseURL)
	v.SetDefault("summarizer.max_tokens", d.Summarizer.MaxTokens)

	v.SetDefault("retrieval.strategy_timeout", d.Retrieval.StrategyTimeout)
	v.SetDefault("retrieval.threshold", d.Retrieval.Threshold)

	v.SetDefault("cleanup.min_importance", d.Cleanup.MinImportance)

	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.format", d.Log.Format)
}

package memory

import (
	"context"
	"time"

	"github.com/rcliao/agentmem/internal/config"
	"github.com/rcliao/agentmem/internal/embedding"
	"github.com/rcliao/agentmem/internal/logging"
	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/orchestrator"
	"github.com/rcliao/agentmem/internal/retrieval"
	"github.com/rcliao/agentmem/internal/shortterm"
	"github.com/rcliao/agentmem/internal/store"
	"github.com/rcliao/agentmem/internal/store/vector"
	"github.com/rcliao/agentmem/internal/summarize"
)

// Open builds a System from configuration: it opens the long-term backend,
// the optional semantic index and the configured summarizer.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}

	lt, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	cleanup, _ := model.ParseImportance(cfg.Cleanup.MinImportance)
	sys, err := New(Options{
		Store: lt,
		Buffer: shortterm.Options{
			Size:       cfg.ShortTerm.BufferSize,
			MaxAge:     time.Duration(cfg.ShortTerm.MaxAgeHours) * time.Hour,
			WorkingTTL: time.Duration(cfg.ShortTerm.WorkingTTLSeconds) * time.Second,
		},
		Orchestrator: orchestrator.Config{
			ConsolidationThreshold: cfg.Orchestrator.ConsolidationThreshold,
			DecayHours:             float64(cfg.Orchestrator.ImportanceDecayHours),
			MinSummaryBatch:        cfg.Orchestrator.MinSummaryBatch,
		},
		Retrieval: retrieval.Options{
			Timeout:   cfg.Retrieval.StrategyTimeout,
			Threshold: cfg.Retrieval.Threshold,
		},
		Summarizer:   NewSummarizer(cfg.Summarizer, log),
		Logger:       log,
		CleanupBelow: &cleanup,
	})
	if err != nil {
		lt.Close()
		return nil, err
	}
	return sys, nil
}

// OpenStore opens the configured long-term backend.
func OpenStore(ctx context.Context, cfg *config.Config, log logging.Logger) (store.Store, error) {
	sqlite, err := store.NewSQLiteStore(cfg.LongTerm.Path)
	if err != nil {
		return nil, err
	}
	if cfg.LongTerm.Backend != config.BackendChromem {
		return sqlite, nil
	}

	emb, err := embedding.New(embedding.Options{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.Embedding.BaseURL,
		APIKey:    cfg.Embedding.APIKey,
		Dims:      cfg.Embedding.Dimensions,
		CacheSize: cfg.Embedding.CacheSize,
	})
	if err != nil {
		sqlite.Close()
		return nil, err
	}
	v, err := vector.New(ctx, sqlite, emb, vector.Options{PersistDir: cfg.LongTerm.IndexDir, Logger: log})
	if err != nil {
		sqlite.Close()
		return nil, err
	}
	return v, nil
}

// NewSummarizer returns the configured summarizer. Remote providers are
// wrapped so failures fall back to the deterministic summarizer.
func NewSummarizer(cfg config.SummarizerConfig, log logging.Logger) summarize.Summarizer {
	fallback := summarize.NewDeterministic()
	switch cfg.Provider {
	case config.SummarizerAnthropic:
		return summarize.WithFallback(summarize.NewAnthropic(summarize.AnthropicOptions{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			BaseURL:   cfg.BaseURL,
		}), fallback, log)
	case config.SummarizerOpenAI:
		return summarize.WithFallback(summarize.NewOpenAI(summarize.OpenAIOptions{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}), fallback, log)
	default:
		return fallback
	}
}

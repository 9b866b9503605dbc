// Package config loads agentmem settings from defaults, an optional config
// file and AGENTMEM_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rcliao/agentmem/internal/model"
)

// Config is the full agentmem configuration. Keys use snake_case sections,
// e.g. short_term.buffer_size or AGENTMEM_SHORT_TERM_BUFFER_SIZE.
type Config struct {
	ShortTerm    ShortTermConfig    `mapstructure:"short_term"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	LongTerm     LongTermConfig     `mapstructure:"long_term"`
	Embedding    EmbeddingConfig    `mapstructure:"embedding"`
	Summarizer   SummarizerConfig   `mapstructure:"summarizer"`
	Retrieval    RetrievalConfig    `mapstructure:"retrieval"`
	Cleanup      CleanupConfig      `mapstructure:"cleanup"`
	Log          LogConfig          `mapstructure:"log"`
}

// ShortTermConfig sizes the in-memory tier.
type ShortTermConfig struct {
	BufferSize        int `mapstructure:"buffer_size"`
	MaxAgeHours       int `mapstructure:"max_age_hours"`
	WorkingTTLSeconds int `mapstructure:"working_ttl_seconds"`
}

// OrchestratorConfig holds the promotion policy.
type OrchestratorConfig struct {
	ConsolidationThreshold float64 `mapstructure:"consolidation_threshold"`
	ImportanceDecayHours   int     `mapstructure:"importance_decay_hours"`
	MinSummaryBatch        int     `mapstructure:"min_summary_batch"`
	// SweepInterval is how often long-running hosts consolidate.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LongTermConfig selects the durable backend.
type LongTermConfig struct {
	// Backend is "sqlite" or "chromem" (sqlite plus a semantic index).
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	// IndexDir persists the chromem index; empty rebuilds it in memory on
	// every start.
	IndexDir string `mapstructure:"index_dir"`
}

// EmbeddingConfig selects the embedding provider for the chromem backend.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Dimensions int    `mapstructure:"dimensions"`
	CacheSize  int64  `mapstructure:"cache_size"`
}

// SummarizerConfig selects the summarizer. Remote summarizers always fall
// back to the deterministic one.
type SummarizerConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// RetrievalConfig tunes the hybrid retriever.
type RetrievalConfig struct {
	StrategyTimeout time.Duration `mapstructure:"strategy_timeout"`
	Threshold       float64       `mapstructure:"threshold"`
}

// CleanupConfig bounds what Cleanup may delete.
type CleanupConfig struct {
	MinImportance string `mapstructure:"min_importance"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Debug  bool   `mapstructure:"debug"`
	Format string `mapstructure:"format"`
}

// Backend, provider and format names.
const (
	BackendSQLite  = "sqlite"
	BackendChromem = "chromem"

	SummarizerDeterministic = "deterministic"
	SummarizerAnthropic     = "anthropic"
	SummarizerOpenAI        = "openai"

	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// DefaultDir is ~/.agentmem.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentmem"
	}
	return filepath.Join(home, ".agentmem")
}

// NewDefaultConfig returns the configuration used when nothing is set.
func NewDefaultConfig() *Config {
	return &Config{
		ShortTerm: ShortTermConfig{
			BufferSize:        20,
			MaxAgeHours:       24,
			WorkingTTLSeconds: 3600,
		},
		Orchestrator: OrchestratorConfig{
			ConsolidationThreshold: 0.7,
			ImportanceDecayHours:   24,
			MinSummaryBatch:        3,
			SweepInterval:          5 * time.Minute,
		},
		LongTerm: LongTermConfig{
			Backend: BackendSQLite,
			Path:    filepath.Join(DefaultDir(), "memory.db"),
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			CacheSize: 1 << 20,
		},
		Summarizer: SummarizerConfig{
			Provider:  SummarizerDeterministic,
			MaxTokens: 512,
		},
		Retrieval: RetrievalConfig{
			StrategyTimeout: 5 * time.Second,
			Threshold:       0.1,
		},
		Cleanup: CleanupConfig{MinImportance: "medium"},
		Log:     LogConfig{Format: FormatText},
	}
}

// Validate reports the first invalid setting as an ErrInvalidInput error.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: config: "+format, append([]any{model.ErrInvalidInput}, args...)...)
	}
	switch {
	case c.ShortTerm.BufferSize <= 0:
		return bad("short_term.buffer_size must be positive, got %d", c.ShortTerm.BufferSize)
	case c.ShortTerm.MaxAgeHours <= 0:
		return bad("short_term.max_age_hours must be positive, got %d", c.ShortTerm.MaxAgeHours)
	case c.ShortTerm.WorkingTTLSeconds <= 0:
		return bad("short_term.working_ttl_seconds must be positive, got %d", c.ShortTerm.WorkingTTLSeconds)
	case c.Orchestrator.ConsolidationThreshold <= 0 || c.Orchestrator.ConsolidationThreshold > 1:
		return bad("orchestrator.consolidation_threshold must be in (0,1], got %v", c.Orchestrator.ConsolidationThreshold)
	case c.Orchestrator.ImportanceDecayHours <= 0:
		return bad("orchestrator.importance_decay_hours must be positive, got %d", c.Orchestrator.ImportanceDecayHours)
	case c.Orchestrator.MinSummaryBatch <= 0:
		return bad("orchestrator.min_summary_batch must be positive, got %d", c.Orchestrator.MinSummaryBatch)
	case c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 1:
		return bad("retrieval.threshold must be in [0,1], got %v", c.Retrieval.Threshold)
	}

	switch c.LongTerm.Backend {
	case BackendSQLite, BackendChromem:
	default:
		return bad("unknown long_term.backend %q", c.LongTerm.Backend)
	}
	switch c.Embedding.Provider {
	case "hash", "ollama", "openai":
	default:
		return bad("unknown embedding.provider %q", c.Embedding.Provider)
	}
	switch c.Summarizer.Provider {
	case SummarizerDeterministic, SummarizerAnthropic, SummarizerOpenAI:
	default:
		return bad("unknown summarizer.provider %q", c.Summarizer.Provider)
	}
	switch c.Log.Format {
	case FormatText, FormatJSON, FormatPretty:
	default:
		return bad("unknown log.format %q", c.Log.Format)
	}
	if _, err := model.ParseImportance(c.Cleanup.MinImportance); err != nil {
		return bad("cleanup.min_importance: %v", err)
	}
	return nil
}

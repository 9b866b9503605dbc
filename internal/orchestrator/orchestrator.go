// Package orchestrator decides when short-term records are copied into
// long-term storage and computes per-query attention weights.
package orchestrator

import (
	"context"
	"math"
	"time"

	"github.com/rcliao/agentmem/internal/importance"
	"github.com/rcliao/agentmem/internal/keywords"
	"github.com/rcliao/agentmem/internal/logging"
	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/shortterm"
	"github.com/rcliao/agentmem/internal/store"
	"github.com/rcliao/agentmem/internal/summarize"
)

// Defaults.
const (
	DefaultThreshold       = 0.7
	DefaultDecayHours      = 24
	DefaultMinSummaryBatch = 3
	DefaultRecencyDays     = 30
	minFactor              = 0.1
)

// Config holds consolidation policy knobs.
type Config struct {
	ConsolidationThreshold float64
	DecayHours             float64
	MinSummaryBatch        int
	RecencyDays            float64
	Now                    func() time.Time
}

func (c *Config) setDefaults() {
	if c.ConsolidationThreshold <= 0 {
		c.ConsolidationThreshold = DefaultThreshold
	}
	if c.DecayHours <= 0 {
		c.DecayHours = DefaultDecayHours
	}
	if c.MinSummaryBatch <= 0 {
		c.MinSummaryBatch = DefaultMinSummaryBatch
	}
	if c.RecencyDays <= 0 {
		c.RecencyDays = DefaultRecencyDays
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Orchestrator moves records between tiers. It holds no state of its own.
type Orchestrator struct {
	cfg    Config
	buf    *shortterm.Buffer
	lt     store.Store
	sum    summarize.Summarizer
	scorer *importance.Scorer
	log    logging.Logger
}

// New creates an Orchestrator. A nil summarizer selects the deterministic
// one; a nil scorer the default scorer.
func New(buf *shortterm.Buffer, lt store.Store, sum summarize.Summarizer, scorer *importance.Scorer, log logging.Logger, cfg Config) *Orchestrator {
	cfg.setDefaults()
	if sum == nil {
		sum = &summarize.Deterministic{Now: cfg.Now}
	}
	if scorer == nil {
		scorer = importance.New()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Orchestrator{cfg: cfg, buf: buf, lt: lt, sum: sum, scorer: scorer, log: log}
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// DecayedImportance is the record's importance score scaled by linear decay
// over the decay window, floored at 0.1.
func (o *Orchestrator) DecayedImportance(r *model.Record) float64 {
	age := o.cfg.Now().Sub(r.Timestamp).Hours()
	if age < 0 {
		age = 0
	}
	return r.Importance.Score() * math.Max(minFactor, 1-age/o.cfg.DecayHours)
}

// ShouldPromote reports whether r belongs in long-term storage. Critical
// records always qualify.
func (o *Orchestrator) ShouldPromote(r *model.Record) bool {
	if r.Importance >= model.Critical {
		return true
	}
	return o.DecayedImportance(r) >= o.cfg.ConsolidationThreshold
}

// AttentionWeights scores each record against query as keyword overlap times
// importance times recency. An empty query counts as full overlap. Weights
// are only comparable within one call.
func (o *Orchestrator) AttentionWeights(query string, recs []*model.Record) []float64 {
	q := keywords.Set(query)
	now := o.cfg.Now()
	out := make([]float64, len(recs))
	for i, r := range recs {
		overlap := 1.0
		if len(q) > 0 {
			overlap = keywords.Overlap(q, keywords.Set(r.Content))
		}
		ageDays := now.Sub(r.Timestamp).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		recency := math.Max(minFactor, 1-ageDays/o.cfg.RecencyDays)
		out[i] = overlap * r.Importance.Score() * recency
	}
	return out
}

// Promote copies r to long-term storage. Failures are logged and reported as
// false; the record stays recoverable from the buffer.
func (o *Orchestrator) Promote(ctx context.Context, r *model.Record) bool {
	if o.lt == nil {
		return false
	}
	if err := o.lt.Add(ctx, r); err != nil {
		o.log.Warn("promotion failed", "id", r.ID, "importance", r.Importance.String(), "err", err)
		return false
	}
	o.buf.MarkPromoted(r.ID)
	o.log.Debug("promoted", "id", r.ID, "importance", r.Importance.String())
	return true
}

// Package memory is the facade over the short-term buffer, the long-term
// store, the orchestrator and the hybrid retriever. Hosts such as the CLI and
// the MCP server only talk to a System.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/agentmem/internal/importance"
	"github.com/rcliao/agentmem/internal/logging"
	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/orchestrator"
	"github.com/rcliao/agentmem/internal/retrieval"
	"github.com/rcliao/agentmem/internal/shortterm"
	"github.com/rcliao/agentmem/internal/store"
	"github.com/rcliao/agentmem/internal/summarize"
)

// ProjectState is the optional project-tracking collaborator. The memory
// system only reads from it.
type ProjectState interface {
	AgentStatus(ctx context.Context, projectID, agentID string) (map[string]any, error)
}

// Options wires a System. Store is required; everything else has defaults.
type Options struct {
	Store        store.Store
	Buffer       shortterm.Options
	Orchestrator orchestrator.Config
	Retrieval    retrieval.Options
	Summarizer   summarize.Summarizer
	Scorer       *importance.Scorer
	ProjectState ProjectState
	Logger       logging.Logger
	// CleanupBelow is the importance below which Cleanup may delete old
	// records. Nil selects Medium; Trivial deletes nothing.
	CleanupBelow *model.Importance
	Now          func() time.Time
}

// System is safe for concurrent use.
type System struct {
	buf     *shortterm.Buffer
	lt      store.Store
	orch    *orchestrator.Orchestrator
	ret     *retrieval.Retriever
	scorer  *importance.Scorer
	project ProjectState
	log     logging.Logger
	now     func() time.Time
	cleanup model.Importance

	session   string
	startedAt time.Time
}

// New assembles a System.
func New(opts Options) (*System, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: store is required", model.ErrInvalidInput)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Scorer == nil {
		opts.Scorer = importance.New()
	}
	if opts.Summarizer == nil {
		opts.Summarizer = &summarize.Deterministic{Now: opts.Now}
	}
	cleanup := model.Medium
	if opts.CleanupBelow != nil {
		cleanup = *opts.CleanupBelow
	}
	if opts.Buffer.Now == nil {
		opts.Buffer.Now = opts.Now
	}
	if opts.Orchestrator.Now == nil {
		opts.Orchestrator.Now = opts.Now
	}
	if opts.Retrieval.Logger == nil {
		opts.Retrieval.Logger = opts.Logger
	}

	buf := shortterm.New(opts.Buffer)
	s := &System{
		buf:       buf,
		lt:        opts.Store,
		orch:      orchestrator.New(buf, opts.Store, opts.Summarizer, opts.Scorer, opts.Logger, opts.Orchestrator),
		scorer:    opts.Scorer,
		project:   opts.ProjectState,
		log:       opts.Logger,
		now:       opts.Now,
		cleanup:   cleanup,
		session:   uuid.NewString(),
		startedAt: opts.Now(),
	}
	s.ret = retrieval.New(opts.Retrieval,
		&retrieval.SemanticStrategy{Store: opts.Store},
		&retrieval.KeywordStrategy{Buffer: buf},
		&retrieval.ContextualStrategy{Buffer: buf, Store: opts.Store},
		&retrieval.TemporalStrategy{Buffer: buf, Store: opts.Store, Now: opts.Now},
	)
	return s, nil
}

// SessionID identifies this System instance.
func (s *System) SessionID() string { return s.session }

// AddParams describes a new record.
type AddParams struct {
	Content   string
	AgentID   string
	ProjectID string
	Context   map[string]any
	Tags      []string
	// Kind defaults to episodic.
	Kind model.Kind
	// Importance overrides the scorer when set.
	Importance *model.Importance
}

// Add scores and buffers a new record and returns its id. Critical records
// are promoted at once. Storage failures never fail Add: the record stays in
// short-term memory and the error is logged.
func (s *System) Add(ctx context.Context, p AddParams) (string, error) {
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return "", fmt.Errorf("%w: content is required", model.ErrInvalidInput)
	}
	kind := model.KindEpisodic
	if p.Kind != "" {
		k, err := model.ParseKind(string(p.Kind))
		if err != nil {
			return "", err
		}
		kind = k
	}

	imp := s.scorer.Score(content, p.Context)
	if p.Importance != nil {
		imp = p.Importance.Clamp()
	}

	rec := &model.Record{
		ID:         model.NewID(),
		Content:    content,
		Kind:       kind,
		AgentID:    p.AgentID,
		ProjectID:  p.ProjectID,
		Timestamp:  s.now(),
		Importance: imp,
		Tags:       model.NormalizeTags(p.Tags),
		Context:    p.Context,
	}

	pending := s.buf.Add(rec)
	if rec.Importance >= model.Critical {
		s.orch.Promote(ctx, rec)
	}
	if pending > 0 {
		s.orch.Evict(ctx)
	}
	s.log.Debug("memory added", "id", rec.ID, "agent", rec.AgentID, "importance", rec.Importance.String())
	return rec.ID, nil
}

// Get looks in short-term memory first, then long-term. It reports false for
// unknown ids and for long-term failures.
func (s *System) Get(ctx context.Context, id string) (*model.Record, bool) {
	if r := s.buf.Get(id); r != nil {
		return r, true
	}
	r, err := s.lt.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.log.Warn("long-term get failed", "id", id, "err", err)
		}
		return nil, false
	}
	return r, true
}

// Update patches the record in every tier that holds it. It reports false
// for unknown ids; an invalid patch is an ErrInvalidInput error.
func (s *System) Update(ctx context.Context, id string, p model.Patch) (*model.Record, bool, error) {
	if err := p.Validate(); err != nil {
		return nil, false, err
	}
	updated, found := s.buf.Update(id, p)

	r, err := s.lt.Update(ctx, id, p)
	switch {
	case err == nil:
		if updated == nil {
			updated = r
		}
		found = true
	case errors.Is(err, model.ErrNotFound):
	default:
		s.log.Warn("long-term update failed", "id", id, "err", err)
	}
	return updated, found, nil
}

// Delete removes id from both tiers and reports whether it existed.
func (s *System) Delete(ctx context.Context, id string) bool {
	found := s.buf.Delete(id)
	err := s.lt.Delete(ctx, id)
	switch {
	case err == nil:
		found = true
	case errors.Is(err, model.ErrNotFound):
	default:
		s.log.Warn("long-term delete failed", "id", id, "err", err)
	}
	return found
}

// SetWorking stores a working-memory entry. Entries expire after the
// configured TTL.
func (s *System) SetWorking(key string, value any) { s.buf.SetWorking(key, value) }

// Working returns a copy of live working-memory entries.
func (s *System) Working() map[string]any { return s.buf.Working() }

// Consolidate runs one orchestrator sweep.
func (s *System) Consolidate(ctx context.Context) orchestrator.SweepStats {
	return s.orch.Sweep(ctx)
}

// Flush copies every short-term record not yet in long-term storage. Hosts
// call it before Close.
func (s *System) Flush(ctx context.Context) orchestrator.SweepStats {
	return s.orch.Flush(ctx)
}

// Close closes the long-term store. It does not flush.
func (s *System) Close() error {
	return s.lt.Close()
}

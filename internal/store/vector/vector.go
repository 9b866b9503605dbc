// Package vector layers a chromem-go semantic index over a store.Store.
// The wrapped store stays the source of truth; the index only ranks ids.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/rcliao/agentmem/internal/embedding"
	"github.com/rcliao/agentmem/internal/keywords"
	"github.com/rcliao/agentmem/internal/logging"
	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/store"
)

const collectionName = "memories"

// Options configures a Store.
type Options struct {
	// PersistDir stores the index on disk; empty keeps it in memory.
	PersistDir string
	Logger     logging.Logger
}

// Store implements store.Store with semantic search.
type Store struct {
	src store.Store
	emb embedding.Embedder
	db  *chromem.DB
	col *chromem.Collection
	log logging.Logger
	mu  sync.Mutex // serializes index mutation against Reindex
}

var _ store.Store = (*Store)(nil)

// New opens the index over src. When the index size disagrees with src it
// is rebuilt.
func New(ctx context.Context, src store.Store, emb embedding.Embedder, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	var db *chromem.DB
	if opts.PersistDir != "" {
		var err error
		db, err = chromem.NewPersistentDB(opts.PersistDir, false)
		if err != nil {
			return nil, fmt.Errorf("%w: open vector index: %v", model.ErrStorageUnavailable, err)
		}
	} else {
		db = chromem.NewDB()
	}

	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return emb.Embed(ctx, text)
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s := &Store{src: src, emb: emb, db: db, col: col, log: opts.Logger}

	st, err := src.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if st.TotalItems != col.Count() {
		if _, err := s.Reindex(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func metadata(r *model.Record) map[string]string {
	return map[string]string{
		"agent_id":   r.AgentID,
		"project_id": r.ProjectID,
		"kind":       string(r.Kind),
	}
}

func (s *Store) index(ctx context.Context, r *model.Record) error {
	vec, err := s.emb.Embed(ctx, r.Content)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	return s.col.AddDocument(ctx, chromem.Document{
		ID:        r.ID,
		Content:   r.Content,
		Embedding: vec,
		Metadata:  metadata(r),
	})
}

// Reindex embeds every record in the source store. Records that fail to embed
// are logged and skipped. It returns the number of documents indexed.
func (s *Store) Reindex(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(collectionName); err != nil {
		return 0, fmt.Errorf("reset index: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(collectionName, nil, func(ctx context.Context, text string) ([]float32, error) {
		return s.emb.Embed(ctx, text)
	})
	if err != nil {
		return 0, fmt.Errorf("create collection: %w", err)
	}
	s.col = col

	recs, err := s.src.List(ctx, store.ListParams{})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range recs {
		if err := s.index(ctx, r); err != nil {
			s.log.Warn("vector index skip", "id", r.ID, "err", err)
			continue
		}
		n++
	}
	s.log.Debug("vector index rebuilt", "count", n, "total", len(recs))
	return n, nil
}

// Add writes to the source store first; an indexing failure is logged and
// repaired by the next Reindex.
func (s *Store) Add(ctx context.Context, r *model.Record) error {
	if err := s.src.Add(ctx, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index(ctx, r); err != nil {
		s.log.Warn("vector index add failed", "id", r.ID, "err", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.Record, error) {
	return s.src.Get(ctx, id)
}

func (s *Store) Update(ctx context.Context, id string, p model.Patch) (*model.Record, error) {
	r, err := s.src.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if p.Content != nil || p.Kind != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		err := s.col.Delete(ctx, nil, nil, id)
		if err == nil {
			err = s.index(ctx, r)
		}
		if err != nil {
			s.log.Warn("vector index update failed", "id", id, "err", err)
		}
	}
	return r, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.src.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.col.Delete(ctx, nil, nil, id); err != nil {
		s.log.Warn("vector index delete failed", "id", id, "err", err)
	}
	return nil
}

// Search ranks by cosine similarity. Queries without text fall through to
// the source store.
func (s *Store) Search(ctx context.Context, p store.SearchParams) ([]*model.Record, error) {
	if p.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", model.ErrInvalidInput)
	}
	if len(keywords.Tokenize(p.Query)) == 0 {
		return s.src.Search(ctx, p)
	}
	limit := p.Limit
	if limit == 0 {
		limit = store.DefaultSearchLimit
	}

	s.mu.Lock()
	col := s.col
	s.mu.Unlock()

	n := col.Count()
	if n == 0 {
		return nil, nil
	}
	// Over-fetch so the importance post-filter still fills the limit.
	want := limit
	if p.Filters.MinImportance > model.Trivial {
		want = limit * 3
	}
	if want > n {
		want = n
	}

	where := map[string]string{}
	if p.Filters.AgentID != "" {
		where["agent_id"] = p.Filters.AgentID
	}
	if p.Filters.ProjectID != "" {
		where["project_id"] = p.Filters.ProjectID
	}
	if p.Filters.Kind != "" {
		where["kind"] = string(p.Filters.Kind)
	}
	if len(where) == 0 {
		where = nil
	}

	results, err := col.Query(ctx, p.Query, want, where, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: vector query: %v", model.ErrStorageUnavailable, err)
	}

	var out []*model.Record
	for _, res := range results {
		r, err := s.src.Get(ctx, res.ID)
		if err != nil {
			// Stale index entry.
			continue
		}
		if !p.Filters.Match(r) {
			continue
		}
		sim := float64(res.Similarity)
		if math.IsNaN(sim) || sim < 0 {
			sim = 0
		}
		r.RelevanceScore = sim
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) List(ctx context.Context, p store.ListParams) ([]*model.Record, error) {
	return s.src.List(ctx, p)
}

func (s *Store) RecordAccess(ctx context.Context, ids []string, at time.Time) error {
	return s.src.RecordAccess(ctx, ids, at)
}

func (s *Store) Stats(ctx context.Context) (*store.Stats, error) {
	st, err := s.src.Stats(ctx)
	if err != nil {
		return st, err
	}
	st.Backend = "chromem"
	s.mu.Lock()
	st.IndexedItems = s.col.Count()
	s.mu.Unlock()
	return st, nil
}

// Close closes the source store. A persistent index that missed writes is
// rebuilt on next open because its count disagrees with the source.
func (s *Store) Close() error {
	return s.src.Close()
}

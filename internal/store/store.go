// Package store provides the long-term memory storage interface and its
// SQLite reference implementation.
package store

import (
	"context"
	"time"

	"github.com/rcliao/agentmem/internal/model"
)

// DefaultSearchLimit applies when SearchParams.Limit is zero.
const DefaultSearchLimit = 20

// SearchParams holds parameters for searching long-term memory.
type SearchParams struct {
	Query   string
	Filters model.Filters
	Limit   int
}

// ListParams holds parameters for listing records. A zero Before means no
// age bound; Limit <= 0 means no limit.
type ListParams struct {
	Filters model.Filters
	Before  time.Time
	Limit   int
}

// Store is the long-term tier. Unknown ids yield model.ErrNotFound. Search
// results carry a transient RelevanceScore in [0,1].
type Store interface {
	// Add inserts r, or replaces content, kind, tags and context of an
	// existing record with the same id. Promotion may run more than once for
	// the same record so Add must be idempotent.
	Add(ctx context.Context, r *model.Record) error

	Get(ctx context.Context, id string) (*model.Record, error)

	// Update applies a patch and returns the updated record.
	Update(ctx context.Context, id string, p model.Patch) (*model.Record, error)

	Delete(ctx context.Context, id string) error

	Search(ctx context.Context, p SearchParams) ([]*model.Record, error)

	// List returns records newest first.
	List(ctx context.Context, p ListParams) ([]*model.Record, error)

	// RecordAccess bumps access statistics for ids. Unknown ids are ignored.
	RecordAccess(ctx context.Context, ids []string, at time.Time) error

	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// Stats holds long-term storage statistics.
type Stats struct {
	Backend      string         `json:"backend"`
	DBPath       string         `json:"db_path,omitempty"`
	DBSizeBytes  int64          `json:"db_size_bytes,omitempty"`
	TotalItems   int            `json:"total_items"`
	ByKind       map[string]int `json:"by_kind"`
	ByImportance map[string]int `json:"by_importance"`
	Projects     []ProjectStats `json:"projects"`
	IndexedItems int            `json:"indexed_items,omitempty"`
}

// ProjectStats holds per-project counts.
type ProjectStats struct {
	ProjectID string `json:"project_id"`
	Count     int    `json:"count"`
	Agents    int    `json:"agents"`
}

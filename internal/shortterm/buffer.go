// Package shortterm holds the bounded, time-windowed in-memory tier of the
// memory system together with the agent's working-memory scratch space.
package shortterm

import (
	"sort"
	"sync"
	"time"

	"github.com/rcliao/agentmem/internal/model"
)

// Defaults.
const (
	DefaultSize       = 20
	DefaultMaxAge     = 24 * time.Hour
	DefaultWorkingTTL = time.Hour
	// KeepRatio is the share of the buffer kept when it overflows.
	KeepRatio = 0.7
)

// Options configures a Buffer. Zero fields take the defaults.
type Options struct {
	Size       int
	MaxAge     time.Duration
	WorkingTTL time.Duration
	Now        func() time.Time
}

type workingEntry struct {
	value   any
	expires time.Time
}

// Buffer is safe for concurrent use. Every mutation happens under one mutex so
// eviction ordering cannot be corrupted by interleaved adds.
type Buffer struct {
	mu       sync.Mutex
	size     int
	maxAge   time.Duration
	ttl      time.Duration
	now      func() time.Time
	items    []*model.Record
	pending  []*model.Record
	promoted map[string]bool
	working  map[string]workingEntry
}

// New creates a Buffer.
func New(opts Options) *Buffer {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.WorkingTTL <= 0 {
		opts.WorkingTTL = DefaultWorkingTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Buffer{
		size:     opts.Size,
		maxAge:   opts.MaxAge,
		ttl:      opts.WorkingTTL,
		now:      opts.Now,
		promoted: map[string]bool{},
		working:  map[string]workingEntry{},
	}
}

// Size returns the configured capacity.
func (b *Buffer) Size() int { return b.size }

// Len returns the number of resident records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Add appends a copy of r. When the buffer exceeds its size it is sorted by
// importance then recency, the top KeepRatio share stays resident and the rest
// moves to the pending list. Add reports how many records are now pending.
func (b *Buffer) Add(r *model.Record) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, r.Clone())
	if len(b.items) > b.size {
		keep := int(float64(b.size) * KeepRatio)
		if keep < 1 {
			keep = 1
		}
		ranked := append([]*model.Record(nil), b.items...)
		sortByRetention(ranked)
		b.pending = append(b.pending, ranked[keep:]...)
		survivors := make(map[*model.Record]bool, keep)
		for _, r := range ranked[:keep] {
			survivors[r] = true
		}
		kept := make([]*model.Record, 0, keep)
		for _, r := range b.items {
			if survivors[r] {
				kept = append(kept, r)
			}
		}
		b.items = kept
	}
	return len(b.pending)
}

// Reinsert puts r back without triggering overflow handling. It is used when
// a summary cannot be promoted and must stay recoverable.
func (b *Buffer) Reinsert(r *model.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, r.Clone())
}

func sortByRetention(recs []*model.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, c := recs[i], recs[j]
		if a.Importance != c.Importance {
			return a.Importance > c.Importance
		}
		if !a.Timestamp.Equal(c.Timestamp) {
			return a.Timestamp.After(c.Timestamp)
		}
		return a.ID < c.ID
	})
}

// Pending returns the number of eviction candidates awaiting summarization.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// TakePending drains the eviction candidates.
func (b *Buffer) TakePending() []*model.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

// TakeExpired removes and returns resident records older than the max age.
func (b *Buffer) TakeExpired() []*model.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff := b.now().Add(-b.maxAge)
	var expired []*model.Record
	kept := b.items[:0]
	for _, r := range b.items {
		if r.Timestamp.Before(cutoff) {
			expired = append(expired, r)
			continue
		}
		kept = append(kept, r)
	}
	b.items = kept
	return expired
}

// Recent returns up to limit records, most recent first, optionally filtered
// by agent. limit <= 0 means all.
func (b *Buffer) Recent(agentID string, limit int) []*model.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*model.Record
	for _, r := range b.items {
		if agentID != "" && r.AgentID != agentID {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Snapshot returns clones of all resident records in insertion order.
// Overflow removes records but never reorders the survivors.
func (b *Buffer) Snapshot() []*model.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*model.Record, len(b.items))
	for i, r := range b.items {
		out[i] = r.Clone()
	}
	return out
}

func (b *Buffer) find(id string) int {
	for i, r := range b.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Get returns a clone of the resident record with id, or nil.
func (b *Buffer) Get(id string) *model.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.find(id); i >= 0 {
		return b.items[i].Clone()
	}
	return nil
}

// Update applies p to the resident record with id and returns the result.
func (b *Buffer) Update(id string, p model.Patch) (*model.Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.find(id)
	if i < 0 {
		return nil, false
	}
	b.items[i].Apply(p)
	return b.items[i].Clone(), true
}

// Delete removes the record with id from the buffer and the pending list.
func (b *Buffer) Delete(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	found := false
	if i := b.find(id); i >= 0 {
		b.items = append(b.items[:i], b.items[i+1:]...)
		found = true
	}
	for i, r := range b.pending {
		if r.ID == id {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			found = true
			break
		}
	}
	delete(b.promoted, id)
	return found
}

// Touch bumps access statistics on resident records.
func (b *Buffer) Touch(ids []string, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		if i := b.find(id); i >= 0 {
			b.items[i].Touch(at)
		}
	}
}

// MarkPromoted records that id has been copied to long-term storage.
func (b *Buffer) MarkPromoted(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.promoted[id] = true
}

// IsPromoted reports whether id has been copied to long-term storage.
func (b *Buffer) IsPromoted(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.promoted[id]
}

// Forget drops promotion bookkeeping for ids no longer resident.
func (b *Buffer) Forget(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		if b.find(id) < 0 {
			delete(b.promoted, id)
		}
	}
}

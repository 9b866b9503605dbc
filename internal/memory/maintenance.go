package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/store"
)

// Cleanup deletes long-term records older than days and below the cleanup
// importance. Critical records are never deleted. It returns the number of
// records removed; storage failures end the pass early and are logged.
func (s *System) Cleanup(ctx context.Context, days int) (int, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: negative age threshold %d", model.ErrInvalidInput, days)
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	old, err := s.lt.List(ctx, store.ListParams{Before: cutoff})
	if err != nil {
		s.log.Warn("cleanup list failed", "err", err)
		return 0, nil
	}

	n := 0
	for _, r := range old {
		if r.Importance >= model.Critical || r.Importance >= s.cleanup {
			continue
		}
		if err := s.lt.Delete(ctx, r.ID); err != nil {
			s.log.Warn("cleanup delete failed", "id", r.ID, "err", err)
			continue
		}
		s.buf.Delete(r.ID)
		n++
	}
	s.log.Info("cleanup complete", "deleted", n, "days", days, "below", s.cleanup.String())
	return n, nil
}

// Stats summarizes both tiers.
type Stats struct {
	SessionID      string       `json:"session_id"`
	ShortTermCount int          `json:"short_term_count"`
	ShortTermSize  int          `json:"short_term_size"`
	PendingCount   int          `json:"pending_count"`
	WorkingKeys    []string     `json:"working_keys"`
	LongTermCount  int          `json:"long_term_count"`
	LongTerm       *store.Stats `json:"long_term,omitempty"`
}

// Stats never fails; long-term figures are omitted when the store is down.
func (s *System) Stats(ctx context.Context) Stats {
	st := Stats{
		SessionID:      s.session,
		ShortTermCount: s.buf.Len(),
		ShortTermSize:  s.buf.Size(),
		PendingCount:   s.buf.Pending(),
		WorkingKeys:    s.buf.WorkingKeys(),
	}
	lt, err := s.lt.Stats(ctx)
	if err != nil {
		s.log.Warn("long-term stats failed", "err", err)
		return st
	}
	st.LongTerm = lt
	st.LongTermCount = lt.TotalItems
	return st
}

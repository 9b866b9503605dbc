package orchestrator

import (
	"context"

	"github.com/rcliao/agentmem/internal/model"
)

// SweepStats reports what one consolidation pass did.
type SweepStats struct {
	Candidates      int      `json:"candidates"`
	Expired         int      `json:"expired"`
	Promoted        int      `json:"promoted"`
	Summarized      int      `json:"summarized"`
	Summaries       []string `json:"summaries,omitempty"`
	Dropped         int      `json:"dropped"`
	PromotionFailed int      `json:"promotion_failed"`
	BufferRemaining int      `json:"buffer_remaining"`
}

func (s *SweepStats) add(o SweepStats) {
	s.Candidates += o.Candidates
	s.Expired += o.Expired
	s.Promoted += o.Promoted
	s.Summarized += o.Summarized
	s.Summaries = append(s.Summaries, o.Summaries...)
	s.Dropped += o.Dropped
	s.PromotionFailed += o.PromotionFailed
}

// partition promotes eligible candidates and returns the ones that still
// need summarizing. Already-promoted records are dropped as they are safe in
// long-term storage.
func (o *Orchestrator) partition(ctx context.Context, recs []*model.Record, st *SweepStats) []*model.Record {
	var rest []*model.Record
	for _, r := range recs {
		switch {
		case o.buf.IsPromoted(r.ID):
			st.Dropped++
		case o.ShouldPromote(r) && o.Promote(ctx, r):
			st.Promoted++
			st.Dropped++
		default:
			if o.ShouldPromote(r) {
				st.PromotionFailed++
			}
			rest = append(rest, r)
		}
	}
	return rest
}

// consolidate summarizes recs into one record and promotes it. A summary
// that cannot be promoted is put back in the buffer so it is not lost.
func (o *Orchestrator) consolidate(ctx context.Context, recs []*model.Record, st *SweepStats) {
	summary, err := o.sum.Summarize(ctx, recs)
	if err != nil {
		o.log.Error("summarization failed", "count", len(recs), "err", err)
		st.Dropped += len(recs)
		return
	}
	summary.Importance = o.scorer.Score(summary.Content, summary.Context).AtLeast(model.Medium).AtMost(model.High)

	st.Summarized += len(recs)
	st.Dropped += len(recs)
	st.Summaries = append(st.Summaries, summary.ID)
	if o.Promote(ctx, summary) {
		st.Promoted++
		return
	}
	st.PromotionFailed++
	o.buf.Reinsert(summary)
}

func (o *Orchestrator) forget(recs []*model.Record) {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	o.buf.Forget(ids...)
}

// Evict handles overflow candidates produced by Buffer.Add. Eligible records
// are promoted and every other candidate is summarized, whatever the count.
func (o *Orchestrator) Evict(ctx context.Context) SweepStats {
	var st SweepStats
	pending := o.buf.TakePending()
	if len(pending) == 0 {
		st.BufferRemaining = o.buf.Len()
		return st
	}
	st.Candidates = len(pending)
	if rest := o.partition(ctx, pending, &st); len(rest) > 0 {
		o.consolidate(ctx, rest, &st)
	}
	o.forget(pending)
	st.BufferRemaining = o.buf.Len()
	o.log.Debug("evicted", "candidates", st.Candidates, "promoted", st.Promoted, "summarized", st.Summarized)
	return st
}

// Sweep runs one consolidation pass: overflow candidates are evicted,
// expired records are promoted or summarized (when at least MinSummaryBatch
// remain) and dropped, and resident records that now qualify are promoted.
func (o *Orchestrator) Sweep(ctx context.Context) SweepStats {
	st := o.Evict(ctx)

	expired := o.buf.TakeExpired()
	if len(expired) > 0 {
		var est SweepStats
		est.Candidates = len(expired)
		est.Expired = len(expired)
		rest := o.partition(ctx, expired, &est)
		if len(rest) >= o.cfg.MinSummaryBatch {
			o.consolidate(ctx, rest, &est)
		} else {
			est.Dropped += len(rest)
		}
		o.forget(expired)
		st.add(est)
	}

	for _, r := range o.buf.Snapshot() {
		if o.buf.IsPromoted(r.ID) || !o.ShouldPromote(r) {
			continue
		}
		if o.Promote(ctx, r) {
			st.Promoted++
		} else {
			st.PromotionFailed++
		}
	}
	st.BufferRemaining = o.buf.Len()
	o.log.Info("sweep complete", "promoted", st.Promoted, "summarized", st.Summarized,
		"expired", st.Expired, "remaining", st.BufferRemaining)
	return st
}

// Flush evicts pending candidates and then copies every unpromoted resident
// record to long-term storage regardless of policy. Hosts call it before
// shutdown.
func (o *Orchestrator) Flush(ctx context.Context) SweepStats {
	st := o.Evict(ctx)
	for _, r := range o.buf.Snapshot() {
		if o.buf.IsPromoted(r.ID) {
			continue
		}
		if o.Promote(ctx, r) {
			st.Promoted++
		} else {
			st.PromotionFailed++
		}
	}
	st.BufferRemaining = o.buf.Len()
	return st
}

package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/agentmem/internal/keywords"
	"github.com/rcliao/agentmem/internal/logging"
	"github.com/rcliao/agentmem/internal/model"
)

// Defaults.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultThreshold = 0.1
	DefaultDiversity = 0.8
	DefaultLimit     = 10
)

// DefaultWeights are the merge weights per strategy. They sum to 1.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		Semantic:   0.4,
		Keyword:    0.3,
		Contextual: 0.2,
		Temporal:   0.1,
	}
}

// Options configures a Retriever.
type Options struct {
	Weights   map[string]float64
	Timeout   time.Duration
	Threshold float64
	// Diversity is the keyword Jaccard above which a candidate counts as a
	// near duplicate of an accepted result.
	Diversity float64
	Logger    logging.Logger
}

// Retriever fans a query out to its strategies and merges the results.
type Retriever struct {
	strategies []Strategy
	opts       Options
	log        logging.Logger
}

// New creates a Retriever. Strategies missing from Weights get weight 0.
func New(opts Options, strategies ...Strategy) *Retriever {
	if opts.Weights == nil {
		opts.Weights = DefaultWeights()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Diversity <= 0 {
		opts.Diversity = DefaultDiversity
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Retriever{strategies: strategies, opts: opts, log: opts.Logger}
}

// Retrieve runs every strategy concurrently, each under its own timeout. A
// strategy that fails or times out contributes an empty list. Returned
// records are copies carrying the merged score in RelevanceScore.
func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]*model.Record, error) {
	if q.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", model.ErrInvalidInput, q.Limit)
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}

	lists := make([][]Scored, len(r.strategies))
	var g errgroup.Group
	for i, s := range r.strategies {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
			defer cancel()
			list, err := r.run(sctx, s, q)
			if err != nil {
				level := r.log.Warn
				if errors.Is(err, context.DeadlineExceeded) {
					level = r.log.Info
				}
				level("retrieval strategy failed", "strategy", s.Name(), "err", err)
				return nil
			}
			lists[i] = list
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.merge(q, lists), nil
}

// run calls s and abandons it when the context expires first.
func (r *Retriever) run(ctx context.Context, s Strategy, q Query) ([]Scored, error) {
	type result struct {
		list []Scored
		err  error
	}
	done := make(chan result, 1)
	go func() {
		list, err := s.Retrieve(ctx, q)
		done <- result{list, err}
	}()
	select {
	case res := <-done:
		return res.list, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type merged struct {
	rec   *model.Record
	score float64
}

func (r *Retriever) merge(q Query, lists [][]Scored) []*model.Record {
	byID := map[string]*merged{}
	var order []*merged
	for i, list := range lists {
		w := r.opts.Weights[r.strategies[i].Name()]
		n := float64(len(list))
		for rank, item := range list {
			if item.Record == nil {
				continue
			}
			pos := 1 - float64(rank)/n
			m, ok := byID[item.Record.ID]
			if !ok {
				m = &merged{rec: item.Record}
				byID[item.Record.ID] = m
				order = append(order, m)
			}
			m.score += w * (0.5*pos + 0.5*clamp01(item.Score))
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.rec.Timestamp.Equal(b.rec.Timestamp) {
			return a.rec.Timestamp.After(b.rec.Timestamp)
		}
		return a.rec.ID < b.rec.ID
	})

	var (
		out  []*model.Record
		sets []map[string]struct{}
	)
	for _, m := range order {
		if m.score < r.opts.Threshold {
			break
		}
		set := keywords.Set(m.rec.Content)
		if r.nearDuplicate(set, sets) {
			continue
		}
		rec := m.rec.Clone()
		rec.RelevanceScore = m.score
		out = append(out, rec)
		sets = append(sets, set)
		if len(out) == q.Limit {
			break
		}
	}
	return out
}

func (r *Retriever) nearDuplicate(set map[string]struct{}, accepted []map[string]struct{}) bool {
	if len(set) == 0 {
		return false
	}
	for _, a := range accepted {
		if len(a) > 0 && keywords.Jaccard(set, a) > r.opts.Diversity {
			return true
		}
	}
	return false
}

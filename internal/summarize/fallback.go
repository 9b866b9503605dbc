package summarize

import (
	"context"
	"fmt"

	"github.com/rcliao/agentmem/internal/logging"
	"github.com/rcliao/agentmem/internal/model"
)

type fallback struct {
	primary  Summarizer
	fallback Summarizer
	log      logging.Logger
}

// WithFallback returns a Summarizer that tries primary and, on error, logs
// the failure and runs fb. A nil primary means fb is used directly.
func WithFallback(primary, fb Summarizer, log logging.Logger) Summarizer {
	if log == nil {
		log = logging.Nop()
	}
	if primary == nil {
		return fb
	}
	return &fallback{primary: primary, fallback: fb, log: log}
}

func (f *fallback) Summarize(ctx context.Context, recs []*model.Record) (*model.Record, error) {
	if err := checkInput(recs); err != nil {
		return nil, err
	}
	out, err := f.primary.Summarize(ctx, recs)
	if err == nil && out != nil {
		return out, nil
	}
	if err == nil {
		err = fmt.Errorf("%w: empty summary", model.ErrSummarizationFailed)
	}
	f.log.Warn("summarizer failed, using fallback", "count", len(recs), "err", err)
	return f.fallback.Summarize(ctx, recs)
}

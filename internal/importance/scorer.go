// Package importance assigns an ordinal importance level to new memory
// records from their content and context.
package importance

import (
	"strings"
	"unicode"

	"github.com/rcliao/agentmem/internal/model"
)

const (
	// LongContent is the rune count above which content is nudged up one level.
	LongContent = 1000
	// MinMeaningful is the number of letters/digits below which content is
	// clamped to Low.
	MinMeaningful = 5
)

// DefaultCritical keywords force a record to Critical.
var DefaultCritical = []string{"error", "critical", "security", "production", "failure", "urgent"}

// DefaultHigh keywords raise a record to at least High.
var DefaultHigh = []string{"implement", "deploy", "architecture", "requirement", "decision", "milestone"}

// DefaultBase maps context["type"] labels to a base level. Unknown labels
// get Medium.
var DefaultBase = map[string]model.Importance{
	model.TypeAgentHandoff:    model.High,
	"handoff":                 model.High,
	"decision":                model.High,
	model.TypeAgentStart:      model.Medium,
	model.TypeAgentCompletion: model.Medium,
	model.TypeInteraction:     model.Medium,
	model.TypeSummary:         model.Medium,
	"observation":             model.Low,
}

// Scorer is a pure importance function. The zero value is not useful; use
// New.
type Scorer struct {
	Critical []string
	High     []string
	Base     map[string]model.Importance
}

// New returns a Scorer with the default keyword lists and base table.
func New() *Scorer {
	return &Scorer{Critical: DefaultCritical, High: DefaultHigh, Base: DefaultBase}
}

// Score returns the importance level for content with the given context.
// It never panics; empty content scores Low.
func (s *Scorer) Score(content string, ctx map[string]any) model.Importance {
	if strings.TrimSpace(content) == "" {
		return model.Low
	}

	level := model.Medium
	if t, ok := ctx[model.CtxType].(string); ok {
		if base, ok := s.Base[strings.ToLower(t)]; ok {
			level = base
		}
	}

	lower := strings.ToLower(content)
	switch {
	case containsAny(lower, s.Critical):
		level = model.Critical
	case isTrue(ctx, model.CtxProjectMilestone):
		level = model.Critical
	}
	if containsAny(lower, s.High) || isTrue(ctx, model.CtxAgentHandoff) {
		level = level.AtLeast(model.High)
	}
	if isFalse(ctx, model.CtxSuccess) {
		level = level.Raise(1)
	}

	runes := 0
	meaningful := 0
	for _, r := range content {
		runes++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			meaningful++
		}
	}
	if runes > LongContent {
		level = level.Raise(1)
	}
	if meaningful < MinMeaningful {
		level = level.AtMost(model.Low)
	}
	return level
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func isTrue(ctx map[string]any, key string) bool {
	b, ok := ctx[key].(bool)
	return ok && b
}

func isFalse(ctx map[string]any, key string) bool {
	b, ok := ctx[key].(bool)
	return ok && !b
}

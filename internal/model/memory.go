// Package model defines the core memory data types.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind is the closed set of memory kinds. Fine-grained labels such as
// "agent_start" or "code_pattern" are carried in Context["type"].
type Kind string

const (
	KindEpisodic       Kind = "episodic"
	KindSemantic       Kind = "semantic"
	KindProcedural     Kind = "procedural"
	KindProjectContext Kind = "project_context"
	KindSummary        Kind = "summary"
)

// ValidKinds are the allowed memory kinds.
var ValidKinds = map[Kind]bool{
	KindEpisodic:       true,
	KindSemantic:       true,
	KindProcedural:     true,
	KindProjectContext: true,
	KindSummary:        true,
}

// ParseKind validates s as a Kind. The empty string is rejected.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !ValidKinds[k] {
		return "", fmt.Errorf("%w: unknown memory kind %q", ErrInvalidInput, s)
	}
	return k, nil
}

// Well-known context keys. Everything else in Context is opaque pass-through.
const (
	CtxType             = "type"
	CtxFromAgent        = "from_agent"
	CtxToAgent          = "to_agent"
	CtxHandoffData      = "handoff_data"
	CtxAgentHandoff     = "agent_handoff"
	CtxProjectMilestone = "project_milestone"
	CtxSuccess          = "success"
	CtxSummarizedCount  = "summarized_count"
	CtxOriginalIDs      = "original_interaction_ids"
)

// Context "type" labels used across the system.
const (
	TypeAgentStart      = "agent_start"
	TypeAgentCompletion = "agent_completion"
	TypeAgentHandoff    = "agent_handoff"
	TypeInteraction     = "interaction"
	TypeSummary         = "summary"
)

// TagHandoff marks handoff records.
const TagHandoff = "handoff"

// Record is a single unit of recorded knowledge.
type Record struct {
	ID           string         `json:"id"`
	Content      string         `json:"content"`
	Kind         Kind           `json:"memory_kind"`
	AgentID      string         `json:"agent_id"`
	ProjectID    string         `json:"project_id,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Importance   Importance     `json:"importance"`
	Tags         []string       `json:"tags,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
	AccessCount  int            `json:"access_count"`
	LastAccessed *time.Time     `json:"last_accessed,omitempty"`

	// Populated during a single retrieval call only.
	RelevanceScore  float64 `json:"-"`
	AttentionWeight float64 `json:"-"`
}

// NewID returns a fresh ULID string.
func NewID() string {
	return ulid.Make().String()
}

// ContextString returns Context[key] when it is a string.
func (r *Record) ContextString(key string) string {
	if r == nil || r.Context == nil {
		return ""
	}
	s, _ := r.Context[key].(string)
	return s
}

// HasTag reports whether the record carries tag.
func (r *Record) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Touch records an access at now. LastAccessed never moves backwards.
func (r *Record) Touch(now time.Time) {
	r.AccessCount++
	if r.LastAccessed == nil || now.After(*r.LastAccessed) {
		t := now
		r.LastAccessed = &t
	}
}

// Clone returns a deep-enough copy: tags, context map and access time are
// copied so callers can mutate the result freely.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	}
	if r.Context != nil {
		c.Context = make(map[string]any, len(r.Context))
		for k, v := range r.Context {
			c.Context[k] = v
		}
	}
	if r.LastAccessed != nil {
		t := *r.LastAccessed
		c.LastAccessed = &t
	}
	return &c
}

// Apply merges a patch into the record. Context keys are merged, a nil value
// deletes the key.
func (r *Record) Apply(p Patch) {
	if p.Content != nil {
		r.Content = *p.Content
	}
	if p.Kind != nil {
		r.Kind = *p.Kind
	}
	if p.Tags != nil {
		r.Tags = NormalizeTags(*p.Tags)
	}
	if len(p.Context) > 0 {
		if r.Context == nil {
			r.Context = map[string]any{}
		}
		for k, v := range p.Context {
			if v == nil {
				delete(r.Context, k)
				continue
			}
			r.Context[k] = v
		}
	}
}

// Patch holds partial update fields. ID, importance and timestamp are not
// patchable.
type Patch struct {
	Content *string
	Kind    *Kind
	Tags    *[]string
	Context map[string]any
}

// Validate rejects patches carrying an unknown kind.
func (p Patch) Validate() error {
	if p.Kind != nil && !ValidKinds[*p.Kind] {
		return fmt.Errorf("%w: unknown memory kind %q", ErrInvalidInput, *p.Kind)
	}
	return nil
}

// NormalizeTags trims, lowercases, drops empties and duplicates, and sorts.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// Filters restricts which records a query may return.
type Filters struct {
	AgentID       string
	ProjectID     string
	Kind          Kind
	MinImportance Importance
}

// Match reports whether r passes every set filter.
func (f Filters) Match(r *Record) bool {
	if f.AgentID != "" && r.AgentID != f.AgentID {
		return false
	}
	if f.ProjectID != "" && r.ProjectID != f.ProjectID {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	return r.Importance >= f.MinImportance
}

package model

import "time"

// ExportDocument is the interchange format produced for external tooling.
type ExportDocument struct {
	ProjectID       string           `json:"project_id"`
	ExportTimestamp time.Time        `json:"export_timestamp"`
	MemoryStats     map[string]any   `json:"memory_stats"`
	Memories        []ExportedMemory `json:"memories"`
}

// ExportedMemory is one record in an ExportDocument. Timestamps marshal as
// RFC 3339 with nanoseconds so they round-trip losslessly.
type ExportedMemory struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Kind       Kind           `json:"memory_kind"`
	Timestamp  time.Time      `json:"timestamp"`
	AgentID    string         `json:"agent_id"`
	Importance Importance     `json:"importance"`
	Context    map[string]any `json:"context"`
	Tags       []string       `json:"tags"`
}

// ToExported converts a record for export. Project membership is carried by
// the enclosing document.
func ToExported(r *Record) ExportedMemory {
	ctx := r.Context
	if ctx == nil {
		ctx = map[string]any{}
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return ExportedMemory{
		ID:         r.ID,
		Content:    r.Content,
		Kind:       r.Kind,
		Timestamp:  r.Timestamp,
		AgentID:    r.AgentID,
		Importance: r.Importance,
		Context:    ctx,
		Tags:       tags,
	}
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcliao/agentmem/internal/model"
)

func TestSearch_Basic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, newRecord("a", "Go is a statically typed language", model.Medium, 0))
	s.Add(ctx, newRecord("b", "Rust has a borrow checker", model.Medium, 0))
	s.Add(ctx, newRecord("c", "Go language server deployed", model.Medium, time.Hour))

	results, err := s.Search(ctx, SearchParams{Query: "go language"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %v", ids(results))
	}
	// Both match every keyword, so the newer record wins.
	if results[0].ID != "a" || results[1].ID != "c" {
		t.Errorf("unexpected order %v", ids(results))
	}
	if results[0].RelevanceScore != 1 {
		t.Errorf("expected full relevance, got %f", results[0].RelevanceScore)
	}
}

func TestSearch_PartialMatchRanksLower(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.Add(ctx, newRecord("full", "auth token rotation", model.Low, 0))
	s.Add(ctx, newRecord("half", "auth handler", model.Critical, 0))

	results, _ := s.Search(ctx, SearchParams{Query: "auth token"})
	if len(results) != 2 || results[0].ID != "full" {
		t.Fatalf("expected keyword coverage to dominate, got %v", ids(results))
	}
	if results[1].RelevanceScore != 0.5 {
		t.Errorf("expected 0.5 relevance, got %f", results[1].RelevanceScore)
	}
}

func TestSearch_FoldsNonASCIICase(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.Add(ctx, newRecord("de", "Über die Bereitstellung in Zürich", model.Medium, 0))
	s.Add(ctx, newRecord("en", "deployment notes", model.Medium, 0))

	results, err := s.Search(ctx, SearchParams{Query: "über zürich"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "de" {
		t.Fatalf("expected the German record, got %v", ids(results))
	}
	if results[0].RelevanceScore != 1 {
		t.Errorf("expected full relevance, got %f", results[0].RelevanceScore)
	}

	results, _ = s.Search(ctx, SearchParams{Query: "ÜBER"})
	if len(results) != 1 {
		t.Errorf("expected upper-case query to match, got %v", ids(results))
	}
}

func TestSearch_MatchesTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	r := newRecord("t", "passed notes along", model.High, 0)
	r.Tags = []string{"handoff"}
	s.Add(ctx, r)

	results, _ := s.Search(ctx, SearchParams{Query: "handoff"})
	if len(results) != 1 {
		t.Fatalf("expected tag match, got %v", ids(results))
	}
}

func TestSearch_EmptyQueryOrdersByImportance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.Add(ctx, newRecord("low", "low note", model.Low, 0))
	s.Add(ctx, newRecord("crit", "crit note", model.Critical, time.Hour))
	s.Add(ctx, newRecord("high", "high note", model.High, 0))

	results, err := s.Search(ctx, SearchParams{Filters: model.Filters{AgentID: "backend"}, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	got := ids(results)
	if len(got) != 3 || got[0] != "crit" || got[1] != "high" || got[2] != "low" {
		t.Fatalf("unexpected order %v", got)
	}
	if results[0].RelevanceScore != model.Critical.Score() {
		t.Errorf("expected importance-based score, got %f", results[0].RelevanceScore)
	}
}

func TestSearch_Filters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.Add(ctx, newRecord("a", "deploy notes", model.Low, 0))
	b := newRecord("b", "deploy plan", model.High, 0)
	b.Kind = model.KindProcedural
	b.AgentID = "devops"
	s.Add(ctx, b)

	cases := []struct {
		name string
		f    model.Filters
		want int
	}{
		{"agent", model.Filters{AgentID: "devops"}, 1},
		{"kind", model.Filters{Kind: model.KindEpisodic}, 1},
		{"importance", model.Filters{MinImportance: model.Medium}, 1},
		{"project miss", model.Filters{ProjectID: "p9"}, 0},
		{"none", model.Filters{}, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			results, err := s.Search(ctx, SearchParams{Query: "deploy", Filters: c.f})
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != c.want {
				t.Errorf("expected %d, got %v", c.want, ids(results))
			}
		})
	}
}

func TestSearch_NegativeLimit(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Search(context.Background(), SearchParams{Query: "x", Limit: -1})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	s.Add(ctx, newRecord("a", "hello", model.Low, 0))
	s.Add(ctx, newRecord("b", "world", model.Critical, 0))
	c := newRecord("c", "test", model.Low, 0)
	c.ProjectID = "p2"
	c.Kind = model.KindSummary
	s.Add(ctx, c)

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalItems != 3 {
		t.Fatalf("expected 3 items, got %d", stats.TotalItems)
	}
	if len(stats.Projects) != 2 || stats.Projects[0].ProjectID != "p1" {
		t.Fatalf("expected 2 projects with p1 first, got %+v", stats.Projects)
	}
	if stats.ByImportance["low"] != 2 || stats.ByKind["summary"] != 1 {
		t.Errorf("unexpected breakdown %+v %+v", stats.ByImportance, stats.ByKind)
	}
	if stats.DBSizeBytes == 0 {
		t.Fatal("expected non-zero db size")
	}
}

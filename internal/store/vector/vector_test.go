package vector

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agentmem/internal/embedding"
	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/store"
)

func newTestVector(t *testing.T, persist string) (*Store, *store.SQLiteStore) {
	t.Helper()
	src, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	v, err := New(context.Background(), src, embedding.NewHashEmbedder(128), Options{PersistDir: persist})
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v, src
}

func rec(id, content, agent string, imp model.Importance) *model.Record {
	return &model.Record{
		ID: id, Content: content, Kind: model.KindEpisodic, AgentID: agent, ProjectID: "p1",
		Timestamp: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Importance: imp,
	}
}

func TestSemanticSearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVector(t, "")

	require.NoError(t, v.Add(ctx, rec("auth", "implemented jwt auth tokens for the login service", "backend", model.High)))
	require.NoError(t, v.Add(ctx, rec("db", "created postgres schema for invoices", "backend", model.Medium)))
	require.NoError(t, v.Add(ctx, rec("ui", "styled the dashboard buttons", "frontend", model.Low)))

	results, err := v.Search(ctx, store.SearchParams{Query: "login auth tokens", Limit: 2})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "auth", results[0].ID)
	assert.Greater(t, results[0].RelevanceScore, 0.0)
	assert.LessOrEqual(t, results[0].RelevanceScore, 1.0)
	assert.LessOrEqual(t, len(results), 2)
}

func TestSearchFilters(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVector(t, "")
	v.Add(ctx, rec("a", "deploy pipeline notes", "devops", model.Low))
	v.Add(ctx, rec("b", "deploy pipeline decision", "devops", model.High))
	v.Add(ctx, rec("c", "deploy pipeline review", "qa", model.High))

	results, err := v.Search(ctx, store.SearchParams{
		Query:   "deploy pipeline",
		Filters: model.Filters{AgentID: "devops", MinImportance: model.Medium},
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestLimitLargerThanCollection(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVector(t, "")
	v.Add(ctx, rec("only", "single record", "a", model.Medium))

	results, err := v.Search(ctx, store.SearchParams{Query: "single", Limit: 50})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestEmptyQueryDelegates(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVector(t, "")
	v.Add(ctx, rec("lo", "low note", "a", model.Low))
	v.Add(ctx, rec("hi", "critical note", "a", model.Critical))

	results, err := v.Search(ctx, store.SearchParams{Query: "   the "})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "hi", results[0].ID)
}

func TestDeleteRemovesFromIndex(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVector(t, "")
	v.Add(ctx, rec("a", "temporary scratch", "a", model.Low))

	require.NoError(t, v.Delete(ctx, "a"))
	results, err := v.Search(ctx, store.SearchParams{Query: "temporary scratch"})
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.True(t, errors.Is(v.Delete(ctx, "a"), model.ErrNotFound))
}

func TestUpdateReindexes(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVector(t, "")
	v.Add(ctx, rec("a", "old topic about caching", "a", model.Medium))
	v.Add(ctx, rec("b", "unrelated text on billing", "a", model.Medium))

	content := "new topic about kubernetes"
	_, err := v.Update(ctx, "a", model.Patch{Content: &content})
	require.NoError(t, err)

	results, err := v.Search(ctx, store.SearchParams{Query: "kubernetes", Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestReindexOnOpen(t *testing.T) {
	ctx := context.Background()
	src, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer src.Close()

	// Written straight to the source, so the index has never seen them.
	src.Add(ctx, rec("a", "graph database evaluation", "a", model.Medium))
	src.Add(ctx, rec("b", "graph traversal benchmark", "a", model.Medium))

	v, err := New(ctx, src, embedding.NewHashEmbedder(64), Options{})
	require.NoError(t, err)

	st, err := v.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chromem", st.Backend)
	assert.Equal(t, 2, st.TotalItems)
	assert.Equal(t, 2, st.IndexedItems)
}

func TestPersistentIndex(t *testing.T) {
	v, _ := newTestVector(t, filepath.Join(t.TempDir(), "index"))
	ctx := context.Background()
	require.NoError(t, v.Add(ctx, rec("p", "persisted vector entry", "a", model.Medium)))

	results, err := v.Search(ctx, store.SearchParams{Query: "persisted entry"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agentmem/internal/config"
	"github.com/rcliao/agentmem/internal/model"
	"github.com/rcliao/agentmem/internal/summarize"
)

func TestOpenBackends(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendChromem} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.NewDefaultConfig()
			cfg.LongTerm.Backend = backend
			cfg.LongTerm.Path = filepath.Join(t.TempDir(), "memory.db")

			sys, err := Open(ctx, cfg, nil)
			require.NoError(t, err)
			defer sys.Close()

			crit := model.Critical
			_, err = sys.Add(ctx, AddParams{Content: "database credentials moved to vault", AgentID: "ops", Importance: &crit})
			require.NoError(t, err)

			got, err := sys.Search(ctx, SearchParams{Query: "vault credentials", LongTermOnly: true})
			require.NoError(t, err)
			require.Len(t, got, 1)

			st := sys.Stats(ctx)
			require.NotNil(t, st.LongTerm)
			assert.Equal(t, backend, st.LongTerm.Backend)
		})
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.ShortTerm.BufferSize = -1
	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewSummarizerSelection(t *testing.T) {
	_, ok := NewSummarizer(config.SummarizerConfig{Provider: config.SummarizerDeterministic}, nil).(*summarize.Deterministic)
	assert.True(t, ok)

	s := NewSummarizer(config.SummarizerConfig{Provider: config.SummarizerAnthropic, APIKey: "test"}, nil)
	_, ok = s.(*summarize.Deterministic)
	assert.False(t, ok)
}

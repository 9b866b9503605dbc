package summarize

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agentmem/internal/logging"
	"github.com/rcliao/agentmem/internal/model"
)

var fixed = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixed }

func batch() []*model.Record {
	return []*model.Record{
		{ID: "a1", Content: "Designed the database schema for users", AgentID: "architect", ProjectID: "p1", Tags: []string{"db"}},
		{ID: "b1", Content: "Wrote the users API handler against the schema", AgentID: "backend", ProjectID: "p1", Tags: []string{"api"}},
		{ID: "a2", Content: "Reviewed schema migrations for users", AgentID: "architect", ProjectID: "p1"},
	}
}

func TestDeterministicSummary(t *testing.T) {
	d := &Deterministic{Now: fixedNow}
	out, err := d.Summarize(context.Background(), batch())
	require.NoError(t, err)

	assert.Equal(t, model.KindSummary, out.Kind)
	assert.Equal(t, SystemAgent, out.AgentID)
	assert.Equal(t, "p1", out.ProjectID)
	assert.True(t, out.Timestamp.Equal(fixed))
	assert.Equal(t, []string{"api", "db", "summary"}, out.Tags)
	assert.Equal(t, model.TypeSummary, out.Context[model.CtxType])
	assert.Equal(t, 3, out.Context[model.CtxSummarizedCount])
	assert.Equal(t, []string{"a1", "b1", "a2"}, out.Context[model.CtxOriginalIDs])
	assert.Equal(t, []string{"architect", "backend"}, out.Context[CtxAgents])

	topics := out.Context[CtxKeyTopics].([]string)
	require.NotEmpty(t, topics)
	assert.Equal(t, "schema", topics[0]) // ties with "users" break alphabetically

	assert.Contains(t, out.Content, "Summary of 3 interactions from 2 agent(s)")
	assert.Contains(t, out.Content, "architect:\n  - Designed the database schema for users")
}

func TestDeterministicSingleAgentAndTruncation(t *testing.T) {
	long := strings.Repeat("word ", 100)
	d := &Deterministic{Now: fixedNow}
	out, err := d.Summarize(context.Background(), []*model.Record{{ID: "x", Content: long, AgentID: "qa", ProjectID: "p1"}, {ID: "y", Content: "short", AgentID: "qa", ProjectID: "p2"}})
	require.NoError(t, err)
	assert.Equal(t, "qa", out.AgentID)
	assert.Empty(t, out.ProjectID)
	assert.Contains(t, out.Content, "...")
}

func TestDeterministicRejectsEmpty(t *testing.T) {
	_, err := NewDeterministic().Summarize(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

type failing struct{ calls int }

func (f *failing) Summarize(context.Context, []*model.Record) (*model.Record, error) {
	f.calls++
	return nil, errors.New("backend down")
}

func TestFallbackOnPrimaryFailure(t *testing.T) {
	p := &failing{}
	s := WithFallback(p, &Deterministic{Now: fixedNow}, logging.Nop())

	out, err := s.Summarize(context.Background(), batch())
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "deterministic", out.Context[CtxSummarizer])
}

func TestFallbackNilPrimary(t *testing.T) {
	d := NewDeterministic()
	assert.Same(t, d, WithFallback(nil, d, nil))
}

func TestAnthropicSummarizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
			"content":[{"type":"text","text":"Architect designed the users schema; backend built the API."}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":12}}`))
	}))
	defer srv.Close()

	a := NewAnthropic(AnthropicOptions{APIKey: "test", BaseURL: srv.URL + "/", Now: fixedNow})
	out, err := a.Summarize(context.Background(), batch())
	require.NoError(t, err)
	assert.Equal(t, "Architect designed the users schema; backend built the API.", out.Content)
	assert.Equal(t, "anthropic", out.Context[CtxSummarizer])
	assert.Equal(t, 3, out.Context[model.CtxSummarizedCount])
}

func TestOpenAISummarizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Users schema and API done."}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIOptions{APIKey: "test", BaseURL: srv.URL + "/", Now: fixedNow})
	out, err := o.Summarize(context.Background(), batch())
	require.NoError(t, err)
	assert.Equal(t, "Users schema and API done.", out.Content)
	assert.Equal(t, "openai", out.Context[CtxSummarizer])
}

func TestLLMFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	a := NewAnthropic(AnthropicOptions{APIKey: "test", BaseURL: srv.URL + "/", Now: fixedNow})
	_, err := a.Summarize(context.Background(), batch())
	require.ErrorIs(t, err, model.ErrSummarizationFailed)

	out, err := WithFallback(a, &Deterministic{Now: fixedNow}, logging.Nop()).Summarize(context.Background(), batch())
	require.NoError(t, err)
	assert.Equal(t, "deterministic", out.Context[CtxSummarizer])
}

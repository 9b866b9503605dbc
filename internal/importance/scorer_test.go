package importance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/agentmem/internal/model"
)

func TestScore(t *testing.T) {
	s := New()
	tests := []struct {
		name    string
		content string
		ctx     map[string]any
		want    model.Importance
	}{
		{"empty", "", nil, model.Low},
		{"whitespace", "   \n", map[string]any{}, model.Low},
		{"critical keywords", "CRITICAL production failure", nil, model.Critical},
		{"high keyword", "implement new feature", nil, model.High},
		{"agent start", "Agent backend_developer started task: build auth API",
			map[string]any{"type": "agent_start"}, model.Medium},
		{"handoff type", "passing the auth work along", map[string]any{"type": "agent_handoff"}, model.High},
		{"observation", "noticed the cache warmed up", map[string]any{"type": "observation"}, model.Low},
		{"milestone flag", "first release tagged", map[string]any{"project_milestone": true}, model.Critical},
		{"handoff flag", "passing notes", map[string]any{"agent_handoff": true}, model.High},
		{"failure raises", "tests were flaky today", map[string]any{"success": false}, model.High},
		{"success true no change", "tests were flaky today", map[string]any{"success": true}, model.Medium},
		{"short clamps keywords", "err!", nil, model.Low},
		{"short but critical word", "fail", nil, model.Low},
		{"non-string type ignored", "plain note here", map[string]any{"type": 7}, model.Medium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.content, tt.ctx))
		})
	}
}

func TestScoreLongContentRaises(t *testing.T) {
	s := New()
	long := strings.Repeat("notes ", 200)
	assert.Equal(t, model.High, s.Score(long, nil))

	crit := "security " + long
	assert.Equal(t, model.Critical, s.Score(crit, nil))
}

func TestScoreIsDeterministic(t *testing.T) {
	s := New()
	ctx := map[string]any{"type": "interaction", "success": false}
	first := s.Score("deploy the gateway", ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score("deploy the gateway", ctx))
	}
}

package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rcliao/agentmem/internal/model"
)

// OpenAIOptions configures the OpenAI summarizer. Empty APIKey falls back to
// the SDK's OPENAI_API_KEY lookup.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Now     func() time.Time
}

// OpenAI summarizes through the Chat Completions API.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAI creates an OpenAI summarizer.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	if opts.Model == "" {
		opts.Model = openai.ChatModelGPT4oMini
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	clientOpts = append(clientOpts, option.WithMaxRetries(1))
	client := openai.NewClient(clientOpts...)
	return &OpenAI{client: &client, opts: opts}
}

// Name identifies the summarizer in summary context.
func (o *OpenAI) Name() string { return "openai" }

// Summarize implements Summarizer.
func (o *OpenAI) Summarize(ctx context.Context, recs []*model.Record) (*model.Record, error) {
	if err := checkInput(recs); err != nil {
		return nil, err
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt(recs)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %v", model.ErrSummarizationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", model.ErrSummarizationFailed)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: openai returned empty content", model.ErrSummarizationFailed)
	}
	return envelope(recs, text, o.Name(), o.opts.Now()), nil
}

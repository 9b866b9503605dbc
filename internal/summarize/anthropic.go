package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/rcliao/agentmem/internal/model"
)

// DefaultAnthropicModel is used when AnthropicOptions.Model is empty.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicOptions configures the Anthropic summarizer. Empty APIKey falls
// back to the SDK's ANTHROPIC_API_KEY lookup.
type AnthropicOptions struct {
	APIKey    string
	Model     string
	MaxTokens int64
	BaseURL   string
	Now       func() time.Time
}

// Anthropic summarizes through the Anthropic Messages API.
type Anthropic struct {
	client *anthropic.Client
	opts   AnthropicOptions
}

// NewAnthropic creates an Anthropic summarizer.
func NewAnthropic(opts AnthropicOptions) *Anthropic {
	if opts.Model == "" {
		opts.Model = DefaultAnthropicModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 512
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
	client := anthropic.NewClient(clientOpts...)
	return &Anthropic{client: &client, opts: opts}
}

// Name identifies the summarizer in summary context.
func (a *Anthropic) Name() string { return "anthropic" }

// Summarize implements Summarizer.
func (a *Anthropic) Summarize(ctx context.Context, recs []*model.Record) (*model.Record, error) {
	if err := checkInput(recs); err != nil {
		return nil, err
	}
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.opts.Model),
		MaxTokens: a.opts.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt(recs))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: anthropic: %v", model.ErrSummarizationFailed, err)
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			if t := strings.TrimSpace(block.AsText().Text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: anthropic returned no text", model.ErrSummarizationFailed)
	}
	return envelope(recs, strings.Join(parts, "\n"), a.Name(), a.opts.Now()), nil
}

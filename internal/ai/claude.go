package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ClaudeClient implements the Anthropic messages API
type ClaudeClient struct {
	*transport
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Messages    []claudeMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	System      string          `json:"system,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewClaudeClient creates a new Claude API client
func NewClaudeClient(cfg ClientConfig) *ClaudeClient {
	return &ClaudeClient{
		transport: newTransport(ProviderClaude, cfg, "https://api.anthropic.com/v1/messages", "claude-sonnet-4-5-20250929", 16384),
	}
}

func (c *ClaudeClient) RequiresKey() bool { return true }

// Generate sends one messages request
func (c *ClaudeClient) Generate(ctx context.Context, in Input) (*Output, error) {
	started := time.Now()
	out, err := c.generate(ctx, in)
	return c.finish(out, err, started)
}

func (c *ClaudeClient) generate(ctx context.Context, in Input) (*Output, error) {
	if in.APIKey == "" {
		return nil, &ProviderError{Provider: ProviderClaude, Outcome: OutcomeAuth, Err: ErrNoCredentials}
	}
	body, err := json.Marshal(&claudeRequest{
		Model:       c.modelFor(in),
		MaxTokens:   in.MaxTokens,
		Messages:    []claudeMessage{{Role: "user", Content: in.User}},
		Temperature: in.Temperature,
		System:      in.System,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := c.post(ctx, c.baseURL, map[string]string{
		"x-api-key":         in.APIKey,
		"anthropic-version": "2023-06-01",
	}, body)
	if err != nil {
		return nil, err
	}
	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
		return nil, &ProviderError{Provider: ProviderClaude, Outcome: Classify(fmt.Errorf("%s", msg.String())), Message: msg.String()}
	}

	var text strings.Builder
	gjson.GetBytes(raw, "content").ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").String() == "text" {
			text.WriteString(block.Get("text").String())
		}
		return true
	})
	stop := gjson.GetBytes(raw, "stop_reason").String()
	if text.Len() == 0 && stop != "max_tokens" {
		return nil, emptyReply(ProviderClaude, raw)
	}

	inTok := int(gjson.GetBytes(raw, "usage.input_tokens").Int())
	outTok := int(gjson.GetBytes(raw, "usage.output_tokens").Int())
	return &Output{
		Text:         text.String(),
		Truncated:    stop == "max_tokens",
		FinishReason: stop,
		Usage:        Usage{PromptTokens: inTok, CompletionTokens: outTok, TotalTokens: inTok + outTok},
	}, nil
}

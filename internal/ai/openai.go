package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// chatClient speaks the chat-completions shape shared by OpenAI, xAI and the
// OpenAI-compatible Ollama endpoint.
type chatClient struct {
	*transport
	requiresKey bool
	headers     map[string]string
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *chatClient) RequiresKey() bool { return c.requiresKey }

// Generate sends one chat-completions request
func (c *chatClient) Generate(ctx context.Context, in Input) (*Output, error) {
	started := time.Now()
	out, err := c.generate(ctx, in)
	return c.finish(out, err, started)
}

func (c *chatClient) generate(ctx context.Context, in Input) (*Output, error) {
	if c.requiresKey && in.APIKey == "" {
		return nil, &ProviderError{Provider: c.provider, Outcome: OutcomeAuth, Err: ErrNoCredentials}
	}

	messages := make([]chatMessage, 0, 2)
	if in.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: in.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: in.User})
	body, err := json.Marshal(&chatRequest{
		Model:       c.modelFor(in),
		Messages:    messages,
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		headers[k] = v
	}
	if in.APIKey != "" {
		headers["Authorization"] = "Bearer " + in.APIKey
	}

	raw, err := c.post(ctx, c.baseURL, headers, body)
	if err != nil {
		return nil, err
	}
	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
		return nil, &ProviderError{Provider: c.provider, Outcome: Classify(fmt.Errorf("%s", msg.String())), Message: msg.String()}
	}

	choice := gjson.GetBytes(raw, "choices.0")
	text := choice.Get("message.content").String()
	finish := choice.Get("finish_reason").String()
	if text == "" && finish != "length" {
		return nil, emptyReply(c.provider, raw)
	}

	usage := gjson.GetBytes(raw, "usage")
	return &Output{
		Text:         text,
		Truncated:    finish == "length",
		FinishReason: finish,
		Usage: Usage{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
		},
	}, nil
}

// OpenAIClient implements the OpenAI chat-completions API
type OpenAIClient struct {
	chatClient
}

// NewOpenAIClient creates a new OpenAI API client
func NewOpenAIClient(cfg ClientConfig) *OpenAIClient {
	return &OpenAIClient{chatClient{
		transport:   newTransport(ProviderOpenAI, cfg, "https://api.openai.com/v1/chat/completions", "gpt-4o", 16384),
		requiresKey: true,
	}}
}

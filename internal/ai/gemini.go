package ai

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// GeminiClient implements the Google Gemini generateContent API
type GeminiClient struct {
	*transport
}

// NewGeminiClient creates a new Gemini API client. BaseURL is the models
// collection, e.g. https://generativelanguage.googleapis.com/v1beta/models.
func NewGeminiClient(cfg ClientConfig) *GeminiClient {
	return &GeminiClient{
		transport: newTransport(ProviderGemini, cfg, "https://generativelanguage.googleapis.com/v1beta/models", "gemini-2.5-flash", 65536),
	}
}

func (g *GeminiClient) RequiresKey() bool { return true }

// Generate sends one generateContent request
func (g *GeminiClient) Generate(ctx context.Context, in Input) (*Output, error) {
	started := time.Now()
	out, err := g.generate(ctx, in)
	return g.finish(out, err, started)
}

func (g *GeminiClient) generate(ctx context.Context, in Input) (*Output, error) {
	if in.APIKey == "" {
		return nil, &ProviderError{Provider: ProviderGemini, Outcome: OutcomeAuth, Err: ErrNoCredentials}
	}

	body, err := geminiBody(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", strings.TrimRight(g.baseURL, "/"), g.modelFor(in), url.QueryEscape(in.APIKey))

	raw, err := g.post(ctx, endpoint, nil, body)
	if err != nil {
		return nil, err
	}
	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
		return nil, &ProviderError{Provider: ProviderGemini, Outcome: Classify(fmt.Errorf("%s", msg.String())), Message: msg.String()}
	}

	candidate := gjson.GetBytes(raw, "candidates.0")
	var text strings.Builder
	for _, part := range candidate.Get("content.parts.#.text").Array() {
		text.WriteString(part.String())
	}
	finish := candidate.Get("finishReason").String()
	if text.Len() == 0 && finish != "MAX_TOKENS" {
		return nil, emptyReply(ProviderGemini, raw)
	}

	meta := gjson.GetBytes(raw, "usageMetadata")
	return &Output{
		Text:         text.String(),
		Truncated:    finish == "MAX_TOKENS",
		FinishReason: finish,
		Usage: Usage{
			PromptTokens:     int(meta.Get("promptTokenCount").Int()),
			CompletionTokens: int(meta.Get("candidatesTokenCount").Int()),
			TotalTokens:      int(meta.Get("totalTokenCount").Int()),
		},
	}, nil
}

func geminiBody(in Input) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err == nil {
			body, err = sjson.SetBytes(body, path, v)
		}
	}
	set("contents.0.role", "user")
	set("contents.0.parts.0.text", in.User)
	if in.System != "" {
		set("systemInstruction.parts.0.text", in.System)
	}
	set("generationConfig.temperature", in.Temperature)
	if in.MaxTokens > 0 {
		set("generationConfig.maxOutputTokens", in.MaxTokens)
	}
	return body, err
}

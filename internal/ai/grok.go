package ai

// GrokClient implements the xAI Grok API, which is OpenAI-compatible.
// API docs: https://docs.x.ai/docs/api-reference
type GrokClient struct {
	chatClient
}

// NewGrokClient creates a new xAI Grok API client
func NewGrokClient(cfg ClientConfig) *GrokClient {
	return &GrokClient{chatClient{
		transport:   newTransport(ProviderGrok, cfg, "https://api.x.ai/v1/chat/completions", "grok-4-fast", 16384),
		requiresKey: true,
	}}
}

package ai

import "strings"

// OllamaClient talks to a local or tunnelled Ollama server through its
// OpenAI-compatible endpoint. No API key is needed.
// https://ollama.com/blog/openai-compatibility
type OllamaClient struct {
	chatClient
}

// NewOllamaClient creates a client for the server at cfg.BaseURL, which is the
// server root (default http://localhost:11434).
func NewOllamaClient(cfg ClientConfig) *OllamaClient {
	root := strings.TrimRight(cfg.BaseURL, "/")
	if root == "" {
		root = "http://localhost:11434"
	}
	cfg.BaseURL = root + "/v1/chat/completions"
	return &OllamaClient{chatClient{
		transport: newTransport(ProviderOllama, cfg, "", "llama3.1", 8192),
		// ngrok tunnels answer with an HTML interstitial without this
		headers: map[string]string{"ngrok-skip-browser-warning": "true"},
	}}
}

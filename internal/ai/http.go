package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ClientConfig configures one provider client. Zero values fall back to the
// family defaults.
type ClientConfig struct {
	BaseURL           string
	Model             string
	MaxOutputTokens   int
	RequestsPerMinute int
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// transport is the request plumbing shared by every family
type transport struct {
	provider   Provider
	baseURL    string
	model      string
	maxOutput  int
	httpClient *http.Client
	limiter    *rate.Limiter
	usageTracker
}

func newTransport(provider Provider, cfg ClientConfig, baseURL, model string, maxOutput int) *transport {
	t := &transport{
		provider:   provider,
		baseURL:    baseURL,
		model:      model,
		maxOutput:  maxOutput,
		httpClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		t.baseURL = cfg.BaseURL
	}
	if cfg.Model != "" {
		t.model = cfg.Model
	}
	if cfg.MaxOutputTokens > 0 {
		t.maxOutput = cfg.MaxOutputTokens
	}
	if t.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		t.httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.RequestsPerMinute > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), max(1, cfg.RequestsPerMinute/10))
	}
	t.usage.Provider = provider
	return t
}

func (t *transport) Provider() Provider   { return t.provider }
func (t *transport) DefaultModel() string { return t.model }
func (t *transport) MaxOutputTokens() int { return t.maxOutput }

func (t *transport) modelFor(in Input) string {
	if in.Model != "" {
		return in.Model
	}
	return t.model
}

// post sends a JSON body and returns the raw 2xx response body. Non-2xx
// responses become a classified *ProviderError.
func (t *transport) post(ctx context.Context, url string, headers map[string]string, body []byte) ([]byte, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, &ProviderError{Provider: t.provider, Outcome: OutcomeOther, Message: "client rate limiter", Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: t.provider, Outcome: OutcomeOther, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: t.provider, Outcome: OutcomeOther, Message: "failed to read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(t.provider, resp.StatusCode, data)
	}
	return data, nil
}

// finish records usage for a completed call
func (t *transport) finish(out *Output, err error, started time.Time) (*Output, error) {
	if err != nil {
		t.incrementErrorCount()
		return nil, err
	}
	t.updateUsage(out.Usage.TotalTokens, time.Since(started))
	return out, nil
}

func emptyReply(provider Provider, raw []byte) *ProviderError {
	msg := string(raw)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &ProviderError{Provider: provider, Outcome: OutcomeOther, Message: "response has no text: " + msg}
}

// Package images finds real image URLs for the image slots of generated trees.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Searcher looks up image URLs for a short text query
type Searcher interface {
	Search(ctx context.Context, query string, width, height, count int) ([]string, error)
}

// ClientConfig configures the image lookup service client
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls GET {base}/search on the image lookup service
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a lookup client, or nil when no base URL is configured
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 8 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: hc,
	}
}

// Search returns up to count URLs. Both a flat `url` field and the nested
// `urls.regular` shape are accepted.
func (c *Client) Search(ctx context.Context, query string, width, height, count int) ([]string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	q.Set("per_page", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("images: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("images: search %q: %w", query, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("images: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("images: search %q: status %d", query, resp.StatusCode)
	}

	var urls []string
	for _, r := range gjson.GetBytes(body, "results").Array() {
		u := r.Get("url").String()
		if u == "" {
			u = r.Get("urls.regular").String()
		}
		if u != "" && usable(u) {
			urls = append(urls, u)
		}
		if len(urls) == count {
			break
		}
	}
	return urls, nil
}

package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen/internal/ai"
	"sitegen/internal/cache"
)

func newTestMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func TestRecorder(t *testing.T) {
	m, _ := newTestMetrics()
	var rec ai.Recorder = m

	rec.ObserveAttempt(ai.ProviderClaude, ai.OutcomeRateLimit, time.Second)
	rec.ObserveAttempt(ai.ProviderClaude, ai.OutcomeOK, 2*time.Second)
	rec.ObserveFallback(ai.ProviderClaude, ai.OutcomeAuth)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AIAttemptsTotal.WithLabelValues("claude", "rate_limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AIAttemptsTotal.WithLabelValues("claude", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AIFallbacksTotal.WithLabelValues("claude", "auth")))
}

func TestGenerationCounters(t *testing.T) {
	m, _ := newTestMetrics()
	m.ObserveParseStage("salvaged")
	m.RecordPhase("Foundation", "ok")
	m.RecordVariant("PLAN_MISMATCH")
	m.RecordTokens(ai.ProviderOpenAI, 120)
	m.RecordTokens(ai.ProviderOpenAI, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseStagesTotal.WithLabelValues("salvaged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhasesTotal.WithLabelValues("foundation", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VariantsTotal.WithLabelValues("plan_mismatch")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.AITokensUsed.WithLabelValues("openai")))
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "rate_limit", sanitizeLabel(" RATE-LIMIT ", "x"))
	assert.Equal(t, "x", sanitizeLabel("!!!", "x"))
	assert.Equal(t, "x", sanitizeLabel("", "x"))
	assert.Len(t, sanitizeLabel(strings.Repeat("a", 100), "x"), 63)
}

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, reg := newTestMetrics()

	r := gin.New()
	r.Use(PrometheusMiddleware(m))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", PrometheusHandler(reg))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/health", "GET", "2xx")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sitegen_http_requests_total")
}

func TestCollector(t *testing.T) {
	m, _ := newTestMetrics()
	c := cache.NewRedisCache(nil)
	defer c.Close()
	_ = c.Set(context.Background(), "k", []byte("v"), time.Minute)
	_, _ = c.Get(context.Background(), "k")
	_, _ = c.Get(context.Background(), "missing")

	NewCollector(m, time.Minute).WatchCache("images", c).Collect()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("images")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("images")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEntries.WithLabelValues("images")))
	assert.Greater(t, testutil.ToFloat64(m.GoroutineNum), 0.0)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sitegen/internal/ai"
	"sitegen/internal/metrics"
	"sitegen/internal/orchestrator"
	"sitegen/internal/planner"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEngine struct {
	resp     *orchestrator.Response
	err      error
	lastReq  orchestrator.Request
	lastMode planner.Mode
}

func (f *fakeEngine) GeneratePage(_ context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeEngine) GenerateVariants(_ context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeEngine) Plan(_ context.Context, req orchestrator.Request, mode planner.Mode) (*orchestrator.Response, error) {
	f.lastReq, f.lastMode = req, mode
	return f.resp, f.err
}

type fakeProviders struct {
	available []ai.Provider
}

func (f fakeProviders) Providers() []ai.Provider { return f.available }

func (f fakeProviders) Usage() map[ai.Provider]ai.ProviderUsage {
	out := map[ai.Provider]ai.ProviderUsage{}
	for _, p := range f.available {
		out[p] = ai.ProviderUsage{Provider: p, RequestCount: 2}
	}
	return out
}

func setup(t *testing.T, engine *fakeEngine, cfg RouterConfig, available ...ai.Provider) *gin.Engine {
	t.Helper()
	h := NewHandler(engine, fakeProviders{available: available}, "test", zaptest.NewLogger(t))
	router, stop := SetupRouter(h, cfg)
	t.Cleanup(stop)
	return router
}

func post(router *gin.Engine, path, body string, headers ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	router.ServeHTTP(w, req)
	return w
}

func TestGeneratePage(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		resp       *orchestrator.Response
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success returns the engine response",
			body:       `{"prompt":"a bakery site","provider":"openai"}`,
			resp:       &orchestrator.Response{Success: true, SectionPlan: []string{"navigation", "hero"}},
			wantStatus: http.StatusOK,
		},
		{
			name: "foundation failure is a bad gateway",
			body: `{"prompt":"a bakery site"}`,
			resp: &orchestrator.Response{
				Error:        &orchestrator.Failure{Kind: orchestrator.FailureRequiredPhase, Message: "foundation phase failed"},
				FailedPhases: []string{"foundation"},
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "missing prompt",
			body:       `{"sectionType":"hero"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "malformed json",
			body:       `{"prompt":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "no providers",
			body:       `{"prompt":"a bakery site"}`,
			err:        orchestrator.ErrNoProviders,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "NO_PROVIDERS",
		},
		{
			name:       "blank prompt",
			body:       `{"prompt":"   "}`,
			err:        orchestrator.ErrEmptyPrompt,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{resp: tt.resp, err: tt.err}
			router := setup(t, engine, RouterConfig{}, ai.ProviderClaude)

			w := post(router, "/api/v1/generate/page", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantCode != "" {
				var body StandardResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.False(t, body.Success)
				assert.Equal(t, tt.wantCode, body.Code)
				return
			}
			var body orchestrator.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.resp.Success, body.Success)
			assert.Equal(t, "a bakery site", engine.lastReq.Prompt)
		})
	}
}

func TestGenerateVariants_PassesVariantIndex(t *testing.T) {
	engine := &fakeEngine{resp: &orchestrator.Response{
		Success:  true,
		Variants: []orchestrator.Variant{{VariantID: "v-1", Index: 1, ProviderUsed: ai.ProviderGemini}},
	}}
	router := setup(t, engine, RouterConfig{}, ai.ProviderGemini)

	w := post(router, "/api/v1/generate/variants", `{"prompt":"create a hero section","variantIndex":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, engine.lastReq.VariantIndex)
	assert.Equal(t, 1, *engine.lastReq.VariantIndex)

	var body orchestrator.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Variants, 1)
	assert.Equal(t, ai.ProviderGemini, body.Variants[0].ProviderUsed)
}

func TestPlan_WrapsResponseAndSelectsMode(t *testing.T) {
	engine := &fakeEngine{resp: &orchestrator.Response{Success: true, SectionPlan: []string{"pricing"}}}
	router := setup(t, engine, RouterConfig{})

	w := post(router, "/api/v1/plan?mode=variant", `{"prompt":"create a pricing section"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, planner.ModeSingle, engine.lastMode)

	var body struct {
		Success bool                  `json:"success"`
		Data    orchestrator.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, []string{"pricing"}, body.Data.SectionPlan)

	post(router, "/api/v1/plan", `{"prompt":"a landing page"}`)
	assert.Equal(t, planner.ModeFull, engine.lastMode)
}

func TestAPIKeysGuardTheAPI(t *testing.T) {
	engine := &fakeEngine{resp: &orchestrator.Response{Success: true}}
	router := setup(t, engine, RouterConfig{APIKeys: []string{"secret"}}, ai.ProviderClaude)

	w := post(router, "/api/v1/generate/page", `{"prompt":"a page"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(router, "/api/v1/generate/page", `{"prompt":"a page"}`, "X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, w.Code)

	// health stays open
	hw := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(hw, req)
	assert.Equal(t, http.StatusOK, hw.Code)
}

func TestHealth(t *testing.T) {
	t.Run("healthy with providers", func(t *testing.T) {
		router := setup(t, &fakeEngine{}, RouterConfig{}, ai.ProviderClaude, ai.ProviderOllama)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, []any{"claude", "ollama"}, body["providers"])
	})

	t.Run("degraded without providers", func(t *testing.T) {
		router := setup(t, &fakeEngine{}, RouterConfig{})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestGetProviders(t *testing.T) {
	router := setup(t, &fakeEngine{}, RouterConfig{}, ai.ProviderOpenAI)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"request_count":2`)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := setup(t, &fakeEngine{resp: &orchestrator.Response{Success: true}}, RouterConfig{Metrics: m, Gatherer: reg}, ai.ProviderClaude)

	post(router, "/api/v1/generate/page", `{"prompt":"a page"}`)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sitegen_http_requests_total")
}

func TestNoRoute(t *testing.T) {
	router := setup(t, &fakeEngine{}, RouterConfig{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/nope", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

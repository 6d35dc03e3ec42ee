package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sitegen/internal/middleware"
	"sitegen/internal/orchestrator"
	"sitegen/internal/planner"
)

type generateFunc func(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error)

// GeneratePage handles sequential multi-phase page generation
func (h *Handler) GeneratePage(c *gin.Context) {
	h.generate(c, "page", h.Engine.GeneratePage)
}

// GenerateVariants handles parallel variant generation
func (h *Handler) GenerateVariants(c *gin.Context) {
	h.generate(c, "variants", h.Engine.GenerateVariants)
}

func (h *Handler) generate(c *gin.Context, mode string, run generateFunc) {
	var req orchestrator.Request
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if h.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.RequestTimeout)
		defer cancel()
	}

	resp, err := run(ctx, req)
	if err != nil {
		h.engineError(c, err)
		return
	}
	if !resp.Success {
		h.Log.Warn("generation failed",
			zap.String("mode", mode),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.String("reason", resp.Error.Message),
		)
		c.JSON(http.StatusBadGateway, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Plan previews the section plan, intent and tokens for a prompt.
// ?mode=variant caps the plan for a single response.
func (h *Handler) Plan(c *gin.Context) {
	var req orchestrator.Request
	if !h.bind(c, &req) {
		return
	}
	mode := planner.ModeFull
	if m := c.Query("mode"); m == "variant" || m == "single" {
		mode = planner.ModeSingle
	}

	resp, err := h.Engine.Plan(c.Request.Context(), req, mode)
	if err != nil {
		h.engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: resp})
}

func (h *Handler) bind(c *gin.Context, req *orchestrator.Request) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   "Invalid request format",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return false
	}
	return true
}

// engineError maps configuration errors onto HTTP statuses
func (h *Handler) engineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrEmptyPrompt), errors.Is(err, orchestrator.ErrInvalidVariant):
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   err.Error(),
			Code:    "INVALID_REQUEST",
		})
	case errors.Is(err, orchestrator.ErrNoProviders):
		c.JSON(http.StatusServiceUnavailable, StandardResponse{
			Success: false,
			Error:   err.Error(),
			Code:    "NO_PROVIDERS",
		})
	default:
		h.Log.Error("generation error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, StandardResponse{
			Success: false,
			Error:   "Generation failed",
			Code:    "GENERATION_FAILED",
		})
	}
}

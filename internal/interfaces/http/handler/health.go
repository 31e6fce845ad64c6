package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shakespeare-rag-api/internal/interfaces/http/dto"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

const checkTimeout = 5 * time.Second

// HealthHandler serves liveness and readiness. Required checks gate
// readiness; optional checks only degrade it.
type HealthHandler struct {
	required map[string]Check
	optional map[string]Check
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(required, optional map[string]Check) *HealthHandler {
	return &HealthHandler{required: required, optional: optional}
}

// Health handles GET /health: process liveness only.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Live handles GET /live.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	checks := make(map[string]dto.CheckResult)
	status := "ok"

	for name, check := range h.required {
		result := runCheck(ctx, check)
		checks[name] = result
		if result.Status != "ok" {
			status = "unavailable"
		}
	}
	for name, check := range h.optional {
		result := runCheck(ctx, check)
		checks[name] = result
		if result.Status != "ok" && status == "ok" {
			status = "degraded"
		}
	}

	code := http.StatusOK
	if status == "unavailable" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, dto.ReadyResponse{Status: status, Checks: checks})
}

func runCheck(ctx context.Context, check Check) dto.CheckResult {
	start := time.Now()
	err := check(ctx)
	result := dto.CheckResult{
		Status:    "ok",
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
	}
	return result
}

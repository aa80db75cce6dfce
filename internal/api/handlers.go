package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/pipeline"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req models.ScopeRequest) (*models.ScopeResult, error)
}

type ScopeHandler struct {
	dispatcher Dispatcher
}

func NewScopeHandler(d Dispatcher) *ScopeHandler {
	return &ScopeHandler{dispatcher: d}
}

// Generate handles POST /api/v1/renovation-scope.
func (h *ScopeHandler) Generate(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		respondError(c, apperrors.NewValidationError("request body must be a JSON object"))
		return
	}

	req, err := pipeline.DecodeRequest(body)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), models.ErrorResponse{Error: apperrors.PublicMessage(err)})
}

// Check probes one dependency for readiness.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every check and reports the failing ones.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	failing := []string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "failing": failing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

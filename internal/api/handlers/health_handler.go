package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playvault/game-request-api/internal/cache"
	"github.com/playvault/game-request-api/internal/requests"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store cache.Store
	db    *requests.Store
}

func NewHealthHandler(store cache.Store, db *requests.Store) *HealthHandler {
	return &HealthHandler{store: store, db: db}
}

// HealthResponse is the probe response body.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Liveness godoc
// @Summary Liveness probe
// @Description Confirms the process is running, no dependency checks
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /liveness [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().Unix(),
	})
}

// Readiness godoc
// @Summary Readiness probe
// @Description Verifies the request database and the cache store
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /readiness [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "ready",
		Checks:    make(map[string]string),
		Timestamp: time.Now().Unix(),
	}

	if err := h.db.Ping(ctx); err != nil {
		response.Checks["database"] = "failed"
		response.Status = "not_ready"
		response.Error = err.Error()
	} else {
		response.Checks["database"] = "ok"
	}

	// The cache is allowed to miss but not to fail.
	if _, err := h.store.Get(ctx, "readiness_probe"); err != nil && !errors.Is(err, cache.ErrMiss) {
		response.Checks["cache"] = "failed"
		response.Status = "not_ready"
		response.Error = err.Error()
	} else {
		response.Checks["cache"] = "ok"
	}

	statusCode := http.StatusOK
	if response.Status == "not_ready" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type DBChecker interface {
	HealthCheck(ctx context.Context) error
	GetVersion(ctx context.Context) (string, error)
	GetConnectionStats() sql.DBStats
}

// ModelStatus reports on the prediction model without loading it.
type ModelStatus interface {
	Ready() bool
	Version() string
}

type HealthHandler struct {
	db    DBChecker
	model ModelStatus
}

func NewHealthHandler(db DBChecker, model ModelStatus) *HealthHandler {
	return &HealthHandler{db: db, model: model}
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]string      `json:"checks,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Health godoc
// @Summary Health check
// @Description Database connectivity and prediction model state. The model is loaded lazily, so "not loaded" alone does not make the service unhealthy.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), shortTimeout)
	defer cancel()

	checks := make(map[string]string)
	details := make(map[string]interface{})
	status := "healthy"

	if err := h.db.HealthCheck(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "healthy"
		if version, err := h.db.GetVersion(ctx); err == nil {
			details["database_version"] = version
		}
		stats := h.db.GetConnectionStats()
		details["database_open_connections"] = stats.OpenConnections
		details["database_in_use"] = stats.InUse
	}

	if h.model.Ready() {
		checks["model"] = "loaded"
		details["model_version"] = h.model.Version()
	} else {
		checks["model"] = "not loaded"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Details:   details,
	})
}

// Ready godoc
// @Summary Readiness
// @Description Ready when the database answers and the prediction model is loaded
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), shortTimeout)
	defer cancel()

	checks := map[string]string{"database": "ready", "model": "ready"}
	ready := true

	if err := h.db.HealthCheck(ctx); err != nil {
		checks["database"] = "unavailable"
		ready = false
	}
	if !h.model.Ready() {
		checks["model"] = "not loaded"
		ready = false
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "not ready",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checks,
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Live godoc
// @Summary Liveness
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health/live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

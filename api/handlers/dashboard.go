package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/healthcare-records/pkg/models"
)

const recentPatients = 10

type StatsStore interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	Recent(ctx context.Context, limit int) ([]*models.Patient, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
}

type DashboardHandler struct {
	stats StatsStore
}

func NewDashboardHandler(stats StatsStore) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

type DashboardResponse struct {
	models.DashboardStats
	RecentPatients []*models.Patient `json:"recent_patients"`
}

// Dashboard godoc
// @Summary Dashboard summary
// @Description Patient and stroke counts, mean age and the most recently added patients
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DashboardResponse
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		respondDBError(c, "dashboard stats", err)
		return
	}

	recent, err := h.stats.Recent(ctx, recentPatients)
	if err != nil {
		respondDBError(c, "recent patients", err)
		return
	}
	if recent == nil {
		recent = []*models.Patient{}
	}

	c.JSON(http.StatusOK, DashboardResponse{
		DashboardStats: *stats,
		RecentPatients: recent,
	})
}

// Analytics godoc
// @Summary Cohort analytics
// @Description Gender distribution, age groups, hypertension and heart disease correlation, and smoking status, each with stroke counts
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Analytics
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /api/v1/analytics [get]
func (h *DashboardHandler) Analytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	analytics, err := h.stats.Analytics(ctx)
	if err != nil {
		respondDBError(c, "analytics", err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

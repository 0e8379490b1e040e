package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/healthcare-records/pkg/models"
)

type UserLister interface {
	List(ctx context.Context) ([]*models.User, error)
}

type AuditReader interface {
	GetRecent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

type AdminHandler struct {
	users UserLister
	audit AuditReader
}

func NewAdminHandler(users UserLister, audit AuditReader) *AdminHandler {
	return &AdminHandler{users: users, audit: audit}
}

// Users godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "users and count"
// @Failure 403 {object} map[string]string "Admin access required"
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) Users(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		respondDBError(c, "list users", err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// AuditLog godoc
// @Summary Recent audit events
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} map[string]interface{} "events and count"
// @Failure 403 {object} map[string]string "Admin access required"
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /api/v1/admin/audit [get]
func (h *AdminHandler) AuditLog(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	entries, err := h.audit.GetRecent(ctx, limit)
	if err != nil {
		respondDBError(c, "read audit log", err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"events": entries,
		"count":  len(entries),
	})
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/healthcare-records/internal/logger"
)

const (
	shortTimeout = 5 * time.Second
	queryTimeout = 10 * time.Second
)

const errDatabaseUnavailable = "database connection unavailable"

// respondDBError logs the underlying error with the trace ID and returns the
// generic 503 body; driver messages are not exposed to clients.
func respondDBError(c *gin.Context, op string, err error) {
	logger.WithFieldsCtx(c.Request.Context(), map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	}).Error("Database operation failed")
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": errDatabaseUnavailable})
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

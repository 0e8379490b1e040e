package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/healthcare-records/internal/auth"
	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	UserIDKey           = "user_id"
	UsernameKey         = "username"
	IsAdminKey          = "is_admin"
)

// AccessDeniedRecorder is told when a non-admin hits an admin route.
type AccessDeniedRecorder func(c *gin.Context, username string)

// JWTAuth accepts a bearer token or, failing that, the session cookie.
func JWTAuth(authService *auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c, cookieName)
		if !ok {
			metrics.Get().IncAuthFailure("missing_token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			message := "invalid token"
			reason := "invalid_token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "token expired"
				reason = "expired_token"
			}
			metrics.Get().IncAuthFailure(reason)

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": message,
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Set(IsAdminKey, claims.IsAdmin)

		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) (string, bool) {
	if header := c.GetHeader(AuthorizationHeader); header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return "", false
		}
		token := strings.TrimPrefix(header, BearerPrefix)
		return token, token != ""
	}

	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token, true
		}
	}
	return "", false
}

// RequireAdmin must run after JWTAuth.
func RequireAdmin(onDenied AccessDeniedRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAdmin(c) {
			c.Next()
			return
		}

		username := GetUsername(c)
		metrics.Get().IncAuthFailure("forbidden")
		logger.WithFieldsCtx(c.Request.Context(), map[string]interface{}{
			"username": username,
			"path":     c.Request.URL.Path,
		}).Warn("Non-admin user attempted admin access")

		if onDenied != nil {
			onDenied(c, username)
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "admin access required",
		})
	}
}

func GetUserID(c *gin.Context) int {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0
	}
	return userID.(int)
}

func GetUsername(c *gin.Context) string {
	username, exists := c.Get(UsernameKey)
	if !exists {
		return ""
	}
	return username.(string)
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(IsAdminKey)
}

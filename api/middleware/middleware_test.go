package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/healthcare-records/internal/auth"
	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

func newAuthRouter(svc *auth.Service, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(svc, "auth_token")}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetUserID(c),
			"username": GetUsername(c),
			"is_admin": IsAdmin(c),
		})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	svc := auth.NewService(testSecret, time.Hour)
	valid, err := svc.GenerateToken(7, "doctor", false)
	require.NoError(t, err)

	expired, err := auth.NewService(testSecret, -time.Minute).GenerateToken(7, "doctor", false)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{name: "bearer token", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: `"username":"doctor"`},
		{name: "cookie token", cookie: valid, wantStatus: http.StatusOK, wantBody: `"user_id":7`},
		{name: "missing", wantStatus: http.StatusUnauthorized, wantBody: "authentication required"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized, wantBody: "invalid token"},
		{name: "expired token", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantBody: "token expired"},
	}

	router := newAuthRouter(svc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "auth_token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	svc := auth.NewService(testSecret, time.Hour)
	var denied []string
	router := newAuthRouter(svc, RequireAdmin(func(_ *gin.Context, username string) {
		denied = append(denied, username)
	}))

	call := func(isAdmin bool) int {
		token, err := svc.GenerateToken(1, map[bool]string{true: "admin", false: "nurse"}[isAdmin], isAdmin)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthorizationHeader, BearerPrefix+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(true))
	assert.Equal(t, http.StatusForbidden, call(false))
	assert.Equal(t, []string{"nurse"}, denied)
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"), "new window")
}

func TestAuthRateLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", AuthRateLimiter(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestEndpointRateLimiter_OnlyConfiguredRoutes(t *testing.T) {
	erl := NewEndpointRateLimiter()
	erl.AddEndpoint("/api/v1/predict", 1, time.Minute)

	r := gin.New()
	r.Use(erl.Middleware())
	r.POST("/api/v1/predict", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(method, path string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/api/v1/predict"))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "/api/v1/predict"))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/dashboard"))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/dashboard"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(clinicCORS()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "https://clinic.example")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://clinic.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func clinicCORS() CORSConfig {
	return CORSFromConfig(config.CORSConfig{
		AllowedOrigins:   []string{"https://clinic.example"},
		AllowCredentials: true,
	})
}

func TestTraceID(t *testing.T) {
	r := gin.New()
	r.Use(TraceID())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, logger.TraceIDFromContext(c.Request.Context()))
	})

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(TraceIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get(TraceIDHeader))
		assert.Equal(t, "abc-123", rec.Body.String())
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

		id := rec.Header().Get(TraceIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, rec.Body.String())
	})
}

func TestRequestLogger_RecordsRoutePattern(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(TraceID(), RequestLogger(m))
	r.GET("/api/v1/patients/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/patients/42", nil))

	out := httptest.NewRecorder()
	m.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, out.Body.String(),
		`healthrec_http_requests_total{method="GET",route="/api/v1/patients/:id",status="404"} 1`)
}

func TestSecurityHeadersAndSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(true), RequestSizeLimit(16))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(strings.Repeat("a", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

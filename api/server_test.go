package api

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/healthcare-records/api/handlers"
	"github.com/OldStager01/healthcare-records/api/middleware"
	"github.com/OldStager01/healthcare-records/internal/auth"
	"github.com/OldStager01/healthcare-records/internal/events"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/pkg/config"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubDB struct{}

func (stubDB) HealthCheck(context.Context) error          { return nil }
func (stubDB) GetVersion(context.Context) (string, error) { return "PostgreSQL 16", nil }
func (stubDB) GetConnectionStats() sql.DBStats            { return sql.DBStats{} }

// Only the methods the routes under test reach are implemented.
type stubUsers struct{ handlers.UserStore }

func (stubUsers) List(context.Context) ([]*models.User, error) {
	return []*models.User{{ID: 1, Username: "admin", IsAdmin: true}}, nil
}

type stubPatients struct{ PatientStore }

func (stubPatients) Search(_ context.Context, f models.PatientFilter) (*models.PatientPage, error) {
	return &models.PatientPage{Patients: []*models.Patient{}, Page: f.Page, PerPage: f.PerPage}, nil
}

type stubAudit struct{}

func (stubAudit) GetRecent(context.Context, int) ([]models.AuditEntry, error) { return nil, nil }

type stubPredictor struct{ PredictionService }

func (stubPredictor) Ready() bool     { return false }
func (stubPredictor) Version() string { return "" }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "healthcare-records", Mode: "test"},
		API: config.APIConfig{
			RateLimit:      1000,
			AuthRateLimit:  5,
			MaxBodyBytes:   1 << 20,
			JWTSecret:      "test-secret",
			JWTDuration:    time.Hour,
			JWTIssuer:      "healthcare-records",
			CookieName:     "auth_token",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			DefaultLimit:   20,
			MaxLimit:       100,
			Swagger:        true,
		},
		Prometheus: config.PrometheusConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T) (*Server, *events.EventBus) {
	t.Helper()

	bus := events.NewEventBus(16, metrics.New())
	s := NewServer(testConfig(), Dependencies{
		DB:        stubDB{},
		Users:     stubUsers{},
		Patients:  stubPatients{},
		Audit:     stubAudit{},
		Predictor: stubPredictor{},
		Bus:       bus,
		Metrics:   metrics.New(),
	})
	t.Cleanup(func() {
		require.NoError(t, s.Shutdown(context.Background()))
		bus.Close()
	})
	return s, bus
}

func request(t *testing.T, s *Server, method, path string, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(middleware.AuthorizationHeader, middleware.BearerPrefix+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, username string, admin bool) string {
	t.Helper()
	tok, err := auth.NewService("test-secret", time.Hour).GenerateToken(1, username, admin)
	require.NoError(t, err)
	return tok
}

func TestServer_PublicRoutes(t *testing.T) {
	s, _ := newTestServer(t)

	rec := request(t, s, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.TraceIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusOK, request(t, s, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, request(t, s, http.MethodGet, "/health/ready", "").Code)
	assert.Equal(t, http.StatusOK, request(t, s, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusOK, request(t, s, http.MethodGet, "/swagger/doc.json", "").Code)
}

func TestServer_ProtectedRoutesNeedToken(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/patients", "/api/v1/dashboard", "/auth/me", "/ws"} {
		assert.Equal(t, http.StatusUnauthorized, request(t, s, http.MethodGet, path, "").Code, path)
	}

	rec := request(t, s, http.MethodGet, "/api/v1/patients", token(t, "nurse", false))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_AdminRoutes(t *testing.T) {
	s, bus := newTestServer(t)
	denied := bus.Subscribe(models.EventTypeAccessDenied)

	rec := request(t, s, http.MethodGet, "/api/v1/admin/users", token(t, "nurse", false))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	select {
	case e := <-denied:
		assert.Equal(t, "nurse", e.Actor)
		assert.Equal(t, "/api/v1/admin/users", e.Data.(map[string]interface{})["path"])
	case <-time.After(time.Second):
		t.Fatal("access_denied not published")
	}

	assert.Equal(t, http.StatusOK, request(t, s, http.MethodGet, "/api/v1/admin/users", token(t, "admin", true)).Code)
	assert.Equal(t, http.StatusOK, request(t, s, http.MethodGet, "/api/v1/admin/audit", token(t, "admin", true)).Code)
}

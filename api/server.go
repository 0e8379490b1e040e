package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/OldStager01/healthcare-records/api/docs"
	"github.com/OldStager01/healthcare-records/api/handlers"
	"github.com/OldStager01/healthcare-records/api/middleware"
	"github.com/OldStager01/healthcare-records/api/websocket"
	"github.com/OldStager01/healthcare-records/internal/auth"
	"github.com/OldStager01/healthcare-records/internal/events"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/pkg/config"
)

// PredictLimitPerMinute caps /api/v1/predict per client on top of the global limit.
const PredictLimitPerMinute = 30

// UserStore is the user repository as the auth and admin handlers use it.
type UserStore interface {
	handlers.UserStore
	handlers.UserLister
}

type PatientStore interface {
	handlers.PatientStore
	handlers.StatsStore
}

type PredictionService interface {
	handlers.Predictor
	handlers.ModelStatus
}

// Dependencies are the stores and services the routes are built on.
type Dependencies struct {
	DB        handlers.DBChecker
	Users     UserStore
	Patients  PatientStore
	Audit     handlers.AuditReader
	Predictor PredictionService
	Bus       *events.EventBus
	Metrics   *metrics.Metrics
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      *config.Config
	deps        Dependencies
	authService *auth.Service
	publisher   *events.Publisher
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	cancel      context.CancelFunc
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Get()
	}

	authService := auth.NewService(cfg.API.JWTSecret, cfg.API.JWTDuration)
	if cfg.API.JWTIssuer != "" {
		authService.WithIssuer(cfg.API.JWTIssuer)
	}
	wsHub := websocket.NewHub(&cfg.WebSocket, deps.Metrics)

	s := &Server{
		router:      gin.New(),
		config:      cfg,
		deps:        deps,
		authService: authService,
		publisher:   events.NewPublisher(deps.Bus),
		wsHub:       wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go wsHub.Run(ctx)

	s.wsBridge = websocket.NewEventBridge(wsHub, deps.Bus.SubscribeAll())
	s.wsBridge.Start(ctx)

	return s
}

func (s *Server) setupMiddleware() {
	api := s.config.API

	s.router.Use(gin.Recovery())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger(s.deps.Metrics))
	s.router.Use(middleware.SecurityHeaders(api.CookieSecure))
	s.router.Use(middleware.CORS(middleware.CORSFromConfig(api.CORS)))
	if api.MaxBodyBytes > 0 {
		s.router.Use(middleware.RequestSizeLimit(api.MaxBodyBytes))
	}

	rateLimiter := middleware.NewRateLimiter(api.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))

	endpointLimiter := middleware.NewEndpointRateLimiter()
	endpointLimiter.AddEndpoint("/api/v1/predict", PredictLimitPerMinute, time.Minute)
	s.router.Use(endpointLimiter.Middleware())
}

func (s *Server) setupRoutes() {
	api := s.config.API

	healthHandler := handlers.NewHealthHandler(s.deps.DB, s.deps.Predictor)
	authHandler := handlers.NewAuthHandler(s.deps.Users, s.authService, s.publisher, handlers.CookieConfig{
		Name:     api.CookieName,
		Path:     api.CookiePath,
		Secure:   api.CookieSecure,
		HTTPOnly: api.CookieHTTPOnly,
	}, s.config.Auth.BcryptCost)
	patientHandler := handlers.NewPatientHandler(s.deps.Patients, s.publisher, handlers.PaginationConfig{
		DefaultLimit: api.DefaultLimit,
		MaxLimit:     api.MaxLimit,
	})
	dashboardHandler := handlers.NewDashboardHandler(s.deps.Patients)
	predictionHandler := handlers.NewPredictionHandler(s.deps.Predictor, s.publisher)
	adminHandler := handlers.NewAdminHandler(s.deps.Users, s.deps.Audit)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	if s.config.Prometheus.Enabled {
		s.router.GET(s.config.Prometheus.Path, gin.WrapH(s.deps.Metrics.Handler()))
	}

	if api.Swagger {
		docs.SwaggerInfo.Title = s.config.App.Name
		s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	jwtAuth := middleware.JWTAuth(s.authService, api.CookieName)

	// Auth routes
	authGroup := s.router.Group("/auth")
	{
		limited := authGroup.Group("", middleware.AuthRateLimiter(api.AuthRateLimit))
		limited.POST("/register", authHandler.Register)
		limited.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", jwtAuth, authHandler.Me)
	}

	// WebSocket route
	s.router.GET("/ws", jwtAuth, websocket.ServeWebSocket(s.wsHub))

	// Protected routes
	protected := s.router.Group("/api/v1", jwtAuth)
	{
		protected.GET("/patients", patientHandler.List)
		protected.POST("/patients", patientHandler.Create)
		protected.GET("/patients/:id", patientHandler.Get)
		protected.PUT("/patients/:id", patientHandler.Update)
		protected.DELETE("/patients/:id", patientHandler.Delete)

		protected.GET("/dashboard", dashboardHandler.Dashboard)
		protected.GET("/analytics", dashboardHandler.Analytics)

		protected.POST("/predict", predictionHandler.Predict)

		admin := protected.Group("/admin", middleware.RequireAdmin(s.accessDenied))
		admin.GET("/users", adminHandler.Users)
		admin.GET("/audit", adminHandler.AuditLog)
	}
}

func (s *Server) accessDenied(c *gin.Context, username string) {
	s.publisher.WithContext(c.Request.Context()).AccessDenied(username, c.Request.Method, c.Request.URL.Path)
}

func (s *Server) Start() error {
	api := s.config.API

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Port),
		Handler:      s.router,
		ReadTimeout:  api.ReadTimeout,
		WriteTimeout: api.WriteTimeout,
		IdleTimeout:  api.IdleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, then closes the live feed.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.cancel()
	s.wsBridge.Stop()
	return err
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Hub() *websocket.Hub {
	return s.wsHub
}

// Package server assembles the gin engine, its middleware and the v1 routes from
// repositories and infrastructure chosen by the caller.
package server

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/config"
	"github.com/duynhne/classifieds-service/internal/catalog"
	logicv1 "github.com/duynhne/classifieds-service/internal/logic/v1"
	v1 "github.com/duynhne/classifieds-service/internal/web/v1"
	"github.com/duynhne/classifieds-service/middleware"
)

// Services are the logic-layer services shared by the HTTP server and the CLI
type Services struct {
	Tokens     *middleware.TokenIssuer
	Listings   *logicv1.ListingService
	Categories *logicv1.CategoryService
	Auth       *logicv1.AuthService
	Uploads    *logicv1.UploadService
	Users      *logicv1.UserService
	ProFields  *logicv1.ProFieldService
}

// NewServices wires the services over deps
func NewServices(cfg *config.Config, logger *zap.Logger, deps Deps) *Services {
	if deps.Catalog == nil {
		deps.Catalog = catalog.MustLoad()
	}
	tokens := middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.GetTokenTTLDuration(), cfg.Auth.Issuer)
	return &Services{
		Tokens:     tokens,
		Listings:   logicv1.NewListingService(deps.Listings, deps.Catalog, deps.Events, logger),
		Categories: logicv1.NewCategoryService(deps.Categories),
		Auth:       logicv1.NewAuthService(deps.Users, deps.Categories, deps.ProFields, tokens),
		Uploads:    logicv1.NewUploadService(deps.Store, cfg.Upload.PublicBaseURL, cfg.Upload.MaxWidth),
		Users:      logicv1.NewUserService(deps.Users, deps.Categories, deps.Listings),
		ProFields:  logicv1.NewProFieldService(deps.ProFields),
	}
}

// Server is the HTTP surface of the service
type Server struct {
	Engine   *gin.Engine
	Services *Services

	cfg            *config.Config
	isShuttingDown atomic.Bool
}

// New builds the engine with tracing, logging and metrics middleware and every route
func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	s := &Server{Services: NewServices(cfg, logger, deps), cfg: cfg}

	r := gin.New()
	r.Use(gin.Recovery())

	// Tracing middleware (must be first for context propagation)
	r.Use(middleware.TracingMiddleware())

	// Logging middleware (must be before Prometheus middleware)
	r.Use(middleware.LoggingMiddleware(logger))

	if cfg.Metrics.Enabled {
		r.Use(middleware.PrometheusMiddleware())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if s.isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1.RegisterRoutes(r.Group("/api"), v1.Handlers{
		Listings:   v1.NewListingHandler(s.Services.Listings),
		Categories: v1.NewCategoryHandler(s.Services.Categories),
		Auth:       v1.NewAuthHandler(s.Services.Auth),
		Uploads:    v1.NewUploadHandler(s.Services.Uploads),
		Admin:      v1.NewAdminHandler(s.Services.Users, s.Services.ProFields),
	}, s.Services.Tokens, logger)

	s.Engine = r
	return s
}

// Handler wraps the engine with CORS for the configured browser origins
func (s *Server) Handler() http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.TraceIDHeader},
		ExposedHeaders:   []string{middleware.TraceIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(s.Engine)
}

// StartDraining makes /ready fail so load balancers stop routing new traffic
func (s *Server) StartDraining() {
	s.isShuttingDown.Store(true)
}

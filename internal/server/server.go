// Package server is the HTTP surface of the directory backend: the public
// product API, the auth-callback flows, the admin API and the SEO endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stackfinder/stackfinder/internal/admin"
	"github.com/stackfinder/stackfinder/internal/auth"
	"github.com/stackfinder/stackfinder/internal/authgw"
	"github.com/stackfinder/stackfinder/internal/callback"
	"github.com/stackfinder/stackfinder/internal/config"
	"github.com/stackfinder/stackfinder/internal/models"
	"github.com/stackfinder/stackfinder/internal/redirect"
	"github.com/stackfinder/stackfinder/internal/seo"
	"github.com/stackfinder/stackfinder/internal/textutil"
)

// Server represents the HTTP server
type Server struct {
	router       *gin.Engine
	db           *gorm.DB
	config       *config.Config
	logger       zerolog.Logger
	validator    *validator.Validate
	asynqClient  *asynq.Client
	provider     *authgw.Client
	adminService *admin.Service
	redirects    redirect.Store
	sitemapCache *seo.Cache
	metaBuilder  *seo.Builder
	routes       []seo.Route
	adminFlow    *callback.AdminFlow
	publicFlow   *callback.PublicFlow
	imageHosts   *textutil.HostAllowList
	version      string
}

// New creates a new server instance. Construction fails fast when the auth
// provider configuration is incomplete.
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}

	provider, err := authgw.New(cfg.Auth.ProviderURL, cfg.Auth.PublicKey)
	if err != nil {
		return nil, err
	}

	routes, err := seo.LoadRegistry()
	if err != nil {
		return nil, err
	}

	// Initialize validator
	validate := validator.New()
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		// Lowercase alphanumeric and hyphens only (safe for URLs)
		value := fl.Field().String()
		if value == "" {
			return false
		}
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') ||
				(char >= '0' && char <= '9') ||
				char == '-') {
				return false
			}
		}
		return true
	})

	// Asynq client for enqueueing background tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	adminService := admin.NewService(db, verifier, provider, zlog)
	redirects := redirect.NewRedisStore(cfg.Redis.Address)

	server := &Server{
		db:           db,
		config:       cfg,
		logger:       zlog,
		validator:    validate,
		asynqClient:  asynqClient,
		provider:     provider,
		adminService: adminService,
		redirects:    redirects,
		sitemapCache: seo.NewCache(cfg.Redis.Address),
		metaBuilder:  seo.NewBuilder(cfg.Site.BaseURL),
		routes:       routes,
		adminFlow:    callback.NewAdminFlow(&serviceAuthorizer{svc: adminService}, provider, redirects, zlog),
		publicFlow:   callback.NewPublicFlow(&providerChecker{provider: provider}, zlog),
		imageHosts:   textutil.DefaultImageHosts(),
		version:      version,
	}

	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 // seconds
		busyTimeout     = 5000
		cacheSize       = 10000
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware: the public site and the admin console are separate
	// origins
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.Site.BaseURL, s.config.Site.AdminURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// SEO surface (no auth required)
	s.router.GET("/robots.txt", s.robotsTxt)
	s.router.GET("/sitemap.xml", s.sitemapXML)

	// Public-site auth callback
	s.router.GET("/auth/callback", s.publicCallback)

	// Public API
	api := s.router.Group("/api")
	{
		api.GET("/products", s.listProducts)
		api.GET("/products/:slug", s.getProduct)
		api.GET("/categories", s.listCategories)
		api.GET("/meta", s.pageMeta)
	}

	// Admin callback endpoints (no bearer yet: the callback carries the token)
	adminAPI := s.router.Group("/api/admin")
	{
		adminAPI.POST("/login-intent", s.createLoginIntent)
		adminAPI.GET("/callback", s.adminCallback)
		adminAPI.GET("/me", s.adminMe)
	}

	// Authenticated admin routes (bearer token + allow-list required)
	adminAuthed := s.router.Group("/api/admin")
	adminAuthed.Use(AdminAuthMiddleware(s.adminService, s.logger))
	{
		adminAuthed.GET("/products", s.adminListProducts)
		adminAuthed.POST("/products", s.createProduct)
		adminAuthed.PUT("/products/:id", s.updateProduct)
		adminAuthed.DELETE("/products/:id", s.deleteProduct)

		adminAuthed.POST("/categories", s.createCategory)

		adminAuthed.GET("/admins", s.listAdmins)
		adminAuthed.POST("/admins", s.grantAdmin)
		adminAuthed.DELETE("/admins/:email", s.revokeAdmin)

		adminAuthed.POST("/sitemap/rebuild", s.rebuildSitemap)
		adminAuthed.POST("/images/audit", s.auditImages)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "stackfinder-api",
		"version":   s.version,
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start starts the HTTP server
func (s *Server) Start() error {
	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Site.Listen,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info().Str("addr", s.config.Site.Listen).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

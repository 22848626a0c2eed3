package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalogsync/internal/api/handlers"
	"catalogsync/internal/api/middleware"
	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/scheduler"
	"catalogsync/internal/settings"
	"catalogsync/internal/syncer"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, store settings.Store, controller *scheduler.Controller, syncService *syncer.Syncer) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := NewRouter(logger, Handlers{
		Settings: handlers.NewSettingsHandler(store, controller, logger),
		Sync:     handlers.NewSyncHandler(controller, logger),
		Products: handlers.NewProductHandler(syncService, logger),
		Runs:     handlers.NewRunHandler(syncService, logger),
	})

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

type Handlers struct {
	Settings *handlers.SettingsHandler
	Sync     *handlers.SyncHandler
	Products *handlers.ProductHandler
	Runs     *handlers.RunHandler
}

func NewRouter(logger *logger.Logger, h Handlers) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))

	router.GET("/health", handlers.Health)

	// Routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/settings", h.Settings.Get)
		v1.PUT("/settings", h.Settings.Update)

		v1.GET("/status", h.Sync.Status)
		v1.POST("/sync", h.Sync.Trigger)

		v1.GET("/products", h.Products.List)
		v1.GET("/runs", h.Runs.List)
	}

	return router
}

func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
	})
	return c.Handler(s.router)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	ginhandler "proximity-service/internal/adapter/gin/handler"
	ginrouter "proximity-service/internal/adapter/gin/router"
	"proximity-service/internal/config"
)

// Server struct holds the HTTP server and its dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *http.Server
}

// New creates a new server instance wrapping the gin router
func New(cfg *config.Config, l *zap.Logger, handler *ginhandler.UserHandler) *Server {
	router := ginrouter.SetupRouter(handler, l)

	return &Server{
		Config: cfg,
		Logger: l,
		HTTP: &http.Server{
			Addr:              ":" + cfg.App.HTTPPort,
			Handler:           router,
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.Logger.Info("HTTP server running", zap.String("address", s.HTTP.Addr))
	if err := s.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

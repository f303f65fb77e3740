package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"proximity-service/cmd/api/di"
	"proximity-service/cmd/api/server"
	"proximity-service/internal/config"
	"proximity-service/pkg/logger"
)

// App represents the application
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Server    *server.Server
	Container *di.Container
}

// New creates a new application instance
func New() (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	container, err := di.NewContainer(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	srv := server.New(cfg, l, container.GinHandler)

	return &App{
		Config:    cfg,
		Logger:    l,
		Server:    srv,
		Container: container,
	}, nil
}

// Run starts the application and blocks until the context is canceled or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("starting application",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", a.Config.App.Environment),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Server.Start(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down application...")
		return a.shutdown()
	})

	return g.Wait()
}

// shutdown gracefully shuts down the application
func (a *App) shutdown() error {
	timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.Logger.Info("starting graceful shutdown",
		zap.Int("timeout_seconds", a.Config.App.ShutdownTimeoutSeconds),
	)

	var errs []error

	if a.Server.HTTP != nil {
		if err := a.Server.HTTP.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("failed to shutdown HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}

	if a.Container != nil {
		if err := a.Container.Close(); err != nil {
			a.Logger.Error("failed to close container", zap.Error(err))
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	// Sync logger; sync errors on stdout/stderr are expected and ignored.
	if err := a.Logger.Sync(); err != nil {
		if err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: invalid argument" {
			errs = append(errs, fmt.Errorf("logger sync: %w", err))
		}
	}

	a.Logger.Info("application shutdown complete")

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// loadConfig loads application configuration
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

// initLogger initializes the application logger
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewWithConfig(logger.Config{
		Level:          cfg.Logger.Level,
		Format:         cfg.Logger.Format,
		OutputPath:     cfg.Logger.OutputPath,
		EnableSampling: cfg.Logger.EnableSampling,
		ServiceName:    cfg.Logger.ServiceName,
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.App.Environment,
	})
}

// getConfigPath returns the configuration path
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}

// Package server wires the rentals backend together: it picks the logger,
// the storage backend and the photo store from configuration, and runs the
// HTTP server until the process is asked to stop.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/rentals/internal/logging"
	"github.com/dmitrijs2005/rentals/internal/server/config"
	"github.com/dmitrijs2005/rentals/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rentals/internal/server/rest"
	"github.com/dmitrijs2005/rentals/internal/server/services"
	"github.com/dmitrijs2005/rentals/internal/server/uploads"
)

const startupTimeout = 15 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	sync    func() error
	manager repomanager.RepositoryManager
	server  *rest.HTTPServer
}

func newLogger(c *config.Config) (logging.Logger, func() error, error) {
	if c.LogBackend == config.LogZap {
		z, err := logging.NewProductionZapLogger()
		if err != nil {
			return nil, nil, fmt.Errorf("zap init error: %w", err)
		}
		return z, z.Sync, nil
	}
	return logging.NewJSONSlogLogger(os.Stdout, slog.LevelInfo), func() error { return nil }, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StorageBackend {
	case config.StorageMemory:
		return repomanager.NewInMemoryRepositoryManager(), nil
	case config.StorageMongo:
		return repomanager.NewMongoRepositoryManager(ctx, c.MongoURI, c.MongoDatabase)
	default:
		db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return repomanager.NewPostgresRepositoryManager(db), nil
	}
}

func newPhotoStore(ctx context.Context, c *config.Config) (uploads.Store, error) {
	if c.PhotoBackend == config.PhotosS3 {
		return uploads.NewS3Store(ctx, uploads.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
	return uploads.NewDiskStore(c.UploadDir)
}

// NewApp validates c, connects the storage backend, applies migrations and
// builds the HTTP server. It refuses to start without a JWT secret.
func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, syncLogger, err := newLogger(c)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	m, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, fmt.Errorf("migration error: %w", err)
	}

	photos, err := newPhotoStore(ctx, c)
	if err != nil {
		_ = m.Close(ctx)
		return nil, fmt.Errorf("photo store init error: %w", err)
	}

	us := services.NewUserService(m, c)
	ls := services.NewListingService(m)

	srv := rest.NewHTTPServer(c.EndpointAddrHTTP, logger, us, ls, photos, rest.Options{
		RequireAuth:    c.RequireAuth,
		RequestTimeout: c.RequestTimeout,
		AuthRateLimit:  c.AuthRateLimit,
		AuthRateBurst:  c.AuthRateBurst,
	})

	logger.Info(ctx, "App initialized", "storage", c.StorageBackend, "photos", c.PhotoBackend)

	return &App{config: c, logger: logger, sync: syncLogger, manager: m, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is canceled or a termination signal arrives, then
// releases the storage connection.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.manager.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "storage close error", "error", err)
	}

	app.logger.Info(closeCtx, "App stopped")
	_ = app.sync()
}

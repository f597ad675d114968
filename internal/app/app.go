package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/templui/datafolio/internal/cache"
	"github.com/templui/datafolio/internal/config"
	"github.com/templui/datafolio/internal/db"
	"github.com/templui/datafolio/internal/forecast"
	"github.com/templui/datafolio/internal/repository"
	"github.com/templui/datafolio/internal/service"
	"github.com/templui/datafolio/internal/storage"
)

type App struct {
	Cfg     *config.Config
	DB      *sqlx.DB
	Store   *repository.Store
	Storage storage.Storage
	Cache   cache.Cache

	AuthService      *service.AuthService
	EmailService     *service.EmailService
	PortfolioService *service.PortfolioService
	TableService     *service.TableService
	FileService      *service.FileService
	AnalysisService  *service.AnalysisService
	ForecastService  *service.ForecastService

	closers []io.Closer
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	app, err := Build(ctx, cfg, database)
	if err != nil {
		_ = db.Close(database)
		return nil, err
	}
	return app, nil
}

// Build assembles the application around an open, migrated database.
func Build(ctx context.Context, cfg *config.Config, database *sqlx.DB) (*App, error) {
	app := &App{
		Cfg:   cfg,
		DB:    database,
		Store: repository.NewStore(database),
	}

	var err error

	// Storage
	app.Storage, err = storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Grid cache
	app.Cache, err = newCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	if c, ok := app.Cache.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}

	// Services
	app.EmailService = service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	app.AuthService = service.NewAuthService(app.Store.Users, cfg.JWTSecret, cfg.JWTExpiry)
	app.PortfolioService = service.NewPortfolioService(app.Store, app.Storage, app.Cache)
	app.TableService = service.NewTableService(app.Store, app.Cache, app.EmailService, cfg.CacheTTL)
	app.FileService = service.NewFileService(app.Store, app.Storage, app.EmailService, cfg.UploadMaxBytes, cfg.S3PresignExpiry)
	app.AnalysisService = service.NewAnalysisService(app.TableService, app.FileService)
	app.ForecastService = service.NewForecastService(
		app.TableService,
		forecast.NewClient(cfg.ForecastURL, cfg.ForecastResultPath, cfg.ForecastTimeout),
	)

	return app, nil
}

// newCache picks Redis when REDIS_URL is set, an in-process cache in
// development, and no caching otherwise.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch {
	case cfg.RedisURL != "":
		return cache.NewRedis(ctx, cfg.RedisURL, "datafolio:")
	case cfg.IsDevelopment():
		slog.Info("using in-process grid cache")
		return cache.NewMemory(), nil
	default:
		return cache.Noop{}, nil
	}
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	if a.DB != nil {
		errs = append(errs, db.Close(a.DB))
	}
	return errors.Join(errs...)
}

package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tasker/internal/auth"
	"tasker/internal/config"
	"tasker/internal/database"
	"tasker/internal/logger"
	"tasker/internal/metrics"
	"tasker/internal/services"
	"tasker/internal/workerpool"
)

// App holds all application state and dependencies
type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *sql.DB
	Store     *database.Store
	Pool      *workerpool.Pool
	Tokens    *auth.Manager
	Resolver  *auth.Resolver
	Metrics   *metrics.Metrics
	StartedAt time.Time

	// Services layer for business logic
	Services *services.Services
}

// NewApp wires the auth core and services over an open, migrated database.
// A fresh MAC key is generated here, so tokens issued by a previous process
// no longer verify.
func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger, db *sql.DB) (*App, error) {
	store := database.NewStore(db, cfg.Database.Driver)
	pool := workerpool.New(cfg.Auth.HashWorkers)
	m := metrics.New()

	key, err := auth.NewMACKey(cfg.Auth.MACKeyBytes)
	if err != nil {
		pool.Close()
		return nil, err
	}

	hasher := auth.NewPasswordHasher(auth.PasswordParams{
		Memory:      cfg.Auth.Argon2MemoryKiB,
		Iterations:  cfg.Auth.Argon2Iterations,
		Parallelism: cfg.Auth.Argon2Parallelism,
	}, pool)

	manager, err := auth.NewManager(ctx, auth.ManagerOptions{
		Users:   store,
		Tokens:  store,
		Hasher:  hasher,
		Key:     key,
		Pool:    pool,
		TTL:     cfg.Auth.TokenTTLSecs,
		Logger:  log,
		Metrics: m,

		RenewWindow: cfg.Auth.RenewWindow(),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Store:     store,
		Pool:      pool,
		Tokens:    manager,
		Resolver:  auth.NewResolver(store),
		Metrics:   m,
		StartedAt: time.Now(),
	}

	app.Services = services.New(services.Options{
		Store:           store,
		Hasher:          hasher,
		Logger:          log,
		Metrics:         m,
		JanitorInterval: cfg.Auth.JanitorInterval(),
		RenewWindow:     cfg.Auth.RenewWindow(),
	})

	log.Info("Auth: %d hash workers, token ttl %ds, %v", pool.Size(), manager.TTL(), key)
	return app, nil
}

// Close stops background work and releases the database.
func (a *App) Close() {
	if a.Services != nil {
		a.Services.Stop()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

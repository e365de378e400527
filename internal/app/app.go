// Package app assembles the arena service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/matchmaking"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
	"github.com/cory-johannsen/arena/internal/storage/redisstore"
)

// LoadConfig reads an optional .env file into the environment and then loads
// the configuration at path.
func LoadConfig(path string) (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("reading .env: %w", err)
	}
	return config.Load(path)
}

// App owns the long-lived resources behind a Service.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Pool    *postgres.Pool
	Players *postgres.PlayerRepository
	Service *arena.Service

	redis *redis.Client
}

// New connects to PostgreSQL and the configured opponent store.
//
// Postcondition: on success the caller must Close the App; on error every
// resource opened so far is released.
func New(ctx context.Context, cfg config.Config, component string) (_ *App, err error) {
	logger, err := observability.NewLogger(cfg.Logging, component)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.Pool, err = postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	opponents, err := a.opponentStore(ctx)
	if err != nil {
		return nil, err
	}

	src := dice.NewLoggedSource(dice.NewCryptoSource(), logger.Named("dice"))
	a.Players = postgres.NewPlayerRepository(a.Pool.DB())
	a.Service = arena.NewService(postgres.NewStore(a.Pool.DB()), opponents, src, cfg.Game, logger)
	logger.Info("arena ready",
		zap.String("opponent_store", cfg.Game.OpponentStore),
		zap.String("database", cfg.Database.Host),
	)
	return a, nil
}

func (a *App) opponentStore(ctx context.Context) (matchmaking.OpponentStore, error) {
	switch a.Config.Game.OpponentStore {
	case config.OpponentStoreRedis:
		client, err := redisstore.NewClient(ctx, a.Config.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return redisstore.NewOpponentStore(client, a.Config.Game.OpponentTTL), nil
	case config.OpponentStoreMemory:
		return matchmaking.NewMemoryStore(a.Config.Game.OpponentTTL, nil), nil
	}
	return nil, fmt.Errorf("unknown opponent store %q", a.Config.Game.OpponentStore)
}

// Close releases every resource. It is safe on a partially built App.
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

package app

import (
	"context"
	"fmt"
	"time"

	"catalogsync/internal/catalog"
	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/events"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/scheduler"
	"catalogsync/internal/services/shopify"
	"catalogsync/internal/settings"
	"catalogsync/internal/syncer"

	"github.com/go-redis/redis/v8"
	"go.uber.org/multierr"
)

// App holds the components shared by the api and worker binaries.
type App struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *database.Database
	Store      *settings.GormStore
	Syncer     *syncer.Syncer
	Controller *scheduler.Controller

	publisher events.Publisher
	redis     *redis.Client
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := database.New(cfg.DatabaseURL, log, cfg.LogLevel == "debug")
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: log, DB: db}

	a.Store = settings.NewGormStore(db.DB)
	if err := a.Store.Seed(ctx, installDefaults(cfg)); err != nil {
		_ = a.Close()
		return nil, err
	}

	lock, err := a.newLock(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.KafkaEnabled() {
		a.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic, log)
	} else {
		a.publisher = events.NopPublisher{}
	}

	a.Syncer = syncer.New(syncer.Deps{
		Store:       a.Store,
		Fetcher:     shopify.NewClient(cfg.FetchTimeout, log),
		Catalog:     catalog.New(db.DB, log),
		Runs:        syncer.NewRunLog(db.DB),
		Publisher:   a.publisher,
		Lock:        lock,
		TablePrefix: cfg.TablePrefix,
		Logger:      log,
	})
	a.Controller = scheduler.NewController(a.Syncer, a.Store, log)
	return a, nil
}

func installDefaults(cfg *config.Config) models.SyncConfig {
	interval, err := models.ParseInterval(cfg.SyncSchedule)
	if err != nil {
		interval = models.IntervalFiveMinutes
	}
	return models.SyncConfig{
		EndpointURL: cfg.ShopifyAPIURL,
		AccessToken: cfg.ShopifyAccessToken,
		TableName:   cfg.CatalogTable,
		Interval:    interval,
	}
}

func (a *App) newLock(ctx context.Context) (syncer.Locker, error) {
	local := syncer.NewLocalLock()
	if a.Config.RedisURL == "" {
		return local, nil
	}

	opts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	a.redis = redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	a.Logger.Info("Using redis sync lock")
	return syncer.ChainLock{local, syncer.NewRedisLock(a.redis, syncer.DefaultLockKey, a.Config.SyncLockTTL)}, nil
}

// Close releases every connection the app opened.
func (a *App) Close() error {
	var err error
	if a.publisher != nil {
		err = multierr.Append(err, a.publisher.Close())
	}
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.DB != nil {
		err = multierr.Append(err, a.DB.Close())
	}
	return err
}

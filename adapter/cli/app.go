package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/careerlift/quota/internal/shared/infrastructure/eventbus"
	"github.com/careerlift/quota/internal/usage/application"
	"github.com/careerlift/quota/internal/usage/domain"
	"github.com/careerlift/quota/internal/usage/infrastructure/persistence"
	"github.com/careerlift/quota/pkg/config"
)

// App holds the CLI application dependencies.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Records domain.Repository
	Usage   *application.Service

	// RedisClient is set only when the redis backend is active. The
	// migrate command needs direct key access.
	RedisClient *redis.Client

	closers []func() error
}

var app *App

// SetApp installs the wired application for subcommands to use.
func SetApp(a *App) {
	app = a
}

// GetApp returns the wired application, or nil when running without storage.
func GetApp() *App {
	return app
}

// NewApp wires the usage ledger against the configured storage backend.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	records, err := a.openRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.BreakerEnabled {
		records = persistence.NewBreakerRepository(records, logger)
	}
	a.Records = records

	opts := []application.Option{application.WithLogger(logger)}
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		opts = append(opts, application.WithPublisher(publisher))
	}
	a.Usage = application.NewService(records, opts...)

	return a, nil
}

// Close releases storage and messaging connections in reverse order.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *App) openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Repository, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return persistence.NewMemoryRepository(), nil

	case config.BackendRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.RedisClient = client
		a.closers = append(a.closers, client.Close)
		return persistence.NewRedisRepository(client, cfg.UsageRecordTTL, logger), nil

	case config.BackendSQLite:
		db, err := openSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		repo := persistence.NewSQLiteRepository(db, logger)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate sqlite schema: %w", err)
		}
		return repo, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
		repo := persistence.NewPostgresRepository(pool, logger)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate postgres schema: %w", err)
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	// WAL and a busy timeout keep concurrent CLI invocations from
	// tripping over the single-writer lock.
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite doesn't support multiple writers, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return db, nil
}

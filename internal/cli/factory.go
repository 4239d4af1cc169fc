// Package cli holds the shared wiring between the CLI commands: config
// to engine construction, and the interactive session loop.
package cli

import (
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/remedyhq/remedy"
	"github.com/remedyhq/remedy/internal/config"
	"github.com/remedyhq/remedy/internal/logging"
	"github.com/remedyhq/remedy/pkg/adapters/memory"
	"github.com/remedyhq/remedy/pkg/adapters/redis"
	"github.com/remedyhq/remedy/pkg/adapters/rules"
	"github.com/remedyhq/remedy/pkg/adapters/sqlite"
	"github.com/remedyhq/remedy/pkg/persistence/middleware"
	"github.com/remedyhq/remedy/pkg/ports"
)

// NewLogger builds the application logger from the log section.
func NewLogger(cfg config.Log) *slog.Logger {
	return logging.New(logging.ParseLevel(cfg.Level), logging.Format(cfg.Format))
}

// BuildEngine wires the configured store, persistence middleware, and
// locking into an engine. The returned close function releases store
// connections and must be called on shutdown.
func BuildEngine(cfg config.Config, logger *slog.Logger, opts ...remedy.Option) (*remedy.Engine, func() error, error) {
	store, locker, closeStore, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	engineOpts := []remedy.Option{
		remedy.WithConfig(cfg.Engine.Runtime()),
		remedy.WithLogger(logger),
	}
	if locker != nil {
		engineOpts = append(engineOpts, remedy.WithLocker(locker))
	}
	engineOpts = append(engineOpts, opts...)

	eng, err := remedy.New(store, rules.NewAdapterSet(), engineOpts...)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return eng, closeStore, nil
}

func buildStore(cfg config.Config) (ports.CheckpointStore, ports.DistributedLocker, func() error, error) {
	var (
		store      ports.CheckpointStore
		locker     ports.DistributedLocker
		closeStore = func() error { return nil }
	)

	switch cfg.Store.Kind {
	case "memory":
		store = memory.NewStore()

	case "redis":
		rc := cfg.Store.Redis
		client := goredis.NewClient(&goredis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		redisOpts := []redis.Option{redis.WithPrefix(rc.Prefix)}
		if rc.TTL > 0 {
			redisOpts = append(redisOpts, redis.WithTTL(rc.TTL))
		}
		rs := redis.NewFromClient(client, redisOpts...)
		store, closeStore = rs, rs.Close
		if rc.Lock {
			locker = redis.NewLocker(client, rc.Prefix)
		}

	case "sqlite":
		ss, err := sqlite.New(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		store, closeStore = ss, ss.Close

	default:
		return nil, nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	var mws []middleware.Middleware
	if cfg.Privacy.MaskPII {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Privacy.PIIPatterns))
	}
	keys, err := cfg.Privacy.Keys()
	if err != nil {
		_ = closeStore()
		return nil, nil, nil, err
	}
	if len(keys) > 0 {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    keys[0],
			FallbackKeys: keys[1:],
		}))
	}
	store = middleware.Chain(store, mws...)

	return store, locker, closeStore, nil
}

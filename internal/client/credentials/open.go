package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventsplatform/internal/client/storage"
	"github.com/dmitrijs2005/eventsplatform/internal/filex"
	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var ErrUnknownBackend = errors.New("unknown credential store backend")

// Options selects and configures a Store backend.
type Options struct {
	Backend  string
	Path     string // sqlite file
	RedisURL string // redis://host:port/db
	Profile  string // redis hash suffix
}

// Open builds the configured Store. The returned close function releases the
// backend's resources and is never nil.
func Open(ctx context.Context, o Options) (Store, func() error, error) {
	noop := func() error { return nil }

	switch o.Backend {
	case "", BackendSQLite:
		if err := filex.EnsureParentDir(o.Path); err != nil {
			return nil, noop, err
		}
		db, err := storage.Open(ctx, o.Path)
		if err != nil {
			return nil, noop, err
		}
		return NewSQLiteStore(db), db.Close, nil

	case BackendRedis:
		opts, err := redis.ParseURL(o.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		profile := o.Profile
		if profile == "" {
			profile = "default"
		}
		return NewRedisStore(client, profile), client.Close, nil

	case BackendMemory:
		return NewMemoryStore(), noop, nil

	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownBackend, o.Backend)
	}
}

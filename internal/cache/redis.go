// Package cache owns the process-wide Redis client and the cache-aside helpers built on it.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"socialpost/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

// instrument counts failed commands per command name. redis.Nil is a miss, not a failure.
type instrument struct{}

func (instrument) DialHook(next redis.DialHook) redis.DialHook { return next }

func (instrument) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (instrument) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(name string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		middleware.RedisErrors.WithLabelValues(name).Inc()
	}
}

func options(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// InitRedis connects to addr (host:port or redis:// URL) and installs the client.
// When Redis is unreachable it returns nil and the service runs without cache,
// token revocation or pub/sub.
func InitRedis(addr string) *redis.Client {
	client = nil

	opts, err := options(addr)
	if err != nil {
		middleware.Logger.Warn("invalid REDIS_URL, continuing without cache", slog.String("error", err.Error()))
		return nil
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without cache",
			slog.String("addr", opts.Addr), slog.String("error", err.Error()))
		_ = rdb.Close()
		return nil
	}

	SetClient(rdb)
	middleware.Logger.Info("Redis connected", slog.String("addr", opts.Addr))
	return rdb
}

// GetClient returns the installed client, or nil when Redis is not in use.
func GetClient() *redis.Client {
	return client
}

// SetClient installs rdb as the process client. Tests use it with miniredis.
func SetClient(rdb *redis.Client) {
	if rdb != nil {
		rdb.AddHook(instrument{})
	}
	client = rdb
}

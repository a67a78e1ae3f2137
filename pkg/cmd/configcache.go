package cmd

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/flowplane/flowplane/pkg/configcache"
)

// NewConfigCache builds the draft cache. With a Redis URL drafts survive
// restarts and are shared across instances; without one they are scoped to
// the process.
//
// nolint:ireturn
func NewConfigCache(logger *slog.Logger, redisURL, scope string) configcache.Store {
	if redisURL == "" {
		return configcache.NewMemoryStore()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse Redis URL: %w", err))
	}

	logger.Info("Using Redis config cache", "scope", scope)

	return configcache.NewRedisStore(redis.NewClient(opts), scope)
}

package configcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowplane/flowplane/pkg/models"
)

const defaultDraftTTL = 24 * time.Hour

// RedisStore persists parameter drafts in Redis so drafts survive editor
// restarts and are shared across API instances. Keys are scoped by a
// session prefix so clearing one workflow's drafts cannot evict another's.
type RedisStore struct {
	client *redis.Client
	scope  string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed config cache for the given scope
// (typically the workflow id, or "session" for unsaved workflows).
func NewRedisStore(client *redis.Client, scope string) *RedisStore {
	return &RedisStore{client: client, scope: scope, ttl: defaultDraftTTL}
}

func (s *RedisStore) key(nodeID string) string {
	return "flowplane:drafts:" + s.scope + ":" + nodeID
}

func (s *RedisStore) Save(ctx context.Context, nodeID string, parameters models.Parameters) error {
	payload, err := json.Marshal(parameters)
	if err != nil {
		return fmt.Errorf("failed to encode draft for node %s: %w", nodeID, err)
	}

	if err := s.client.Set(ctx, s.key(nodeID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft for node %s: %w", nodeID, err)
	}

	return nil
}

func (s *RedisStore) Load(ctx context.Context, nodeID string) (models.Parameters, bool, error) {
	payload, err := s.client.Get(ctx, s.key(nodeID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to load draft for node %s: %w", nodeID, err)
	}

	var parameters models.Parameters
	if err := json.Unmarshal(payload, &parameters); err != nil {
		return nil, false, fmt.Errorf("failed to decode draft for node %s: %w", nodeID, err)
	}

	return parameters, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, nodeID string) error {
	if err := s.client.Del(ctx, s.key(nodeID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft for node %s: %w", nodeID, err)
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64

	for {
		keys, next, err := s.client.Scan(ctx, cursor, "flowplane:drafts:"+s.scope+":*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan drafts for scope %s: %w", s.scope, err)
		}

		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to clear drafts for scope %s: %w", s.scope, err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

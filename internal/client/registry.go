package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionTTL = 300 * time.Second

// Registry records live connections in Redis so that several lfsboard
// processes can see each other's clients. A nil Registry does nothing.
type Registry struct {
	redis    *redis.Client
	instance string
	logger   *zap.Logger
}

// NewRegistry creates a registry for one process instance
func NewRegistry(redisClient *redis.Client, instance string, logger *zap.Logger) *Registry {
	return &Registry{redis: redisClient, instance: instance, logger: logger}
}

func (r *Registry) key(name string) string {
	return fmt.Sprintf("lfsboard:sess:%s:%s", r.instance, name)
}

// Register stores the status of a newly connected client
func (r *Registry) Register(ctx context.Context, status Status) {
	if r == nil {
		return
	}

	data, err := json.Marshal(status)
	if err != nil {
		return
	}

	if err := r.redis.Set(ctx, r.key(status.Name), data, sessionTTL).Err(); err != nil {
		r.logger.Warn("Failed to register session", zap.String("client", status.Name), zap.Error(err))
		return
	}
	r.logger.Debug("Session registered", zap.String("key", r.key(status.Name)))
}

// Touch extends the session TTL; called on every keep-alive
func (r *Registry) Touch(ctx context.Context, name string) {
	if r == nil {
		return
	}
	r.redis.Expire(ctx, r.key(name), sessionTTL)
}

// Remove deletes the session of a disconnected client
func (r *Registry) Remove(ctx context.Context, name string) {
	if r == nil {
		return
	}
	r.redis.Del(ctx, r.key(name))
}

// List returns the sessions of every instance
func (r *Registry) List(ctx context.Context) ([]Status, error) {
	if r == nil {
		return nil, nil
	}

	keys, err := r.redis.Keys(ctx, "lfsboard:sess:*").Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]Status, 0, len(keys))
	for _, key := range keys {
		data, err := r.redis.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var status Status
		if err := json.Unmarshal(data, &status); err != nil {
			continue
		}
		sessions = append(sessions, status)
	}
	return sessions, nil
}

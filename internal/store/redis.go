// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"autoflow/internal/common/logger"
	"autoflow/internal/models"
)

// RedisBackend keeps the collection as one JSON value under a single key.
// Corrupt content is copied to a timestamped side key before the backend
// recovers with an empty collection.
type RedisBackend struct {
	client *redis.Client
	key    string
	log    logger.Logger
}

func NewRedisBackend(client *redis.Client, key string, log logger.Logger) *RedisBackend {
	return &RedisBackend{client: client, key: key, log: log}
}

func (b *RedisBackend) Load(ctx context.Context) ([]models.CreditApplication, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", b.key, err)
	}

	var apps []models.CreditApplication
	if err := json.Unmarshal(data, &apps); err != nil {
		backup := fmt.Sprintf("%s.corrupt-%s", b.key, time.Now().UTC().Format("20060102T150405"))
		if setErr := b.client.Set(ctx, backup, data, 0).Err(); setErr != nil {
			backup = ""
		}
		_ = b.client.Del(ctx, b.key).Err()
		b.log.Error("store key is corrupt, recovering with empty collection", map[string]interface{}{
			"key":    b.key,
			"backup": backup,
			"error":  err.Error(),
		})
		return nil, nil
	}
	return apps, nil
}

func (b *RedisBackend) Save(ctx context.Context, apps []models.CreditApplication) error {
	if apps == nil {
		apps = []models.CreditApplication{}
	}
	data, err := json.Marshal(apps)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", b.key, err)
	}
	return nil
}

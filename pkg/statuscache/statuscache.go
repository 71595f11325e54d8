// Package statuscache persists per-document processing updates in Redis so
// status survives orchestrator restarts and is visible to other consumers.
// The cache is optional: a nil *Cache is a no-op.
package statuscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scanvault/orchestrator/internal/models"
)

const keyPrefix = "doc_status:"

type Config struct {
	Addr string
	DB   int
	TTL  time.Duration
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis. An empty Addr returns (nil, nil): caching disabled.
func New(cfg Config) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{client: client, ttl: ttl}, nil
}

// SaveUpdate writes the latest update for a document with the configured TTL.
func (c *Cache) SaveUpdate(ctx context.Context, documentID string, update models.ProcessingUpdate) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+documentID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("save update for %s: %w", documentID, err)
	}
	return nil
}

// GetUpdate returns the cached update for a document, or (nil, nil) if none.
func (c *Cache) GetUpdate(ctx context.Context, documentID string) (*models.ProcessingUpdate, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, keyPrefix+documentID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get update for %s: %w", documentID, err)
	}
	var update models.ProcessingUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return nil, fmt.Errorf("unmarshal update for %s: %w", documentID, err)
	}
	return &update, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

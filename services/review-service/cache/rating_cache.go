// Package cache keeps provider ratings in redis in front of the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yashrajoria/freelance-marketplace/services/review-service/models"

	"github.com/redis/go-redis/v9"
)

type RatingCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, providerID int64) (*models.ProviderRating, error)
	Set(ctx context.Context, rating *models.ProviderRating) error
}

type redisRatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRatingCache(client *redis.Client, ttl time.Duration) RatingCache {
	return &redisRatingCache{client: client, ttl: ttl}
}

// NewRedisClient accepts either a redis:// URL or a host:port address.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (c *redisRatingCache) key(providerID int64) string {
	return fmt.Sprintf("rating:provider:%d", providerID)
}

func (c *redisRatingCache) Get(ctx context.Context, providerID int64) (*models.ProviderRating, error) {
	data, err := c.client.Get(ctx, c.key(providerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rating models.ProviderRating
	if err := json.Unmarshal(data, &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

func (c *redisRatingCache) Set(ctx context.Context, rating *models.ProviderRating) error {
	data, err := json.Marshal(rating)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(rating.ProviderID), data, c.ttl).Err()
}

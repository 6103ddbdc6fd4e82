// Package redisx connects to the optional Redis that replicas share as a second
// cache tier and as the rate limiter's counter store.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fontier-admin/internal/config"
)

// Client is an alias for a Redis client
type Client = redis.Client

const clientName = "fontier-admin"

// Open connects and pings. An empty address disables Redis: the client is nil and
// the closer is a no-op.
func Open(cfg *config.Config) (*Client, func(), error) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		ClientName:   clientName,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, func() {}, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, func() { _ = rdb.Close() }, nil
}

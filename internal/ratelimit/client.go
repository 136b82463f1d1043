// Package ratelimit provides redis-backed token buckets and advisory
// locks. Everything degrades to no-ops when redis is not configured so
// a single-node deployment needs no extra infrastructure.
package ratelimit

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/societyos/upkeep/internal/config"
)

// NewClient returns nil when no redis address is configured. Consumers
// treat a nil client as "limiting disabled".
func NewClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
}

package cache

import (
	"context"
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/pkg/config"
)

// BytesCache stores serialized responses with a TTL. A miss is not an error.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// memoryL1TTL caps how long a layered L1 entry may outlive the L2 entry.
const memoryL1TTL = 5 * time.Second

// New builds the cache from config: memory only, or memory layered over
// Redis when Redis is enabled.
func New(cfg *config.Config) BytesCache {
	mem := NewMemory()
	if !cfg.Cache.Redis.Enabled {
		return mem
	}
	rds := NewRedis(RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	return NewLayered(mem, rds)
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// ProfileCache shares fetched social profiles between server instances.
type ProfileCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewProfileCache(ctx context.Context, log *logger.Logger, cfg Config) (*ProfileCache, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, apierr.Configuration("redis_missing_addr", errors.New("missing REDIS_ADDR"))
	}
	if log == nil {
		log = logger.Nop()
	}
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "spiritanimal:social:"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, apierr.Configuration("redis_unreachable", fmt.Errorf("redis ping: %w", err))
	}
	return &ProfileCache{log: log.With("service", "RedisProfileCache"), rdb: rdb, prefix: prefix}, nil
}

// Get reports a miss on any error; the cache is never load-bearing.
func (c *ProfileCache) Get(ctx context.Context, key string) (*spirit.SocialProfile, bool) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("Redis get failed", "error", err)
		}
		return nil, false
	}
	var p spirit.SocialProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		c.log.Warn("Redis profile decode failed", "error", err)
		return nil, false
	}
	return &p, true
}

func (c *ProfileCache) Set(ctx context.Context, key string, p spirit.SocialProfile, ttl time.Duration) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		c.log.Warn("Redis set failed", "error", err)
	}
}

func (c *ProfileCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSeen records processed envelope ids with SETNX.
type RedisSeen struct {
	rds *redis.Client
	ttl time.Duration
}

func NewRedisSeen(rds *redis.Client, ttl time.Duration) *RedisSeen {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSeen{rds: rds, ttl: ttl}
}

func (s *RedisSeen) First(ctx context.Context, id string) (bool, error) {
	return s.rds.SetNX(ctx, "dedupe:env:"+id, 1, s.ttl).Result()
}

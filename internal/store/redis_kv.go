package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "quizmate"

// RedisKV keeps each tier in one Redis hash named "<prefix>:<tier>".
type RedisKV struct {
	rdb    *goredis.Client
	prefix string
}

// OpenRedis connects to addr and verifies the connection with a ping.
func OpenRedis(ctx context.Context, addr, prefix string) (*RedisKV, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisKV{rdb: rdb, prefix: prefix}, nil
}

// Close releases the client.
func (r *RedisKV) Close() error {
	return r.rdb.Close()
}

func (r *RedisKV) hash(tier Tier) string {
	return r.prefix + ":" + string(tier)
}

func (r *RedisKV) Get(ctx context.Context, tier Tier, key string) ([]byte, error) {
	if err := checkTier(tier); err != nil {
		return nil, err
	}
	v, err := r.rdb.HGet(ctx, r.hash(tier), key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", tier, key, err)
	}
	return v, nil
}

// Set measures the tier before writing. The check and the write are not
// atomic; concurrent writers may briefly overshoot the quota.
func (r *RedisKV) Set(ctx context.Context, tier Tier, key string, value []byte) error {
	if err := checkTier(tier); err != nil {
		return err
	}
	all, err := r.rdb.HGetAll(ctx, r.hash(tier)).Result()
	if err != nil {
		return fmt.Errorf("measure %s: %w", tier, err)
	}
	var used int64
	for k, v := range all {
		if k == key {
			continue
		}
		used += int64(len(k) + len(v))
	}
	if used+int64(len(key)+len(value)) > tier.Quota() {
		return fmt.Errorf("set %s/%s: %w", tier, key, ErrQuotaExceeded)
	}
	if err := r.rdb.HSet(ctx, r.hash(tier), key, value).Err(); err != nil {
		return fmt.Errorf("set %s/%s: %w", tier, key, err)
	}
	return nil
}

func (r *RedisKV) Remove(ctx context.Context, tier Tier, key string) error {
	if err := checkTier(tier); err != nil {
		return err
	}
	if err := r.rdb.HDel(ctx, r.hash(tier), key).Err(); err != nil {
		return fmt.Errorf("remove %s/%s: %w", tier, key, err)
	}
	return nil
}

func (r *RedisKV) Clear(ctx context.Context, tier Tier) error {
	if err := checkTier(tier); err != nil {
		return err
	}
	if err := r.rdb.Del(ctx, r.hash(tier)).Err(); err != nil {
		return fmt.Errorf("clear %s: %w", tier, err)
	}
	return nil
}

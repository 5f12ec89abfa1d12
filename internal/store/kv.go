package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Tier selects one of the two storage areas. They differ only in quota.
type Tier string

const (
	// Sync is the small tier for settings that would follow the user
	// between machines (API key, toggles).
	Sync Tier = "sync"
	// Local holds the answer cache and wrong-answer records.
	Local Tier = "local"
)

// Quotas in bytes, counted as the sum of key and value lengths in a tier.
const (
	SyncQuota  = 102400
	LocalQuota = 10 * 1024 * 1024
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by Set when the write would push the
	// tier over its quota. Nothing is written.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Quota returns the byte quota of a tier.
func (t Tier) Quota() int64 {
	if t == Sync {
		return SyncQuota
	}
	return LocalQuota
}

// Valid reports whether t names a known tier.
func (t Tier) Valid() bool {
	return t == Sync || t == Local
}

// KV is an asynchronous key-value store with two tiers.
type KV interface {
	Get(ctx context.Context, tier Tier, key string) ([]byte, error)
	Set(ctx context.Context, tier Tier, key string, value []byte) error
	Remove(ctx context.Context, tier Tier, key string) error
	Clear(ctx context.Context, tier Tier) error
}

// GetJSON decodes the value under key into v. It reports false without
// error when the key is absent.
func GetJSON(ctx context.Context, kv KV, tier Tier, key string, v any) (bool, error) {
	raw, err := kv.Get(ctx, tier, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", tier, key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, kv KV, tier Tier, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", tier, key, err)
	}
	return kv.Set(ctx, tier, key, raw)
}

func checkTier(t Tier) error {
	if !t.Valid() {
		return fmt.Errorf("unknown storage tier %q", t)
	}
	return nil
}

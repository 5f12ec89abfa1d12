// Package cache memoizes solved questions in the local storage tier.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/quizmate/internal/logger"
	"github.com/abhisek/quizmate/internal/store"
)

const (
	// StorageKey is the local-tier key holding the whole cache map.
	StorageKey = "answerCache"
	// MaxEntries caps the number of cached questions.
	MaxEntries = 50
)

// Entry is a cached answer bundle.
type Entry struct {
	Answers     []string `json:"answers"`
	Explanation string   `json:"explanation,omitempty"`
	Confidence  int      `json:"confidence"`
	Timestamp   int64    `json:"timestamp"`
}

// Cache maps question+options fingerprints to entries. Storage failures
// never surface: reads degrade to a miss, writes are logged and dropped. A
// write over quota evicts the oldest half and retries once.
type Cache struct {
	kv  store.KV
	log *logger.Logger
	now func() time.Time
}

// New creates a Cache on top of kv.
func New(kv store.KV, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{kv: kv, log: log, now: time.Now}
}

// Get returns the entry for hash, if any.
func (c *Cache) Get(ctx context.Context, hash string) (*Entry, bool) {
	entries, err := c.load(ctx)
	if err != nil {
		c.log.Warn("cache: read failed", "error", err)
		return nil, false
	}
	e, ok := entries[hash]
	if !ok {
		return nil, false
	}
	return &e, true
}

// Set inserts or overwrites the entry for hash, stamping the current time.
// Inserting a new key into a full cache evicts the oldest entry first.
func (c *Cache) Set(ctx context.Context, hash string, e Entry) {
	entries, err := c.load(ctx)
	if err != nil {
		c.log.Warn("cache: read before write failed", "error", err)
		return
	}

	e.Timestamp = c.now().UnixMilli()
	if _, exists := entries[hash]; !exists {
		for len(entries) >= MaxEntries {
			oldest := oldestKey(entries)
			c.log.Debug("cache: evicting", "hash", oldest)
			delete(entries, oldest)
		}
	}
	entries[hash] = e

	err = store.SetJSON(ctx, c.kv, store.Local, StorageKey, entries)
	if errors.Is(err, store.ErrQuotaExceeded) {
		dropped := shrink(entries, hash)
		c.log.Warn("cache: storage quota exceeded; evicted oldest entries", "evicted", dropped, "kept", len(entries))
		err = store.SetJSON(ctx, c.kv, store.Local, StorageKey, entries)
		if errors.Is(err, store.ErrQuotaExceeded) {
			c.log.Error("cache: storage quota still exceeded; answer not cached", "hash", hash)
			return
		}
	}
	if err != nil {
		c.log.Warn("cache: write failed", "hash", hash, "error", err)
	}
}

// shrink evicts the oldest half of the entries other than keep, at least
// one, and returns how many went.
func shrink(entries map[string]Entry, keep string) int {
	n := max((len(entries)-1)/2, 1)
	kept := entries[keep]
	delete(entries, keep)
	dropped := 0
	for ; dropped < n && len(entries) > 0; dropped++ {
		delete(entries, oldestKey(entries))
	}
	entries[keep] = kept
	return dropped
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.kv.Remove(ctx, store.Local, StorageKey)
}

// Len returns the number of cached entries, zero when storage is unreadable.
func (c *Cache) Len(ctx context.Context) int {
	entries, err := c.load(ctx)
	if err != nil {
		return 0
	}
	return len(entries)
}

func (c *Cache) load(ctx context.Context) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	if _, err := store.GetJSON(ctx, c.kv, store.Local, StorageKey, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return entries, nil
}

// oldestKey scans for the smallest timestamp. Ties resolve to whichever key
// map iteration reaches first.
func oldestKey(entries map[string]Entry) string {
	var key string
	var ts int64
	first := true
	for k, e := range entries {
		if first || e.Timestamp < ts {
			key, ts, first = k, e.Timestamp, false
		}
	}
	return key
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/quizmate/internal/logger"
	"github.com/abhisek/quizmate/internal/store"
)

func newTestCache(t *testing.T) (*Cache, store.KV) {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	c := New(s.KV(), nil)
	clock := time.UnixMilli(1_700_000_000_000)
	c.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}
	return c, s.KV()
}

func TestGetMiss(t *testing.T) {
	c, _ := newTestCache(t)
	_, ok := c.Get(context.Background(), "123")
	assert.False(t, ok)
}

func TestSetGetStampsTime(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "h1", Entry{Answers: []string{"Paris"}, Explanation: "capital", Confidence: 100, Timestamp: 5})
	e, ok := c.Get(ctx, "h1")
	require.True(t, ok)
	assert.Equal(t, []string{"Paris"}, e.Answers)
	assert.Equal(t, "capital", e.Explanation)
	assert.Equal(t, 100, e.Confidence)
	assert.Greater(t, e.Timestamp, int64(5))
}

func TestSetOverwrites(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "h1", Entry{Answers: []string{"A"}})
	c.Set(ctx, "h1", Entry{Answers: []string{"B"}})
	e, ok := c.Get(ctx, "h1")
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, e.Answers)
	assert.Equal(t, 1, c.Len(ctx))
}

func TestEvictsOldestAtCap(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < MaxEntries; i++ {
		c.Set(ctx, fmt.Sprintf("h%d", i), Entry{Answers: []string{"x"}})
	}
	require.Equal(t, MaxEntries, c.Len(ctx))

	// Refresh h0 so h1 becomes the oldest.
	c.Set(ctx, "h0", Entry{Answers: []string{"y"}})
	require.Equal(t, MaxEntries, c.Len(ctx))

	c.Set(ctx, "new", Entry{Answers: []string{"z"}})
	assert.Equal(t, MaxEntries, c.Len(ctx))

	_, ok := c.Get(ctx, "h1")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = c.Get(ctx, "h0")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "new")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "h1", Entry{Answers: []string{"A"}})
	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len(ctx))
}

func TestCorruptStorageIsAMiss(t *testing.T) {
	c, kv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, store.Local, StorageKey, []byte("not json")))
	_, ok := c.Get(ctx, "h1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(ctx))
}

type failingKV struct {
	getErr error
	setErr error
}

func (f failingKV) Get(context.Context, store.Tier, string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return nil, store.ErrNotFound
}

func (f failingKV) Set(context.Context, store.Tier, string, []byte) error { return f.setErr }
func (f failingKV) Remove(context.Context, store.Tier, string) error      { return nil }
func (f failingKV) Clear(context.Context, store.Tier) error               { return nil }

func TestStorageFailuresDegrade(t *testing.T) {
	ctx := context.Background()

	c := New(failingKV{getErr: errors.New("disk on fire")}, nil)
	_, ok := c.Get(ctx, "h")
	assert.False(t, ok)
	assert.NotPanics(t, func() { c.Set(ctx, "h", Entry{Answers: []string{"A"}}) })

	c = New(failingKV{setErr: errors.New("read-only")}, nil)
	assert.NotPanics(t, func() { c.Set(ctx, "h", Entry{Answers: []string{"A"}}) })
}

// quotaKV rejects the next reject writes with ErrQuotaExceeded.
type quotaKV struct {
	store.KV
	reject int
}

func (q *quotaKV) Set(ctx context.Context, tier store.Tier, key string, value []byte) error {
	if q.reject > 0 {
		q.reject--
		return store.ErrQuotaExceeded
	}
	return q.KV.Set(ctx, tier, key, value)
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestQuotaExceededEvictsOldestHalfAndRetries(t *testing.T) {
	base, kv := newTestCache(t)
	ctx := context.Background()
	for i := range 10 {
		base.Set(ctx, fmt.Sprintf("h%d", i), Entry{Answers: []string{"x"}})
	}

	log, logs := observedLogger()
	qkv := &quotaKV{KV: kv, reject: 1}
	c := New(qkv, log)
	c.now = base.now

	c.Set(ctx, "new", Entry{Answers: []string{"z"}})

	assert.Equal(t, 6, c.Len(ctx))
	_, ok := c.Get(ctx, "new")
	assert.True(t, ok)
	for i := range 5 {
		_, ok := c.Get(ctx, fmt.Sprintf("h%d", i))
		assert.False(t, ok, "h%d should be evicted", i)
	}
	_, ok = c.Get(ctx, "h9")
	assert.True(t, ok)
	assert.Equal(t, 1, logs.FilterMessageSnippet("storage quota exceeded").Len())
	assert.Zero(t, logs.FilterMessage("cache: write failed").Len())
}

func TestQuotaStillExceededIsLoggedDistinctly(t *testing.T) {
	ctx := context.Background()

	log, logs := observedLogger()
	New(failingKV{setErr: store.ErrQuotaExceeded}, log).Set(ctx, "h", Entry{Answers: []string{"A"}})
	assert.Equal(t, 1, logs.FilterMessage("cache: storage quota still exceeded; answer not cached").Len())
	assert.Zero(t, logs.FilterMessage("cache: write failed").Len())

	log, logs = observedLogger()
	New(failingKV{setErr: errors.New("read-only")}, log).Set(ctx, "h", Entry{Answers: []string{"A"}})
	assert.Equal(t, 1, logs.FilterMessage("cache: write failed").Len())
	assert.Zero(t, logs.FilterMessageSnippet("quota").Len())
}

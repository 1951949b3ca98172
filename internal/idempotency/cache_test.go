package idempotency

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joltsms/joltsms-mcp/internal/clock"
)

func newTestCache(t *testing.T) (*Cache, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC))
	return New(WithClock(fake)), fake
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "provision:650", Fingerprint("650"))
	assert.Equal(t, "provision:any", Fingerprint(""))
}

func TestCache_ReusesTokenWithinTTL(t *testing.T) {
	cache, fake := newTestCache(t)

	first, reused := cache.GetOrCreate(Fingerprint("650"))
	require.NotEmpty(t, first)
	assert.False(t, reused)

	fake.Advance(4 * time.Minute)

	second, reused := cache.GetOrCreate(Fingerprint("650"))
	assert.True(t, reused)
	assert.Equal(t, first, second)
}

func TestCache_DistinctFingerprints(t *testing.T) {
	cache, _ := newTestCache(t)

	a, _ := cache.GetOrCreate(Fingerprint("650"))
	b, _ := cache.GetOrCreate(Fingerprint("415"))
	any1, _ := cache.GetOrCreate(Fingerprint(""))

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, any1)
	assert.Equal(t, 3, cache.Len())
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	cache, fake := newTestCache(t)

	first, _ := cache.GetOrCreate(Fingerprint("650"))
	fake.Advance(DefaultTTL)

	assert.Equal(t, 0, cache.Len(), "timer should evict the entry at the deadline")

	second, reused := cache.GetOrCreate(Fingerprint("650"))
	assert.False(t, reused)
	assert.NotEqual(t, first, second)
}

func TestCache_ReleaseMintsFreshToken(t *testing.T) {
	cache, _ := newTestCache(t)

	first, _ := cache.GetOrCreate(Fingerprint(""))
	cache.Release(Fingerprint(""))
	assert.Equal(t, 0, cache.Len())

	second, reused := cache.GetOrCreate(Fingerprint(""))
	assert.False(t, reused)
	assert.NotEqual(t, first, second)
}

func TestCache_ReleaseUnknownIsNoop(t *testing.T) {
	cache, _ := newTestCache(t)
	cache.Release(Fingerprint("999"))
	assert.Equal(t, 0, cache.Len())
}

func TestCache_StaleTimerDoesNotEvictNewEntry(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC))
	ids := 0
	cache := New(WithClock(fake))
	cache.newID = func() string {
		ids++
		return fmt.Sprintf("token-%d", ids)
	}

	_, _ = cache.GetOrCreate(Fingerprint("650"))
	// A stale callback for a previous token must leave the current one alone.
	cache.expire(Fingerprint("650"), "token-0")

	token, reused := cache.GetOrCreate(Fingerprint("650"))
	assert.True(t, reused)
	assert.Equal(t, "token-1", token)
}

func TestCache_CustomTTL(t *testing.T) {
	fake := clock.NewFake(time.Now())
	cache := New(WithClock(fake), WithTTL(time.Minute))

	_, _ = cache.GetOrCreate("k")
	fake.Advance(59 * time.Second)
	assert.Equal(t, 1, cache.Len())
	fake.Advance(time.Second)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_ConcurrentGetOrCreate(t *testing.T) {
	cache := New()

	const workers = 16
	tokens := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], _ = cache.GetOrCreate(Fingerprint("650"))
		}(i)
	}
	wg.Wait()

	for _, tok := range tokens {
		assert.Equal(t, tokens[0], tok, "all concurrent callers must share one token")
	}
}

package profanity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingSource struct{}

func (failingSource) Words(context.Context) ([]string, error) {
	return nil, errors.New("source down")
}

type countingSource struct {
	words []string
	calls int
}

func (s *countingSource) Words(context.Context) ([]string, error) {
	s.calls++
	return s.words, nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context) ([]string, bool, error) {
	return nil, false, errors.New("cache down")
}

func (brokenCache) Set(context.Context, []string) error { return errors.New("cache down") }

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestFilterFind(t *testing.T) {
	f := New(StaticSource{"darn", "Heck", "darn"}, nil, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, []string{"heck", "darn"}, f.Find(ctx, "Heck, what a DARN day. darn it, heck."))
	assert.Empty(t, f.Find(ctx, "darned hecklers are fine"))
	assert.Empty(t, f.Find(ctx, ""))
}

func TestFilterContains(t *testing.T) {
	f := New(StaticSource{"darn"}, nil, zap.NewNop())
	ctx := context.Background()

	assert.True(t, f.Contains(ctx, "oh DARN"))
	assert.False(t, f.Contains(ctx, "darned"))
}

func TestFilterClean(t *testing.T) {
	f := New(StaticSource{"darn", "heck", "a.b"}, nil, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, "Well **** it, ****!", f.Clean(ctx, "Well darn it, HECK!"))
	assert.Equal(t, "*** but not axb", f.Clean(ctx, "a.b but not axb"))
	assert.Equal(t, "nothing to see", f.Clean(ctx, "nothing to see"))
}

func TestFilterPrefersLongerWords(t *testing.T) {
	f := New(StaticSource{"ass", "asshole"}, nil, zap.NewNop())

	assert.Equal(t, []string{"asshole"}, f.Find(context.Background(), "what an asshole"))
}

func TestFilterEmptyListFallsBackToBuiltinList(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing configured yet\n\n"), 0o600))

	for name, source := range map[string]WordSource{
		"static": StaticSource{},
		"file":   FileSource{Path: path},
	} {
		core, logs := observer.New(zap.WarnLevel)
		f := New(source, NewMemoryCache(time.Minute, nil), zap.New(core))

		assert.True(t, f.Contains(ctx, "damn"), name)
		assert.Equal(t, "****", f.Clean(ctx, "damn"), name)
		assert.Equal(t, 2, logs.FilterMessage("profanity word list is empty, using built-in list").Len(), name)
	}
}

func TestFilterReusesCompiledPattern(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	source := &countingSource{words: []string{"darn"}}
	f := New(source, NewMemoryCache(time.Minute, func() time.Time { return now }), zap.NewNop())
	ctx := context.Background()

	first := f.matcher(ctx)
	assert.Same(t, first, f.matcher(ctx))

	source.words = []string{"heck"}
	now = now.Add(time.Minute)

	second := f.matcher(ctx)
	assert.NotSame(t, first, second)
	assert.True(t, f.Contains(ctx, "heck"))
	assert.False(t, f.Contains(ctx, "darn"))
}

func TestFilterCheck(t *testing.T) {
	source := &countingSource{words: []string{"darn", "heck"}}
	f := New(source, nil, zap.NewNop())

	words, cleaned := f.Check(context.Background(), "Darn, heck and darn")
	assert.Equal(t, []string{"darn", "heck"}, words)
	assert.Equal(t, "****, **** and ****", cleaned)
	assert.Equal(t, 1, source.calls)
}

func TestFilterFallsBackToBuiltinList(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := New(failingSource{}, nil, zap.New(core))

	assert.True(t, f.Contains(context.Background(), "damn"))
	assert.Equal(t, 1, logs.FilterMessage("loading profanity word list failed, using built-in list").Len())
}

func TestFilterBypassesBrokenCache(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	source := &countingSource{words: []string{"darn"}}
	f := New(source, brokenCache{}, zap.New(core))

	assert.True(t, f.Contains(context.Background(), "darn"))
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, logs.FilterMessage("reading profanity cache failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("writing profanity cache failed").Len())
}

func TestFilterUsesMemoryCacheUntilExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Minute, func() time.Time { return now })
	source := &countingSource{words: []string{"darn"}}
	f := New(source, cache, zap.NewNop())
	ctx := context.Background()

	f.Contains(ctx, "darn")
	f.Contains(ctx, "darn")
	assert.Equal(t, 1, source.calls)

	now = now.Add(time.Minute)
	f.Contains(ctx, "darn")
	assert.Equal(t, 2, source.calls)
}

func TestMemoryCache(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(0, func() time.Time { return now })
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, []string{"darn"}))
	assert.Equal(t, now.Add(DefaultTTL), cache.ExpiresAt())

	words, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"darn"}, words)

	now = now.Add(DefaultTTL - time.Second)
	_, ok, _ = cache.Get(ctx)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = cache.Get(ctx)
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	mr, client := setupRedis(t)
	cache := NewRedisCache(client, "", 10*time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, []string{"darn", "heck"}))
	assert.True(t, mr.Exists(DefaultRedisKey))
	assert.Equal(t, 10*time.Minute, mr.TTL(DefaultRedisKey))

	words, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"darn", "heck"}, words)

	mr.FastForward(11 * time.Minute)
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheCorruptValue(t *testing.T) {
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set("words", "not json"))

	_, _, err := NewRedisCache(client, "words", time.Minute).Get(context.Background())
	assert.Error(t, err)
}

func TestFilterSharesWordsThroughRedis(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()

	first := &countingSource{words: []string{"darn"}}
	New(first, NewRedisCache(client, "shared", time.Minute), zap.NewNop()).Contains(ctx, "x")

	second := &countingSource{words: []string{"other"}}
	f := New(second, NewRedisCache(client, "shared", time.Minute), zap.NewNop())

	assert.True(t, f.Contains(ctx, "darn"))
	assert.Equal(t, 0, second.calls)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nDarn\n\n  heck  \ndarn\n"), 0o600))

	words, err := FileSource{Path: path}.Words(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"darn", "heck"}, words)
}

func TestFileSourceMissing(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.txt")}.Words(context.Background())
	assert.Error(t, err)
}

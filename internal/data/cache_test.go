package data

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResponseCache_GetSetExpire(t *testing.T) {
	c := NewResponseCache[int](time.Minute)
	defer c.Close()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.purge()
	assert.Equal(t, 0, c.Len())
}

func TestResponseCache_Clear(t *testing.T) {
	c := NewResponseCache[string](time.Minute)
	defer c.Close()

	c.Set("a", "x")
	c.Set("b", "y")
	assert.Equal(t, 2, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestResponseCache_NilDisabled(t *testing.T) {
	c := NewResponseCache[int](0)
	assert.Nil(t, c)

	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Close()
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("a", "b"), CacheKey("a", "b"))
	assert.NotEqual(t, CacheKey("a", "b"), CacheKey("b", "a"))
	assert.Len(t, CacheKey("x"), 64)
}

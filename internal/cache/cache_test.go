package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGet(t *testing.T) {
	c := NewCache[string, string](time.Minute, 10)

	c.Set("key", "value")

	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestGetMissing(t *testing.T) {
	c := NewCache[string, int](time.Minute, 10)

	got, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestExpiration(t *testing.T) {
	c := NewCache[string, string](time.Minute, 10)

	c.SetWithTTL("key", "value", 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestDelete(t *testing.T) {
	c := NewCache[string, string](time.Minute, 10)

	c.Set("key", "value")
	c.Delete("key")

	assert.False(t, c.Has("key"))
}

func TestClear(t *testing.T) {
	c := NewCache[string, string](time.Minute, 10)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Clear()

	assert.Equal(t, 0, c.Size())
}

func TestLRUEviction(t *testing.T) {
	c := NewCache[string, string](time.Minute, 2)

	c.Set("a", "1")
	time.Sleep(time.Millisecond)
	c.Set("b", "2")
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes the least recently used
	c.Get("a")
	time.Sleep(time.Millisecond)

	c.Set("c", "3")

	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("b"))
	assert.True(t, c.Has("c"))
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGet(t *testing.T) {
	c := NewMemory(time.Minute, 0)
	c.Set("k", "v", 0)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestGetMissing(t *testing.T) {
	c := NewMemory(time.Minute, 0)

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := NewMemory(time.Minute, 0)
	c.Set("k", "v", 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestDelete(t *testing.T) {
	c := NewMemory(time.Minute, 0)
	c.Set("k", "v", 0)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestEvictionAtCapacity(t *testing.T) {
	c := NewMemory(time.Minute, 2)
	c.Set("a", 1, time.Second)
	c.Set("b", 2, time.Minute)
	c.Set("c", 3, time.Minute)

	assert.Equal(t, 2, c.Len())

	// The entry closest to expiry is the one evicted.
	_, ok := c.Get("a")
	assert.False(t, ok)

	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := NewMemory(time.Minute, 2)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("a", 10, 0)

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, got)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

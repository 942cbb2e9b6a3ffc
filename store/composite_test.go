package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompositeRequiresOneStore(t *testing.T) {
	assert.Panics(t, func() { NewComposite() })
}

func TestCompositeFirstHitWins(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx, WithExpiryCheck(time.Minute))
	l2 := NewMemory(ctx, WithExpiryCheck(time.Minute))
	c := NewComposite(l1, l2)
	defer c.Close(ctx)

	assert.NoError(t, l2.Set(ctx, "key", "from-l2", time.Minute))
	found, val, err := c.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "from-l2", val)

	assert.NoError(t, l1.Set(ctx, "key", "from-l1", time.Minute))
	found, val, err = c.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "from-l1", val)
}

func TestCompositeWritesAll(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx, WithExpiryCheck(time.Minute))
	l2 := NewMemory(ctx, WithExpiryCheck(time.Minute))
	c := NewComposite(l1, l2)
	defer c.Close(ctx)

	assert.NoError(t, c.Set(ctx, "key", "value", time.Minute))
	for _, s := range []Store{l1, l2} {
		found, val, err := s.Get(ctx, "key")
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "value", val)
	}
}

func TestCompositeDeletesAll(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx, WithExpiryCheck(time.Minute))
	l2 := NewMemory(ctx, WithExpiryCheck(time.Minute))
	c := NewComposite(l1, l2)
	defer c.Close(ctx)

	assert.NoError(t, c.Set(ctx, "key", "value", time.Minute))
	found, err := c.Delete(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	for _, s := range []Store{l1, l2} {
		found, _, err := s.Get(ctx, "key")
		assert.NoError(t, err)
		assert.False(t, found)
	}
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSetGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:", WithExpiryCheck(time.Minute))
	require.NoError(t, err)
	defer s.Close(ctx)

	found, val, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	assert.NoError(t, s.Set(ctx, "key", "value", time.Minute))
	found, val, err = s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", val)
}

func TestSQLiteOverwrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:", WithExpiryCheck(time.Minute))
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.NoError(t, s.Set(ctx, "key", "one", time.Minute))
	assert.NoError(t, s.Set(ctx, "key", "two", time.Minute))
	found, val, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", val)
}

func TestSQLiteExpiry(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:", WithExpiryCheck(time.Minute))
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.NoError(t, s.Set(ctx, "key", "value", 10*time.Millisecond))
	time.Sleep(11 * time.Millisecond)
	found, val, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestSQLiteDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:", WithExpiryCheck(time.Minute))
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.NoError(t, s.Set(ctx, "key", "value", time.Minute))
	found, err := s.Delete(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	found, err = s.Delete(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	s, err := NewSQLite(ctx, dbPath, WithExpiryCheck(time.Minute))
	require.NoError(t, err)
	assert.NoError(t, s.Set(ctx, "key", "value", time.Hour))
	assert.NoError(t, s.Close(ctx))

	s, err = NewSQLite(ctx, dbPath, WithExpiryCheck(time.Minute))
	require.NoError(t, err)
	defer s.Close(ctx)
	found, val, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", val)
}

package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type redisStore struct {
	client *redis.Client
	cfg    config
}

var _ Store = (*redisStore)(nil)

// NewRedis returns a Store backed by Redis. Values are serialized to msgpack
// and expiry uses native Redis TTL. The caller owns the redis.Client
// lifecycle — Close is a no-op on the client.
func NewRedis(client *redis.Client, opts ...Option) Store {
	return &redisStore{
		client: client,
		cfg:    applyOptions(opts),
	}
}

func (s *redisStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.cfg.queryTimeout)
}

func (s *redisStore) prefixKey(key string) string {
	if s.cfg.prefix == "" {
		return key
	}
	return s.cfg.prefix + ":" + key
}

func (s *redisStore) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	data, err := s.client.Get(qctx, s.prefixKey(key)).Bytes()
	if err == redis.Nil {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	var val any
	if err := msgpack.Unmarshal(data, &val); err != nil {
		return false, nil, err
	}
	return true, val, nil
}

func (s *redisStore) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.cfg.defaultTTL
	}
	data, err := msgpack.Marshal(val)
	if err != nil {
		return err
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	return s.client.Set(qctx, s.prefixKey(key), data, ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	n, err := s.client.Del(qctx, s.prefixKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close is a no-op — the caller owns the redis.Client lifecycle.
func (s *redisStore) Close(_ context.Context) error {
	return nil
}

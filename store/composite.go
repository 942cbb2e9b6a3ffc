package store

import (
	"context"
	"time"
)

type compositeStore struct {
	stores []Store
}

var _ Store = (*compositeStore)(nil)

// NewComposite returns a Store that chains multiple stores together, for
// topologies such as in-memory L1 backed by Redis L2.
// Get checks stores in order and returns the first hit.
// Set and Delete apply to all stores.
// At least one store must be provided; panics if empty.
func NewComposite(stores ...Store) Store {
	if len(stores) == 0 {
		panic("store: NewComposite requires at least one store")
	}
	return &compositeStore{stores: stores}
}

func (c *compositeStore) Get(ctx context.Context, key string) (bool, any, error) {
	for _, s := range c.stores {
		found, val, err := s.Get(ctx, key)
		if err != nil {
			return false, nil, err
		}
		if found {
			return true, val, nil
		}
	}
	return false, nil, nil
}

func (c *compositeStore) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	var firstErr error
	for _, s := range c.stores {
		if err := s.Set(ctx, key, val, ttl); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *compositeStore) Delete(ctx context.Context, key string) (bool, error) {
	var deleted bool
	var firstErr error
	for _, s := range c.stores {
		found, err := s.Delete(ctx, key)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if found {
			deleted = true
		}
	}
	return deleted, firstErr
}

func (c *compositeStore) Close(ctx context.Context) error {
	var firstErr error
	for _, s := range c.stores {
		if err := s.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

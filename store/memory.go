package store

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	object  any
	expires time.Time
}

type memoryStore struct {
	ctx       context.Context
	cancel    context.CancelFunc
	values    map[string]*entry
	mutex     sync.Mutex
	waitGroup sync.WaitGroup
	once      sync.Once
	cfg       config
}

var _ Store = (*memoryStore)(nil)

// NewMemory returns a new in-memory Store. Values are held as-is with no
// serialization, so mutations to stored pointers are visible through the
// store. Expired entries are cleaned up by a background goroutine.
func NewMemory(parent context.Context, opts ...Option) Store {
	cfg := applyOptions(opts)
	ctx, cancel := context.WithCancel(parent)
	s := &memoryStore{
		ctx:    ctx,
		cancel: cancel,
		values: make(map[string]*entry),
		cfg:    cfg,
	}
	s.waitGroup.Add(1)
	go s.run()
	return s
}

func (s *memoryStore) Get(_ context.Context, key string) (bool, any, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	val, ok := s.values[key]
	if !ok {
		return false, nil, nil
	}
	if val.expires.Before(time.Now()) {
		delete(s.values, key)
		return false, nil, nil
	}
	return true, val.object, nil
}

func (s *memoryStore) Set(_ context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.cfg.defaultTTL
	}
	s.mutex.Lock()
	s.values[key] = &entry{val, time.Now().Add(ttl)}
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mutex.Lock()
	_, ok := s.values[key]
	if ok {
		delete(s.values, key)
	}
	s.mutex.Unlock()
	return ok, nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.once.Do(func() {
		s.cancel()
		s.waitGroup.Wait()
	})
	return nil
}

func (s *memoryStore) run() {
	defer s.waitGroup.Done()
	ticker := time.NewTicker(s.cfg.expiryCheck)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.mutex.Lock()
			for key, val := range s.values {
				if val.expires.Before(now) {
					delete(s.values, key)
				}
			}
			s.mutex.Unlock()
		}
	}
}

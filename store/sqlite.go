package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db        *sql.DB
	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	once      sync.Once
	cfg       config
}

var _ Store = (*sqliteStore)(nil)

// NewSQLite returns a Store backed by SQLite. If dbPath is empty or
// ":memory:", an in-memory database is used. Values are serialized to
// msgpack and stored as BLOBs; a background goroutine cleans up expired
// rows at the configured expiry-check interval.
func NewSQLite(ctx context.Context, dbPath string, opts ...Option) (Store, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS dbcache (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_dbcache_expires_at ON dbcache(expires_at)`); err != nil {
		db.Close()
		return nil, err
	}

	childCtx, cancel := context.WithCancel(ctx)
	s := &sqliteStore{
		db:     db,
		ctx:    childCtx,
		cancel: cancel,
		cfg:    applyOptions(opts),
	}

	s.waitGroup.Add(1)
	go s.run()

	return s, nil
}

func (s *sqliteStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.cfg.queryTimeout)
}

func (s *sqliteStore) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	now := time.Now().UnixNano()
	var data []byte
	var expiresAt int64
	err := s.db.QueryRowContext(qctx,
		`SELECT value, expires_at FROM dbcache WHERE key = ?`, key,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}

	if expiresAt < now {
		// Lazily delete the expired row.
		_, _ = s.db.ExecContext(qctx, `DELETE FROM dbcache WHERE key = ?`, key)
		return false, nil, nil
	}

	var val any
	if err := msgpack.Unmarshal(data, &val); err != nil {
		return false, nil, err
	}
	return true, val, nil
}

func (s *sqliteStore) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.cfg.defaultTTL
	}
	data, err := msgpack.Marshal(val)
	if err != nil {
		return err
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	expiresAt := time.Now().Add(ttl).UnixNano()
	_, err = s.db.ExecContext(qctx,
		`INSERT INTO dbcache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, data, expiresAt,
	)
	return err
}

func (s *sqliteStore) Delete(ctx context.Context, key string) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	result, err := s.db.ExecContext(qctx, `DELETE FROM dbcache WHERE key = ?`, key)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *sqliteStore) Close(_ context.Context) error {
	var dbErr error
	s.once.Do(func() {
		s.cancel()
		s.waitGroup.Wait()
		dbErr = s.db.Close()
	})
	return dbErr
}

func (s *sqliteStore) run() {
	defer s.waitGroup.Done()
	ticker := time.NewTicker(s.cfg.expiryCheck)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UnixNano()
			_, _ = s.db.Exec(`DELETE FROM dbcache WHERE expires_at < ?`, now)
		}
	}
}

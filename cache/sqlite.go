package cache

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cache_entries (
	key       TEXT PRIMARY KEY,
	data      BLOB NOT NULL,
	stored_at INTEGER NOT NULL
)`

// SQLiteStore guarda as entradas numa tabela do SQLite (driver puro Go).
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLiteStore abre (ou cria) o banco em path. ":memory:" é aceito.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite cache path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create cache schema")
	}
	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error) {
	if maxAge <= 0 {
		return nil, false, nil
	}
	var (
		data     []byte
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, stored_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&data, &storedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "select cache entry %s", key)
	}

	if expired(time.UnixMilli(storedAt), s.now(), maxAge) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
			return nil, false, errors.Wrapf(err, "delete stale entry %s", key)
		}
		return nil, false, nil
	}
	return data, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, data, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, stored_at = excluded.stored_at`,
		key, data, s.now().UnixMilli(),
	)
	return errors.Wrapf(err, "upsert cache entry %s", key)
}

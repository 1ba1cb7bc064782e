package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS translations (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

// SQLiteCache is a translation cache persisted in an SQLite database, so a
// restarted process starts warm.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// SQLiteConfig holds configuration for the SQLite cache.
type SQLiteConfig struct {
	Path string // database file, or ":memory:"
	TTL  int    // TTL in seconds (0 = no expiration)
}

// NewSQLiteCache opens (and if needed creates) the cache database.
func NewSQLiteCache(cfg SQLiteConfig) (*SQLiteCache, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	c, err := NewSQLiteCacheFromDB(db, cfg.TTL)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewSQLiteCacheFromDB creates the cache table in an existing database.
func NewSQLiteCacheFromDB(db *sql.DB, ttlSeconds int) (*SQLiteCache, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}
	return &SQLiteCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get retrieves a value. Expired rows and errors read as a miss.
func (c *SQLiteCache) Get(key string) (string, bool) {
	var (
		value   string
		created int64
	)
	err := c.db.QueryRow(`SELECT value, created_at FROM translations WHERE key = ?`, key).Scan(&value, &created)
	if err != nil {
		return "", false
	}
	if c.expired(created) {
		_, _ = c.db.Exec(`DELETE FROM translations WHERE key = ?`, key)
		return "", false
	}
	return value, true
}

// Set stores a value, replacing any previous one.
func (c *SQLiteCache) Set(key string, value string) error {
	_, err := c.db.Exec(`INSERT INTO translations (key, value, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`,
		key, value, c.now().UnixNano())
	return err
}

// Entries returns all non-expired entries.
func (c *SQLiteCache) Entries() (map[string]string, error) {
	rows, err := c.db.Query(`SELECT key, value, created_at FROM translations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var (
			key, value string
			created    int64
		)
		if err := rows.Scan(&key, &value, &created); err != nil {
			return nil, err
		}
		if !c.expired(created) {
			result[key] = value
		}
	}
	return result, rows.Err()
}

// Purge deletes expired rows and returns how many were removed.
func (c *SQLiteCache) Purge() (int64, error) {
	if c.ttl == 0 {
		return 0, nil
	}
	res, err := c.db.Exec(`DELETE FROM translations WHERE created_at < ?`, c.now().Add(-c.ttl).UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Len returns the number of stored rows (including expired ones).
func (c *SQLiteCache) Len() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM translations`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) expired(created int64) bool {
	return c.ttl > 0 && c.now().Sub(time.Unix(0, created)) > c.ttl
}

var _ Enumerable = (*SQLiteCache)(nil)

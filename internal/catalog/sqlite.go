package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/star/skywatch/internal/tle"
)

const schema = `
CREATE TABLE IF NOT EXISTS satellites (
	id           TEXT PRIMARY KEY,
	norad_id     INTEGER NOT NULL,
	name         TEXT NOT NULL,
	line1        TEXT NOT NULL DEFAULT '',
	line2        TEXT NOT NULL DEFAULT '',
	epoch        TEXT NOT NULL DEFAULT '',
	object_type  TEXT NOT NULL DEFAULT '',
	country_code TEXT NOT NULL DEFAULT '',
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_satellites_norad_id ON satellites(norad_id);
`

const eligible = `line1 <> '' AND line2 <> ''`

const columns = `id, norad_id, name, line1, line2, epoch, object_type, country_code`

// SQLiteStore is the persistent catalog.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the catalog database at path and
// applies the schema. Connection failures wrap ErrUnavailable.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create catalog directory: %v", ErrUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrUnavailable, path, err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Count returns the number of entries with both element-set lines.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM satellites WHERE `+eligible).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrUnavailable, err)
	}
	return n, nil
}

// RandomSample draws up to n eligible entries not in exclude. The exclusion
// set is passed as a JSON array and expanded with json_each, so its size is
// not limited by the bound-parameter cap.
func (s *SQLiteStore) RandomSample(ctx context.Context, exclude map[string]struct{}, n int) ([]tle.TLEEntry, error) {
	ids, err := json.Marshal(excludeIDs(exclude))
	if err != nil {
		return nil, fmt.Errorf("encode exclusion set: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM satellites
		 WHERE `+eligible+` AND id NOT IN (SELECT value FROM json_each(?))
		 ORDER BY RANDOM() LIMIT ?`,
		string(ids), n)
	if err != nil {
		return nil, fmt.Errorf("%w: sample: %v", ErrUnavailable, err)
	}
	return scanEntries(rows)
}

// Search matches by catalog number, or by case-insensitive name substring.
func (s *SQLiteStore) Search(ctx context.Context, q Query, limit int) ([]tle.TLEEntry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case q.NORADID != 0:
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+columns+` FROM satellites WHERE norad_id = ? ORDER BY name LIMIT ?`,
			q.NORADID, limit)
	case q.Name != "":
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+columns+` FROM satellites WHERE name LIKE '%' || ? || '%' ESCAPE '\' ORDER BY name LIMIT ?`,
			escapeLike(q.Name), limit)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}
	return scanEntries(rows)
}

// Upsert inserts or replaces entries by ID in one transaction and returns
// how many were written.
func (s *SQLiteStore) Upsert(ctx context.Context, entries []tle.TLEEntry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO satellites (`+columns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			norad_id = excluded.norad_id,
			name = excluded.name,
			line1 = excluded.line1,
			line2 = excluded.line2,
			epoch = excluded.epoch,
			object_type = CASE WHEN excluded.object_type <> '' THEN excluded.object_type ELSE satellites.object_type END,
			country_code = CASE WHEN excluded.country_code <> '' THEN excluded.country_code ELSE satellites.country_code END,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	n := 0
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		epoch := ""
		if !e.Epoch.IsZero() {
			epoch = e.Epoch.UTC().Format(time.RFC3339Nano)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.NORADID, e.Name, e.Line1, e.Line2, epoch, e.ObjectType, e.CountryCode, now); err != nil {
			return n, fmt.Errorf("upsert %s: %w", e.ID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]tle.TLEEntry, error) {
	defer rows.Close()

	var out []tle.TLEEntry
	for rows.Next() {
		var (
			e     tle.TLEEntry
			epoch string
		)
		if err := rows.Scan(&e.ID, &e.NORADID, &e.Name, &e.Line1, &e.Line2, &epoch, &e.ObjectType, &e.CountryCode); err != nil {
			return nil, fmt.Errorf("scan satellite: %w", err)
		}
		if epoch != "" {
			if t, err := time.Parse(time.RFC3339Nano, epoch); err == nil {
				e.Epoch = t
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate: %v", ErrUnavailable, err)
	}
	return out, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

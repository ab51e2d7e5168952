package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS downloads (
	id INTEGER PRIMARY KEY,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	platform TEXT NOT NULL DEFAULT '',
	file_path TEXT NOT NULL DEFAULT '',
	file_size INTEGER NOT NULL DEFAULT 0,
	success INTEGER NOT NULL DEFAULT 0,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downloads_timestamp ON downloads(timestamp);`

const selectColumns = `SELECT id, url, title, platform, file_path, file_size, success, timestamp FROM downloads`

// SQLiteStore keeps the history in an SQLite database. A single connection
// serialises writers.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create downloads table: %w", err)
	}
	log.Debug().Str("op", "history/sqlite").Msgf("Opened history database %s", path)
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Append(rec Record) (Record, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxID int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM downloads`).Scan(&maxID); err != nil {
		return Record{}, fmt.Errorf("failed to read max id: %w", err)
	}
	rec.ID = maxID + 1
	rec.Timestamp = s.now().UnixMilli()
	_, err = tx.Exec(`INSERT INTO downloads(id, url, title, platform, file_path, file_size, success, timestamp) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, rec.Title, rec.Platform, rec.FilePath, rec.FileSize, rec.Success, rec.Timestamp)
	if err != nil {
		return Record{}, fmt.Errorf("failed to insert record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("failed to commit record: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Query(limit int, platform string) ([]Record, error) {
	query := selectColumns
	var args []any
	if platform != "" {
		query += ` WHERE LOWER(platform) = ?`
		args = append(args, strings.ToLower(platform))
	}
	query += ` ORDER BY timestamp DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.scan(query, args...)
}

func (s *SQLiteStore) Aggregate(platform string) (Stats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(success), 0), COALESCE(SUM(CASE WHEN success = 1 THEN file_size ELSE 0 END), 0) FROM downloads`
	var args []any
	if platform != "" {
		query += ` WHERE LOWER(platform) = ?`
		args = append(args, strings.ToLower(platform))
	}
	stats := Stats{Platform: platform}
	if err := s.db.QueryRow(query, args...).Scan(&stats.Total, &stats.Successful, &stats.TotalSize); err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate history: %w", err)
	}
	stats.Failed = stats.Total - stats.Successful
	return stats, nil
}

func (s *SQLiteStore) Prune(maxAgeDays int) (int, error) {
	res, err := s.db.Exec(`DELETE FROM downloads WHERE timestamp < ?`, daysAgo(s.now(), maxAgeDays))
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) Breakdown() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT CASE WHEN platform = '' THEN 'Unknown' ELSE platform END AS p, COUNT(*) FROM downloads GROUP BY p`)
	if err != nil {
		return nil, fmt.Errorf("failed to query breakdown: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var p string
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, err
		}
		out[p] = n
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Recent(hours int) ([]Record, error) {
	return s.scan(selectColumns+` WHERE timestamp >= ? ORDER BY timestamp DESC, id DESC`, hoursAgo(s.now(), hours))
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) scan(query string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()
	out := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.URL, &r.Title, &r.Platform, &r.FilePath, &r.FileSize, &r.Success, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

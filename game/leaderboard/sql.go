package leaderboard

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var ddl string

// SQLStore keeps scores in a SQLite database
type SQLStore struct {
	DB *sql.DB
}

// InitializeTables creates the schema if it does not exist yet
func InitializeTables(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}

// OpenSQLStore opens (or creates) the database at path and prepares the schema
func OpenSQLStore(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("leaderboard database path is empty")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sql.Open is lazy; ping to find out whether the file can be opened
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := InitializeTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &SQLStore{DB: db}, nil
}

// Append inserts a score
func (s *SQLStore) Append(ctx context.Context, e Entry) error {
	if err := validateEntry(e); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO scores (id, name, score, difficulty, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Score, e.Difficulty, e.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// Top returns the n best scores
func (s *SQLStore) Top(ctx context.Context, n int) ([]Entry, error) {
	if n < 0 {
		return s.query(ctx, `SELECT id, name, score, difficulty, recorded_at FROM scores ORDER BY score DESC, seq ASC`)
	}
	return s.query(ctx,
		`SELECT id, name, score, difficulty, recorded_at FROM scores ORDER BY score DESC, seq ASC LIMIT ?`, n)
}

// All returns every score in insertion order
func (s *SQLStore) All(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `SELECT id, name, score, difficulty, recorded_at FROM scores ORDER BY seq ASC`)
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.DB.Close()
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &e.Difficulty, &recordedAt); err != nil {
			return nil, err
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("bad timestamp for score %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

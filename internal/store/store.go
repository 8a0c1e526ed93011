// Package store persists duplicate-finder sessions in a DuckDB database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/session"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id VARCHAR PRIMARY KEY,
	root VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL,
	options VARCHAR NOT NULL,
	scan_errors VARCHAR
);

CREATE TABLE IF NOT EXISTS duplicate_groups (
	session_id VARCHAR NOT NULL,
	group_index INTEGER NOT NULL,
	size BIGINT NOT NULL,
	digest VARCHAR NOT NULL,
	PRIMARY KEY (session_id, group_index)
);

CREATE TABLE IF NOT EXISTS duplicate_files (
	session_id VARCHAR NOT NULL,
	group_index INTEGER NOT NULL,
	file_index INTEGER NOT NULL,
	path VARCHAR NOT NULL,
	size BIGINT NOT NULL,
	modified_time TIMESTAMP,
	is_critical BOOLEAN NOT NULL,
	keep BOOLEAN NOT NULL,
	PRIMARY KEY (session_id, group_index, file_index)
);

CREATE INDEX IF NOT EXISTS idx_duplicate_files_path ON duplicate_files(path);
`

// ErrNotFound is returned when a session ID is not in the database
var ErrNotFound = errors.New("session not found")

// Summary is one row of ListSessions
type Summary struct {
	ID          string
	Root        string
	CreatedAt   time.Time
	Groups      int
	Files       int
	Reclaimable int64
}

// Store wraps a DuckDB database holding saved sessions
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path; an empty path is in-memory
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSession writes sess, replacing any earlier copy with the same ID.
// Timestamps are stored in UTC with microsecond precision.
func (s *Store) SaveSession(ctx context.Context, sess *session.Session) error {
	options, err := json.Marshal(sess.Options)
	if err != nil {
		return fmt.Errorf("error encoding options: %w", err)
	}

	var scanErrors sql.NullString
	if len(sess.Errors) > 0 {
		data, err := json.Marshal(sess.Errors)
		if err != nil {
			return fmt.Errorf("error encoding scan errors: %w", err)
		}
		scanErrors = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"duplicate_files", "duplicate_groups"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", sess.ID); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sess.ID); err != nil {
		return fmt.Errorf("error clearing session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (id, root, created_at, options, scan_errors) VALUES (?, ?, ?, ?, ?)",
		sess.ID, sess.Root, sess.Timestamp.UTC(), string(options), scanErrors); err != nil {
		return fmt.Errorf("error inserting session %s: %w", sess.ID, err)
	}

	for gi, g := range sess.Groups {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO duplicate_groups (session_id, group_index, size, digest) VALUES (?, ?, ?, ?)",
			sess.ID, gi, g.Size, g.Digest); err != nil {
			return fmt.Errorf("error inserting group %s: %w", g.Digest, err)
		}

		for fi, f := range g.Files {
			var modTime sql.NullTime
			if f.ModTime != nil {
				modTime = sql.NullTime{Time: f.ModTime.UTC(), Valid: true}
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO duplicate_files (session_id, group_index, file_index, path, size, modified_time, is_critical, keep)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				sess.ID, gi, fi, f.Path, f.Size, modTime, f.IsCritical, g.Keep[fi]); err != nil {
				return fmt.Errorf("error inserting file %s: %w", f.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing session %s: %w", sess.ID, err)
	}
	return nil
}

// LoadSession reads a session by ID
func (s *Store) LoadSession(ctx context.Context, id string) (*session.Session, error) {
	sess := &session.Session{ID: id, Groups: []session.Group{}}

	var (
		options    string
		scanErrors sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT root, created_at, options, scan_errors FROM sessions WHERE id = ?", id).
		Scan(&sess.Root, &sess.Timestamp, &options, &scanErrors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading session %s: %w", id, err)
	}
	sess.Timestamp = sess.Timestamp.UTC()

	if err := json.Unmarshal([]byte(options), &sess.Options); err != nil {
		return nil, fmt.Errorf("error decoding options: %w", err)
	}
	if scanErrors.Valid {
		if err := json.Unmarshal([]byte(scanErrors.String), &sess.Errors); err != nil {
			return nil, fmt.Errorf("error decoding scan errors: %w", err)
		}
	}

	groups, err := s.db.QueryContext(ctx,
		"SELECT size, digest FROM duplicate_groups WHERE session_id = ? ORDER BY group_index", id)
	if err != nil {
		return nil, fmt.Errorf("error reading groups: %w", err)
	}
	defer groups.Close()

	for groups.Next() {
		var g session.Group
		if err := groups.Scan(&g.Size, &g.Digest); err != nil {
			return nil, fmt.Errorf("error scanning group row: %w", err)
		}
		sess.Groups = append(sess.Groups, g)
	}
	if err := groups.Err(); err != nil {
		return nil, fmt.Errorf("error reading groups: %w", err)
	}

	files, err := s.db.QueryContext(ctx, `
		SELECT group_index, path, size, modified_time, is_critical, keep
		FROM duplicate_files
		WHERE session_id = ?
		ORDER BY group_index, file_index`, id)
	if err != nil {
		return nil, fmt.Errorf("error reading files: %w", err)
	}
	defer files.Close()

	for files.Next() {
		var (
			gi      int
			f       scanner.FileRecord
			modTime sql.NullTime
			keep    bool
		)
		if err := files.Scan(&gi, &f.Path, &f.Size, &modTime, &f.IsCritical, &keep); err != nil {
			return nil, fmt.Errorf("error scanning file row: %w", err)
		}
		if gi < 0 || gi >= len(sess.Groups) {
			return nil, fmt.Errorf("file %s references missing group %d", f.Path, gi)
		}
		if modTime.Valid {
			mt := modTime.Time.UTC()
			f.ModTime = &mt
		}

		g := &sess.Groups[gi]
		g.Files = append(g.Files, f)
		g.Keep = append(g.Keep, keep)
	}
	if err := files.Err(); err != nil {
		return nil, fmt.Errorf("error reading files: %w", err)
	}

	return sess, nil
}

// ListSessions returns a summary of every stored session, newest first
func (s *Store) ListSessions(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			s.id,
			s.root,
			s.created_at,
			(SELECT COUNT(*) FROM duplicate_groups g WHERE g.session_id = s.id),
			(SELECT COUNT(*) FROM duplicate_files f WHERE f.session_id = s.id),
			(SELECT CAST(COALESCE(SUM(f.size), 0) AS BIGINT) FROM duplicate_files f WHERE f.session_id = s.id AND NOT f.keep)
		FROM sessions s
		ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Root, &sum.CreatedAt, &sum.Groups, &sum.Files, &sum.Reclaimable); err != nil {
			return nil, fmt.Errorf("error scanning session row: %w", err)
		}
		sum.CreatedAt = sum.CreatedAt.UTC()
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// LatestSession loads the most recently created session
func (s *Store) LatestSession(ctx context.Context) (*session.Session, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM sessions ORDER BY created_at DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading latest session: %w", err)
	}
	return s.LoadSession(ctx, id)
}

// DeleteSession removes a session and its groups
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	for _, stmt := range []string{
		"DELETE FROM duplicate_files WHERE session_id = ?",
		"DELETE FROM duplicate_groups WHERE session_id = ?",
		"DELETE FROM sessions WHERE id = ?",
	} {
		if _, err := s.db.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("error deleting session %s: %w", id, err)
		}
	}
	return nil
}

package db

import (
	"database/sql"
	"strings"

	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

// InsertEntry stores a new entry. The UNIQUE(user_id, content_hash)
// constraint is the dedup guard: a violation surfaces as
// DUPLICATE_ENTRY, closing the race between concurrent identical
// submissions without a check-then-insert.
func InsertEntry(database *sql.DB, e *diary.Entry) error {
	query := `
		INSERT INTO entries (id, user_id, raw_text, content_hash, source, private, strict, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := database.Exec(query,
		e.ID, e.UserID, e.RawText, e.ContentHash, e.Source,
		boolToInt(e.Private), boolToInt(e.Strict), e.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewDuplicateEntry(e.UserID)
		}
		return errors.NewInternal(err)
	}

	return nil
}

// GetEntry retrieves an entry by ID.
func GetEntry(database *sql.DB, id string) (*diary.Entry, error) {
	row := database.QueryRow(`
		SELECT id, user_id, raw_text, content_hash, source, private, strict, created_at
		FROM entries WHERE id = ?
	`, id)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("entry", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// LatestEntryForUser returns the most recently captured entry for a
// user, or NOT_FOUND when the user has none.
func LatestEntryForUser(database *sql.DB, userID string) (*diary.Entry, error) {
	row := database.QueryRow(`
		SELECT id, user_id, raw_text, content_hash, source, private, strict, created_at
		FROM entries WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("entry", "latest for "+userID)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// ListEntries returns a user's entries, newest first.
func ListEntries(database *sql.DB, userID string, limit int) ([]*diary.Entry, error) {
	rows, err := database.Query(`
		SELECT id, user_id, raw_text, content_hash, source, private, strict, created_at
		FROM entries WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var entries []*diary.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*diary.Entry, error) {
	var e diary.Entry
	var private, strict int
	err := row.Scan(&e.ID, &e.UserID, &e.RawText, &e.ContentHash, &e.Source, &private, &strict, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Private = private != 0
	e.Strict = strict != 0
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE
// constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

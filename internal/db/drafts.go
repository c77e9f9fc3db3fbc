package db

import (
	"database/sql"
	"strings"

	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

const draftColumns = `id, entry_id, platform, status, text, char_count, summary,
	gen_provider, gen_model, sum_provider, sum_model, regen_attempts,
	fail_reason, scheduled_at, published_at, external_id, created_at, updated_at`

// InsertDraft stores a new draft row.
func InsertDraft(database *sql.DB, d *diary.Draft) error {
	query := `
		INSERT INTO drafts (` + draftColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := database.Exec(query,
		d.ID, d.EntryID, string(d.Platform), string(d.Status), d.Text, d.CharCount, d.Summary,
		d.GenProvider, d.GenModel, d.SumProvider, d.SumModel, d.RegenAttempts,
		d.FailReason, nullableInt64(d.ScheduledAt), nullableInt64(d.PublishedAt), d.ExternalID,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// SaveDraft writes all mutable draft fields. Every pipeline stage
// transition goes through here so interrupted runs resume from the
// persisted state. Identity fields (id, entry_id, platform, created_at)
// never change.
func SaveDraft(database *sql.DB, d *diary.Draft) error {
	query := `
		UPDATE drafts SET
			status = ?, text = ?, char_count = ?, summary = ?,
			gen_provider = ?, gen_model = ?, sum_provider = ?, sum_model = ?,
			regen_attempts = ?, fail_reason = ?, scheduled_at = ?, published_at = ?,
			external_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := database.Exec(query,
		string(d.Status), d.Text, d.CharCount, d.Summary,
		d.GenProvider, d.GenModel, d.SumProvider, d.SumModel,
		d.RegenAttempts, d.FailReason, nullableInt64(d.ScheduledAt), nullableInt64(d.PublishedAt),
		d.ExternalID, d.UpdatedAt,
		d.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound("draft", d.ID)
	}
	return nil
}

// GetDraft retrieves a draft by ID.
func GetDraft(database *sql.DB, id string) (*diary.Draft, error) {
	row := database.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id)

	d, err := scanDraft(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("draft", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return d, nil
}

// ListDraftsForEntry returns all drafts belonging to an entry.
func ListDraftsForEntry(database *sql.DB, entryID string) ([]*diary.Draft, error) {
	return queryDrafts(database, `
		SELECT `+draftColumns+` FROM drafts
		WHERE entry_id = ?
		ORDER BY platform, created_at DESC
	`, entryID)
}

// ListQueue returns a user's non-terminal drafts, newest first.
// Discarded, published, and failed drafts are excluded.
func ListQueue(database *sql.DB, userID string, limit int) ([]*diary.Draft, error) {
	return queryDrafts(database, `
		SELECT `+qualifiedDraftColumns("d")+`
		FROM drafts d
		JOIN entries e ON e.id = d.entry_id
		WHERE e.user_id = ?
		  AND d.status NOT IN ('published', 'failed', 'discarded')
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT ?
	`, userID, limit)
}

// ListApproved returns a user's approved drafts, oldest first so
// publish-all processes them in capture order.
func ListApproved(database *sql.DB, userID string) ([]*diary.Draft, error) {
	return queryDrafts(database, `
		SELECT `+qualifiedDraftColumns("d")+`
		FROM drafts d
		JOIN entries e ON e.id = d.entry_id
		WHERE e.user_id = ? AND d.status = 'approved'
		ORDER BY d.created_at ASC, d.id ASC
	`, userID)
}

// ListDueScheduled returns drafts with status=scheduled whose
// scheduled_at is at or before now. Already-published drafts are
// excluded by the status filter, which is what makes the scheduler
// idempotent.
func ListDueScheduled(database *sql.DB, now int64) ([]*diary.Draft, error) {
	return queryDrafts(database, `
		SELECT `+draftColumns+` FROM drafts
		WHERE status = 'scheduled' AND scheduled_at IS NOT NULL AND scheduled_at <= ?
		ORDER BY scheduled_at ASC, id ASC
	`, now)
}

func queryDrafts(database *sql.DB, query string, args ...any) ([]*diary.Draft, error) {
	rows, err := database.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var drafts []*diary.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return drafts, nil
}

func scanDraft(row rowScanner) (*diary.Draft, error) {
	var d diary.Draft
	var platform, status string
	var scheduledAt, publishedAt sql.NullInt64

	err := row.Scan(&d.ID, &d.EntryID, &platform, &status, &d.Text, &d.CharCount, &d.Summary,
		&d.GenProvider, &d.GenModel, &d.SumProvider, &d.SumModel, &d.RegenAttempts,
		&d.FailReason, &scheduledAt, &publishedAt, &d.ExternalID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	d.Platform = diary.Platform(platform)
	d.Status = diary.Status(status)
	if scheduledAt.Valid {
		d.ScheduledAt = &scheduledAt.Int64
	}
	if publishedAt.Valid {
		d.PublishedAt = &publishedAt.Int64
	}
	return &d, nil
}

// qualifiedDraftColumns prefixes every draft column with a table alias
// for JOIN queries where id/created_at would otherwise be ambiguous.
func qualifiedDraftColumns(alias string) string {
	fields := strings.Split(draftColumns, ",")
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = alias + "." + strings.TrimSpace(f)
	}
	return strings.Join(out, ", ")
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

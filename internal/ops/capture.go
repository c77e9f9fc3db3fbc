package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

// CaptureInput contains parameters for the Capture operation.
type CaptureInput struct {
	UserID string
	Text   string // raw text, directives included
	Source string // default: "cli"
}

// CaptureOutput contains the stored entry and the parsed directives so
// the caller can chain into drafting or publishing.
type CaptureOutput struct {
	Entry      *diary.Entry     `json:"entry"`
	Directives diary.Directives `json:"directives"`
}

// Capture parses directives, dedups by content hash, and stores the
// diary entry. A repeated entry for the same user is rejected with
// DUPLICATE_ENTRY; identical text from a different user is fine.
func Capture(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input CaptureInput) (*CaptureOutput, error) {
	directives := diary.ParseDirectives(input.Text)

	cleaned := diary.Normalize(directives.CleanedText)
	if cleaned == "" {
		return nil, errors.NewInvalidRequest("entry text is empty after removing directives")
	}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		userID = "default"
	}
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = "cli"
	}

	id, err := newULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	entry := &diary.Entry{
		ID:          id,
		UserID:      userID,
		RawText:     cleaned,
		ContentHash: diary.HashText(cleaned),
		Source:      source,
		Private:     directives.Private,
		Strict:      directives.Strict,
		CreatedAt:   deps.now().Unix(),
	}

	if err := db.InsertEntry(database, entry); err != nil {
		return nil, err
	}

	deps.logger().Info("entry captured",
		"entry_id", entry.ID, "user_id", userID, "chars", diary.CountChars(cleaned),
		"private", entry.Private, "strict", entry.Strict)

	return &CaptureOutput{Entry: entry, Directives: directives}, nil
}

package ops

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
	"github.com/Alksalt/llm-social-agent/internal/validate"
)

// EditInput contains parameters for the Edit operation.
type EditInput struct {
	DraftID string
	Text    string
}

// EditOutput contains the updated draft.
type EditOutput struct {
	Draft *diary.Draft `json:"draft"`
}

// Edit replaces a draft's text by hand. The new text must pass the
// platform limit; an over-limit edit is rejected without touching the
// stored draft. Editing an approved draft sends it back to
// pending_approval.
func Edit(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input EditInput) (*EditOutput, error) {
	text := diary.Normalize(input.Text)
	if text == "" {
		return nil, errors.NewInvalidRequest("replacement text is empty")
	}

	draft, err := db.GetDraft(database, input.DraftID)
	if err != nil {
		return nil, err
	}
	switch draft.Status {
	case diary.StatusPendingApproval, diary.StatusApproved, diary.StatusScheduled:
	default:
		return nil, errors.NewInvalidStatus(draft.ID, string(draft.Status), "pending_approval, approved, or scheduled")
	}

	limit := cfg.Limit(string(draft.Platform))
	if err := validate.Check(text, draft.Platform, limit); err != nil {
		var tooLong *validate.TooLongError
		if stderrors.As(err, &tooLong) {
			return nil, errors.NewValidationExceeded(string(draft.Platform), tooLong.Length, limit, 0)
		}
		return nil, errors.NewInternal(err)
	}

	draft.Text = text
	draft.CharCount = diary.CountChars(text)
	if cfg.Modes.ApprovalRequired {
		draft.Status = diary.StatusPendingApproval
		draft.ScheduledAt = nil
	}
	if err := saveDraft(database, deps, draft); err != nil {
		return nil, err
	}

	deps.logger().Info("draft edited", "draft_id", draft.ID, "chars", draft.CharCount, "status", draft.Status)
	return &EditOutput{Draft: draft}, nil
}

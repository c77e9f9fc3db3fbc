package ops

import (
	"context"
	"database/sql"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

// ApproveInput contains parameters for the Approve operation.
type ApproveInput struct {
	DraftID string
}

// ApproveOutput contains the updated draft.
type ApproveOutput struct {
	Draft *diary.Draft `json:"draft"`
}

// Approve marks a pending draft as approved. Approval is a persisted
// state, not a blocking prompt: the draft waits here until someone
// publishes or schedules it.
func Approve(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input ApproveInput) (*ApproveOutput, error) {
	draft, err := db.GetDraft(database, input.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != diary.StatusPendingApproval {
		return nil, errors.NewInvalidStatus(draft.ID, string(draft.Status), string(diary.StatusPendingApproval))
	}

	draft.Status = diary.StatusApproved
	if err := saveDraft(database, deps, draft); err != nil {
		return nil, err
	}

	deps.logger().Info("draft approved", "draft_id", draft.ID, "platform", draft.Platform)
	return &ApproveOutput{Draft: draft}, nil
}

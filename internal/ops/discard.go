package ops

import (
	"context"
	"database/sql"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

// DiscardInput contains parameters for the Discard operation.
type DiscardInput struct {
	DraftID string
}

// DiscardOutput contains the updated draft.
type DiscardOutput struct {
	Draft *diary.Draft `json:"draft"`
}

// Discard retires a draft from any non-terminal state. Scheduled
// drafts are unscheduled by discarding them; the scheduler skips
// anything no longer in scheduled state.
func Discard(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input DiscardInput) (*DiscardOutput, error) {
	draft, err := db.GetDraft(database, input.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Status.Terminal() {
		return nil, errors.NewInvalidStatus(draft.ID, string(draft.Status), "any non-terminal status")
	}

	draft.Status = diary.StatusDiscarded
	draft.ScheduledAt = nil
	if err := saveDraft(database, deps, draft); err != nil {
		return nil, err
	}

	deps.logger().Info("draft discarded", "draft_id", draft.ID, "platform", draft.Platform)
	return &DiscardOutput{Draft: draft}, nil
}

package ops

import (
	"context"
	"database/sql"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

// RegenerateInput contains parameters for the Regenerate operation.
type RegenerateInput struct {
	DraftID string
}

// RegenerateOutput contains the refreshed draft.
type RegenerateOutput struct {
	Draft *diary.Draft `json:"draft"`
}

// Regenerate reruns generation and validation for an existing draft,
// keeping its identity and platform but replacing the text. The
// attempt counter restarts so the new text gets the full shorten
// budget.
func Regenerate(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input RegenerateInput) (*RegenerateOutput, error) {
	draft, err := db.GetDraft(database, input.DraftID)
	if err != nil {
		return nil, err
	}
	switch draft.Status {
	case diary.StatusPendingApproval, diary.StatusApproved, diary.StatusFailed:
	default:
		return nil, errors.NewInvalidStatus(draft.ID, string(draft.Status), "pending_approval, approved, or failed")
	}

	entry, err := db.GetEntry(database, draft.EntryID)
	if err != nil {
		return nil, err
	}

	draft.Status = diary.StatusPendingGeneration
	draft.RegenAttempts = 0
	draft.FailReason = ""
	draft.ScheduledAt = nil
	if err := saveDraft(database, deps, draft); err != nil {
		return nil, err
	}

	limit := cfg.Limit(string(draft.Platform))
	if err := generateDraftText(ctx, database, cfg, deps, entry, draft, limit); err != nil {
		return nil, err
	}
	if err := validateDraftText(ctx, database, cfg, deps, draft, limit); err != nil {
		return nil, err
	}

	draft.Status = diary.StatusPendingApproval
	if !cfg.Modes.ApprovalRequired {
		draft.Status = diary.StatusApproved
	}
	if err := saveDraft(database, deps, draft); err != nil {
		return nil, err
	}

	deps.logger().Info("draft regenerated", "draft_id", draft.ID, "platform", draft.Platform, "chars", draft.CharCount)
	return &RegenerateOutput{Draft: draft}, nil
}

package ops

import (
	"context"
	"database/sql"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
)

// RunDueOutput summarizes one scheduler sweep.
type RunDueOutput struct {
	Due       int      `json:"due"`
	Published []string `json:"published"`
	Failed    []string `json:"failed"`
}

// RunDue publishes every scheduled draft whose time has passed. The
// sweep is idempotent: a published or failed draft leaves scheduled
// state, so a second sweep over the same window finds nothing. One
// failing draft does not stop the rest.
func RunDue(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps) (*RunDueOutput, error) {
	due, err := db.ListDueScheduled(database, deps.now().Unix())
	if err != nil {
		return nil, err
	}

	output := &RunDueOutput{Due: len(due)}
	for _, draft := range due {
		_, err := Publish(ctx, database, cfg, deps, PublishInput{DraftID: draft.ID, FromScheduler: true})
		if err != nil {
			output.Failed = append(output.Failed, draft.ID)
			deps.logger().Warn("scheduled publish failed", "draft_id", draft.ID, "error", err)
			continue
		}
		output.Published = append(output.Published, draft.ID)
	}

	if output.Due > 0 {
		deps.logger().Info("scheduler sweep done",
			"due", output.Due, "published", len(output.Published), "failed", len(output.Failed))
	}
	return output, nil
}

package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
)

// QueueInput contains parameters for the Queue operation.
type QueueInput struct {
	UserID string
	Limit  int
}

// QueueOutput lists the user's live drafts, newest first.
type QueueOutput struct {
	Drafts []*diary.Draft `json:"drafts"`
}

// Queue lists drafts still in flight: anything not published, failed,
// or discarded.
func Queue(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input QueueInput) (*QueueOutput, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		userID = "default"
	}

	drafts, err := db.ListQueue(database, userID, clampLimit(input.Limit))
	if err != nil {
		return nil, err
	}
	return &QueueOutput{Drafts: drafts}, nil
}

package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

// scheduleLayouts are the accepted user-facing time formats,
// interpreted in the configured timezone.
var scheduleLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// ScheduleInput contains parameters for the Schedule operation.
type ScheduleInput struct {
	DraftID string
	When    string // local time in the configured zone
}

// ScheduleOutput contains the scheduled draft.
type ScheduleOutput struct {
	Draft       *diary.Draft `json:"draft"`
	ScheduledAt time.Time    `json:"scheduled_at"`
}

// Schedule queues an approved draft for a future publish. The time is
// parsed in the configured timezone and stored as UTC.
func Schedule(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input ScheduleInput) (*ScheduleOutput, error) {
	draft, err := db.GetDraft(database, input.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != diary.StatusApproved {
		return nil, errors.NewInvalidStatus(draft.ID, string(draft.Status), string(diary.StatusApproved))
	}

	when, err := parseScheduleTime(input.When, cfg.Timezone)
	if err != nil {
		return nil, err
	}
	if !when.After(deps.now()) {
		return nil, errors.NewInvalidRequest("scheduled time must be in the future")
	}

	at := when.UTC().Unix()
	draft.Status = diary.StatusScheduled
	draft.ScheduledAt = &at
	if err := saveDraft(database, deps, draft); err != nil {
		return nil, err
	}

	deps.logger().Info("draft scheduled",
		"draft_id", draft.ID, "platform", draft.Platform, "at", when.UTC().Format(time.RFC3339))
	return &ScheduleOutput{Draft: draft, ScheduledAt: when.UTC()}, nil
}

func parseScheduleTime(value, timezone string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, errors.NewInvalidRequest("schedule time is required")
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewInvalidRequest(
		fmt.Sprintf("cannot parse %q; use YYYY-MM-DD HH:MM", raw))
}

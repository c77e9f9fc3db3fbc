package ops

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
	"github.com/Alksalt/llm-social-agent/internal/validate"
)

const weeklyCapWindow = 7 * 24 * time.Hour

// PublishInput contains parameters for the Publish operation.
type PublishInput struct {
	DraftID string

	// FromScheduler marks calls made by the due sweep, which publishes
	// from scheduled state instead of approved.
	FromScheduler bool
}

// PublishOutput contains the published draft and the attempt record.
type PublishOutput struct {
	Draft  *diary.Draft     `json:"draft"`
	Log    *diary.PublishLog `json:"log"`
	DryRun bool             `json:"dry_run"`
}

// Publish posts one approved draft to its platform. A draft failed by
// an earlier publish attempt is accepted too, so re-invoking the
// command replays it. The weekly cap is checked before the adapter is
// contacted, so a capped platform costs no network call. Every attempt
// lands in the publish log.
func Publish(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input PublishInput) (*PublishOutput, error) {
	draft, err := db.GetDraft(database, input.DraftID)
	if err != nil {
		return nil, err
	}

	wanted := diary.StatusApproved
	if input.FromScheduler {
		wanted = diary.StatusScheduled
	}
	if draft.Status != wanted && !retriablePublish(draft, input) {
		return nil, errors.NewInvalidStatus(draft.ID, string(draft.Status), string(wanted))
	}

	// Guard against a limit lowered after the draft was approved.
	limit := cfg.Limit(string(draft.Platform))
	if vErr := validate.Check(draft.Text, draft.Platform, limit); vErr != nil {
		var tooLong *validate.TooLongError
		if stderrors.As(vErr, &tooLong) {
			return nil, errors.NewValidationExceeded(string(draft.Platform), tooLong.Length, limit, draft.RegenAttempts)
		}
		return nil, errors.NewInternal(vErr)
	}

	dryRun, err := ResolveDryRun(database, cfg)
	if err != nil {
		return nil, err
	}

	now := deps.now()
	if !dryRun {
		if err := checkWeeklyCap(database, cfg, draft.Platform, now); err != nil {
			return nil, err
		}
	}

	publisher, ok := deps.Publishers[draft.Platform]
	if !ok {
		return nil, errors.NewInternal(fmt.Errorf("no publisher for platform %q", draft.Platform))
	}

	callCtx := ctx
	if cfg.Publish.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Publish.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	result, pubErr := publisher.Publish(callCtx, draft.Text, dryRun)

	attempt := &diary.PublishLog{
		DraftID:     draft.ID,
		Platform:    draft.Platform,
		AttemptedAt: now.Unix(),
		DryRun:      dryRun,
	}
	if pubErr != nil {
		attempt.Error = pubErr.Error()
	} else {
		attempt.Success = result.Success
		attempt.ExternalID = result.ExternalID
	}
	if logErr := db.InsertPublishLog(database, attempt); logErr != nil {
		deps.logger().Warn("failed to record publish attempt", "draft_id", draft.ID, "error", logErr)
	}

	if pubErr != nil {
		draft.Status = diary.StatusFailed
		draft.FailReason = diary.FailPublish
		if err := saveDraft(database, deps, draft); err != nil {
			return nil, err
		}
		deps.logger().Warn("publish failed", "draft_id", draft.ID, "platform", draft.Platform, "error", pubErr)
		return nil, errors.NewPublishFailed(string(draft.Platform), pubErr.Error())
	}

	publishedAt := now.Unix()
	draft.Status = diary.StatusPublished
	draft.FailReason = ""
	draft.PublishedAt = &publishedAt
	draft.ExternalID = result.ExternalID
	if err := saveDraft(database, deps, draft); err != nil {
		return nil, err
	}

	deps.logger().Info("draft published",
		"draft_id", draft.ID, "platform", draft.Platform, "dry_run", dryRun, "external_id", result.ExternalID)
	return &PublishOutput{Draft: draft, Log: attempt, DryRun: dryRun}, nil
}

// retriablePublish reports whether a draft outside the wanted status
// may still be published: a failed publish attempt is replayed by
// re-invoking the command manually. The scheduler never retries.
func retriablePublish(draft *diary.Draft, input PublishInput) bool {
	if input.FromScheduler {
		return false
	}
	return draft.Status == diary.StatusFailed && draft.FailReason == diary.FailPublish
}

// checkWeeklyCap enforces the per-platform rolling publish cap.
func checkWeeklyCap(database *sql.DB, cfg *config.Config, platform diary.Platform, now time.Time) error {
	cap, ok := cfg.Publish.WeeklyCaps[string(platform)]
	if !ok || cap <= 0 {
		return nil
	}
	since := now.Add(-weeklyCapWindow).Unix()
	count, err := db.CountRecentPublishes(database, platform, since)
	if err != nil {
		return err
	}
	if count >= cap {
		return errors.NewRateLimited(string(platform), cap)
	}
	return nil
}

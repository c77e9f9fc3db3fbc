package ops

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
	"github.com/Alksalt/llm-social-agent/internal/llm"
	"github.com/Alksalt/llm-social-agent/internal/validate"
)

// DraftInput contains parameters for the Draft operation.
type DraftInput struct {
	EntryID   string // empty: latest entry for UserID
	UserID    string
	Platforms []diary.Platform // empty: all enabled platforms
}

// DraftResult is the per-platform outcome.
type DraftResult struct {
	Draft *diary.Draft `json:"draft"`
	Error string       `json:"error,omitempty"`
}

// DraftOutput contains the results of the Draft operation.
type DraftOutput struct {
	EntryID string        `json:"entry_id"`
	Summary string        `json:"summary"`
	Results []DraftResult `json:"results"`
}

// Draft runs the entry through summarize, per-platform generation, and
// validation. Summarization degrades to a truncated raw entry when
// providers fail; generation does not, so a draft whose stage routes
// are all down fails with router_exhausted. A draft that stays over
// the platform limit after the bounded shorten attempts fails with
// validation_exceeded. It is never silently truncated.
func Draft(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input DraftInput) (*DraftOutput, error) {
	entry, err := resolveEntry(database, input.EntryID, input.UserID)
	if err != nil {
		return nil, err
	}
	if entry.Private {
		return nil, errors.NewInvalidRequest("entry is private, no drafts are generated from it")
	}

	platforms := input.Platforms
	if len(platforms) == 0 {
		for _, name := range cfg.EnabledPlatforms() {
			platforms = append(platforms, diary.Platform(name))
		}
	}
	if len(platforms) == 0 {
		return nil, errors.NewInvalidRequest("no platforms enabled")
	}
	for _, p := range platforms {
		if !p.Valid() {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown platform %q", p))
		}
	}

	// Drafts exist before summarization so the pending_summary state
	// is visible in the store while the router call is in flight.
	output := &DraftOutput{EntryID: entry.ID}
	drafts := make([]*diary.Draft, 0, len(platforms))
	for _, platform := range platforms {
		draft, err := insertPendingDraft(database, deps, entry, platform)
		if err != nil {
			output.Results = append(output.Results, DraftResult{Error: err.Error()})
			continue
		}
		drafts = append(drafts, draft)
	}
	if len(drafts) == 0 {
		return output, nil
	}

	summary, sumProvider, sumModel := summarize(ctx, cfg, deps, entry)
	output.Summary = summary

	for _, draft := range drafts {
		err := draftOne(ctx, database, cfg, deps, entry, draft, summary, sumProvider, sumModel)
		result := DraftResult{Draft: draft}
		if err != nil {
			result.Error = err.Error()
		}
		output.Results = append(output.Results, result)
	}
	return output, nil
}

func resolveEntry(database *sql.DB, entryID, userID string) (*diary.Entry, error) {
	if strings.TrimSpace(entryID) != "" {
		return db.GetEntry(database, entryID)
	}
	if strings.TrimSpace(userID) == "" {
		userID = "default"
	}
	return db.LatestEntryForUser(database, userID)
}

// summarize condenses the entry for prompt context. Any provider
// failure falls back to the truncated raw text; this stage never
// blocks the pipeline.
func summarize(ctx context.Context, cfg *config.Config, deps *Deps, entry *diary.Entry) (summary, provider, model string) {
	fallback := truncateRunes(entry.RawText, summaryFallbackChars)
	if !llmEnabled(cfg, deps) {
		return fallback, "", ""
	}

	result, err := deps.Router.Complete(ctx, "summarize", llm.Request{
		System:      systemPrompt(deps.contract()),
		Prompt:      summaryPrompt(entry.RawText),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		deps.logger().Warn("summarize degraded to raw text", "entry_id", entry.ID, "error", err)
		return fallback, "", ""
	}
	return result.Text, result.Provider, result.Model
}

// insertPendingDraft creates one platform draft in pending_summary.
func insertPendingDraft(database *sql.DB, deps *Deps, entry *diary.Entry, platform diary.Platform) (*diary.Draft, error) {
	id, err := newULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := deps.now().Unix()
	draft := &diary.Draft{
		ID:        id,
		EntryID:   entry.ID,
		Platform:  platform,
		Status:    diary.StatusPendingSummary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertDraft(database, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// draftOne generates and validates one pending draft, persisting
// every state transition.
func draftOne(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, entry *diary.Entry, draft *diary.Draft, summary, sumProvider, sumModel string) error {
	draft.Status = diary.StatusPendingGeneration
	draft.Summary = summary
	draft.SumProvider = sumProvider
	draft.SumModel = sumModel
	if err := saveDraft(database, deps, draft); err != nil {
		return err
	}

	limit := cfg.Limit(string(draft.Platform))
	if err := generateDraftText(ctx, database, cfg, deps, entry, draft, limit); err != nil {
		return err
	}
	if err := validateDraftText(ctx, database, cfg, deps, draft, limit); err != nil {
		return err
	}

	draft.Status = diary.StatusPendingApproval
	if !cfg.Modes.ApprovalRequired {
		draft.Status = diary.StatusApproved
	}
	if err := saveDraft(database, deps, draft); err != nil {
		return err
	}

	deps.logger().Info("draft ready",
		"draft_id", draft.ID, "platform", draft.Platform, "status", draft.Status, "chars", draft.CharCount)
	return nil
}

// generateDraftText fills in the draft body. With the LLM disabled it
// uses the deterministic template; with it enabled, route exhaustion
// is a hard failure.
func generateDraftText(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, entry *diary.Entry, draft *diary.Draft, limit int) error {
	if !llmEnabled(cfg, deps) {
		draft.Text = deterministicDraft(draft.Platform, draft.Summary, entry.RawText, limit)
		draft.CharCount = diary.CountChars(draft.Text)
		draft.Status = diary.StatusPendingValidation
		return saveDraft(database, deps, draft)
	}

	result, err := deps.Router.Complete(ctx, draftStage(draft.Platform), llm.Request{
		System:      systemPrompt(deps.contract()),
		Prompt:      draftPrompt(draft.Platform, entry.RawText, draft.Summary, deps.template(draft.Platform), entry.Strict, limit),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return failDraft(database, deps, draft, diary.FailRouterExhausted, err)
	}

	draft.Text = result.Text
	draft.CharCount = diary.CountChars(result.Text)
	draft.GenProvider = result.Provider
	draft.GenModel = result.Model
	draft.Status = diary.StatusPendingValidation
	return saveDraft(database, deps, draft)
}

// validateDraftText enforces the platform limit with up to MaxRegen
// shorten-and-regenerate rounds.
func validateDraftText(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, draft *diary.Draft, limit int) error {
	maxRegen := cfg.Generation.MaxRegen

	for {
		err := validate.Check(draft.Text, draft.Platform, limit)
		if err == nil {
			return nil
		}
		var tooLong *validate.TooLongError
		if !stderrors.As(err, &tooLong) {
			return errors.NewInternal(err)
		}

		if draft.RegenAttempts >= maxRegen || !llmEnabled(cfg, deps) {
			vErr := errors.NewValidationExceeded(string(draft.Platform), tooLong.Length, limit, draft.RegenAttempts)
			return failDraft(database, deps, draft, diary.FailValidationExceeded, vErr)
		}

		result, rErr := deps.Router.Complete(ctx, draftStage(draft.Platform), llm.Request{
			System:      systemPrompt(deps.contract()),
			Prompt:      shortenPrompt(draft.Platform, limit, draft.Text),
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
		draft.RegenAttempts++
		if rErr != nil {
			return failDraft(database, deps, draft, diary.FailRouterExhausted, rErr)
		}

		draft.Text = result.Text
		draft.CharCount = diary.CountChars(result.Text)
		draft.GenProvider = result.Provider
		draft.GenModel = result.Model
		if err := saveDraft(database, deps, draft); err != nil {
			return err
		}
	}
}

// deterministicDraft is the LLM-disabled fallback body. Truncation is
// acceptable here: the text is mechanical, not generated prose.
func deterministicDraft(platform diary.Platform, summary, entryText string, limit int) string {
	base := summary
	if base == "" {
		base = entryText
	}
	return validate.Truncate(fmt.Sprintf("[%s] %s", strings.ToUpper(string(platform)), base), limit)
}

func failDraft(database *sql.DB, deps *Deps, draft *diary.Draft, reason string, cause error) error {
	draft.Status = diary.StatusFailed
	draft.FailReason = reason
	if err := saveDraft(database, deps, draft); err != nil {
		return err
	}
	deps.logger().Warn("draft failed",
		"draft_id", draft.ID, "platform", draft.Platform, "reason", reason, "error", cause)
	return cause
}

func saveDraft(database *sql.DB, deps *Deps, draft *diary.Draft) error {
	draft.UpdatedAt = deps.now().Unix()
	return db.SaveDraft(database, draft)
}

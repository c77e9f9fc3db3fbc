package ops

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

func TestApprove_WrongStatusRejected(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	draft := approvedDraft(t, database, cfg, deps, "Already approved entry.")
	_, err := Approve(context.Background(), database, cfg, deps, ApproveInput{DraftID: draft.ID})
	if !errors.Is(err, errors.ErrInvalidStatus) {
		t.Fatalf("error = %v, want INVALID_STATUS", err)
	}
}

func TestApprove_MissingDraft(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	_, err := Approve(context.Background(), database, cfg, deps, ApproveInput{DraftID: "nope"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestDiscard_FromPendingAndScheduled(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	deps := newTestDeps(newFakeRouter())

	entry := captureEntry(t, database, cfg, deps, "Entry to discard twice over.")
	pending := draftOnePlatform(t, database, cfg, deps, entry.ID, diary.PlatformX)

	out, err := Discard(context.Background(), database, cfg, deps, DiscardInput{DraftID: pending.ID})
	if err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if out.Draft.Status != diary.StatusDiscarded {
		t.Errorf("Status = %q, want discarded", out.Draft.Status)
	}

	scheduled := approvedDraft(t, database, cfg, deps, "Scheduled entry to discard.")
	now := time.Now()
	deps.Now = func() time.Time { return now }
	if _, err := Schedule(context.Background(), database, cfg, deps, ScheduleInput{
		DraftID: scheduled.ID,
		When:    now.UTC().Add(time.Hour).Format("2006-01-02 15:04"),
	}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if _, err := Discard(context.Background(), database, cfg, deps, DiscardInput{DraftID: scheduled.ID}); err != nil {
		t.Fatalf("Discard of scheduled draft failed: %v", err)
	}

	// The discarded draft never comes due.
	deps.Now = func() time.Time { return now.Add(2 * time.Hour) }
	sweep, err := RunDue(context.Background(), database, cfg, deps)
	if err != nil {
		t.Fatalf("RunDue failed: %v", err)
	}
	if sweep.Due != 0 {
		t.Errorf("Due = %d, want 0 after discard", sweep.Due)
	}
}

func TestDiscard_TerminalRejected(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	draft := approvedDraft(t, database, cfg, deps, "Entry published then discarded.")
	if _, err := Publish(context.Background(), database, cfg, deps, PublishInput{DraftID: draft.ID}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	_, err := Discard(context.Background(), database, cfg, deps, DiscardInput{DraftID: draft.ID})
	if !errors.Is(err, errors.ErrInvalidStatus) {
		t.Fatalf("error = %v, want INVALID_STATUS", err)
	}
}

func TestEdit_ReplacesTextAndResetsApproval(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	draft := approvedDraft(t, database, cfg, deps, "Entry edited after approval.")
	out, err := Edit(context.Background(), database, cfg, deps, EditInput{
		DraftID: draft.ID,
		Text:    "Hand-polished wording.",
	})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if out.Draft.Text != "Hand-polished wording." {
		t.Errorf("Text = %q", out.Draft.Text)
	}
	if out.Draft.Status != diary.StatusPendingApproval {
		t.Errorf("Status = %q, want pending_approval after edit", out.Draft.Status)
	}
	if out.Draft.CharCount != diary.CountChars("Hand-polished wording.") {
		t.Errorf("CharCount = %d", out.Draft.CharCount)
	}
}

func TestEdit_OverLimitRejectedWithoutSaving(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	draft := approvedDraft(t, database, cfg, deps, "Entry with a bad edit attempt.")
	original := draft.Text

	_, err := Edit(context.Background(), database, cfg, deps, EditInput{
		DraftID: draft.ID,
		Text:    strings.Repeat("x", 500),
	})
	if !errors.Is(err, errors.ErrValidationExceeded) {
		t.Fatalf("error = %v, want VALIDATION_EXCEEDED", err)
	}

	got, err := db.GetDraft(database, draft.ID)
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	if got.Text != original {
		t.Errorf("stored text changed on rejected edit")
	}
	if got.Status != diary.StatusApproved {
		t.Errorf("Status = %q, want approved untouched", got.Status)
	}
}

func TestRegenerate_RefreshesFailedDraft(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()

	long := strings.Repeat("a", 400)
	router := newFakeRouter()
	router.replies["summarize"] = []routerReply{{text: "summary"}}
	router.replies["draft_x"] = []routerReply{{text: long}, {text: long}, {text: long}}
	deps := newTestDeps(router)

	entry := captureEntry(t, database, cfg, deps, "Entry that fails, then recovers.")
	out, err := Draft(context.Background(), database, cfg, deps, DraftInput{
		EntryID:   entry.ID,
		Platforms: []diary.Platform{diary.PlatformX},
	})
	if err != nil {
		t.Fatalf("Draft failed: %v", err)
	}
	failed := out.Results[0].Draft.ID

	// The providers behave on the retry.
	router.replies["draft_x"] = []routerReply{{text: "A compliant short draft."}}

	regen, err := Regenerate(context.Background(), database, cfg, deps, RegenerateInput{DraftID: failed})
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if regen.Draft.Status != diary.StatusPendingApproval {
		t.Errorf("Status = %q, want pending_approval", regen.Draft.Status)
	}
	if regen.Draft.Text != "A compliant short draft." {
		t.Errorf("Text = %q", regen.Draft.Text)
	}
	if regen.Draft.FailReason != "" {
		t.Errorf("FailReason = %q, want cleared", regen.Draft.FailReason)
	}
	if regen.Draft.RegenAttempts != 0 {
		t.Errorf("RegenAttempts = %d, want reset to 0", regen.Draft.RegenAttempts)
	}
}

func TestSchedule_PastTimeRejected(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	deps := newTestDeps(newFakeRouter())

	draft := approvedDraft(t, database, cfg, deps, "Entry scheduled into the past.")
	_, err := Schedule(context.Background(), database, cfg, deps, ScheduleInput{
		DraftID: draft.ID,
		When:    time.Now().UTC().Add(-time.Hour).Format("2006-01-02 15:04"),
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestSchedule_BadFormatRejected(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	draft := approvedDraft(t, database, cfg, deps, "Entry with a garbled time.")
	_, err := Schedule(context.Background(), database, cfg, deps, ScheduleInput{
		DraftID: draft.ID,
		When:    "next tuesday",
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestQueue_ListsLiveDrafts(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	entry := captureEntry(t, database, cfg, deps, "Entry with a mixed queue.")
	live := draftOnePlatform(t, database, cfg, deps, entry.ID, diary.PlatformX)
	gone := draftOnePlatform(t, database, cfg, deps, entry.ID, diary.PlatformThreads)
	if _, err := Discard(context.Background(), database, cfg, deps, DiscardInput{DraftID: gone.ID}); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}

	out, err := Queue(context.Background(), database, cfg, deps, QueueInput{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Queue failed: %v", err)
	}
	if len(out.Drafts) != 1 || out.Drafts[0].ID != live.ID {
		t.Fatalf("queue = %v, want only the live draft", out.Drafts)
	}
}

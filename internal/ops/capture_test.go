package ops

import (
	"context"
	"testing"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

func TestCapture_HappyPath(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	out, err := Capture(context.Background(), database, cfg, deps, CaptureInput{
		UserID: "user-1",
		Text:   "Finished the import pipeline today. #draft #strict",
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if out.Entry.RawText != "Finished the import pipeline today." {
		t.Errorf("RawText = %q", out.Entry.RawText)
	}
	if !out.Directives.Draft || !out.Directives.Strict {
		t.Errorf("directives = %+v, want draft and strict", out.Directives)
	}
	if !out.Entry.Strict {
		t.Error("entry should carry the strict flag")
	}
	if out.Entry.ContentHash == "" {
		t.Error("content hash missing")
	}
}

func TestCapture_Duplicate(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	captureEntry(t, database, cfg, deps, "Same day, same text.")

	_, err := Capture(context.Background(), database, cfg, deps, CaptureInput{
		UserID: "user-1",
		Text:   "Same day, same text.",
	})
	if !errors.Is(err, errors.ErrDuplicateEntry) {
		t.Fatalf("error = %v, want DUPLICATE_ENTRY", err)
	}
}

func TestCapture_DuplicateIgnoresCaseAndSpacing(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	captureEntry(t, database, cfg, deps, "Shipped the parser rewrite.")

	_, err := Capture(context.Background(), database, cfg, deps, CaptureInput{
		UserID: "user-1",
		Text:   "  shipped   THE parser    rewrite.  ",
	})
	if !errors.Is(err, errors.ErrDuplicateEntry) {
		t.Fatalf("error = %v, want DUPLICATE_ENTRY", err)
	}
}

func TestCapture_EmptyAfterDirectives(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	_, err := Capture(context.Background(), database, cfg, deps, CaptureInput{
		UserID: "user-1",
		Text:   "#draft #private",
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestCapture_PublishDirectiveWithPlatforms(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	out, err := Capture(context.Background(), database, cfg, deps, CaptureInput{
		UserID: "user-1",
		Text:   "Big release day. #publish twitter li",
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !out.Directives.Publish {
		t.Fatal("publish directive not detected")
	}
	want := []diary.Platform{diary.PlatformX, diary.PlatformLinkedIn}
	if len(out.Directives.PublishPlatforms) != len(want) {
		t.Fatalf("platforms = %v, want %v", out.Directives.PublishPlatforms, want)
	}
	for i, p := range want {
		if out.Directives.PublishPlatforms[i] != p {
			t.Errorf("platforms[%d] = %q, want %q", i, out.Directives.PublishPlatforms[i], p)
		}
	}
}

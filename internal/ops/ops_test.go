package ops

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/llm"
	"github.com/Alksalt/llm-social-agent/internal/publish"
	"github.com/Alksalt/llm-social-agent/internal/routing"
	"github.com/Alksalt/llm-social-agent/internal/style"
)

// fakeRouter scripts responses per stage and records every call.
type fakeRouter struct {
	replies map[string][]routerReply
	calls   []string
}

type routerReply struct {
	text string
	err  error
}

func (f *fakeRouter) Complete(ctx context.Context, stage string, req llm.Request) (*llm.Result, error) {
	f.calls = append(f.calls, stage)
	queue := f.replies[stage]
	if len(queue) == 0 {
		return &llm.Result{Text: "default reply", Provider: "fake", Model: "fake-1"}, nil
	}
	reply := queue[0]
	f.replies[stage] = queue[1:]
	if reply.err != nil {
		return nil, reply.err
	}
	return &llm.Result{Text: reply.text, Provider: "fake", Model: "fake-1"}, nil
}

func (f *fakeRouter) stageCalls(stage string) int {
	count := 0
	for _, s := range f.calls {
		if s == stage {
			count++
		}
	}
	return count
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{replies: make(map[string][]routerReply)}
}

// fakePublisher records publish calls and returns a scripted result.
type fakePublisher struct {
	platform diary.Platform
	result   *publish.Result
	err      error
	calls    int
}

func (f *fakePublisher) Platform() diary.Platform { return f.platform }

func (f *fakePublisher) Publish(ctx context.Context, text string, dryRun bool) (*publish.Result, error) {
	f.calls++
	if dryRun {
		return &publish.Result{Success: true, DryRun: true, ExternalID: "dryrun-" + string(f.platform) + "-1"}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &publish.Result{Success: true, ExternalID: "ext-1"}, nil
}

func fakePublishers() map[diary.Platform]publish.Publisher {
	out := make(map[diary.Platform]publish.Publisher)
	for _, p := range diary.Platforms {
		out[p] = &fakePublisher{platform: p}
	}
	return out
}

func newTestDeps(router Completer) *Deps {
	return &Deps{
		Router:     router,
		Table:      routing.NewTable(nil, slog.New(slog.DiscardHandler)),
		Publishers: fakePublishers(),
		Style:      style.Default(),
		Logger:     slog.New(slog.DiscardHandler),
		Now:        time.Now,
	}
}

func initTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// captureEntry stores an entry and returns it.
func captureEntry(t *testing.T, database *sql.DB, cfg *config.Config, deps *Deps, text string) *diary.Entry {
	t.Helper()
	out, err := Capture(context.Background(), database, cfg, deps, CaptureInput{
		UserID: "user-1",
		Text:   text,
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	return out.Entry
}

// draftOnePlatform runs Draft for a single platform and returns the
// resulting draft.
func draftOnePlatform(t *testing.T, database *sql.DB, cfg *config.Config, deps *Deps, entryID string, platform diary.Platform) *diary.Draft {
	t.Helper()
	out, err := Draft(context.Background(), database, cfg, deps, DraftInput{
		EntryID:   entryID,
		Platforms: []diary.Platform{platform},
	})
	if err != nil {
		t.Fatalf("Draft failed: %v", err)
	}
	if len(out.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1", len(out.Results))
	}
	return out.Results[0].Draft
}

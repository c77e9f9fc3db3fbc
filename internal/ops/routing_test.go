package ops

import (
	"context"
	"testing"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/errors"
	"github.com/Alksalt/llm-social-agent/internal/routing"
)

func TestSetRouting_AppliesAndPersists(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	out, err := SetRouting(context.Background(), database, cfg, deps, SetRoutingInput{
		Stage:  "draft_x",
		Routes: []string{"openai:gpt-5.2", "anthropic:claude-sonnet-4-5"},
	})
	if err != nil {
		t.Fatalf("SetRouting failed: %v", err)
	}
	if len(out.Routes) != 2 {
		t.Fatalf("Routes = %v", out.Routes)
	}

	// Live table updated.
	candidates := deps.Table.Candidates("draft_x")
	if len(candidates) != 2 || candidates[0] != (routing.Route{Provider: "openai", Model: "gpt-5.2"}) {
		t.Errorf("candidates = %v", candidates)
	}

	// Persisted for the next process.
	persisted, err := db.ListRoutingOverrides(database)
	if err != nil {
		t.Fatalf("ListRoutingOverrides failed: %v", err)
	}
	if len(persisted["draft_x"]) != 2 {
		t.Errorf("persisted = %v", persisted)
	}
}

func TestSetRouting_BadRouteRejected(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	_, err := SetRouting(context.Background(), database, cfg, deps, SetRoutingInput{
		Stage:  "draft_x",
		Routes: []string{"not-a-route"},
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}

	// Nothing was persisted.
	persisted, err := db.ListRoutingOverrides(database)
	if err != nil {
		t.Fatalf("ListRoutingOverrides failed: %v", err)
	}
	if len(persisted) != 0 {
		t.Errorf("persisted = %v, want empty", persisted)
	}
}

func TestShowRouting_SnapshotsLiveTable(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())
	deps.Table.Set("summarize", []routing.Route{{Provider: "gemini", Model: "gemini-3-flash-preview"}})

	out, err := ShowRouting(context.Background(), database, cfg, deps)
	if err != nil {
		t.Fatalf("ShowRouting failed: %v", err)
	}
	if len(out.Stages["summarize"]) != 1 || out.Stages["summarize"][0] != "gemini:gemini-3-flash-preview" {
		t.Errorf("stages = %v", out.Stages)
	}
}

func TestStatus_ReportsModesAndSpend(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig()
	deps := newTestDeps(newFakeRouter())

	out, err := Status(context.Background(), database, cfg, deps)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !out.DryRun {
		t.Error("default dry-run should be on")
	}
	if !out.LLMEnabled {
		t.Error("default LLM mode should be on")
	}
	if len(out.Platforms) != 3 {
		t.Errorf("Platforms = %v", out.Platforms)
	}
	if out.Costs == nil || out.Costs.Calls != 0 {
		t.Errorf("Costs = %+v, want empty summary", out.Costs)
	}
	if out.LastPublish != nil {
		t.Errorf("LastPublish = %+v, want nil", out.LastPublish)
	}
}

func TestSetDryRun_OverridesConfig(t *testing.T) {
	database := initTestDB(t)
	cfg := config.DefaultConfig() // dry_run: true in config
	deps := newTestDeps(newFakeRouter())

	if _, err := SetDryRun(context.Background(), database, cfg, deps, SetDryRunInput{DryRun: false}); err != nil {
		t.Fatalf("SetDryRun failed: %v", err)
	}

	effective, err := ResolveDryRun(database, cfg)
	if err != nil {
		t.Fatalf("ResolveDryRun failed: %v", err)
	}
	if effective {
		t.Error("runtime toggle should override the config file")
	}
}

package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/llm"
	"github.com/Alksalt/llm-social-agent/internal/ops"
	"github.com/Alksalt/llm-social-agent/internal/publish"
	"github.com/Alksalt/llm-social-agent/internal/routing"
	"github.com/Alksalt/llm-social-agent/internal/style"
)

// stubRouter answers every stage with a fixed short reply.
type stubRouter struct{}

func (stubRouter) Complete(ctx context.Context, stage string, req llm.Request) (*llm.Result, error) {
	return &llm.Result{Text: "stub draft text", Provider: "stub", Model: "stub-1"}, nil
}

// stubPublisher simulates a platform that always succeeds.
type stubPublisher struct {
	platform diary.Platform
}

func (s stubPublisher) Platform() diary.Platform { return s.platform }

func (s stubPublisher) Publish(ctx context.Context, text string, dryRun bool) (*publish.Result, error) {
	return &publish.Result{Success: true, DryRun: dryRun, ExternalID: "stub-ext"}, nil
}

// testSetup creates a temporary database, config, and deps for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, *ops.Deps) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()

	publishers := make(map[diary.Platform]publish.Publisher)
	for _, p := range diary.Platforms {
		publishers[p] = stubPublisher{platform: p}
	}

	deps := &ops.Deps{
		Router:     stubRouter{},
		Table:      routing.NewTable(cfg.Routing, slog.New(slog.DiscardHandler)),
		Publishers: publishers,
		Style:      style.Default(),
		Logger:     slog.New(slog.DiscardHandler),
		Now:        time.Now,
	}
	return database, cfg, deps
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultPayload decodes the JSON text content of a tool result.
func resultPayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", result.Content[0])
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	return payload
}

func TestHandleCapture_Success(t *testing.T) {
	database, cfg, deps := testSetup(t)
	h := NewHandlers(database, cfg, deps)

	result, err := h.HandleCapture(context.Background(), makeRequest(map[string]any{
		"text":    "Captured over MCP. #draft",
		"user_id": "user-1",
	}))
	if err != nil {
		t.Fatalf("HandleCapture failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result)
	}

	payload := resultPayload(t, result)
	entry, ok := payload["entry"].(map[string]any)
	if !ok {
		t.Fatalf("payload = %v, want entry object", payload)
	}
	if entry["RawText"] != "Captured over MCP." {
		t.Errorf("RawText = %v", entry["RawText"])
	}
}

func TestHandleCapture_DuplicateReturnsErrorResult(t *testing.T) {
	database, cfg, deps := testSetup(t)
	h := NewHandlers(database, cfg, deps)

	args := map[string]any{"text": "Twice captured.", "user_id": "user-1"}
	if _, err := h.HandleCapture(context.Background(), makeRequest(args)); err != nil {
		t.Fatalf("first capture failed: %v", err)
	}

	result, err := h.HandleCapture(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("HandleCapture failed: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError for duplicate")
	}

	payload := resultPayload(t, result)
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("payload = %v, want error object", payload)
	}
	if errObj["code"] != "DUPLICATE_ENTRY" {
		t.Errorf("code = %v, want DUPLICATE_ENTRY", errObj["code"])
	}
}

func TestHandleDraftAndApproveFlow(t *testing.T) {
	database, cfg, deps := testSetup(t)
	h := NewHandlers(database, cfg, deps)

	if _, err := h.HandleCapture(context.Background(), makeRequest(map[string]any{
		"text": "Full MCP pipeline test entry.", "user_id": "user-1",
	})); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	result, err := h.HandleDraft(context.Background(), makeRequest(map[string]any{
		"user_id":   "user-1",
		"platforms": []any{"twitter"},
	}))
	if err != nil {
		t.Fatalf("HandleDraft failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", resultPayload(t, result))
	}

	payload := resultPayload(t, result)
	results, ok := payload["results"].([]any)
	if !ok || len(results) != 1 {
		t.Fatalf("results = %v, want one draft", payload["results"])
	}
	draft := results[0].(map[string]any)["draft"].(map[string]any)
	if draft["Platform"] != "x" {
		t.Errorf("Platform = %v, want x (twitter alias)", draft["Platform"])
	}

	approve, err := h.HandleApprove(context.Background(), makeRequest(map[string]any{
		"draft_id": draft["ID"],
	}))
	if err != nil {
		t.Fatalf("HandleApprove failed: %v", err)
	}
	if approve.IsError {
		t.Fatalf("approve error: %+v", resultPayload(t, approve))
	}
}

func TestHandleStatus(t *testing.T) {
	database, cfg, deps := testSetup(t)
	h := NewHandlers(database, cfg, deps)

	result, err := h.HandleStatus(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleStatus failed: %v", err)
	}
	payload := resultPayload(t, result)
	if payload["dry_run"] != true {
		t.Errorf("dry_run = %v, want true", payload["dry_run"])
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"diary_capture", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v, want [bogus_tool]", unknown)
	}
}

func TestNewServer_SkipsDisabledTools(t *testing.T) {
	database, cfg, deps := testSetup(t)
	cfg.DisabledTools = []string{"draft_publish"}

	s := NewServer(database, cfg, deps, "test")
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
}

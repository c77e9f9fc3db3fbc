package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
	"github.com/Alksalt/llm-social-agent/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db   *sql.DB
	cfg  *config.Config
	deps *ops.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, deps *ops.Deps) *Handlers {
	return &Handlers{db: db, cfg: cfg, deps: deps}
}

// Request types for each tool

// CaptureRequest represents the arguments for diary_capture.
type CaptureRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
	Source string `json:"source,omitempty"`
}

// DraftRequest represents the arguments for diary_draft.
type DraftRequest struct {
	EntryID   string   `json:"entry_id,omitempty"`
	UserID    string   `json:"user_id,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
}

// DraftIDRequest addresses a single draft.
type DraftIDRequest struct {
	DraftID string `json:"draft_id"`
}

// ScheduleRequest represents the arguments for draft_schedule.
type ScheduleRequest struct {
	DraftID string `json:"draft_id"`
	When    string `json:"when"`
}

// EditRequest represents the arguments for draft_edit.
type EditRequest struct {
	DraftID string `json:"draft_id"`
	Text    string `json:"text"`
}

// QueueRequest represents the arguments for draft_queue.
type QueueRequest struct {
	UserID string `json:"user_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// RoutingSetRequest represents the arguments for routing_set.
type RoutingSetRequest struct {
	Stage  string   `json:"stage"`
	Routes []string `json:"routes"`
}

// DryRunRequest represents the arguments for agent_set_dry_run.
type DryRunRequest struct {
	DryRun bool `json:"dry_run"`
}

// HandleCapture implements the diary_capture tool.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	source := input.Source
	if source == "" {
		source = "mcp"
	}

	result, opErr := ops.Capture(ctx, h.db, h.cfg, h.deps, ops.CaptureInput{
		UserID: input.UserID,
		Text:   input.Text,
		Source: source,
	})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleDraft implements the diary_draft tool.
func (h *Handlers) HandleDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DraftRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	platforms := make([]diary.Platform, 0, len(input.Platforms))
	for _, p := range input.Platforms {
		platforms = append(platforms, diary.NormalizePlatform(p))
	}

	result, opErr := ops.Draft(ctx, h.db, h.cfg, h.deps, ops.DraftInput{
		EntryID:   input.EntryID,
		UserID:    input.UserID,
		Platforms: platforms,
	})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleApprove implements the draft_approve tool.
func (h *Handlers) HandleApprove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DraftIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, opErr := ops.Approve(ctx, h.db, h.cfg, h.deps, ops.ApproveInput{DraftID: input.DraftID})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandlePublish implements the draft_publish tool.
func (h *Handlers) HandlePublish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DraftIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, opErr := ops.Publish(ctx, h.db, h.cfg, h.deps, ops.PublishInput{DraftID: input.DraftID})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleSchedule implements the draft_schedule tool.
func (h *Handlers) HandleSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScheduleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, opErr := ops.Schedule(ctx, h.db, h.cfg, h.deps, ops.ScheduleInput{
		DraftID: input.DraftID,
		When:    input.When,
	})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleEdit implements the draft_edit tool.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EditRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, opErr := ops.Edit(ctx, h.db, h.cfg, h.deps, ops.EditInput{
		DraftID: input.DraftID,
		Text:    input.Text,
	})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleRegenerate implements the draft_regenerate tool.
func (h *Handlers) HandleRegenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DraftIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, opErr := ops.Regenerate(ctx, h.db, h.cfg, h.deps, ops.RegenerateInput{DraftID: input.DraftID})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleDiscard implements the draft_discard tool.
func (h *Handlers) HandleDiscard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DraftIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, opErr := ops.Discard(ctx, h.db, h.cfg, h.deps, ops.DiscardInput{DraftID: input.DraftID})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleQueue implements the draft_queue tool.
func (h *Handlers) HandleQueue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QueueRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, opErr := ops.Queue(ctx, h.db, h.cfg, h.deps, ops.QueueInput{
		UserID: input.UserID,
		Limit:  input.Limit,
	})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleRunDue implements the scheduler_run_due tool.
func (h *Handlers) HandleRunDue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, opErr := ops.RunDue(ctx, h.db, h.cfg, h.deps)
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleRoutingSet implements the routing_set tool.
func (h *Handlers) HandleRoutingSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RoutingSetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, opErr := ops.SetRouting(ctx, h.db, h.cfg, h.deps, ops.SetRoutingInput{
		Stage:  input.Stage,
		Routes: input.Routes,
	})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleRoutingShow implements the routing_show tool.
func (h *Handlers) HandleRoutingShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, opErr := ops.ShowRouting(ctx, h.db, h.cfg, h.deps)
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleStatus implements the agent_status tool.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, opErr := ops.Status(ctx, h.db, h.cfg, h.deps)
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// HandleSetDryRun implements the agent_set_dry_run tool.
func (h *Handlers) HandleSetDryRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DryRunRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, opErr := ops.SetDryRun(ctx, h.db, h.cfg, h.deps, ops.SetDryRunInput{DryRun: input.DryRun})
	if opErr != nil {
		return errorResult(opErr), nil
	}
	return successResult(result)
}

// errorResult converts an error into a structured MCP error payload.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if aErr, ok := err.(*errors.AgentError); ok {
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": aErr.Message,
			"status":  aErr.Status,
		}
		// Internal errors keep their details out of the wire payload.
		if aErr.Code != errors.ErrInternal && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult wraps operation output as a JSON tool result.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

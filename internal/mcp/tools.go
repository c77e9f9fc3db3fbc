package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var captureToolDef = mcp.NewTool("diary_capture",
	mcp.WithDescription("Store a diary entry. Inline directives (#draft, #private, #strict, #publish) are parsed out of the text. Duplicate entries for the same user are rejected."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Raw diary text, directives included")),
	mcp.WithString("user_id", mcp.Description("Owner of the entry (default: \"default\")")),
	mcp.WithString("source", mcp.Description("Where the text came from (default: \"mcp\")")),
)

var draftToolDef = mcp.NewTool("diary_draft",
	mcp.WithDescription("Generate platform drafts from a diary entry: summarize, generate per platform, validate against character limits."),
	mcp.WithString("entry_id", mcp.Description("Entry to draft from; omit to use the user's latest entry")),
	mcp.WithString("user_id", mcp.Description("Used to resolve the latest entry when entry_id is omitted")),
	mcp.WithArray("platforms", mcp.Description("Target platforms (x, threads, linkedin); omit for all enabled"),
		mcp.Items(map[string]any{"type": "string"})),
)

var approveToolDef = mcp.NewTool("draft_approve",
	mcp.WithDescription("Approve a pending draft so it can be published or scheduled."),
	mcp.WithString("draft_id", mcp.Required(), mcp.Description("Draft to approve")),
)

var publishToolDef = mcp.NewTool("draft_publish",
	mcp.WithDescription("Publish an approved draft to its platform now. Honors dry-run mode and the weekly platform cap."),
	mcp.WithString("draft_id", mcp.Required(), mcp.Description("Draft to publish")),
)

var scheduleToolDef = mcp.NewTool("draft_schedule",
	mcp.WithDescription("Schedule an approved draft for a future publish. The time is interpreted in the configured timezone."),
	mcp.WithString("draft_id", mcp.Required(), mcp.Description("Draft to schedule")),
	mcp.WithString("when", mcp.Required(), mcp.Description("Local time, e.g. \"2026-09-01 09:30\"")),
)

var editToolDef = mcp.NewTool("draft_edit",
	mcp.WithDescription("Replace a draft's text by hand. The new text must fit the platform limit; an approved draft returns to pending approval."),
	mcp.WithString("draft_id", mcp.Required(), mcp.Description("Draft to edit")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Replacement text")),
)

var regenerateToolDef = mcp.NewTool("draft_regenerate",
	mcp.WithDescription("Rerun generation and validation for an existing draft, replacing its text."),
	mcp.WithString("draft_id", mcp.Required(), mcp.Description("Draft to regenerate")),
)

var discardToolDef = mcp.NewTool("draft_discard",
	mcp.WithDescription("Discard a draft from any non-terminal state. Scheduled drafts are unscheduled."),
	mcp.WithString("draft_id", mcp.Required(), mcp.Description("Draft to discard")),
)

var queueToolDef = mcp.NewTool("draft_queue",
	mcp.WithDescription("List drafts still in flight: pending, approved, and scheduled."),
	mcp.WithString("user_id", mcp.Description("Whose queue to list (default: \"default\")")),
	mcp.WithNumber("limit", mcp.Description("Maximum drafts to return (default 20, max 100)")),
)

var runDueToolDef = mcp.NewTool("scheduler_run_due",
	mcp.WithDescription("Publish every scheduled draft whose time has passed. Idempotent."),
)

var routingSetToolDef = mcp.NewTool("routing_set",
	mcp.WithDescription("Replace a stage's provider failover list at runtime. Persisted across restarts."),
	mcp.WithString("stage", mcp.Required(), mcp.Description("Stage name: summarize, draft_x, draft_threads, draft_linkedin, check")),
	mcp.WithArray("routes", mcp.Required(), mcp.Description("provider:model strings in failover order"),
		mcp.Items(map[string]any{"type": "string"})),
)

var routingShowToolDef = mcp.NewTool("routing_show",
	mcp.WithDescription("Show the live routing table: every stage's candidate list in failover order."),
)

var statusToolDef = mcp.NewTool("agent_status",
	mcp.WithDescription("Report effective modes, enabled platforms, accumulated LLM spend, and the last publish attempt."),
)

var dryRunToolDef = mcp.NewTool("agent_set_dry_run",
	mcp.WithDescription("Toggle dry-run mode at runtime. Overrides the config file until changed again."),
	mcp.WithBoolean("dry_run", mcp.Required(), mcp.Description("true to simulate publishes, false to post for real")),
)

// Package mcp exposes the pipeline operations as MCP tools over stdio,
// so an agent session can capture entries and drive drafts alongside
// the CLI.
package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"diary_capture": {
		def:     captureToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCapture },
	},
	"diary_draft": {
		def:     draftToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraft },
	},
	"draft_approve": {
		def:     approveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleApprove },
	},
	"draft_publish": {
		def:     publishToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePublish },
	},
	"draft_schedule": {
		def:     scheduleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSchedule },
	},
	"draft_edit": {
		def:     editToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEdit },
	},
	"draft_regenerate": {
		def:     regenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRegenerate },
	},
	"draft_discard": {
		def:     discardToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDiscard },
	},
	"draft_queue": {
		def:     queueToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQueue },
	},
	"scheduler_run_due": {
		def:     runDueToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRunDue },
	},
	"routing_set": {
		def:     routingSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRoutingSet },
	},
	"routing_show": {
		def:     routingShowToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRoutingShow },
	},
	"agent_status": {
		def:     statusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStatus },
	},
	"agent_set_dry_run": {
		def:     dryRunToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetDryRun },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns the unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the agent tools registered.
// Tools listed in cfg.DisabledTools are excluded.
func NewServer(db *sql.DB, cfg *config.Config, deps *ops.Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"llm-social-agent",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, deps)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, deps *ops.Deps, version string) error {
	s := NewServer(db, cfg, deps, version)
	return server.ServeStdio(s)
}

package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/llm"
	"github.com/Alksalt/llm-social-agent/internal/mcp"
	"github.com/Alksalt/llm-social-agent/internal/ops"
	"github.com/Alksalt/llm-social-agent/internal/publish"
	"github.com/Alksalt/llm-social-agent/internal/routing"
	"github.com/Alksalt/llm-social-agent/internal/style"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"capture": true, "draft": true, "approve": true, "publish": true,
	"schedule": true, "queue": true, "discard": true, "edit": true,
	"regenerate": true, "routing": true, "scheduler": true,
	"status": true, "dry-run": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
    __ _  __ _  ___ _ __  | |_
   / _, |/ _, |/ _ \ '_ \ | __|
  | (_| | (_| |  __/ | | || |_
   \__,_|\__, |\___|_| |_| \__|
         |___/

  Diary-to-social-draft agent

  Usage: agent <command> [options]
         agent --help

  MCP server mode requires piped input.`)
}

// parseLogLevel maps the configured level name to a slog.Level.
func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// usageRecorder appends router usage rows to the database.
type usageRecorder struct {
	db *sql.DB
}

func (r usageRecorder) RecordUsage(u *diary.UsageLogEntry) error {
	return db.InsertUsage(r.db, u)
}

// buildDeps assembles the runtime dependencies: routing table, LLM
// router, publish clients, and the style guide.
func buildDeps(database *sql.DB, cfg *config.Config, logger *slog.Logger) *ops.Deps {
	persisted, err := db.ListRoutingOverrides(database)
	if err != nil {
		logger.Warn("could not load persisted routing overrides", "error", err)
	}
	table := routing.Build(cfg.Routing, cfg.Paths.ModelsPath, persisted, logger)

	llmTimeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	providers := map[string]llm.Provider{
		"openai":    llm.NewOpenAIClient(llmTimeout),
		"anthropic": llm.NewAnthropicClient(llmTimeout),
		"gemini":    llm.NewGeminiClient(llmTimeout),
	}
	router := llm.NewRouter(table, providers, usageRecorder{db: database}, cfg.EstimateCost, llmTimeout, logger)

	publishTimeout := time.Duration(cfg.Publish.TimeoutSeconds) * time.Second

	return &ops.Deps{
		Router:     router,
		Table:      table,
		Publishers: publish.NewClients(publishTimeout),
		Style:      style.Load(cfg.Paths.StylePath, logger),
		Logger:     logger,
		Now:        time.Now,
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".social-agent")

	// Provider and platform credentials come from the environment; a
	// .env next to the database or in the working directory fills in
	// whatever the shell did not export.
	_ = godotenv.Load(filepath.Join(baseDir, ".env"))
	_ = godotenv.Load()

	bootLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load(baseDir, bootLogger)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("settings disable unknown tools", "tools", unknown)
	}

	deps := buildDeps(database, cfg, logger)

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(database, cfg, deps)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'agent --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(database, cfg, deps, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

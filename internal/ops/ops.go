// Package ops implements the pipeline operations shared by the CLI
// and the MCP server. Each operation takes the database, the config,
// and the runtime dependencies, and returns a typed output.
package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/llm"
	"github.com/Alksalt/llm-social-agent/internal/publish"
	"github.com/Alksalt/llm-social-agent/internal/routing"
	"github.com/Alksalt/llm-social-agent/internal/style"
)

// DefaultQueueLimit bounds queue listings when the caller passes zero.
const DefaultQueueLimit = 20

// MaxQueueLimit is the hard ceiling for queue listings.
const MaxQueueLimit = 100

// summaryFallbackChars bounds the deterministic summary when every
// provider fails or the LLM is disabled.
const summaryFallbackChars = 300

// Completer is the minimal router surface the pipeline needs.
type Completer interface {
	Complete(ctx context.Context, stage string, req llm.Request) (*llm.Result, error)
}

// Deps carries the runtime collaborators of the pipeline operations.
type Deps struct {
	Router     Completer
	Table      *routing.Table
	Publishers map[diary.Platform]publish.Publisher
	Style      *style.Style
	Logger     *slog.Logger
	Now        func() time.Time
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *Deps) contract() string {
	if d.Style != nil && d.Style.Contract != "" {
		return d.Style.Contract
	}
	return style.BuiltinContract
}

func (d *Deps) template(platform diary.Platform) string {
	if d.Style != nil {
		return d.Style.Template(platform)
	}
	return style.Default().Template(platform)
}

// newULID generates a ULID for entry and draft ids.
func newULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// llmEnabled reports whether router calls are allowed at all.
func llmEnabled(cfg *config.Config, deps *Deps) bool {
	return cfg.Modes.LLMEnabled && deps.Router != nil
}

// ResolveDryRun returns the effective dry-run mode: the persisted
// runtime toggle wins over the config file.
func ResolveDryRun(database *sql.DB, cfg *config.Config) (bool, error) {
	fallback := strconv.FormatBool(cfg.Modes.DryRun)
	value, err := db.GetSetting(database, "dry_run", fallback)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// systemPrompt wraps the style contract for every generation call.
func systemPrompt(contract string) string {
	return "You are a social writing assistant. Follow this style contract exactly when possible:\n\n" + contract
}

// summaryPrompt asks for a short factual summary of the entry.
func summaryPrompt(entryText string) string {
	return "Summarize this diary entry in 2-3 sentences. " +
		"Preserve concrete facts, remove fluff, and do not invent details.\n\n" +
		"Diary entry:\n" + entryText
}

// draftPrompt renders the platform template with the entry context.
func draftPrompt(platform diary.Platform, entryText, summary, template string, strict bool, limit int) string {
	strictRules := fmt.Sprintf("Hard limit: %d chars. Keep tone natural and practical.", limit)
	if strict {
		strictRules = fmt.Sprintf("Hard limit: %d chars. Use conservative wording, no risky claims.", limit)
	}
	replacer := strings.NewReplacer(
		"{entry_text}", entryText,
		"{summary}", summary,
		"{strict_rules}", strictRules,
		"{platform}", string(platform),
		"{char_limit}", strconv.Itoa(limit),
	)
	return replacer.Replace(template)
}

// shortenPrompt asks the model to rewrite an over-limit draft.
func shortenPrompt(platform diary.Platform, limit int, content string) string {
	return fmt.Sprintf(
		"Rewrite this %s draft under %d chars without losing the core meaning.\n\nOriginal draft:\n%s",
		platform, limit, content,
	)
}

// draftStage maps a platform to its routing stage name.
func draftStage(platform diary.Platform) string {
	return "draft_" + string(platform)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueueLimit
	}
	if limit > MaxQueueLimit {
		return MaxQueueLimit
	}
	return limit
}

// truncateRunes bounds a string for deterministic fallbacks.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

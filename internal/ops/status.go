package ops

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/diary"
)

// StatusOutput is the agent health summary.
type StatusOutput struct {
	DryRun      bool              `json:"dry_run"`
	LLMEnabled  bool              `json:"llm_enabled"`
	Platforms   []string          `json:"platforms"`
	Costs       *db.CostSummary   `json:"costs"`
	LastPublish *diary.PublishLog `json:"last_publish,omitempty"`
}

// Status reports the effective modes, enabled platforms, accumulated
// LLM spend, and the most recent publish attempt.
func Status(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps) (*StatusOutput, error) {
	dryRun, err := ResolveDryRun(database, cfg)
	if err != nil {
		return nil, err
	}

	costs, err := db.GetCostSummary(database)
	if err != nil {
		return nil, err
	}

	last, err := db.LastPublishLog(database)
	if err != nil {
		return nil, err
	}

	return &StatusOutput{
		DryRun:      dryRun,
		LLMEnabled:  cfg.Modes.LLMEnabled,
		Platforms:   cfg.EnabledPlatforms(),
		Costs:       costs,
		LastPublish: last,
	}, nil
}

// SetDryRunInput contains parameters for the SetDryRun operation.
type SetDryRunInput struct {
	DryRun bool
}

// SetDryRunOutput confirms the new mode.
type SetDryRunOutput struct {
	DryRun bool `json:"dry_run"`
}

// SetDryRun persists the runtime dry-run toggle. It overrides the
// config file until changed again.
func SetDryRun(ctx context.Context, database *sql.DB, cfg *config.Config, deps *Deps, input SetDryRunInput) (*SetDryRunOutput, error) {
	if err := db.SetSetting(database, "dry_run", strconv.FormatBool(input.DryRun)); err != nil {
		return nil, err
	}
	deps.logger().Info("dry-run mode set", "dry_run", input.DryRun)
	return &SetDryRunOutput{DryRun: input.DryRun}, nil
}

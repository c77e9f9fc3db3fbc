package db

import (
	"database/sql"
	"encoding/json"

	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
)

// InsertUsage appends one row to the llm_calls usage log.
func InsertUsage(database *sql.DB, u *diary.UsageLogEntry) error {
	query := `
		INSERT INTO llm_calls (stage, provider, model, tokens_in, tokens_out, cost_usd, latency_ms, succeeded, error_kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := database.Exec(query,
		u.Stage, u.Provider, u.Model, u.TokensIn, u.TokensOut,
		u.CostUSD, u.LatencyMS, boolToInt(u.Succeeded), u.ErrorKind, u.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListUsageForStage returns usage rows for a stage, oldest first.
func ListUsageForStage(database *sql.DB, stage string) ([]*diary.UsageLogEntry, error) {
	rows, err := database.Query(`
		SELECT id, stage, provider, model, tokens_in, tokens_out, cost_usd, latency_ms, succeeded, error_kind, created_at
		FROM llm_calls WHERE stage = ?
		ORDER BY id ASC
	`, stage)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []*diary.UsageLogEntry
	for rows.Next() {
		var u diary.UsageLogEntry
		var succeeded int
		err := rows.Scan(&u.ID, &u.Stage, &u.Provider, &u.Model, &u.TokensIn, &u.TokensOut,
			&u.CostUSD, &u.LatencyMS, &succeeded, &u.ErrorKind, &u.CreatedAt)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		u.Succeeded = succeeded != 0
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CostSummary aggregates the usage log for the status op.
type CostSummary struct {
	Calls     int     `json:"calls"`
	TokensIn  int     `json:"tokens_in"`
	TokensOut int     `json:"tokens_out"`
	CostUSD   float64 `json:"cost_usd"`
}

// GetCostSummary totals all recorded LLM calls.
func GetCostSummary(database *sql.DB) (*CostSummary, error) {
	var s CostSummary
	err := database.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(tokens_in), 0),
		       COALESCE(SUM(tokens_out), 0),
		       COALESCE(SUM(cost_usd), 0)
		FROM llm_calls
	`).Scan(&s.Calls, &s.TokensIn, &s.TokensOut, &s.CostUSD)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &s, nil
}

// InsertPublishLog appends one publish attempt to the audit log.
func InsertPublishLog(database *sql.DB, p *diary.PublishLog) error {
	query := `
		INSERT INTO publish_logs (draft_id, platform, attempted_at, success, dry_run, external_id, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := database.Exec(query,
		p.DraftID, string(p.Platform), p.AttemptedAt,
		boolToInt(p.Success), boolToInt(p.DryRun), p.ExternalID, p.Error,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LastPublishLog returns the most recent publish attempt, or nil when
// nothing has been attempted yet.
func LastPublishLog(database *sql.DB) (*diary.PublishLog, error) {
	row := database.QueryRow(`
		SELECT id, draft_id, platform, attempted_at, success, dry_run, external_id, error
		FROM publish_logs ORDER BY id DESC LIMIT 1
	`)

	var p diary.PublishLog
	var platform string
	var success, dryRun int
	err := row.Scan(&p.ID, &p.DraftID, &platform, &p.AttemptedAt, &success, &dryRun, &p.ExternalID, &p.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	p.Platform = diary.Platform(platform)
	p.Success = success != 0
	p.DryRun = dryRun != 0
	return &p, nil
}

// CountRecentPublishes counts successful real (non-dry-run) publishes
// for a platform since the given time. Used by the weekly cap check.
func CountRecentPublishes(database *sql.DB, platform diary.Platform, since int64) (int, error) {
	var n int
	err := database.QueryRow(`
		SELECT COUNT(*) FROM publish_logs
		WHERE platform = ? AND success = 1 AND dry_run = 0 AND attempted_at >= ?
	`, string(platform), since).Scan(&n)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// SetSetting upserts a global setting.
func SetSetting(database *sql.DB, key, value string) error {
	_, err := database.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetSetting returns a global setting, or fallback when unset.
func GetSetting(database *sql.DB, key, fallback string) (string, error) {
	var value string
	err := database.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return value, nil
}

// UpsertRoutingOverride persists one stage's runtime routing override
// as a JSON array of "provider:model" strings.
func UpsertRoutingOverride(database *sql.DB, stage string, routes []string) error {
	data, err := json.Marshal(routes)
	if err != nil {
		return errors.NewInternal(err)
	}
	_, err = database.Exec(`
		INSERT INTO routing_overrides (stage, routes) VALUES (?, ?)
		ON CONFLICT(stage) DO UPDATE SET routes = excluded.routes
	`, stage, string(data))
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListRoutingOverrides returns all persisted routing overrides.
func ListRoutingOverrides(database *sql.DB) (map[string][]string, error) {
	rows, err := database.Query(`SELECT stage, routes FROM routing_overrides`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	overrides := make(map[string][]string)
	for rows.Next() {
		var stage, raw string
		if err := rows.Scan(&stage, &raw); err != nil {
			return nil, errors.NewInternal(err)
		}
		var routes []string
		if err := json.Unmarshal([]byte(raw), &routes); err != nil {
			// A corrupt row must not take routing down; skip it.
			continue
		}
		overrides[stage] = routes
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return overrides, nil
}

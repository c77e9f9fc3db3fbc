package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/Alksalt/llm-social-agent/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/agent.db.
// The baseDir parameter allows tests to use t.TempDir() instead of
// ~/.social-agent.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "agent.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(database); err != nil {
		database.Close()
		return nil, err
	}

	if err := migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return database, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(database *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(database *sql.DB) error {
	version, err := GetUserVersion(database)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS entries (
		  id           TEXT PRIMARY KEY,
		  user_id      TEXT NOT NULL,
		  raw_text     TEXT NOT NULL,
		  content_hash TEXT NOT NULL,
		  source       TEXT NOT NULL DEFAULT 'cli',
		  private      INTEGER NOT NULL DEFAULT 0,
		  strict       INTEGER NOT NULL DEFAULT 0,
		  created_at   INTEGER NOT NULL,
		  UNIQUE(user_id, content_hash)
		);

		CREATE TABLE IF NOT EXISTS drafts (
		  id             TEXT PRIMARY KEY,
		  entry_id       TEXT NOT NULL REFERENCES entries(id),
		  platform       TEXT NOT NULL,
		  status         TEXT NOT NULL,
		  text           TEXT NOT NULL DEFAULT '',
		  char_count     INTEGER NOT NULL DEFAULT 0,
		  summary        TEXT NOT NULL DEFAULT '',
		  gen_provider   TEXT NOT NULL DEFAULT '',
		  gen_model      TEXT NOT NULL DEFAULT '',
		  sum_provider   TEXT NOT NULL DEFAULT '',
		  sum_model      TEXT NOT NULL DEFAULT '',
		  regen_attempts INTEGER NOT NULL DEFAULT 0,
		  fail_reason    TEXT NOT NULL DEFAULT '',
		  scheduled_at   INTEGER,
		  published_at   INTEGER,
		  external_id    TEXT NOT NULL DEFAULT '',
		  created_at     INTEGER NOT NULL,
		  updated_at     INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_drafts_entry_id ON drafts(entry_id);
		CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts(status);
		CREATE INDEX IF NOT EXISTS idx_drafts_due
		ON drafts(status, scheduled_at)
		WHERE scheduled_at IS NOT NULL;

		CREATE TABLE IF NOT EXISTS llm_calls (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  stage      TEXT NOT NULL,
		  provider   TEXT NOT NULL,
		  model      TEXT NOT NULL,
		  tokens_in  INTEGER NOT NULL DEFAULT 0,
		  tokens_out INTEGER NOT NULL DEFAULT 0,
		  cost_usd   REAL NOT NULL DEFAULT 0,
		  latency_ms INTEGER NOT NULL DEFAULT 0,
		  succeeded  INTEGER NOT NULL,
		  error_kind TEXT NOT NULL DEFAULT '',
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_llm_calls_stage ON llm_calls(stage, created_at);

		CREATE TABLE IF NOT EXISTS publish_logs (
		  id           INTEGER PRIMARY KEY AUTOINCREMENT,
		  draft_id     TEXT NOT NULL,
		  platform     TEXT NOT NULL,
		  attempted_at INTEGER NOT NULL,
		  success      INTEGER NOT NULL,
		  dry_run      INTEGER NOT NULL,
		  external_id  TEXT NOT NULL DEFAULT '',
		  error        TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_publish_logs_draft ON publish_logs(draft_id);
		CREATE INDEX IF NOT EXISTS idx_publish_logs_platform
		ON publish_logs(platform, attempted_at);

		CREATE TABLE IF NOT EXISTS routing_overrides (
		  stage  TEXT PRIMARY KEY,
		  routes TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS settings (
		  key   TEXT PRIMARY KEY,
		  value TEXT NOT NULL
		);
		`
		if _, err := database.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(database, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(database *sql.DB) error {
	var journalMode string
	if err := database.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(database *sql.DB) (int, error) {
	var version int
	if err := database.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(database *sql.DB, version int) error {
	_, err := database.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/sift/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/sift.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.sift.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the DSN apply to every pooled connection
	dbPath := filepath.Join(baseDir, "sift.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Raw capture text lives here; keep the file private (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS projects (
		  id          TEXT PRIMARY KEY,
		  owner_id    TEXT NOT NULL,
		  name_raw    TEXT NOT NULL,
		  name_norm   TEXT NOT NULL,
		  description TEXT,
		  created_at  INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_owner_name_norm
		ON projects(owner_id, name_norm);

		CREATE TABLE IF NOT EXISTS captures (
		  id                TEXT PRIMARY KEY,
		  user_id           TEXT NOT NULL,
		  container_kind    TEXT NOT NULL CHECK (container_kind IN ('me', 'project')),
		  project_id        TEXT REFERENCES projects(id),
		  source_mode       TEXT NOT NULL,
		  source_type       TEXT NOT NULL,
		  window_start      TEXT NOT NULL,
		  window_end        TEXT NOT NULL,
		  window_start_unix INTEGER NOT NULL,
		  metadata_json     TEXT,
		  created_at        INTEGER NOT NULL,
		  CHECK ((container_kind = 'project') = (project_id IS NOT NULL))
		);

		CREATE INDEX IF NOT EXISTS idx_captures_user_window
		ON captures(user_id, window_start_unix DESC, id DESC);

		CREATE TABLE IF NOT EXISTS capture_segments (
		  id            TEXT PRIMARY KEY,
		  capture_id    TEXT NOT NULL REFERENCES captures(id),
		  segment_index INTEGER NOT NULL,
		  content       TEXT NOT NULL,
		  metadata_json TEXT NOT NULL,
		  created_at    INTEGER NOT NULL,
		  updated_at    INTEGER NOT NULL,
		  UNIQUE (capture_id, segment_index)
		);

		CREATE TABLE IF NOT EXISTS project_captures (
		  project_id TEXT NOT NULL REFERENCES projects(id),
		  capture_id TEXT NOT NULL REFERENCES captures(id),
		  created_at INTEGER NOT NULL,
		  PRIMARY KEY (project_id, capture_id)
		);

		CREATE TABLE IF NOT EXISTS decisions (
		  id         TEXT PRIMARY KEY,
		  user_id    TEXT NOT NULL,
		  project_id TEXT,
		  capture_id TEXT NOT NULL REFERENCES captures(id),
		  title      TEXT NOT NULL,
		  content    TEXT NOT NULL,
		  context    TEXT,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_decisions_capture ON decisions(capture_id);

		CREATE TABLE IF NOT EXISTS tasks (
		  id         TEXT PRIMARY KEY,
		  user_id    TEXT NOT NULL,
		  project_id TEXT,
		  capture_id TEXT NOT NULL REFERENCES captures(id),
		  kind       TEXT NOT NULL CHECK (kind IN ('commitment', 'blocker', 'open_loop')),
		  title      TEXT NOT NULL,
		  content    TEXT NOT NULL,
		  context    TEXT,
		  status     TEXT NOT NULL,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_capture ON tasks(capture_id);

		CREATE TABLE IF NOT EXISTS highlights (
		  id            TEXT PRIMARY KEY,
		  user_id       TEXT NOT NULL,
		  project_id    TEXT,
		  capture_id    TEXT NOT NULL REFERENCES captures(id),
		  segment_id    TEXT NOT NULL REFERENCES capture_segments(id),
		  message_index INTEGER NOT NULL,
		  title         TEXT NOT NULL,
		  content       TEXT NOT NULL,
		  context       TEXT,
		  created_at    INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_highlights_capture ON highlights(capture_id);

		CREATE TABLE IF NOT EXISTS structure_jobs (
		  id         TEXT PRIMARY KEY,
		  user_id    TEXT NOT NULL,
		  scope      TEXT NOT NULL,
		  reason     TEXT NOT NULL,
		  status     TEXT NOT NULL,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_structure_jobs_status
		ON structure_jobs(status, created_at);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/assetze/ghaudit/internal/domain"
	"github.com/assetze/ghaudit/internal/usecase/audit"
)

// Store persists audit history using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Metadata about each audit run
	CREATE TABLE IF NOT EXISTS audit_runs (
		run_id TEXT PRIMARY KEY,
		organization TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		repos_checked INTEGER NOT NULL DEFAULT 0
	);

	-- Per-repository Dependabot results of a run
	CREATE TABLE IF NOT EXISTS dependabot_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 0,
		status_text TEXT NOT NULL,
		message TEXT,
		status_code INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES audit_runs(run_id) ON DELETE CASCADE
	);

	-- Security posture summary of a run
	CREATE TABLE IF NOT EXISTS audit_summaries (
		run_id TEXT PRIMARY KEY,
		repos_checked INTEGER NOT NULL,
		dependabot_enabled INTEGER NOT NULL,
		dependabot_coverage REAL NOT NULL,
		org_roles_audited INTEGER NOT NULL,
		team_roles_audited INTEGER NOT NULL,
		recommended_actions TEXT,
		FOREIGN KEY (run_id) REFERENCES audit_runs(run_id) ON DELETE CASCADE
	);

	-- Token verification outcomes (never the token itself)
	CREATE TABLE IF NOT EXISTS token_checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		checked_at INTEGER NOT NULL,
		valid INTEGER NOT NULL,
		scopes TEXT,
		message TEXT,
		status_code INTEGER NOT NULL,
		kind TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dependabot_run ON dependabot_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_audit_runs_started ON audit_runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_token_checks_time ON token_checks(checked_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new audit run.
func (s *Store) CreateRun(ctx context.Context, run audit.StoreRun) error {
	query := `
		INSERT INTO audit_runs (run_id, organization, started_at, finished_at, repos_checked)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Organization,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
		run.ReposChecked,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// SaveDependabotResults stores the per-repository results of a run.
func (s *Store) SaveDependabotResults(ctx context.Context, runID string, results []domain.DependabotStatus) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO dependabot_results (run_id, owner, repo, enabled, status_text, message, status_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, res := range results {
		if _, err := tx.ExecContext(ctx, query,
			runID, res.Owner, res.Repo, res.Enabled, res.StatusText, res.Message, res.StatusCode,
		); err != nil {
			return fmt.Errorf("failed to save dependabot result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dependabot results: %w", err)
	}
	return nil
}

// SaveSummary stores the posture summary of a run.
func (s *Store) SaveSummary(ctx context.Context, runID string, summary domain.AuditSummary) error {
	query := `
		INSERT INTO audit_summaries
			(run_id, repos_checked, dependabot_enabled, dependabot_coverage,
			 org_roles_audited, team_roles_audited, recommended_actions)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		runID,
		summary.ReposChecked,
		summary.DependabotEnabled,
		summary.DependabotCoverage,
		summary.OrgRolesAudited,
		summary.TeamRolesAudited,
		strings.Join(summary.RecommendedActions, "; "),
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// SaveTokenCheck records the outcome of a token verification. The token
// itself is never stored.
func (s *Store) SaveTokenCheck(ctx context.Context, checkedAt time.Time, result domain.VerificationResult) error {
	query := `
		INSERT INTO token_checks (checked_at, valid, scopes, message, status_code, kind)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		checkedAt.Unix(),
		result.Valid,
		strings.Join(result.Scopes, ","),
		result.Message,
		result.StatusCode,
		result.Kind.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save token check: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent audit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]audit.StoreRun, error) {
	query := `
		SELECT run_id, organization, started_at, finished_at, repos_checked
		FROM audit_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []audit.StoreRun
	for rows.Next() {
		var run audit.StoreRun
		var started, finished int64
		if err := rows.Scan(&run.ID, &run.Organization, &started, &finished, &run.ReposChecked); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DependabotResults returns the stored results of one run.
func (s *Store) DependabotResults(ctx context.Context, runID string) ([]domain.DependabotStatus, error) {
	query := `
		SELECT owner, repo, enabled, status_text, message, status_code
		FROM dependabot_results
		WHERE run_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependabot results: %w", err)
	}
	defer rows.Close()

	var results []domain.DependabotStatus
	for rows.Next() {
		var res domain.DependabotStatus
		if err := rows.Scan(&res.Owner, &res.Repo, &res.Enabled, &res.StatusText, &res.Message, &res.StatusCode); err != nil {
			return nil, fmt.Errorf("failed to scan dependabot result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

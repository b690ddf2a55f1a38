package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/engmetrics/jira"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveResult snapshots one query execution: the run row, the flattened
// issues (latest snapshot wins per issue key), and the run-to-issue
// membership rows, all in one transaction.
func (s *SQLiteStore) SaveResult(
	ctx context.Context,
	label string,
	query string,
	issues []*jira.Issue,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.New().String()
	now := time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO query_runs (id, label, query, run_at, issue_count)
		VALUES (?, ?, ?, ?, ?)`,
		runID, label, query, now, len(issues),
	)
	if err != nil {
		return fmt.Errorf("inserting query run %s: %w", label, err)
	}

	const upsert = `
		INSERT OR REPLACE INTO issues (
			key, id, project, project_name, type,
			summary, status, priority, resolution, assignee,
			url, created, updated, resolved,
			lead_time_hours, cycle_time_hours, raw_data, fetched_at
		) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("preparing issue upsert: %w", err)
	}
	defer stmt.Close()

	for _, issue := range issues {
		var resolved interface{}
		if !issue.Resolved.IsZero() {
			resolved = issue.Resolved.UTC()
		}

		rawData := ""
		if issue.Raw != nil {
			data, err := json.Marshal(issue.Raw)
			if err != nil {
				return fmt.Errorf("marshaling raw issue %s: %w", issue.Key, err)
			}
			rawData = string(data)
		}

		_, err = stmt.ExecContext(ctx,
			issue.Key, issue.ID, issue.Project, issue.ProjectName, issue.Type,
			issue.Summary, issue.Status, issue.Priority, issue.Resolution,
			issue.AssigneeName,
			issue.URL, issue.Created.UTC(), issue.Updated.UTC(), resolved,
			issue.LeadTime, issue.CycleTime, rawData, now,
		)
		if err != nil {
			return fmt.Errorf("upserting issue %s: %w", issue.Key, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO run_issues (run_id, issue_key)
			VALUES (?, ?)`,
			runID, issue.Key,
		)
		if err != nil {
			return fmt.Errorf("linking issue %s to run: %w", issue.Key, err)
		}
	}

	return tx.Commit()
}

// LatestRun returns the most recent run recorded under a label, or nil
// when the label has never been snapshotted.
func (s *SQLiteStore) LatestRun(
	ctx context.Context,
	label string,
) (*QueryRun, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, label, query, run_at, issue_count
		FROM query_runs WHERE label = ?
		ORDER BY run_at DESC LIMIT 1`,
		label,
	)

	var run QueryRun
	err := row.Scan(&run.ID, &run.Label, &run.Query, &run.RunAt, &run.IssueCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest run for %q: %w", label, err)
	}

	return &run, nil
}

// Runs returns every recorded run for a label, newest first.
func (s *SQLiteStore) Runs(
	ctx context.Context,
	label string,
) ([]QueryRun, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, label, query, run_at, issue_count
		FROM query_runs WHERE label = ?
		ORDER BY run_at DESC`,
		label,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs for %q: %w", label, err)
	}
	defer rows.Close()

	var runs []QueryRun
	for rows.Next() {
		var run QueryRun
		err := rows.Scan(&run.ID, &run.Label, &run.Query, &run.RunAt, &run.IssueCount)
		if err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// RunIssues returns the issue snapshots that belonged to a run.
func (s *SQLiteStore) RunIssues(
	ctx context.Context,
	runID string,
) ([]IssueRecord, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT i.* FROM issues i
		JOIN run_issues ri ON ri.issue_key = i.key
		WHERE ri.run_id = ?
		ORDER BY i.key`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying issues for run %s: %w", runID, err)
	}
	defer rows.Close()

	return collectIssues(rows)
}

// Issues retrieves issue snapshots matching the provided filter options.
func (s *SQLiteStore) Issues(
	ctx context.Context,
	filter IssueFilter,
) ([]IssueRecord, error) {
	var conditions []string
	var args []interface{}

	if filter.Project != nil {
		conditions = append(conditions, "project = ?")
		args = append(args, *filter.Project)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *filter.Type)
	}
	if filter.Resolved != nil {
		if *filter.Resolved {
			conditions = append(conditions, "resolved IS NOT NULL")
		} else {
			conditions = append(conditions, "resolved IS NULL")
		}
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(summary LIKE ? OR raw_data LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT * FROM issues"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Determine sort column.
	sortBy := "updated"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"key":              true,
			"project":          true,
			"status":           true,
			"created":          true,
			"updated":          true,
			"lead_time_hours":  true,
			"cycle_time_hours": true,
		}
		if allowedSorts[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	return collectIssues(rows)
}

// IssueByKey retrieves a single issue snapshot by its Jira key.
func (s *SQLiteStore) IssueByKey(
	ctx context.Context,
	key string,
) (*IssueRecord, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM issues WHERE key = ?", key)

	rec, err := scanIssueRow(row)
	if err != nil {
		return nil, fmt.Errorf("getting issue %s: %w", key, err)
	}

	return &rec, nil
}

// collectIssues drains a result set of issue rows.
func collectIssues(rows *sqlx.Rows) ([]IssueRecord, error) {
	var records []IssueRecord
	for rows.Next() {
		rec, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// scanIssue scans an issue row from a sqlx.Rows result set.
func scanIssue(rows *sqlx.Rows) (IssueRecord, error) {
	var (
		rec      IssueRecord
		resolved sql.NullTime
	)

	err := rows.Scan(
		&rec.Key, &rec.ID, &rec.Project, &rec.ProjectName, &rec.Type,
		&rec.Summary, &rec.Status, &rec.Priority, &rec.Resolution,
		&rec.Assignee,
		&rec.URL, &rec.Created, &rec.Updated, &resolved,
		&rec.LeadTime, &rec.CycleTime, &rec.RawData, &rec.FetchedAt,
	)
	if err != nil {
		return IssueRecord{}, fmt.Errorf("scanning issue row: %w", err)
	}

	if resolved.Valid {
		t := resolved.Time
		rec.Resolved = &t
	}

	return rec, nil
}

// scanIssueRow scans a single issue row from a sqlx.Row.
func scanIssueRow(row *sqlx.Row) (IssueRecord, error) {
	var (
		rec      IssueRecord
		resolved sql.NullTime
	)

	err := row.Scan(
		&rec.Key, &rec.ID, &rec.Project, &rec.ProjectName, &rec.Type,
		&rec.Summary, &rec.Status, &rec.Priority, &rec.Resolution,
		&rec.Assignee,
		&rec.URL, &rec.Created, &rec.Updated, &resolved,
		&rec.LeadTime, &rec.CycleTime, &rec.RawData, &rec.FetchedAt,
	)
	if err != nil {
		return IssueRecord{}, fmt.Errorf("scanning issue row: %w", err)
	}

	if resolved.Valid {
		t := resolved.Time
		rec.Resolved = &t
	}

	return rec, nil
}

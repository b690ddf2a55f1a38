package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS query_runs (
	id          TEXT PRIMARY KEY,
	label       TEXT NOT NULL,
	query       TEXT NOT NULL,
	run_at      DATETIME NOT NULL,
	issue_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS issues (
	key              TEXT PRIMARY KEY,
	id               TEXT NOT NULL DEFAULT '',
	project          TEXT NOT NULL DEFAULT '',
	project_name     TEXT NOT NULL DEFAULT '',
	type             TEXT NOT NULL DEFAULT '',
	summary          TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT '',
	priority         TEXT NOT NULL DEFAULT '',
	resolution       TEXT NOT NULL DEFAULT '',
	assignee         TEXT NOT NULL DEFAULT '',
	url              TEXT NOT NULL DEFAULT '',
	created          DATETIME NOT NULL,
	updated          DATETIME NOT NULL,
	resolved         DATETIME,
	lead_time_hours  INTEGER NOT NULL DEFAULT -1,
	cycle_time_hours INTEGER NOT NULL DEFAULT -1,
	raw_data         TEXT NOT NULL DEFAULT '',
	fetched_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_issues (
	run_id    TEXT NOT NULL REFERENCES query_runs(id) ON DELETE CASCADE,
	issue_key TEXT NOT NULL,
	PRIMARY KEY (run_id, issue_key)
);

CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project);
CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);
CREATE INDEX IF NOT EXISTS idx_issues_type ON issues(type);
CREATE INDEX IF NOT EXISTS idx_query_runs_label ON query_runs(label, run_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_issues_resolved ON issues(resolved);
CREATE INDEX IF NOT EXISTS idx_run_issues_issue_key ON run_issues(issue_key);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

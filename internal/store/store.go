package store

import (
	"context"
	"time"

	"github.com/nhle/engmetrics/jira"
)

// IssueFilter controls filtering, sorting, and pagination for cached
// issue queries.
type IssueFilter struct {
	Project  *string
	Status   *string
	Type     *string
	Resolved *bool
	Query    *string // search summary + description
	SortBy   string  // "key", "project", "status", "created", "updated", "lead_time_hours", "cycle_time_hours"
	SortDesc bool
	Limit    int
	Offset   int
}

// QueryRun records one execution of a JQL query whose results were
// snapshotted.
type QueryRun struct {
	ID         string
	Label      string
	Query      string
	RunAt      time.Time
	IssueCount int
}

// IssueRecord is the flattened, queryable snapshot of a fetched issue.
type IssueRecord struct {
	Key         string
	ID          string
	Project     string
	ProjectName string
	Type        string
	Summary     string
	Status      string
	Priority    string
	Resolution  string
	Assignee    string
	URL         string
	Created     time.Time
	Updated     time.Time
	// Resolved is nil while the issue is unresolved.
	Resolved  *time.Time
	LeadTime  int
	CycleTime int
	RawData   string
	FetchedAt time.Time
}

// Store defines the persistence interface for issue snapshots and the
// query runs that produced them.
type Store interface {
	// SaveResult snapshots the issues of one query execution under the
	// given label. It also satisfies jira.Snapshotter.
	SaveResult(ctx context.Context, label, query string, issues []*jira.Issue) error

	LatestRun(ctx context.Context, label string) (*QueryRun, error)
	Runs(ctx context.Context, label string) ([]QueryRun, error)
	RunIssues(ctx context.Context, runID string) ([]IssueRecord, error)

	Issues(ctx context.Context, filter IssueFilter) ([]IssueRecord, error)
	IssueByKey(ctx context.Context, key string) (*IssueRecord, error)

	Close() error
}

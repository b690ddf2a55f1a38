package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/engmetrics/internal/store"
	"github.com/nhle/engmetrics/jira"
	"github.com/nhle/engmetrics/tests/testutil"
)

func sampleIssues() []*jira.Issue {
	created := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	resolved := time.Date(2024, 3, 8, 17, 0, 0, 0, time.UTC)

	return []*jira.Issue{
		{
			Key:         "ENG-1",
			ID:          "10001",
			Project:     "ENG",
			ProjectName: "Engineering",
			Type:        "Bug",
			Summary:     "Checkout intermittently times out",
			Status:      "Done",
			Priority:    "High",
			Resolution:  "Fixed",
			URL:         "https://jira.example.com/browse/ENG-1",
			Created:     created,
			Updated:     resolved,
			Resolved:    resolved,
			LeadTime:    104,
			CycleTime:   100,
			Raw:         &jira.RawIssue{Key: "ENG-1"},
		},
		{
			Key:         "ENG-2",
			ID:          "10002",
			Project:     "ENG",
			ProjectName: "Engineering",
			Type:        "Story",
			Summary:     "Add gift card support",
			Status:      "In Progress",
			Priority:    "Normal",
			URL:         "https://jira.example.com/browse/ENG-2",
			Created:     created,
			Updated:     created,
			LeadTime:    -1,
			CycleTime:   -1,
		},
	}
}

func TestSaveResultAndLatestRun(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	err := s.SaveResult(ctx, "eng", "project = ENG", sampleIssues())
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	run, err := s.LatestRun(ctx, "eng")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run == nil {
		t.Fatal("LatestRun = nil after a save")
	}
	if run.Label != "eng" || run.Query != "project = ENG" {
		t.Errorf("run = %q/%q", run.Label, run.Query)
	}
	if run.IssueCount != 2 {
		t.Errorf("IssueCount = %d, want 2", run.IssueCount)
	}
}

func TestLatestRunUnknownLabel(t *testing.T) {
	s := testutil.NewTestStore(t)

	run, err := s.LatestRun(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run != nil {
		t.Errorf("run = %+v, want nil", run)
	}
}

func TestRunsNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveResult(ctx, "eng", "project = ENG", nil); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := s.SaveResult(ctx, "eng", "project = ENG", sampleIssues()); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	runs, err := s.Runs(ctx, "eng")
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Runs = %d, want 2", len(runs))
	}
	if runs[0].RunAt.Before(runs[1].RunAt) {
		t.Error("runs are not newest first")
	}
}

func TestRunIssues(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveResult(ctx, "eng", "project = ENG", sampleIssues()); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	run, err := s.LatestRun(ctx, "eng")
	if err != nil || run == nil {
		t.Fatalf("LatestRun: %v, %v", run, err)
	}

	records, err := s.RunIssues(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunIssues: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("RunIssues = %d records, want 2", len(records))
	}

	// Ordered by key.
	if records[0].Key != "ENG-1" || records[1].Key != "ENG-2" {
		t.Errorf("keys = %s, %s", records[0].Key, records[1].Key)
	}
	if records[0].Resolved == nil {
		t.Error("resolved issue stored without a resolved timestamp")
	}
	if records[1].Resolved != nil {
		t.Error("open issue stored with a resolved timestamp")
	}
	if records[0].LeadTime != 104 || records[0].CycleTime != 100 {
		t.Errorf(
			"times = %d/%d, want 104/100",
			records[0].LeadTime, records[0].CycleTime,
		)
	}
	if records[0].RawData == "" {
		t.Error("raw REST payload was not snapshotted")
	}
}

func TestIssuesFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveResult(ctx, "eng", "project = ENG", sampleIssues()); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	resolved := true
	records, err := s.Issues(ctx, store.IssueFilter{Resolved: &resolved})
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	if len(records) != 1 || records[0].Key != "ENG-1" {
		t.Errorf("resolved filter returned %d records", len(records))
	}

	typ := "Story"
	records, err = s.Issues(ctx, store.IssueFilter{Type: &typ})
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	if len(records) != 1 || records[0].Key != "ENG-2" {
		t.Errorf("type filter returned %d records", len(records))
	}

	q := "gift card"
	records, err = s.Issues(ctx, store.IssueFilter{Query: &q})
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	if len(records) != 1 || records[0].Key != "ENG-2" {
		t.Errorf("text filter returned %d records", len(records))
	}
}

func TestIssuesSortAndLimit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveResult(ctx, "eng", "project = ENG", sampleIssues()); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	records, err := s.Issues(ctx, store.IssueFilter{
		SortBy:   "key",
		SortDesc: true,
		Limit:    1,
	})
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	if len(records) != 1 || records[0].Key != "ENG-2" {
		t.Errorf("sorted/limited query returned %v", records)
	}
}

func TestUpsertKeepsLatestSnapshot(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	issues := sampleIssues()
	if err := s.SaveResult(ctx, "eng", "project = ENG", issues); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	issues[1].Status = "Done"
	issues[1].Resolution = "Fixed"
	if err := s.SaveResult(ctx, "eng", "project = ENG", issues); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	rec, err := s.IssueByKey(ctx, "ENG-2")
	if err != nil {
		t.Fatalf("IssueByKey: %v", err)
	}
	if rec.Status != "Done" {
		t.Errorf("Status = %q, want the re-fetched snapshot", rec.Status)
	}

	all, err := s.Issues(ctx, store.IssueFilter{})
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("issue count = %d after refetch, want 2", len(all))
	}
}

package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/nhle/engmetrics/jira"
)

// stubFetcher serves canned projects and counts fetches per key.
type stubFetcher struct {
	mu     gosync.Mutex
	counts map[string]int
	err    error
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{counts: make(map[string]int)}
}

func (f *stubFetcher) ProjectIssues(
	_ context.Context, projectKey string, _ int,
) (*jira.Project, error) {
	f.mu.Lock()
	f.counts[projectKey]++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &jira.Project{
		QueryResult: jira.QueryResult{
			Issues: []*jira.Issue{{Key: projectKey + "-1"}},
		},
		Key: projectKey,
	}, nil
}

func (f *stubFetcher) count(projectKey string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[projectKey]
}

func waitForResult(t *testing.T, r *Refresher) Result {
	t.Helper()

	select {
	case result := <-r.Results():
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a refresh result")
		return Result{}
	}
}

func TestRefresherFetchesOnStart(t *testing.T) {
	fetcher := newStubFetcher()
	r := New(fetcher, time.Hour, 0)
	r.Add("ENG")
	r.Start()
	defer r.Stop()

	result := waitForResult(t, r)
	if result.Project != "ENG" || result.Err != nil {
		t.Errorf("result = %+v", result)
	}
	if result.IssueCount != 1 {
		t.Errorf("IssueCount = %d, want 1", result.IssueCount)
	}
	if fetcher.count("ENG") != 1 {
		t.Errorf("fetch count = %d, want 1", fetcher.count("ENG"))
	}
}

func TestRefresherTrigger(t *testing.T) {
	fetcher := newStubFetcher()
	r := New(fetcher, time.Hour, 0)
	r.Add("ENG")
	r.Start()
	defer r.Stop()

	waitForResult(t, r)

	r.Trigger("ENG")
	waitForResult(t, r)

	if fetcher.count("ENG") != 2 {
		t.Errorf("fetch count = %d, want 2", fetcher.count("ENG"))
	}
}

func TestRefresherReportsErrors(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.err = errors.New("boom")
	r := New(fetcher, time.Hour, 0)
	r.Add("ENG")
	r.Start()
	defer r.Stop()

	result := waitForResult(t, r)
	if result.Err == nil {
		t.Fatal("expected an error result")
	}

	var errored bool
	for _, status := range r.Statuses() {
		if status.Project == "ENG" && status.State == Errored {
			errored = true
		}
	}
	if !errored {
		t.Error("status not marked errored after a failed fetch")
	}
}

func TestRefresherStatuses(t *testing.T) {
	fetcher := newStubFetcher()
	r := New(fetcher, time.Hour, 0)
	r.Add("ENG")
	r.Add("OPS")
	r.Start()
	defer r.Stop()

	waitForResult(t, r)
	waitForResult(t, r)

	statuses := r.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("Statuses = %d entries, want 2", len(statuses))
	}
	for _, status := range statuses {
		if status.State != Idle {
			t.Errorf("%s state = %d, want idle", status.Project, status.State)
		}
		if status.LastRun.IsZero() {
			t.Errorf("%s has no LastRun", status.Project)
		}
	}
}

func TestRefresherStartIsIdempotent(t *testing.T) {
	fetcher := newStubFetcher()
	r := New(fetcher, time.Hour, 0)
	r.Add("ENG")
	r.Start()
	r.Start()
	defer r.Stop()

	waitForResult(t, r)

	// A second Start must not have spawned a second loop.
	time.Sleep(50 * time.Millisecond)
	if got := fetcher.count("ENG"); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

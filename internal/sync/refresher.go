// Package sync periodically re-fetches project snapshots so a
// long-running report stays current without manual refetching.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/nhle/engmetrics/jira"
)

// State represents the current state of a project refresh.
type State int

const (
	Idle State = iota
	Running
	Errored
)

// Status holds the refresh state of a single project.
type Status struct {
	Project    string
	State      State
	LastRun    time.Time
	IssueCount int
	Err        error
}

// Result is emitted after each fetch attempt, successful or not.
type Result struct {
	Project    string
	IssueCount int
	Err        error
}

// Fetcher fetches one project's issues. *jira.Adapter satisfies it.
type Fetcher interface {
	ProjectIssues(ctx context.Context, projectKey string, maxResults int) (*jira.Project, error)
}

// fetchTimeout is the maximum time allowed for a single fetch.
const fetchTimeout = 30 * time.Second

// Refresher polls a set of projects on an interval, with manual triggers
// for an immediate refresh.
type Refresher struct {
	fetcher    Fetcher
	interval   time.Duration
	maxResults int

	projects []string
	statuses map[string]*Status
	results  chan Result
	trigger  chan string
	stop     chan struct{}

	mu      gosync.Mutex
	running bool
}

// New creates a Refresher polling each project every interval.
// maxResults caps the issues fetched per project; zero means no cap.
func New(fetcher Fetcher, interval time.Duration, maxResults int) *Refresher {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Refresher{
		fetcher:    fetcher,
		interval:   interval,
		maxResults: maxResults,
		statuses:   make(map[string]*Status),
		results:    make(chan Result, 16),
		trigger:    make(chan string, 16),
		stop:       make(chan struct{}),
	}
}

// Add registers a project to refresh. Must be called before Start.
func (r *Refresher) Add(projectKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.projects = append(r.projects, projectKey)
	r.statuses[projectKey] = &Status{Project: projectKey, State: Idle}
}

// Start launches one refresh loop per registered project. Each loop
// fetches immediately, then on every tick or trigger.
func (r *Refresher) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	projects := make([]string, len(r.projects))
	copy(projects, r.projects)
	r.mu.Unlock()

	for _, key := range projects {
		go r.loop(key)
	}
}

// Stop halts every refresh loop.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	close(r.stop)
	r.running = false
}

// TriggerAll requests an immediate refresh of every project.
func (r *Refresher) TriggerAll() {
	r.mu.Lock()
	projects := make([]string, len(r.projects))
	copy(projects, r.projects)
	r.mu.Unlock()

	for _, key := range projects {
		r.Trigger(key)
	}
}

// Trigger requests an immediate refresh of one project. It never blocks;
// a refresh already queued is enough.
func (r *Refresher) Trigger(projectKey string) {
	select {
	case r.trigger <- projectKey:
	default:
	}
}

// Results returns the channel refresh outcomes are delivered on. Slow
// consumers lose outcomes rather than stalling the refresh loops.
func (r *Refresher) Results() <-chan Result {
	return r.results
}

// Statuses returns a snapshot of every project's refresh status.
func (r *Refresher) Statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]Status, 0, len(r.statuses))
	for _, s := range r.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// loop runs the refresh cycle for a single project.
func (r *Refresher) loop(projectKey string) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(projectKey)

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.refresh(projectKey)
		case key := <-r.trigger:
			if key == projectKey {
				r.refresh(projectKey)
			}
		}
	}
}

// refresh performs one fetch and reports the outcome.
func (r *Refresher) refresh(projectKey string) {
	r.setStatus(projectKey, Running, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	project, err := r.fetcher.ProjectIssues(ctx, projectKey, r.maxResults)
	if err != nil {
		r.setStatus(projectKey, Errored, 0, err)
		r.send(Result{Project: projectKey, Err: err})
		return
	}

	count := len(project.Issues)
	r.setStatus(projectKey, Idle, count, nil)
	r.send(Result{Project: projectKey, IssueCount: count})
}

// setStatus updates the status of one project.
func (r *Refresher) setStatus(projectKey string, state State, count int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.statuses[projectKey]
	if !ok {
		return
	}

	status.State = state
	status.Err = err
	if state == Idle && err == nil {
		status.LastRun = time.Now()
		status.IssueCount = count
	}
}

// send delivers a result without blocking the refresh loop.
func (r *Refresher) send(result Result) {
	select {
	case r.results <- result:
	default:
	}
}

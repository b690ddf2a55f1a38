package jira

import (
	"context"
	"fmt"
)

// issueFields are the Jira fields requested on every search. Comments are
// only returned when explicitly asked for, so every field of interest has
// to be listed here.
var issueFields = []string{
	"assignee",
	"comment",
	"created",
	"customfield_10001",
	"description",
	"fixVersions",
	"issuelinks",
	"issuetype",
	"labels",
	"parent",
	"priority",
	"project",
	"resolution",
	"resolutiondate",
	"status",
	"summary",
	"updated",
}

// searchPageSize is how many issues are requested per search page when
// paging through an uncapped query.
const searchPageSize = 50

// Snapshotter persists a query result outside the adapter's in-memory
// cache. A nil Snapshotter disables persistence.
type Snapshotter interface {
	SaveResult(ctx context.Context, label, query string, issues []*Issue) error
}

// Adapter pulls issue data from one Jira instance and caches query
// results by label so reports can re-read them without refetching.
type Adapter struct {
	client    *Client
	baseURL   string
	snapshots Snapshotter

	results  map[string]*QueryResult
	projects map[string]*Project
}

// NewAdapter creates an Adapter over the given client. snapshots may be
// nil, in which case results are cached in memory only.
func NewAdapter(client *Client, snapshots Snapshotter) *Adapter {
	return &Adapter{
		client:    client,
		baseURL:   client.BaseURL(),
		snapshots: snapshots,
		results:   make(map[string]*QueryResult),
		projects:  make(map[string]*Project),
	}
}

// ValidateConnection verifies credentials by calling GET /rest/api/2/myself.
// Returns the user's display name on success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	var me Myself
	if err := a.client.Get(ctx, "/rest/api/2/myself", &me); err != nil {
		return "", fmt.Errorf("validating Jira connection: %w", err)
	}
	return me.DisplayName, nil
}

// PopulateProjects fetches every issue of each listed project, ordered by
// priority, and caches the per-project results. maxResults caps the
// issues per project; zero or negative means no cap. Projects with no
// issues are omitted from the returned map.
func (a *Adapter) PopulateProjects(
	ctx context.Context,
	projectKeys []string,
	maxResults int,
) (map[string]*Project, error) {
	projects := make(map[string]*Project)

	for _, key := range projectKeys {
		project, err := a.fetchProject(ctx, key, maxResults)
		if err != nil {
			return nil, err
		}
		if len(project.Issues) == 0 {
			continue
		}
		projects[key] = project
		a.projects[key] = project
	}

	return projects, nil
}

// ProjectIssues fetches the issues of a single project and caches the
// result under the project key.
func (a *Adapter) ProjectIssues(
	ctx context.Context,
	projectKey string,
	maxResults int,
) (*Project, error) {
	project, err := a.fetchProject(ctx, projectKey, maxResults)
	if err != nil {
		return nil, err
	}
	a.projects[projectKey] = project
	return project, nil
}

// PopulateFromJQL runs a JQL query and caches the result under label
// (DefaultLabel when empty, overwriting any previous unlabeled result).
func (a *Adapter) PopulateFromJQL(
	ctx context.Context,
	query string,
	maxResults int,
	label string,
) (*QueryResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query string is required to get issues")
	}

	issues, err := a.search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	result := NewQueryResult(query, label, issues)
	a.results[result.Label] = result

	if a.snapshots != nil {
		err := a.snapshots.SaveResult(ctx, result.Label, query, issues)
		if err != nil {
			return nil, fmt.Errorf("persisting query result %q: %w", result.Label, err)
		}
	}

	return result, nil
}

// QueryResult returns a previously populated result by label.
func (a *Adapter) QueryResult(label string) (*QueryResult, bool) {
	if label == "" {
		label = DefaultLabel
	}
	result, ok := a.results[label]
	return result, ok
}

// Project returns a previously populated project by key.
func (a *Adapter) Project(key string) (*Project, bool) {
	project, ok := a.projects[key]
	return project, ok
}

// Projects returns every project populated so far, keyed by project key.
func (a *Adapter) Projects() map[string]*Project {
	return a.projects
}

// Issue fetches a single issue by key, with its changelog.
func (a *Adapter) Issue(ctx context.Context, key string) (*Issue, error) {
	path := fmt.Sprintf("/rest/api/2/issue/%s?expand=changelog", key)

	var raw RawIssue
	if err := a.client.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("fetching Jira issue %s: %w", key, err)
	}

	return NewIssue(raw, a.baseURL), nil
}

// fetchProject loads a project's metadata and all its issues.
func (a *Adapter) fetchProject(
	ctx context.Context,
	projectKey string,
	maxResults int,
) (*Project, error) {
	var info RawProject
	path := "/rest/api/2/project/" + projectKey
	if err := a.client.Get(ctx, path, &info); err != nil {
		return nil, fmt.Errorf("fetching Jira project %s: %w", projectKey, err)
	}

	query := fmt.Sprintf("project = %q ORDER BY priority DESC", projectKey)
	issues, err := a.search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	project := NewProject(info, query, issues)

	if a.snapshots != nil {
		err := a.snapshots.SaveResult(ctx, project.Label, query, issues)
		if err != nil {
			return nil, fmt.Errorf("persisting project %s: %w", projectKey, err)
		}
	}

	return project, nil
}

// search runs a JQL query against the search endpoint, paging until the
// query is exhausted or maxResults issues have been collected.
func (a *Adapter) search(
	ctx context.Context,
	query string,
	maxResults int,
) ([]*Issue, error) {
	var issues []*Issue
	startAt := 0

	for {
		pageSize := searchPageSize
		if maxResults > 0 && maxResults-len(issues) < pageSize {
			pageSize = maxResults - len(issues)
		}

		body := map[string]interface{}{
			"jql":        query,
			"fields":     issueFields,
			"expand":     []string{"changelog"},
			"startAt":    startAt,
			"maxResults": pageSize,
		}

		var resp SearchResponse
		if err := a.client.Post(ctx, "/rest/api/2/search", body, &resp); err != nil {
			return nil, fmt.Errorf("searching Jira issues: %w", err)
		}

		for i := range resp.Issues {
			issues = append(issues, NewIssue(resp.Issues[i], a.baseURL))
		}

		startAt += len(resp.Issues)
		if len(resp.Issues) == 0 || startAt >= resp.Total {
			break
		}
		if maxResults > 0 && len(issues) >= maxResults {
			break
		}
	}

	return issues, nil
}

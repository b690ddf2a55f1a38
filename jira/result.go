package jira

// DefaultLabel is the label a query result is cached under when the
// caller does not provide one. Results stored under it overwrite each
// other.
const DefaultLabel = "JQL"

// Fields that survive every Rows projection, whatever the caller asked
// for.
var protectedFields = []string{"key", "type"}

// QueryResult wraps the issues produced by one JQL query together with
// the query itself and the label it is cached under.
type QueryResult struct {
	Query  string
	Label  string
	Issues []*Issue
}

// NewQueryResult builds a QueryResult. An empty label falls back to
// DefaultLabel.
func NewQueryResult(query, label string, issues []*Issue) *QueryResult {
	if label == "" {
		label = DefaultLabel
	}
	return &QueryResult{Query: query, Label: label, Issues: issues}
}

// Resolved returns just the issues understood to be resolved.
func (r *QueryResult) Resolved() []*Issue {
	var resolved []*Issue
	for _, issue := range r.Issues {
		if issue.IsResolved() {
			resolved = append(resolved, issue)
		}
	}
	return resolved
}

// CalculateLeadTimes recomputes lead times for every issue in the result.
// Passing a resolution status lets issues missing resolution data infer a
// resolution date from the flow log.
func (r *QueryResult) CalculateLeadTimes(resolutionStatus string, override bool) {
	for _, issue := range r.Issues {
		issue.CalculateLeadTime(resolutionStatus, override)
	}
}

// CalculateCycleTimes recomputes cycle times for every issue in the
// result, marking the begin and end of work with the given statuses when
// the issue data itself is not clear.
func (r *QueryResult) CalculateCycleTimes(
	beginStatus string,
	resolutionStatus string,
	override bool,
) {
	for _, issue := range r.Issues {
		issue.CalculateCycleTime(beginStatus, resolutionStatus, override)
	}
}

// ExpandFlowLogs populates each issue's StateDurations with the business
// hours spent per workflow state, optionally restricted to the given
// statuses. Useful for plotting how long issues sat in each state.
func (r *QueryResult) ExpandFlowLogs(statuses ...string) {
	for _, issue := range r.Issues {
		durations := issue.FlowLog.Durations()
		if len(statuses) > 0 {
			filtered := make(map[string]int, len(statuses))
			for _, s := range statuses {
				if d, ok := durations[s]; ok {
					filtered[s] = d
				}
			}
			durations = filtered
		}
		issue.StateDurations = durations
	}
}

// FilterTypes returns a new result containing only issues whose type is
// in the given list. The label is suffixed so the filtered set can be
// cached alongside its parent.
func (r *QueryResult) FilterTypes(types ...string) *QueryResult {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	var issues []*Issue
	for _, issue := range r.Issues {
		if wanted[issue.Type] {
			issues = append(issues, issue)
		}
	}

	return &QueryResult{
		Query:  r.Query,
		Label:  r.Label + "_filtered",
		Issues: issues,
	}
}

// Rows projects the result into one map per issue, keyed by field name,
// ready for report building or dataframe-style export. With no fields
// given every field is included; "key" and "type" are always present.
// Expanded state durations (see ExpandFlowLogs) are merged in.
func (r *QueryResult) Rows(fields ...string) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(r.Issues))
	for _, issue := range r.Issues {
		rows = append(rows, issueRow(issue, fields))
	}
	return rows
}

// issueRow builds the field map for one issue.
func issueRow(issue *Issue, fields []string) map[string]interface{} {
	all := map[string]interface{}{
		"id":              issue.ID,
		"key":             issue.Key,
		"type":            issue.Type,
		"summary":         issue.Summary,
		"description":     issue.Description,
		"project":         issue.Project,
		"projectName":     issue.ProjectName,
		"priority":        issue.Priority,
		"status":          issue.Status,
		"resolution":      issue.Resolution,
		"resolutionDate":  issue.Resolved,
		"labels":          issue.Labels,
		"assigneeName":    issue.AssigneeName,
		"assigneeEmail":   issue.AssigneeEmail,
		"lastComment":     issue.LastComment,
		"lastCommentDate": issue.LastCommentDate,
		"fixVersion":      issue.FixVersion,
		"epicKey":         issue.EpicKey,
		"epicName":        issue.EpicName,
		"parent":          issue.Parent,
		"issueLinks":      issue.IssueLinks,
		"url":             issue.URL,
		"created":         issue.Created,
		"updatedAt":       issue.Updated,
		"leadTime":        issue.LeadTime,
		"cycleTime":       issue.CycleTime,
	}

	if len(fields) == 0 {
		for state, hours := range issue.StateDurations {
			all[state] = hours
		}
		return all
	}

	row := make(map[string]interface{}, len(fields)+len(protectedFields))
	for _, f := range append(append([]string{}, protectedFields...), fields...) {
		if v, ok := all[f]; ok {
			row[f] = v
			continue
		}
		if hours, ok := issue.StateDurations[f]; ok {
			row[f] = hours
		}
	}
	return row
}

// Project is a query result covering a whole Jira project, annotated with
// the project's key and name.
type Project struct {
	QueryResult

	Key  string
	Name string
}

// NewProject wraps a project's issues, labeling the underlying result
// with the project name.
func NewProject(info RawProject, query string, issues []*Issue) *Project {
	return &Project{
		QueryResult: QueryResult{
			Query:  query,
			Label:  info.Name,
			Issues: issues,
		},
		Key:  info.Key,
		Name: info.Name,
	}
}

package jira

import "time"

// Workflow statuses assumed when none are given, matching the default
// Jira software workflow.
const (
	DefaultBeginStatus      = "In Progress"
	DefaultResolutionStatus = "Done"
)

// Issue is the metrics-oriented view of a Jira issue. Timestamps are
// parsed, the changelog is folded into a FlowLog, and lead/cycle times are
// pre-computed with the default workflow statuses.
type Issue struct {
	ID          string
	Key         string
	Type        string
	Summary     string
	Description string

	Project     string
	ProjectName string

	Priority   string
	Status     string
	Resolution string
	Labels     []string

	AssigneeName    string
	AssigneeEmail   string
	LastComment     string
	LastCommentDate time.Time

	FixVersion string
	EpicKey    string
	EpicName   string
	Parent     string
	IssueLinks []string

	URL     string
	Created time.Time
	Updated time.Time
	// Resolved is zero while the issue is unresolved.
	Resolved time.Time

	// FlowLog is the issue's journey through the workflow, derived from
	// the changelog.
	FlowLog FlowLog

	// LeadTime is the business hours from creation to resolution,
	// -1 while unresolved. See CalculateLeadTime.
	LeadTime int

	// CycleTime is the business hours from the start of work to
	// resolution, -1 while unresolved. See CalculateCycleTime.
	CycleTime int

	// StateDurations is populated by QueryResult.ExpandFlowLogs with the
	// business hours spent per workflow state.
	StateDurations map[string]int

	// Raw preserves the REST representation the issue was built from.
	Raw *RawIssue
}

// NewIssue maps a REST issue into the metrics view. baseURL is used to
// build the browse URL back to the issue.
func NewIssue(raw RawIssue, baseURL string) *Issue {
	issue := &Issue{
		ID:          raw.ID,
		Key:         raw.Key,
		Summary:     raw.Fields.Summary,
		Description: raw.Fields.Description,
		Project:     raw.Fields.Project.Key,
		ProjectName: raw.Fields.Project.Name,
		Priority:    raw.Fields.Priority.Name,
		Status:      raw.Fields.Status.Name,
		Labels:      raw.Fields.Labels,
		URL:         baseURL + "/browse/" + raw.Key,
		Created:     parseJiraTime(raw.Fields.Created),
		Updated:     parseJiraTime(raw.Fields.Updated),
		Raw:         &raw,
	}

	issue.Type = raw.Fields.IssueType.Name
	if issue.Type == "" {
		issue.Type = "Ticket"
	}

	if raw.Fields.Assignee != nil {
		issue.AssigneeName = raw.Fields.Assignee.DisplayName
		issue.AssigneeEmail = raw.Fields.Assignee.EmailAddress
	}

	if raw.Fields.Comment != nil && len(raw.Fields.Comment.Comments) > 0 {
		last := raw.Fields.Comment.Comments[0]
		issue.LastComment = last.Body
		issue.LastCommentDate = parseJiraTime(last.Created)
	}

	if raw.Fields.Resolution != nil {
		issue.Resolution = raw.Fields.Resolution.Name
	}
	issue.Resolved = parseJiraTime(raw.Fields.ResolutionDate)

	if len(raw.Fields.FixVersions) > 0 {
		issue.FixVersion = raw.Fields.FixVersions[0].Name
	}

	// New Jira reports the epic as the parent; old Jira uses the epic
	// link custom field.
	if raw.Fields.Parent != nil {
		issue.Parent = raw.Fields.Parent.Key
		issue.EpicKey = raw.Fields.Parent.Key
		issue.EpicName = raw.Fields.Parent.Fields.Summary
	} else {
		issue.EpicKey = raw.Fields.EpicLink
	}

	for _, link := range raw.Fields.IssueLinks {
		if link.InwardIssue != nil {
			issue.IssueLinks = append(issue.IssueLinks, link.InwardIssue.Key)
		}
	}

	issue.FlowLog = buildFlowLog(issue.Created, raw.Changelog)

	issue.CalculateLeadTime(DefaultResolutionStatus, false)
	issue.CalculateCycleTime(
		DefaultBeginStatus, DefaultResolutionStatus, false,
	)

	return issue
}

// buildFlowLog folds status transitions out of the changelog into a
// sorted flow log, seeded with a synthetic "Created" entry.
func buildFlowLog(created time.Time, changelog *Changelog) FlowLog {
	var log FlowLog
	log.Append(FlowEntry{EnteredAt: created, State: "Created"})

	if changelog != nil {
		for _, history := range changelog.Histories {
			for _, item := range history.Items {
				if item.Field != "status" {
					continue
				}
				log.Append(FlowEntry{
					EnteredAt: parseJiraTime(history.Created),
					State:     item.ToString,
				})
			}
		}
	}

	log.computeDurations()
	return log
}

// CalculateLeadTime recomputes the issue's lead time: the business hours
// between creation and the resolution date. When the issue carries no
// resolution date (or override is set), the time the issue entered
// resolutionStatus substitutes for it. Returns -1 if neither exists.
func (i *Issue) CalculateLeadTime(resolutionStatus string, override bool) int {
	i.LeadTime = -1

	if !i.Resolved.IsZero() && !override {
		i.LeadTime = BusinessDuration(i.Created, i.Resolved, IntervalHours)
		return i.LeadTime
	}

	var resolvedAt time.Time
	for _, e := range i.FlowLog {
		if e.State == resolutionStatus {
			resolvedAt = e.EnteredAt
		}
	}
	if !resolvedAt.IsZero() {
		i.LeadTime = BusinessDuration(i.Created, resolvedAt, IntervalHours)
	}

	return i.LeadTime
}

// CalculateCycleTime recomputes the issue's cycle time: the business hours
// between the last entry into beginStatus (falling back to creation when
// work was never explicitly started) and the resolution date. With
// override set, the time the issue entered resolutionStatus substitutes
// for a missing resolution date. Returns -1 if the issue is unresolved.
func (i *Issue) CalculateCycleTime(
	beginStatus string,
	resolutionStatus string,
	override bool,
) int {
	i.CycleTime = -1

	start := i.Created
	for _, e := range i.FlowLog {
		if e.State == beginStatus {
			start = e.EnteredAt
		}
	}

	var end time.Time
	if !i.Resolved.IsZero() {
		end = i.Resolved
	} else if override {
		for _, e := range i.FlowLog {
			if e.State == resolutionStatus {
				end = e.EnteredAt
			}
		}
	}

	if !end.IsZero() {
		i.CycleTime = BusinessDuration(start, end, IntervalHours)
	}

	return i.CycleTime
}

// IsResolved reports whether the issue counts as resolved: it carries a
// resolution or its lead time could be computed.
func (i *Issue) IsResolved() bool {
	return i.Resolution != "" || i.LeadTime > -1
}

// parseJiraTime parses a Jira timestamp string. Jira uses the format
// "2006-01-02T15:04:05.000+0000".
func parseJiraTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	layouts := []string{
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05.000+0000",
		"2006-01-02T15:04:05-0700",
		time.RFC3339,
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}

// Package report renders fetched issue data into markdown reports.
package report

import (
	"fmt"
	"strings"

	"github.com/nhle/engmetrics/jira"
)

// KnownIssues renders the "Known Issues Report" for a project: one
// section per issue with its link, priority tag, status, and fix version
// when one exists.
func KnownIssues(project *jira.Project) string {
	var b strings.Builder

	b.WriteString("# Known Issues Report\n")
	b.WriteString("Generated automatically from JIRA\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "## %s Known Issues\n", project.Name)

	for _, issue := range project.Issues {
		fmt.Fprintf(
			&b, "#### %s ([%s](%s)) %s\n",
			issue.Key, issue.Summary, issue.URL, priorityTag(issue.Priority),
		)
		fmt.Fprintf(&b, "* JIRA: [%s](%s)\n", issue.URL, issue.URL)
		fmt.Fprintf(&b, "* Status: %s\n", issue.Status)
		if issue.FixVersion != "" {
			fmt.Fprintf(
				&b, "* Fix: This was fixed in version %s\n", issue.FixVersion,
			)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// MetricsSummary renders a short delivery-metrics section over the
// resolved issues of a result: counts plus average lead and cycle time in
// business hours.
func MetricsSummary(result *jira.QueryResult) string {
	resolved := result.Resolved()

	var b strings.Builder
	b.WriteString("## Delivery Metrics\n")
	fmt.Fprintf(&b, "* Issues: %d\n", len(result.Issues))
	fmt.Fprintf(&b, "* Resolved: %d\n", len(resolved))

	leadTotal, leadCount := 0, 0
	cycleTotal, cycleCount := 0, 0
	for _, issue := range resolved {
		if issue.LeadTime > -1 {
			leadTotal += issue.LeadTime
			leadCount++
		}
		if issue.CycleTime > -1 {
			cycleTotal += issue.CycleTime
			cycleCount++
		}
	}

	if leadCount > 0 {
		fmt.Fprintf(
			&b, "* Average lead time: %d business hours\n",
			leadTotal/leadCount,
		)
	}
	if cycleCount > 0 {
		fmt.Fprintf(
			&b, "* Average cycle time: %d business hours\n",
			cycleTotal/cycleCount,
		)
	}
	b.WriteString("\n")

	return b.String()
}

// priorityTag maps a Jira priority name into P1 - P4 with some emotion.
func priorityTag(priority string) string {
	switch priority {
	case "Blocker":
		return "P1 🚨😫😭"
	case "Highest":
		return "P2 😭😭"
	case "High":
		return "P3 😟"
	case "Normal":
		return "P4 🤔"
	default:
		return ""
	}
}

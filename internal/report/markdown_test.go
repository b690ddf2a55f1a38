package report

import (
	"strings"
	"testing"
	"time"

	"github.com/nhle/engmetrics/jira"
)

func sampleProject() *jira.Project {
	resolved := time.Date(2024, 3, 8, 17, 0, 0, 0, time.UTC)

	return &jira.Project{
		QueryResult: jira.QueryResult{
			Query: "project = ENG",
			Label: "Engineering",
			Issues: []*jira.Issue{
				{
					Key:        "ENG-1",
					Type:       "Bug",
					Summary:    "Checkout intermittently times out",
					Status:     "Done",
					Priority:   "Blocker",
					Resolution: "Fixed",
					FixVersion: "1.2.0",
					URL:        "https://jira.example.com/browse/ENG-1",
					Resolved:   resolved,
					LeadTime:   104,
					CycleTime:  100,
				},
				{
					Key:       "ENG-2",
					Type:      "Story",
					Summary:   "Add gift card support",
					Status:    "In Progress",
					Priority:  "Normal",
					URL:       "https://jira.example.com/browse/ENG-2",
					LeadTime:  -1,
					CycleTime: -1,
				},
			},
		},
		Key:  "ENG",
		Name: "Engineering",
	}
}

func TestKnownIssues(t *testing.T) {
	md := KnownIssues(sampleProject())

	for _, want := range []string{
		"# Known Issues Report",
		"## Engineering Known Issues",
		"#### ENG-1 ([Checkout intermittently times out](https://jira.example.com/browse/ENG-1)) P1 🚨😫😭",
		"* Status: Done",
		"* Fix: This was fixed in version 1.2.0",
		"#### ENG-2 ([Add gift card support](https://jira.example.com/browse/ENG-2)) P4 🤔",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}

	// The open issue has no fix version and must not claim one.
	if strings.Count(md, "This was fixed") != 1 {
		t.Error("fix version line rendered for an issue without one")
	}
}

func TestPriorityTags(t *testing.T) {
	tests := map[string]string{
		"Blocker": "P1 🚨😫😭",
		"Highest": "P2 😭😭",
		"High":    "P3 😟",
		"Normal":  "P4 🤔",
		"Minor":   "",
	}
	for priority, want := range tests {
		if got := priorityTag(priority); got != want {
			t.Errorf("priorityTag(%q) = %q, want %q", priority, got, want)
		}
	}
}

func TestMetricsSummary(t *testing.T) {
	project := sampleProject()
	md := MetricsSummary(&project.QueryResult)

	for _, want := range []string{
		"## Delivery Metrics",
		"* Issues: 2",
		"* Resolved: 1",
		"* Average lead time: 104 business hours",
		"* Average cycle time: 100 business hours",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q:\n%s", want, md)
		}
	}
}

func TestMetricsSummaryNoResolved(t *testing.T) {
	result := &jira.QueryResult{
		Issues: []*jira.Issue{
			{Key: "ENG-2", LeadTime: -1, CycleTime: -1},
		},
	}

	md := MetricsSummary(result)
	if strings.Contains(md, "Average") {
		t.Errorf("averages rendered with no resolved issues:\n%s", md)
	}
}

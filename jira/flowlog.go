package jira

import (
	"sort"
	"time"
)

// FlowEntry records when an issue entered a workflow state and, once the
// next transition is known, how long it stayed there.
type FlowEntry struct {
	// EnteredAt is when the issue entered the state.
	EnteredAt time.Time

	// State is the name of the workflow state entered.
	State string

	// Duration is the time spent in the state, in business hours.
	Duration int
}

// FlowLog is an issue's journey through the workflow, ordered by entry
// time. It surfaces how long an issue spent in each state so bottlenecks
// can be graphed per state.
type FlowLog []FlowEntry

// Append adds an entry and keeps the log sorted by entry time.
func (l *FlowLog) Append(e FlowEntry) {
	*l = append(*l, e)
	sort.SliceStable(*l, func(i, j int) bool {
		return (*l)[i].EnteredAt.Before((*l)[j].EnteredAt)
	})
}

// Durations aggregates the log into total business hours per state.
// States entered more than once accumulate.
func (l FlowLog) Durations() map[string]int {
	totals := make(map[string]int, len(l))
	for _, e := range l {
		totals[e.State] += e.Duration
	}
	return totals
}

// computeDurations fills in the Duration of each entry from the gap to the
// next entry. The final (current) state is measured up to now.
func (l FlowLog) computeDurations() {
	for i := range l {
		if i+1 < len(l) {
			l[i].Duration = BusinessDuration(
				l[i].EnteredAt, l[i+1].EnteredAt, IntervalHours,
			)
			continue
		}
		l[i].Duration = BusinessDuration(
			l[i].EnteredAt, time.Time{}, IntervalHours,
		)
	}
}

package jira

import "time"

// Interval selects the unit in which a business duration is reported.
type Interval string

const (
	IntervalYears   Interval = "years"
	IntervalDays    Interval = "days"
	IntervalHours   Interval = "hours"
	IntervalMinutes Interval = "minutes"
	IntervalSeconds Interval = "seconds"
)

const (
	secondsPerYear   = 31556926
	secondsPerDay    = 86400
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

// BusinessDuration returns the duration between a and b counting business
// days only, expressed in the given interval (hours when the interval is
// unrecognized). A zero b means "now". Whole non-business days are
// subtracted from the raw duration; a span of two calendar days covering a
// single business day (a weekend crossing) collapses to the intra-day
// remainder.
func BusinessDuration(a, b time.Time, interval Interval) int {
	if b.IsZero() {
		b = time.Now()
	}

	full := b.Sub(a)
	busDays := busdayCount(a, b)
	fullDays := int(full / (24 * time.Hour))

	dur := full
	switch {
	case fullDays == 2 && busDays == 1:
		dur = full - 48*time.Hour
	case fullDays > busDays:
		dur = full - time.Duration(fullDays-busDays)*24*time.Hour
	}

	secs := int(dur.Seconds())

	switch interval {
	case IntervalYears:
		return secs / secondsPerYear
	case IntervalDays:
		return secs / secondsPerDay
	case IntervalMinutes:
		return secs / secondsPerMinute
	case IntervalSeconds:
		return secs
	default:
		return secs / secondsPerHour
	}
}

// busdayCount counts the weekdays in the half-open date range
// [date(a), date(b)).
func busdayCount(a, b time.Time) int {
	start := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	count := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

// Package window resolves a (granularity, anchor) pair into a calendar-aligned
// date window. Weeks start on Monday.
package window

import (
	"time"

	"classroom_fetcher/internal/domain"
)

// Clock returns the current time. Tests pass a fixed clock.
type Clock func() time.Time

// Resolve returns the window containing anchor under granularity g.
// Unknown granularities resolve like day.
func Resolve(g domain.Granularity, anchor time.Time) domain.DateWindow {
	day := midnight(anchor)

	switch g {
	case domain.GranularityWeek:
		// time.Weekday counts from Sunday; shift so Monday is 0.
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return domain.DateWindow{Granularity: g, StartAt: start, EndAt: start.AddDate(0, 0, 6)}
	case domain.GranularityMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return domain.DateWindow{Granularity: g, StartAt: start, EndAt: start.AddDate(0, 1, -1)}
	default:
		return domain.DateWindow{Granularity: domain.GranularityDay, StartAt: day, EndAt: day}
	}
}

// ForNow re-anchors the window to the current day, week or month.
func ForNow(g domain.Granularity, now Clock) domain.DateWindow {
	return Resolve(g, now())
}

// Custom builds a day-granularity window spanning an explicit range.
// The ends are swapped when given in reverse.
func Custom(start, end time.Time) domain.DateWindow {
	s, e := midnight(start), midnight(end)
	if e.Before(s) {
		s, e = e, s
	}
	return domain.DateWindow{Granularity: domain.GranularityDay, StartAt: s, EndAt: e}
}

// ParseAnchor parses a YYYY-MM-DD date in loc.
func ParseAnchor(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(domain.DateLayout, s, loc)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

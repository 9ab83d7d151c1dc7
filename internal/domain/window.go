package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of window boundaries.
const DateLayout = "2006-01-02"

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// DateWindow is the resolved [StartAt, EndAt] interval used to query sessions.
// Both ends are midnight of their calendar day.
type DateWindow struct {
	Granularity Granularity
	StartAt     time.Time
	EndAt       time.Time
}

func (w DateWindow) StartDate() string {
	return w.StartAt.Format(DateLayout)
}

func (w DateWindow) EndDate() string {
	return w.EndAt.Format(DateLayout)
}

func (w DateWindow) String() string {
	return fmt.Sprintf("%s[%s..%s]", w.Granularity, w.StartDate(), w.EndDate())
}

// SourceRangeMode selects the universe the lists are drawn from.
type SourceRangeMode string

const (
	RangeMine SourceRangeMode = "mine"
	RangeAll  SourceRangeMode = "all"
)

func ParseSourceRangeMode(s string) (SourceRangeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mine", "my":
		return RangeMine, nil
	case "all":
		return RangeAll, nil
	default:
		return "", fmt.Errorf("unknown course range %q", s)
	}
}

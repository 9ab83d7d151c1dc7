package domain

import "time"

// SyncStats holds statistics about an auto-download run.
type SyncStats struct {
	Window    DateWindow
	Fetched   int
	NoSlides  int
	Skipped   int
	Submitted int
	Errors    int
	Duration  time.Duration
}

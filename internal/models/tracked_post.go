package models

import (
	"strings"
	"time"
)

// Row statuses as written to the sheet's status column.
const (
	StatusActive = "active"
	StatusDone   = "done"
)

// DaySnapshot is one day-N score/comment reading. Filled marks whether the
// sheet cells for that day already hold values; filled cells are never
// overwritten.
type DaySnapshot struct {
	Score    int
	Comments int
	Filled   bool
}

// TrackedPost is one spreadsheet row: identity fields captured at first
// sighting plus a fixed window of daily snapshots.
type TrackedPost struct {
	PostID      string
	Subreddit   string
	Title       string
	Author      string
	Permalink   string
	CreatedUTC  time.Time
	InsertedUTC time.Time
	IsSelf      bool
	Body        string

	InitialScore    int
	InitialComments int

	// Days holds day-1..day-N snapshots; index 0 is day 1.
	Days []DaySnapshot

	LastChecked time.Time
	Status      string
}

// TrackedRow pairs a decoded TrackedPost with its 1-based sheet row index.
type TrackedRow struct {
	Index int
	Post  TrackedPost
}

// Active reports whether the snapshot stage should still visit this row.
// Rows stamped with a fetch error stay visitable; the skip is per cycle.
func (p TrackedPost) Active() bool {
	return p.Status == "" || p.Status == StatusActive || strings.HasPrefix(p.Status, "error:")
}

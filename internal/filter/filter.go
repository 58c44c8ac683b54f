// Package filter decides which candidate items are in scope for a run.
// Recency and dedup are deliberately orthogonal: the window bounds the scan
// independent of history depth, the ledger bounds repeats independent of
// time, so a bounded recent-history fetch is always sufficient.
package filter

import (
	"time"

	"photorelay/internal/domain"
)

// Seen is the membership check the filter needs from the dedup ledger.
type Seen interface {
	Contains(key string) bool
}

// Window is a span of civil calendar days in a fixed timezone, ending on the
// day containing "now". Days=1 means "posted today".
type Window struct {
	Location *time.Location
	Days     int
}

// Contains reports whether created falls on one of the window's calendar
// days relative to now. Both instants are converted into the window's
// timezone before the day comparison, so a post late on a UTC evening can
// still count as "today" locally.
func (w Window) Contains(created, now time.Time) bool {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	days := w.Days
	if days < 1 {
		days = 1
	}

	cy, cm, cd := created.In(loc).Date()
	createdDay := time.Date(cy, cm, cd, 0, 0, 0, 0, loc)

	ny, nm, nd := now.In(loc).Date()
	endDay := time.Date(ny, nm, nd, 0, 0, 0, 0, loc)
	startDay := endDay.AddDate(0, 0, -(days - 1))

	return !createdDay.Before(startDay) && !createdDay.After(endDay)
}

// Eligible applies the in-scope rules in order: photo content, inside the
// recency window, not already relayed. Pure predicate, no side effects.
func Eligible(item domain.Item, seen Seen, w Window, now time.Time) bool {
	if item.Kind != domain.MediaPhoto {
		return false
	}
	if !w.Contains(item.CreatedAt, now) {
		return false
	}
	return !seen.Contains(item.DedupKey())
}

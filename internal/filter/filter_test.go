package filter

import (
	"testing"
	"time"

	"photorelay/internal/domain"
)

type seenSet map[string]bool

func (s seenSet) Contains(key string) bool { return s[key] }

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func photoAt(created time.Time) domain.Item {
	return domain.Item{
		Channel:    "X",
		ID:         10,
		CreatedAt:  created,
		Kind:       domain.MediaPhoto,
		PayloadRef: "ref",
	}
}

func TestEligible_NonPhotoExcluded(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	item := photoAt(now)
	item.Kind = domain.MediaOther

	if Eligible(item, seenSet{}, Window{Location: time.UTC, Days: 1}, now) {
		t.Fatal("non-photo item should never be eligible")
	}
}

func TestEligible_TodayIncluded(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	item := photoAt(now.Add(-6 * time.Hour))

	if !Eligible(item, seenSet{}, Window{Location: time.UTC, Days: 1}, now) {
		t.Fatal("fresh photo from today should be eligible")
	}
}

func TestEligible_YesterdayExcluded(t *testing.T) {
	now := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	item := photoAt(now.Add(-2 * time.Hour)) // 23:00 the day before

	if Eligible(item, seenSet{}, Window{Location: time.UTC, Days: 1}, now) {
		t.Fatal("photo from yesterday should be excluded even with an empty ledger")
	}
}

func TestEligible_AlreadySeenExcluded(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	item := photoAt(now)

	seen := seenSet{item.DedupKey(): true}
	if Eligible(item, seen, Window{Location: time.UTC, Days: 1}, now) {
		t.Fatal("item already in the ledger should be excluded")
	}
}

func TestEligible_WiderWindowIncludesYesterday(t *testing.T) {
	now := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	item := photoAt(now.Add(-2 * time.Hour))

	if !Eligible(item, seenSet{}, Window{Location: time.UTC, Days: 2}, now) {
		t.Fatal("two-day window should include yesterday's photo")
	}
}

func TestWindow_TimezoneShiftsCivilDay(t *testing.T) {
	loc := london(t)

	// 23:30 UTC on July 1 is 00:30 on July 2 in London (BST, UTC+1).
	created := time.Date(2026, 7, 1, 23, 30, 0, 0, time.UTC)
	now := time.Date(2026, 7, 2, 8, 0, 0, 0, time.UTC)

	w := Window{Location: loc, Days: 1}
	if !w.Contains(created, now) {
		t.Error("late UTC post should count as today in the configured timezone")
	}

	utc := Window{Location: time.UTC, Days: 1}
	if utc.Contains(created, now) {
		t.Error("same instants compared in UTC belong to different days")
	}
}

func TestWindow_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// Nil location and zero days behave like UTC / today-only.
	w := Window{}
	if !w.Contains(now, now) {
		t.Error("now should always be inside the window")
	}
	if w.Contains(now.Add(-48*time.Hour), now) {
		t.Error("two days ago should be outside the default window")
	}
}

func TestWindow_FutureDayExcluded(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	w := Window{Location: time.UTC, Days: 1}
	if w.Contains(now.Add(24*time.Hour), now) {
		t.Error("tomorrow should be outside the window")
	}
}

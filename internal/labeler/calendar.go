package labeler

import "time"

// Regular-session open, in the publication timestamp's location.
const (
	sessionOpenHour   = 9
	sessionOpenMinute = 30
)

// EntrySession returns the open of the next tradeable session strictly after
// the publication time. An article published before the open trades the same
// day; after-hours publication rolls to the next day, weekends roll to Monday.
// Exchange holidays are not modeled here; the price provider simply has no
// bar for them and the job falls through to the next session with data.
func EntrySession(published time.Time) time.Time {
	open := sessionOpen(published)
	if !open.After(published) {
		open = sessionOpen(published.AddDate(0, 0, 1))
	}
	for isWeekend(open) {
		open = open.AddDate(0, 0, 1)
	}
	return open
}

// SessionDate maps a session open to its calendar date at UTC midnight, the
// form price providers key daily bars by. Field-wise rather than Truncate:
// truncating the absolute instant shifts the date for opens in zones ahead
// of UTC, which would start the price window on the publication day.
func SessionDate(open time.Time) time.Time {
	return time.Date(open.Year(), open.Month(), open.Day(), 0, 0, 0, 0, time.UTC)
}

// AddSessions advances a session date by n trading days, skipping weekends.
func AddSessions(day time.Time, n int) time.Time {
	for i := 0; i < n; i++ {
		day = day.AddDate(0, 0, 1)
		for isWeekend(day) {
			day = day.AddDate(0, 0, 1)
		}
	}
	return day
}

func sessionOpen(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), sessionOpenHour, sessionOpenMinute, 0, 0, t.Location())
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

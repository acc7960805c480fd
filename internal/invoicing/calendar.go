package invoicing

import "time"

// Window is an inclusive billing period.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// PreviousWeek returns the ISO week before the one containing now:
// Monday 00:00:00.000 through Sunday 23:59:59.999 in loc.
func PreviousWeek(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	sinceMonday := (int(local.Weekday()) + 6) % 7
	thisMonday := StartOfDay(local).AddDate(0, 0, -sinceMonday)
	return Window{
		Start: thisMonday.AddDate(0, 0, -7),
		End:   thisMonday.Add(-time.Millisecond),
	}
}

// DueDate is the first Friday on or after now + lagDays, at midnight in loc.
func DueDate(now time.Time, lagDays int, loc *time.Location) time.Time {
	due := StartOfDay(now.In(loc)).AddDate(0, 0, lagDays)
	for due.Weekday() != time.Friday {
		due = due.AddDate(0, 0, 1)
	}
	return due
}

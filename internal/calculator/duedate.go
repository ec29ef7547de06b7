package calculator

import (
	"fmt"
	"math"
	"time"
)

// civilDate truncates t to its calendar day, expressed at midnight UTC so
// that day arithmetic never crosses a DST boundary.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return civilDate(now.In(loc))
}

// DaysToExpire returns how many days separate today (in loc) from due.
// Positive means due in the future, negative means overdue. Only the
// calendar day of due is considered.
func DaysToExpire(due, now time.Time, loc *time.Location) int {
	diff := civilDate(due).Sub(Today(now, loc))
	return int(math.Round(diff.Hours() / 24))
}

// DueDatePhrase describes a distance in days to a due date.
func DueDatePhrase(days int) string {
	switch {
	case days == 0:
		return "is due today"
	case days == 1:
		return "is due tomorrow"
	case days == -1:
		return "was due yesterday"
	case days < -1:
		return fmt.Sprintf("was overdue by %d days", -days)
	default:
		return fmt.Sprintf("is due in %d days", days)
	}
}

// DuePhrase is DueDatePhrase for an optional due date.
func DuePhrase(due *time.Time, now time.Time, loc *time.Location) string {
	if due == nil {
		return "has no due date"
	}
	return DueDatePhrase(DaysToExpire(*due, now, loc))
}

// DatesForOffsets returns the calendar day today+offset for every offset,
// in input order. Negative offsets point to the past.
func DatesForOffsets(offsets []int, now time.Time, loc *time.Location) []time.Time {
	today := Today(now, loc)
	dates := make([]time.Time, len(offsets))
	for i, offset := range offsets {
		dates[i] = today.AddDate(0, 0, offset)
	}
	return dates
}

package leave

import (
	"time"

	leaveerrors "go-leave/internal/leave/errors"
)

const dateLayout = "2006-01-02"

// CancellationWindowDays is the minimum lead time, in days before the start
// date, at which a pending request may still be cancelled.
const CancellationWindowDays = 3

// ValidateDates checks a requested range against today. The first failing
// rule wins: a past start date is reported before an inverted range.
func ValidateDates(start, end, today time.Time) error {
	if start.Before(today) {
		return leaveerrors.ErrPastStartDate
	}
	if end.Before(start) {
		return leaveerrors.ErrInvalidDateRange
	}
	return nil
}

// DurationDays counts calendar days in [start, end], inclusive. Only the
// calendar date of each end counts, in the location it carries.
func DurationDays(start, end time.Time) int {
	return int(toDate(end).Sub(toDate(start)).Hours()/24) + 1
}

// DaysUntil is the whole number of days from today to start.
func DaysUntil(start, today time.Time) int {
	return int(toDate(start).Sub(toDate(today)).Hours() / 24)
}

// Today returns the current UTC calendar date at midnight.
func Today() time.Time {
	return toDate(time.Now().UTC())
}

func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

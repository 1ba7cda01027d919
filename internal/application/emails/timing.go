package emails

import "time"

// Clock returns the current time. A nil Clock reads the system clock.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// Today is the UTC calendar date of now, at midnight.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ImmediateAction schedules one hour from now, leaving room to correct
// mistakes before the email goes out.
func ImmediateAction(now time.Time) time.Time {
	return now.UTC().Add(time.Hour)
}

// CombineDateWithCurrentUTCTime keeps the calendar date of date and takes
// the time of day from now.
func CombineDateWithCurrentUTCTime(date, now time.Time) time.Time {
	y, m, d := date.Date()
	n := now.UTC()
	return time.Date(y, m, d, n.Hour(), n.Minute(), n.Second(), n.Nanosecond(), time.UTC)
}

func ShiftDateAndApplyCurrentUTCTime(date time.Time, offset time.Duration, now time.Time) time.Time {
	return CombineDateWithCurrentUTCTime(date.Add(offset), now)
}

func Days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func OneMonthBefore(date, now time.Time) time.Time {
	return ShiftDateAndApplyCurrentUTCTime(date, -Days(30), now)
}

func TwoMonthsAfter(date, now time.Time) time.Time {
	return ShiftDateAndApplyCurrentUTCTime(date, Days(60), now)
}

func MaxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// ISOFormat renders t the way log details and messages show timestamps:
// seconds precision, microseconds only when present, numeric offset.
func ISOFormat(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format("2006-01-02T15:04:05-07:00")
	}
	return t.Format("2006-01-02T15:04:05.000000-07:00")
}

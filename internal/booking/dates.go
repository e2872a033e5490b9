package booking

import "time"

// DateLayout is the dd.mm.yyyy format the date field accepts.
const DateLayout = "02.01.2006"

const (
	validOffsetDays   = 4
	invalidOffsetDays = -2
)

// Clock returns the current time. Tests pin it to make runs repeatable.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time { return time.Now() }

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// DateWithOffset formats the calendar day days away from now.
func DateWithOffset(now Clock, days int) string {
	return now().AddDate(0, 0, days).Format(DateLayout)
}

// ValidDate is a date far enough ahead to be bookable.
func ValidDate(now Clock) string { return DateWithOffset(now, validOffsetDays) }

// InvalidDate is a date in the past that the form rejects.
func InvalidDate(now Clock) string { return DateWithOffset(now, invalidOffsetDays) }

// ParseDate parses a dd.mm.yyyy string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

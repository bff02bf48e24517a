package care

import (
	"encoding/json"
	"fmt"
	"time"
)

// LocalDate is a calendar date with no time-of-day or timezone component,
// matching the "local date" semantics used for service dates and pattern
// windows.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewLocalDate extracts the calendar date of t in t's own location.
func NewLocalDate(t time.Time) LocalDate {
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// ParseLocalDate parses a "YYYY-MM-DD" string.
func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("care: invalid local date %q: %w", s, err)
	}
	return NewLocalDate(t), nil
}

func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the unset value.
func (d LocalDate) IsZero() bool {
	return d == LocalDate{}
}

// Time returns d as a time.Time at midnight in loc (UTC if loc is nil).
func (d LocalDate) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Weekday returns the day of week, evaluated in UTC (a calendar date has no
// inherent timezone, but Go's civil-date arithmetic requires one).
func (d LocalDate) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// AddDays returns the date n days after d (n may be negative).
func (d LocalDate) AddDays(n int) LocalDate {
	return NewLocalDate(d.Time(time.UTC).AddDate(0, 0, n))
}

// AddMonths returns the date n months after d, per time.AddDate's
// month-rollover semantics (e.g. Jan 31 + 1 month = Mar 3).
func (d LocalDate) AddMonths(n int) LocalDate {
	return NewLocalDate(d.Time(time.UTC).AddDate(0, n, 0))
}

// Before reports whether d is strictly before o.
func (d LocalDate) Before(o LocalDate) bool {
	return d.Time(time.UTC).Before(o.Time(time.UTC))
}

// After reports whether d is strictly after o.
func (d LocalDate) After(o LocalDate) bool {
	return d.Time(time.UTC).After(o.Time(time.UTC))
}

// DaysUntil returns the number of days from d to o (negative if o is before d).
func (d LocalDate) DaysUntil(o LocalDate) int {
	return int(o.Time(time.UTC).Sub(d.Time(time.UTC)).Hours() / 24)
}

func (d LocalDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *LocalDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = LocalDate{}
		return nil
	}
	parsed, err := ParseLocalDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a 24-hour HH:MM wall-clock time, unattached to any date or
// timezone until combined with a LocalDate and an IANA zone by a caller.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses a "HH:MM" string.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("care: invalid clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// IsZero reports whether c is the unset value.
func (c ClockTime) IsZero() bool {
	return c == ClockTime{}
}

// MinutesSinceMidnight returns the number of minutes from 00:00 to c.
func (c ClockTime) MinutesSinceMidnight() int {
	return c.Hour*60 + c.Minute
}

// ClockTimeFromMinutes builds a ClockTime from minutes-since-midnight,
// clamping (not wrapping) at 24:00 so that callers can detect overflow via
// AddMinutes's wrapped return value instead.
func ClockTimeFromMinutes(minutes int) ClockTime {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > 24*60 {
		minutes = 24 * 60
	}
	return ClockTime{Hour: minutes / 60, Minute: minutes % 60}
}

// AddMinutes returns c advanced by the given number of minutes. wrapped is
// true when the result crosses midnight (minutes-since-midnight >= 1440);
// in that case the returned ClockTime is clamped to 24:00.
func (c ClockTime) AddMinutes(minutes int) (result ClockTime, wrapped bool) {
	total := c.MinutesSinceMidnight() + minutes
	if total >= 24*60 {
		return ClockTime{Hour: 24, Minute: 0}, true
	}
	return ClockTimeFromMinutes(total), false
}

// Before reports whether c is strictly before o.
func (c ClockTime) Before(o ClockTime) bool {
	return c.MinutesSinceMidnight() < o.MinutesSinceMidnight()
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*c = ClockTime{}
		return nil
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// OverlapsHalfOpen reports whether the half-open minute intervals
// [aStart,aEnd) and [bStart,bEnd) overlap, the shared predicate behind
// visit conflict detection and caregiver availability checks.
func OverlapsHalfOpen(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// Package pattern expands a recurring service pattern into the set of
// calendar dates on which it generates visits within a bounded window.
package pattern

import (
	"context"
	"errors"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// ErrUnboundedWindow is returned when neither the pattern's effective-to
// date nor an explicit range end is supplied, since expansion must never
// run to infinity.
var ErrUnboundedWindow = errors.New("pattern: expansion window requires an upper bound")

// HolidayCalendar reports whether a given date is an observed holiday, so
// Expand can skip generating visits on it when a pattern asks to.
type HolidayCalendar interface {
	IsHoliday(ctx context.Context, date care.LocalDate) (bool, error)
}

// Options bounds an expansion to an explicit date range, in addition to
// whatever bound the pattern itself carries via EffectiveFrom/EffectiveTo.
type Options struct {
	RangeStart *care.LocalDate
	RangeEnd   *care.LocalDate

	// SkipHolidays, if true, drops any generated date Holidays reports as a
	// holiday. Holidays must be non-nil when this is set.
	SkipHolidays bool
	Holidays     HolidayCalendar
}

// Expand generates the ordered list of service dates a pattern produces
// within the window formed by the pattern's own effective range intersected
// with opts. A DAILY pattern yields every Interval-th day in range,
// anchored at the pattern's effective-from date; WEEKLY and BIWEEKLY yield
// the configured weekdays (biweekly alternating week by week); MONTHLY
// yields the configured day-of-month (dates past the end of a short month
// are skipped, never clamped). If opts.SkipHolidays is set, dates
// opts.Holidays reports as holidays are dropped from the result.
func Expand(p *care.ServicePattern, opts Options) ([]care.LocalDate, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	lower, upper, ok, err := window(p, opts)
	if err != nil {
		return nil, err
	}
	if !ok || lower.After(upper) {
		return nil, nil
	}

	var dates []care.LocalDate
	switch p.Recurrence.Frequency {
	case care.FrequencyDaily:
		dates = expandDaily(p, lower, upper)
	case care.FrequencyWeekly, care.FrequencyBiweekly:
		dates = expandWeekly(p, lower, upper)
	case care.FrequencyMonthly:
		dates = expandMonthly(p, lower, upper)
	default:
		return nil, care.NewValidationError("recurrence.frequency", "unsupported frequency for expansion")
	}

	if !opts.SkipHolidays || opts.Holidays == nil {
		return dates, nil
	}
	return filterHolidays(opts.Holidays, dates)
}

func filterHolidays(calendar HolidayCalendar, dates []care.LocalDate) ([]care.LocalDate, error) {
	out := make([]care.LocalDate, 0, len(dates))
	for _, d := range dates {
		holiday, err := calendar.IsHoliday(context.Background(), d)
		if err != nil {
			return nil, care.NewTransportError("failed to check holiday calendar", err)
		}
		if holiday {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// window computes the inclusive [lower, upper] date range over which to
// walk candidates, intersecting the pattern's own effective range with the
// caller-supplied options.
func window(p *care.ServicePattern, opts Options) (lower, upper care.LocalDate, ok bool, err error) {
	hasUpper := false

	if p.EffectiveTo != nil {
		upper = *p.EffectiveTo
		hasUpper = true
	}
	if opts.RangeEnd != nil {
		if !hasUpper || opts.RangeEnd.Before(upper) {
			upper = *opts.RangeEnd
		}
		hasUpper = true
	}
	if !hasUpper {
		return care.LocalDate{}, care.LocalDate{}, false, ErrUnboundedWindow
	}

	lower = p.EffectiveFrom
	if opts.RangeStart != nil && opts.RangeStart.After(lower) {
		lower = *opts.RangeStart
	}

	return lower, upper, true, nil
}

// expandDaily yields every date in [lower, upper] that is an exact multiple
// of p.Recurrence.Interval days after the pattern's effective-from date, so
// an every-other-day pattern (Interval=2) does not degrade to daily once
// the window no longer starts exactly on an anchor day.
func expandDaily(p *care.ServicePattern, lower, upper care.LocalDate) []care.LocalDate {
	interval := p.Recurrence.Interval
	if interval < 1 {
		interval = 1
	}
	anchor := p.EffectiveFrom

	var out []care.LocalDate
	for d := lower; !d.After(upper); d = d.AddDays(1) {
		offset := anchor.DaysUntil(d)
		if offset < 0 || offset%interval != 0 {
			continue
		}
		out = append(out, d)
	}
	return out
}

func expandWeekly(p *care.ServicePattern, lower, upper care.LocalDate) []care.LocalDate {
	days := make(map[int]bool, len(p.Recurrence.DaysOfWeek))
	for _, d := range p.Recurrence.DaysOfWeek {
		days[d] = true
	}

	anchor := p.EffectiveFrom

	interval := p.Recurrence.WeeklyInterval()
	if interval < 1 {
		interval = 1
	}

	var out []care.LocalDate
	for d := lower; !d.After(upper); d = d.AddDays(1) {
		if !days[int(d.Weekday())] {
			continue
		}
		if weeksBetween(anchor, d)%interval != 0 {
			continue
		}
		out = append(out, d)
	}
	return out
}

// weeksBetween returns the number of whole weeks between anchor and d,
// floored, so that a biweekly pattern alternates on week boundaries
// relative to the pattern's own anchor rather than an arbitrary calendar
// epoch.
func weeksBetween(anchor, d care.LocalDate) int {
	days := anchor.DaysUntil(d)
	if days < 0 {
		days = -days
	}
	return days / 7
}

func expandMonthly(p *care.ServicePattern, lower, upper care.LocalDate) []care.LocalDate {
	dates := make(map[int]bool, len(p.Recurrence.DatesOfMonth))
	for _, d := range p.Recurrence.DatesOfMonth {
		dates[d] = true
	}

	var out []care.LocalDate
	for d := lower; !d.After(upper); d = d.AddDays(1) {
		if dates[d.Day] {
			out = append(out, d)
		}
	}
	return out
}

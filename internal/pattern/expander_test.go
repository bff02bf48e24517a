package pattern

import (
	"testing"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

func mustDate(t *testing.T, s string) care.LocalDate {
	t.Helper()
	d, err := care.ParseLocalDate(s)
	if err != nil {
		t.Fatalf("ParseLocalDate(%q): %v", s, err)
	}
	return d
}

func basePattern(t *testing.T) *care.ServicePattern {
	t.Helper()
	to := mustDate(t, "2026-08-31")
	return &care.ServicePattern{
		PatternType:     care.PatternRecurring,
		DurationMinutes: 60,
		EffectiveFrom:   mustDate(t, "2026-08-01"),
		EffectiveTo:     &to,
		Status:          care.PatternActive,
		Recurrence: care.RecurrenceRule{
			Frequency: care.FrequencyDaily,
			Interval:  1,
			StartTime: care.ClockTime{Hour: 9},
			EndTime:   care.ClockTime{Hour: 10},
			Timezone:  "America/Chicago",
		},
	}
}

func TestExpand_Daily(t *testing.T) {
	p := basePattern(t)

	dates, err := Expand(p, Options{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(dates) != 31 {
		t.Fatalf("expected 31 daily occurrences in August, got %d", len(dates))
	}
	if dates[0] != mustDate(t, "2026-08-01") {
		t.Errorf("first date = %s, want 2026-08-01", dates[0])
	}
	if dates[len(dates)-1] != mustDate(t, "2026-08-31") {
		t.Errorf("last date = %s, want 2026-08-31", dates[len(dates)-1])
	}
}

func TestExpand_Weekly(t *testing.T) {
	p := basePattern(t)
	p.Recurrence.Frequency = care.FrequencyWeekly
	p.Recurrence.DaysOfWeek = []int{1, 3} // Monday, Wednesday

	dates, err := Expand(p, Options{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	for _, d := range dates {
		wd := d.Weekday()
		if wd != 1 && wd != 3 {
			t.Errorf("date %s has weekday %v, want Monday or Wednesday", d, wd)
		}
	}
	if len(dates) == 0 {
		t.Fatal("expected at least one weekly occurrence")
	}
}

func TestExpand_Biweekly(t *testing.T) {
	p := basePattern(t)
	p.Recurrence.Frequency = care.FrequencyBiweekly
	p.Recurrence.DaysOfWeek = []int{1}
	to := mustDate(t, "2026-09-30")
	p.EffectiveFrom = mustDate(t, "2026-08-01")
	p.EffectiveTo = &to

	dates, err := Expand(p, Options{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	for i := 1; i < len(dates); i++ {
		gap := dates[i-1].DaysUntil(dates[i])
		if gap != 14 {
			t.Errorf("biweekly gap between %s and %s = %d days, want 14", dates[i-1], dates[i], gap)
		}
	}
}

func TestExpand_Monthly(t *testing.T) {
	p := basePattern(t)
	p.Recurrence.Frequency = care.FrequencyMonthly
	p.Recurrence.DatesOfMonth = []int{1, 15}
	to := mustDate(t, "2026-10-31")
	p.EffectiveFrom = mustDate(t, "2026-08-01")
	p.EffectiveTo = &to

	dates, err := Expand(p, Options{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(dates) != 6 {
		t.Fatalf("expected 6 monthly occurrences over 3 months, got %d", len(dates))
	}
	for _, d := range dates {
		if d.Day != 1 && d.Day != 15 {
			t.Errorf("date %s has day %d, want 1 or 15", d, d.Day)
		}
	}
}

func TestExpand_RangeBoundsIntersectEffectiveWindow(t *testing.T) {
	p := basePattern(t)
	rangeStart := mustDate(t, "2026-08-10")
	rangeEnd := mustDate(t, "2026-08-20")

	dates, err := Expand(p, Options{RangeStart: &rangeStart, RangeEnd: &rangeEnd})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(dates) != 11 {
		t.Fatalf("expected 11 days between bounds, got %d", len(dates))
	}
}

func TestExpand_NoUpperBoundIsRejected(t *testing.T) {
	p := basePattern(t)
	p.EffectiveTo = nil

	_, err := Expand(p, Options{})
	if err != ErrUnboundedWindow {
		t.Fatalf("Expand() err = %v, want ErrUnboundedWindow", err)
	}
}

func TestExpand_InactivePatternStillExpands(t *testing.T) {
	// Expand is a pure function over the recurrence rule; CanGenerateVisits
	// is the gate callers use before invoking it for live scheduling.
	p := basePattern(t)
	p.Status = care.PatternSuspended

	dates, err := Expand(p, Options{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(dates) == 0 {
		t.Fatal("expected Expand to still produce dates for a paused pattern")
	}
	if p.CanGenerateVisits() {
		t.Fatal("suspended pattern should not report CanGenerateVisits")
	}
}

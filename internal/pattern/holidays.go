package pattern

import (
	"context"
	"sync"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// MemoryHolidayCalendar is a thread-safe, in-memory HolidayCalendar backed
// by an explicit seeded set of dates, standing in for a state-published
// holiday feed (Texas HHSC and Florida AHCA both publish one the EVV
// aggregators observe for visit-scheduling purposes).
type MemoryHolidayCalendar struct {
	mu       sync.RWMutex
	holidays map[care.LocalDate]bool
}

// NewMemoryHolidayCalendar constructs a calendar seeded with dates.
func NewMemoryHolidayCalendar(dates ...care.LocalDate) *MemoryHolidayCalendar {
	c := &MemoryHolidayCalendar{holidays: make(map[care.LocalDate]bool, len(dates))}
	for _, d := range dates {
		c.holidays[d] = true
	}
	return c
}

// Put adds date to the observed holiday set.
func (c *MemoryHolidayCalendar) Put(date care.LocalDate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holidays[date] = true
}

// IsHoliday implements HolidayCalendar.
func (c *MemoryHolidayCalendar) IsHoliday(_ context.Context, date care.LocalDate) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.holidays[date], nil
}

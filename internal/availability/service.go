// Package availability implements the Availability Engine: answering
// "is caregiver C free on day D at [s,e]?" and generating open slots across
// a default work window.
package availability

import (
	"context"

	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// travelBufferMinutes extends an occupied visit interval before and after
// when includeTravel is requested.
const travelBufferMinutes = 30

// defaultWorkWindowStart and defaultWorkWindowEnd bound the generated slot
// search when no caller-supplied window is given.
const (
	defaultWorkWindowStart = 8 * 60  // 08:00
	defaultWorkWindowEnd   = 18 * 60 // 18:00
	defaultSlotMinutes     = 60
)

// busyStatuses are the visit statuses that occupy a caregiver's calendar.
var busyStatuses = map[care.VisitStatus]bool{
	care.VisitAssigned:   true,
	care.VisitConfirmed:  true,
	care.VisitEnRoute:    true,
	care.VisitInProgress: true,
}

// Service is the Availability Engine.
type Service struct {
	visits providers.VisitStore
}

// New constructs a Service from its injected VisitStore.
func New(visits providers.VisitStore) *Service {
	return &Service{visits: visits}
}

// IsAvailable reports whether caregiverID has no occupying visit on date
// overlapping [start, end). If start and end are both zero, the question
// degrades to "does any occupying visit exist on the date at all".
func (s *Service) IsAvailable(ctx context.Context, caregiverID care.ID, date care.LocalDate, start, end care.ClockTime, includeTravel bool) (bool, error) {
	busy, err := s.busyIntervals(ctx, caregiverID, date, includeTravel)
	if err != nil {
		return false, err
	}

	reqStart := start.MinutesSinceMidnight()
	reqEnd := end.MinutesSinceMidnight()
	anyVisitQuery := reqStart == 0 && reqEnd == 0

	for _, interval := range busy {
		if anyVisitQuery {
			return false, nil
		}
		if care.OverlapsHalfOpen(reqStart, reqEnd, interval.start, interval.end) {
			return false, nil
		}
	}
	return true, nil
}

// Slot is one candidate window in an availabilitySlots response.
type Slot struct {
	Start     care.ClockTime
	End       care.ClockTime
	Available bool
	Reason    string
}

// AvailabilitySlots steps across the default 08:00-18:00 work window in
// duration-sized increments (default 60 minutes), reporting whether each
// slot is free.
func (s *Service) AvailabilitySlots(ctx context.Context, caregiverID care.ID, date care.LocalDate, durationMinutes int, includeTravel bool) ([]Slot, error) {
	if durationMinutes <= 0 {
		durationMinutes = defaultSlotMinutes
	}

	busy, err := s.busyIntervals(ctx, caregiverID, date, includeTravel)
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for cursor := defaultWorkWindowStart; cursor+durationMinutes <= defaultWorkWindowEnd; cursor += durationMinutes {
		slotEnd := cursor + durationMinutes
		slot := Slot{
			Start:     care.ClockTimeFromMinutes(cursor),
			End:       care.ClockTimeFromMinutes(slotEnd),
			Available: true,
		}
		for _, interval := range busy {
			if care.OverlapsHalfOpen(cursor, slotEnd, interval.start, interval.end) {
				slot.Available = false
				slot.Reason = "caregiver has a conflicting visit"
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

type interval struct {
	start int
	end   int
}

func (s *Service) busyIntervals(ctx context.Context, caregiverID care.ID, date care.LocalDate, includeTravel bool) ([]interval, error) {
	visits, err := s.visits.VisitsForCaregiverOnDate(ctx, caregiverID, date)
	if err != nil {
		return nil, care.NewTransportError("failed to load caregiver schedule", err)
	}

	buffer := 0
	if includeTravel {
		buffer = travelBufferMinutes
	}

	var busy []interval
	for _, v := range visits {
		if !busyStatuses[v.Status] {
			continue
		}
		busy = append(busy, interval{
			start: v.ScheduledStartTime.MinutesSinceMidnight() - buffer,
			end:   v.ScheduledEndTime.MinutesSinceMidnight() + buffer,
		})
	}
	return busy, nil
}

// Package scheduling implements the Visit Lifecycle Manager: visit
// creation, status transitions, caregiver assignment, conflict detection,
// and pattern-driven schedule generation.
package scheduling

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neighborhood-lab/care-commons/internal/clock"
	"github.com/neighborhood-lab/care-commons/internal/pattern"
	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/internal/telemetry"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// Service is the Visit Lifecycle Manager. All methods are safe for
// concurrent use; serialization of conflicting writes to the same visit is
// the VisitStore's responsibility (optimistic concurrency via
// care.Entity.Version).
type Service struct {
	visits     providers.VisitStore
	patterns   providers.PatternStore
	caregivers providers.CaregiverProvider
	clients    providers.ClientProvider
	holidays   pattern.HolidayCalendar
	clock      clock.Clock
	log        *zap.Logger
}

// New constructs a Service from its injected collaborators. holidays may be
// nil, in which case GenerateScheduleFromPattern's skipHolidays option is a
// no-op regardless of caller intent.
func New(visits providers.VisitStore, patterns providers.PatternStore, caregivers providers.CaregiverProvider, clients providers.ClientProvider, holidays pattern.HolidayCalendar, clk clock.Clock, log *zap.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{visits: visits, patterns: patterns, caregivers: caregivers, clients: clients, holidays: holidays, clock: clk, log: log}
}

// CreateVisitInput is the caller-supplied shape of a new ad-hoc (or
// pattern-originated) visit, before numbering and default status are
// applied.
type CreateVisitInput struct {
	PatternID              *care.ID
	VisitType              care.VisitType
	ClientID               care.ID
	ServiceDate            care.LocalDate
	ScheduledStartTime     care.ClockTime
	ScheduledEndTime       care.ClockTime
	Timezone               string
	ServiceAddress         care.Address
	RequiredSkills         []string
	RequiredCertifications []string
	Actor                  string
	OrganizationID         care.ID
	BranchID               care.ID

	// InitialStatus overrides the visit's starting status; the zero value
	// defaults to DRAFT.
	InitialStatus care.VisitStatus
}

// CreateVisit validates and persists a new visit, numbered
// V{year}-{NNNNNN} against the service date's calendar year. It fails if the
// client already has a non-terminal visit on the same service date whose
// scheduled window overlaps the new one.
func (s *Service) CreateVisit(ctx context.Context, in CreateVisitInput) (*care.Visit, error) {
	now := s.clock.Now()

	status := in.InitialStatus
	if status == "" {
		status = care.VisitDraft
	}

	v := &care.Visit{
		Entity:                 care.NewEntity(in.OrganizationID, in.BranchID, in.Actor, now),
		PatternID:              in.PatternID,
		VisitType:              in.VisitType,
		ClientID:               in.ClientID,
		ServiceDate:            in.ServiceDate,
		ScheduledStartTime:     in.ScheduledStartTime,
		ScheduledEndTime:       in.ScheduledEndTime,
		Timezone:               in.Timezone,
		ServiceAddress:         in.ServiceAddress,
		RequiredSkills:         in.RequiredSkills,
		RequiredCertifications: in.RequiredCertifications,
		Status:                 status,
		BillingStatus:          care.BillingNotReady,
	}

	if err := v.ValidateScheduledTimes(); err != nil {
		return nil, err
	}

	conflict, err := s.hasClientConflict(ctx, v)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, care.NewConflictError("visit.schedule", fmt.Sprintf("client already has overlapping visit %s on this date", conflict.VisitNumber))
	}

	seq, err := s.visits.NextVisitSequence(ctx, in.OrganizationID, v.ServiceDate.Year)
	if err != nil {
		return nil, care.NewTransportError("failed to allocate visit sequence", err)
	}
	v.VisitNumber = fmt.Sprintf("V%04d-%06d", v.ServiceDate.Year, seq)

	if err := s.visits.CreateVisit(ctx, v); err != nil {
		return nil, care.NewTransportError("failed to persist visit", err)
	}

	s.log.Info("visit created", zap.String("visitId", v.ID.String()), zap.String("visitNumber", v.VisitNumber))
	return v, nil
}

// clientConflictStatuses are the non-terminal statuses in which an existing
// visit blocks a new, overlapping visit for the same client.
var clientConflictStatuses = map[care.VisitStatus]bool{
	care.VisitUnassigned: true,
	care.VisitAssigned:   true,
	care.VisitConfirmed:  true,
	care.VisitEnRoute:    true,
	care.VisitInProgress: true,
}

// hasClientConflict reports the first existing visit for v.ClientID on the
// same service date, in a non-terminal status, whose scheduled window
// overlaps v's.
func (s *Service) hasClientConflict(ctx context.Context, v *care.Visit) (*care.Visit, error) {
	existing, err := s.visits.SearchVisits(ctx, providers.VisitFilter{
		ClientID:    &v.ClientID,
		ServiceFrom: &v.ServiceDate,
		ServiceTo:   &v.ServiceDate,
	})
	if err != nil {
		return nil, care.NewTransportError("failed to check client schedule", err)
	}
	for _, other := range existing {
		if other.ID == v.ID || !clientConflictStatuses[other.Status] {
			continue
		}
		if care.OverlapsHalfOpen(
			v.ScheduledStartTime.MinutesSinceMidnight(), v.ScheduledEndTime.MinutesSinceMidnight(),
			other.ScheduledStartTime.MinutesSinceMidnight(), other.ScheduledEndTime.MinutesSinceMidnight(),
		) {
			return other, nil
		}
	}
	return nil, nil
}

// GetVisit fetches a visit by id.
func (s *Service) GetVisit(ctx context.Context, id care.ID) (*care.Visit, error) {
	return s.visits.GetVisit(ctx, id)
}

// SearchVisits delegates to the store's filtered search.
func (s *Service) SearchVisits(ctx context.Context, f providers.VisitFilter) ([]*care.Visit, error) {
	return s.visits.SearchVisits(ctx, f)
}

// GetUnassignedVisits returns every visit currently awaiting a caregiver
// assignment.
func (s *Service) GetUnassignedVisits(ctx context.Context) ([]*care.Visit, error) {
	return s.visits.SearchVisits(ctx, providers.VisitFilter{Unassigned: true})
}

// UpdateStatus drives the visit through the guarded state machine,
// appending a StatusChange entry and touching the entity version.
func (s *Service) UpdateStatus(ctx context.Context, visitID care.ID, to care.VisitStatus, actor, reason string) (*care.Visit, error) {
	v, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	if !care.CanTransition(v.Status, to) {
		return nil, care.NewConflictError("visit.status", fmt.Sprintf("cannot transition from %s to %s", v.Status, to))
	}

	now := s.clock.Now()
	from := v.Status
	v.StatusHistory = append(v.StatusHistory, care.StatusChange{
		From:      v.Status,
		To:        to,
		Timestamp: now,
		Actor:     actor,
		Reason:    reason,
	})
	v.Status = to
	s.applyTimestampSideEffects(v, to, now)
	v.Touch(actor, now)

	if err := s.visits.UpdateVisit(ctx, v); err != nil {
		return nil, care.NewTransportError("failed to persist visit status", err)
	}

	s.log.Info("visit status changed", zap.String("visitId", v.ID.String()), zap.String("to", string(to)))
	telemetry.RecordVisitStatus(string(to), v.OrganizationID.String(), activeDelta(from, to))
	return v, nil
}

// activeDelta reports the change in the active-visit gauge a transition from
// → to causes: +1 entering IN_PROGRESS, -1 leaving it for a terminal state.
func activeDelta(from, to care.VisitStatus) int {
	switch {
	case to == care.VisitInProgress:
		return 1
	case from == care.VisitInProgress && care.IsTerminal(to):
		return -1
	default:
		return 0
	}
}

func (s *Service) applyTimestampSideEffects(v *care.Visit, to care.VisitStatus, now time.Time) {
	switch to {
	case care.VisitInProgress:
		if v.ActualStartTime == nil {
			t := now
			v.ActualStartTime = &t
		}
	case care.VisitCompleted, care.VisitIncomplete:
		if v.ActualEndTime == nil {
			t := now
			v.ActualEndTime = &t
		}
	}
}

// CompleteVisit is a convenience wrapper around UpdateStatus for the common
// IN_PROGRESS → COMPLETED path, additionally marking the visit ready for
// billing.
func (s *Service) CompleteVisit(ctx context.Context, visitID care.ID, actor string) (*care.Visit, error) {
	v, err := s.UpdateStatus(ctx, visitID, care.VisitCompleted, actor, "visit completed")
	if err != nil {
		return nil, err
	}
	v.BillingStatus = care.BillingReady
	if err := s.visits.UpdateVisit(ctx, v); err != nil {
		return nil, care.NewTransportError("failed to mark visit billing-ready", err)
	}
	return v, nil
}

// AssignCaregiver assigns caregiverID to visitID, enforcing that the visit
// is in an assignable status, the caregiver is active, holds the required
// skills, and has no conflicting visit already scheduled on the same day.
func (s *Service) AssignCaregiver(ctx context.Context, visitID, caregiverID care.ID, method care.AssignmentMethod, actor string) (*care.Visit, error) {
	v, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	if !care.CanAssign(v.Status) {
		return nil, care.NewConflictError("visit.status", fmt.Sprintf("visit in status %s cannot be assigned", v.Status))
	}

	active, err := s.caregivers.IsActive(ctx, caregiverID)
	if err != nil {
		return nil, care.NewTransportError("failed to check caregiver status", err)
	}
	if !active {
		return nil, care.NewValidationError("caregiverId", "caregiver is not active")
	}

	if len(v.RequiredSkills) > 0 {
		ok, err := s.caregivers.HasSkills(ctx, caregiverID, v.RequiredSkills)
		if err != nil {
			return nil, care.NewTransportError("failed to check caregiver skills", err)
		}
		if !ok {
			return nil, care.NewValidationError("caregiverId", "caregiver lacks a required skill")
		}
	}

	conflict, err := s.hasConflict(ctx, caregiverID, v)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, care.NewConflictError("visit.schedule", fmt.Sprintf("overlaps visit %s", conflict.VisitNumber))
	}

	now := s.clock.Now()
	v.Assignment = &care.AssignmentInfo{
		CaregiverID: caregiverID,
		Method:      method,
		AssignedBy:  actor,
		AssignedAt:  now,
	}

	to := care.VisitAssigned
	if care.CanTransition(v.Status, to) {
		v.StatusHistory = append(v.StatusHistory, care.StatusChange{
			From:      v.Status,
			To:        to,
			Timestamp: now,
			Actor:     actor,
			Reason:    "caregiver assigned",
		})
		v.Status = to
	}
	v.Touch(actor, now)

	if err := s.visits.UpdateVisit(ctx, v); err != nil {
		return nil, care.NewTransportError("failed to persist visit assignment", err)
	}

	s.log.Info("caregiver assigned", zap.String("visitId", v.ID.String()), zap.String("caregiverId", caregiverID.String()))
	return v, nil
}

// hasConflict reports the first visit already assigned to caregiverID on
// the same service date whose scheduled window overlaps v's.
func (s *Service) hasConflict(ctx context.Context, caregiverID care.ID, v *care.Visit) (*care.Visit, error) {
	existing, err := s.visits.VisitsForCaregiverOnDate(ctx, caregiverID, v.ServiceDate)
	if err != nil {
		return nil, care.NewTransportError("failed to check caregiver schedule", err)
	}
	for _, other := range existing {
		if other.ID == v.ID || care.IsTerminal(other.Status) {
			continue
		}
		if care.OverlapsHalfOpen(
			v.ScheduledStartTime.MinutesSinceMidnight(), v.ScheduledEndTime.MinutesSinceMidnight(),
			other.ScheduledStartTime.MinutesSinceMidnight(), other.ScheduledEndTime.MinutesSinceMidnight(),
		) {
			return other, nil
		}
	}
	return nil, nil
}

// GenerateScheduleFromPattern expands pattern between [from, to] and
// creates an UNASSIGNED visit for every date that does not already have
// one, with its service address resolved from the client's address on file
// and its end time computed from the pattern's duration. If autoAssign is
// set and the pattern names preferred caregivers, each date's visit is
// offered to them in order; assignment stops at the first success, and a
// caregiver that can't be assigned is skipped rather than aborting
// generation. If skipHolidays is set, dates the service's HolidayCalendar
// reports as observed holidays are dropped before any visits are created;
// it is a no-op if the service was built with a nil calendar.
func (s *Service) GenerateScheduleFromPattern(ctx context.Context, patternID care.ID, from, to care.LocalDate, autoAssign, skipHolidays bool, actor string) ([]*care.Visit, error) {
	p, err := s.patterns.GetPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}
	if !p.CanGenerateVisits() {
		return nil, care.NewConflictError("pattern.status", "pattern is not active")
	}

	dates, err := pattern.Expand(p, pattern.Options{RangeStart: &from, RangeEnd: &to, SkipHolidays: skipHolidays, Holidays: s.holidays})
	if err != nil {
		return nil, err
	}

	existing, err := s.visits.SearchVisits(ctx, providers.VisitFilter{ClientID: &p.ClientID, ServiceFrom: &from, ServiceTo: &to})
	if err != nil {
		return nil, care.NewTransportError("failed to check existing visits for pattern", err)
	}
	have := make(map[care.LocalDate]bool, len(existing))
	for _, v := range existing {
		if v.PatternID != nil && *v.PatternID == patternID {
			have[v.ServiceDate] = true
		}
	}

	addr, err := s.clients.ClientAddress(ctx, p.ClientID)
	if err != nil {
		return nil, err
	}

	endTime, _ := p.Recurrence.StartTime.AddMinutes(p.DurationMinutes)

	var created []*care.Visit
	for _, d := range dates {
		if have[d] {
			continue
		}
		id := patternID
		v, err := s.CreateVisit(ctx, CreateVisitInput{
			PatternID:              &id,
			VisitType:              care.VisitTypeRecurring,
			ClientID:               p.ClientID,
			ServiceDate:            d,
			ScheduledStartTime:     p.Recurrence.StartTime,
			ScheduledEndTime:       endTime,
			Timezone:               p.Recurrence.Timezone,
			ServiceAddress:         *addr,
			RequiredSkills:         p.RequiredSkills,
			RequiredCertifications: p.RequiredCertifications,
			Actor:                  actor,
			OrganizationID:         p.OrganizationID,
			BranchID:               p.BranchID,
			InitialStatus:          care.VisitUnassigned,
		})
		if err != nil {
			return created, err
		}

		if autoAssign {
			if assigned := s.tryAutoAssign(ctx, v, p.PreferredCaregiverIDs, actor); assigned != nil {
				v = assigned
			}
		}

		created = append(created, v)
	}

	s.log.Info("schedule generated from pattern", zap.String("patternId", patternID.String()), zap.Int("visitsCreated", len(created)))
	return created, nil
}

// tryAutoAssign offers v to each of candidates in order, stopping at the
// first successful assignment and returning the updated visit. Per-
// caregiver failures are logged and swallowed: they do not abort schedule
// generation. Returns nil if no candidate could be assigned.
func (s *Service) tryAutoAssign(ctx context.Context, v *care.Visit, candidates []care.ID, actor string) *care.Visit {
	for _, caregiverID := range candidates {
		assigned, err := s.AssignCaregiver(ctx, v.ID, caregiverID, care.AssignmentPreferred, actor)
		if err != nil {
			s.log.Info("auto-assign candidate rejected",
				zap.String("visitId", v.ID.String()),
				zap.String("caregiverId", caregiverID.String()),
				zap.Error(err),
			)
			continue
		}
		return assigned
	}
	return nil
}

package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborhood-lab/care-commons/internal/pattern"
	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/internal/providers/providersmock"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

func newTestService() (*Service, *providersmock.MockVisitStore, *providersmock.MockPatternStore, *providersmock.MockCaregiverProvider) {
	svc, visits, patterns, caregivers, _ := newTestServiceWithClients()
	return svc, visits, patterns, caregivers
}

func newTestServiceWithClients() (*Service, *providersmock.MockVisitStore, *providersmock.MockPatternStore, *providersmock.MockCaregiverProvider, *providersmock.MockClientProvider) {
	visits := providersmock.NewMockVisitStore()
	patterns := providersmock.NewMockPatternStore()
	caregivers := providersmock.NewMockCaregiverProvider()
	clients := providersmock.NewMockClientProvider()
	svc := New(visits, patterns, caregivers, clients, nil, nil, nil)
	return svc, visits, patterns, caregivers, clients
}

func testInput(orgID care.ID, date care.LocalDate) CreateVisitInput {
	return CreateVisitInput{
		VisitType:          care.VisitTypeOneTime,
		ClientID:           care.NewID(),
		ServiceDate:        date,
		ScheduledStartTime: care.ClockTime{Hour: 9},
		ScheduledEndTime:   care.ClockTime{Hour: 10},
		Timezone:           "America/Chicago",
		Actor:              "tester",
		OrganizationID:     orgID,
		BranchID:           care.NewID(),
	}
}

func TestCreateVisit_NumbersSequentially(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	org := care.NewID()
	date, _ := care.ParseLocalDate("2026-08-10")

	v1, err := svc.CreateVisit(ctx, testInput(org, date))
	require.NoError(t, err)
	v2, err := svc.CreateVisit(ctx, testInput(org, date))
	require.NoError(t, err)

	assert.Equal(t, "V2026-000001", v1.VisitNumber)
	assert.Equal(t, "V2026-000002", v2.VisitNumber)
	assert.Equal(t, care.VisitDraft, v1.Status)
}

func TestCreateVisit_RejectsBadScheduledTimes(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	date, _ := care.ParseLocalDate("2026-08-10")
	in := testInput(care.NewID(), date)
	in.ScheduledEndTime = care.ClockTime{Hour: 8}

	_, err := svc.CreateVisit(ctx, in)
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindValidation))
}

func TestUpdateStatus_RejectsInvalidTransition(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	date, _ := care.ParseLocalDate("2026-08-10")
	v, err := svc.CreateVisit(ctx, testInput(care.NewID(), date))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, v.ID, care.VisitCompleted, "tester", "skip ahead")
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindConflict))
}

func TestUpdateStatus_ValidTransitionRecordsHistory(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	date, _ := care.ParseLocalDate("2026-08-10")
	v, err := svc.CreateVisit(ctx, testInput(care.NewID(), date))
	require.NoError(t, err)

	v, err = svc.UpdateStatus(ctx, v.ID, care.VisitScheduled, "tester", "scheduled")
	require.NoError(t, err)
	require.Len(t, v.StatusHistory, 1)
	assert.Equal(t, care.VisitDraft, v.StatusHistory[0].From)
	assert.Equal(t, care.VisitScheduled, v.StatusHistory[0].To)
}

func TestAssignCaregiver_RejectsInactiveCaregiver(t *testing.T) {
	svc, _, _, caregivers := newTestService()
	ctx := context.Background()
	date, _ := care.ParseLocalDate("2026-08-10")
	in := testInput(care.NewID(), date)
	v, err := svc.CreateVisit(ctx, in)
	require.NoError(t, err)
	v, err = svc.UpdateStatus(ctx, v.ID, care.VisitScheduled, "tester", "scheduled")
	require.NoError(t, err)
	v, err = svc.UpdateStatus(ctx, v.ID, care.VisitUnassigned, "tester", "needs caregiver")
	require.NoError(t, err)

	caregiverID := care.NewID()
	caregivers.Active[caregiverID] = false

	_, err = svc.AssignCaregiver(ctx, v.ID, caregiverID, care.AssignmentManual, "coordinator")
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindValidation))
}

func TestAssignCaregiver_DetectsConflict(t *testing.T) {
	svc, visits, _, caregivers := newTestService()
	ctx := context.Background()
	date, _ := care.ParseLocalDate("2026-08-10")
	org := care.NewID()

	caregiverID := care.NewID()
	caregivers.Active[caregiverID] = true

	first := testInput(org, date)
	v1, err := svc.CreateVisit(ctx, first)
	require.NoError(t, err)
	v1, err = svc.UpdateStatus(ctx, v1.ID, care.VisitScheduled, "tester", "scheduled")
	require.NoError(t, err)
	v1, err = svc.UpdateStatus(ctx, v1.ID, care.VisitUnassigned, "tester", "needs caregiver")
	require.NoError(t, err)
	v1, err = svc.AssignCaregiver(ctx, v1.ID, caregiverID, care.AssignmentManual, "coordinator")
	require.NoError(t, err)
	assert.Equal(t, care.VisitAssigned, v1.Status)

	second := testInput(org, date)
	second.ScheduledStartTime = care.ClockTime{Hour: 9, Minute: 30}
	second.ScheduledEndTime = care.ClockTime{Hour: 10, Minute: 30}
	v2, err := svc.CreateVisit(ctx, second)
	require.NoError(t, err)
	v2, err = svc.UpdateStatus(ctx, v2.ID, care.VisitScheduled, "tester", "scheduled")
	require.NoError(t, err)
	v2, err = svc.UpdateStatus(ctx, v2.ID, care.VisitUnassigned, "tester", "needs caregiver")
	require.NoError(t, err)

	_, err = svc.AssignCaregiver(ctx, v2.ID, caregiverID, care.AssignmentManual, "coordinator")
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindConflict))

	_ = visits
}

func TestGenerateScheduleFromPattern_SkipsExistingDates(t *testing.T) {
	svc, _, patterns, _, clients := newTestServiceWithClients()
	ctx := context.Background()
	org := care.NewID()
	from, _ := care.ParseLocalDate("2026-08-01")
	to := from.AddDays(6)
	clientID := care.NewID()
	lat, lon := 30.2672, -97.7431

	p := &care.ServicePattern{
		Entity:          care.NewEntity(org, care.NewID(), "tester", time.Now()),
		PatternType:     care.PatternRecurring,
		ClientID:        clientID,
		DurationMinutes: 60,
		EffectiveFrom:   from,
		EffectiveTo:     &to,
		Status:          care.PatternActive,
		Recurrence: care.RecurrenceRule{
			Frequency: care.FrequencyDaily,
			Interval:  1,
			StartTime: care.ClockTime{Hour: 9},
			Timezone:  "America/Chicago",
		},
	}
	patterns.Patterns[p.ID] = p
	clients.Addresses[clientID] = &care.Address{Line1: "1 Main St", Latitude: &lat, Longitude: &lon}

	created, err := svc.GenerateScheduleFromPattern(ctx, p.ID, from, to, false, false, "scheduler")
	require.NoError(t, err)
	require.Len(t, created, 7)
	assert.Equal(t, care.VisitUnassigned, created[0].Status)
	assert.Equal(t, care.ClockTime{Hour: 10}, created[0].ScheduledEndTime)

	createdAgain, err := svc.GenerateScheduleFromPattern(ctx, p.ID, from, to, false, false, "scheduler")
	require.NoError(t, err)
	assert.Len(t, createdAgain, 0)
}

func TestGenerateScheduleFromPattern_AutoAssignsPreferredCaregiver(t *testing.T) {
	svc, _, patterns, caregivers, clients := newTestServiceWithClients()
	ctx := context.Background()
	org := care.NewID()
	from, _ := care.ParseLocalDate("2026-08-01")
	to := from
	clientID := care.NewID()
	lat, lon := 30.2672, -97.7431
	caregiverID := care.NewID()
	caregivers.Active[caregiverID] = true

	p := &care.ServicePattern{
		Entity:                care.NewEntity(org, care.NewID(), "tester", time.Now()),
		PatternType:           care.PatternRecurring,
		ClientID:              clientID,
		DurationMinutes:       60,
		EffectiveFrom:         from,
		EffectiveTo:           &to,
		Status:                care.PatternActive,
		PreferredCaregiverIDs: []care.ID{caregiverID},
		Recurrence: care.RecurrenceRule{
			Frequency: care.FrequencyDaily,
			Interval:  1,
			StartTime: care.ClockTime{Hour: 9},
			Timezone:  "America/Chicago",
		},
	}
	patterns.Patterns[p.ID] = p
	clients.Addresses[clientID] = &care.Address{Line1: "1 Main St", Latitude: &lat, Longitude: &lon}

	created, err := svc.GenerateScheduleFromPattern(ctx, p.ID, from, to, true, false, "scheduler")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, care.VisitAssigned, created[0].Status)
	require.NotNil(t, created[0].Assignment)
	assert.Equal(t, caregiverID, created[0].Assignment.CaregiverID)
}

func TestGenerateScheduleFromPattern_SkipsHolidaysWhenRequested(t *testing.T) {
	visits := providersmock.NewMockVisitStore()
	patterns := providersmock.NewMockPatternStore()
	caregivers := providersmock.NewMockCaregiverProvider()
	clients := providersmock.NewMockClientProvider()
	holiday, _ := care.ParseLocalDate("2026-08-03")
	holidays := pattern.NewMemoryHolidayCalendar(holiday)
	svc := New(visits, patterns, caregivers, clients, holidays, nil, nil)

	ctx := context.Background()
	org := care.NewID()
	from, _ := care.ParseLocalDate("2026-08-01")
	to := from.AddDays(4)
	clientID := care.NewID()
	lat, lon := 30.2672, -97.7431

	p := &care.ServicePattern{
		Entity:          care.NewEntity(org, care.NewID(), "tester", time.Now()),
		PatternType:     care.PatternRecurring,
		ClientID:        clientID,
		DurationMinutes: 60,
		EffectiveFrom:   from,
		EffectiveTo:     &to,
		Status:          care.PatternActive,
		Recurrence: care.RecurrenceRule{
			Frequency: care.FrequencyDaily,
			Interval:  1,
			StartTime: care.ClockTime{Hour: 9},
			Timezone:  "America/Chicago",
		},
	}
	patterns.Patterns[p.ID] = p
	clients.Addresses[clientID] = &care.Address{Line1: "1 Main St", Latitude: &lat, Longitude: &lon}

	created, err := svc.GenerateScheduleFromPattern(ctx, p.ID, from, to, false, true, "scheduler")
	require.NoError(t, err)
	require.Len(t, created, 4)
	for _, v := range created {
		assert.NotEqual(t, holiday, v.ServiceDate)
	}
}

var _ providers.VisitStore = (*providersmock.MockVisitStore)(nil)

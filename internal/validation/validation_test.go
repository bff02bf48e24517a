package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

func TestStruct_ClockInRequest_Valid(t *testing.T) {
	req := ClockInRequest{
		OrganizationID:  care.NewID().String(),
		BranchID:        care.NewID().String(),
		VisitID:         care.NewID().String(),
		ClientID:        care.NewID().String(),
		CaregiverID:     care.NewID().String(),
		ServiceTypeCode: "PERSONAL_CARE",
		State:           "TX",
		Latitude:        29.7604,
		Longitude:       -95.3698,
		Accuracy:        8,
		CapturedAt:      time.Now(),
		TimestampSource: "DEVICE",
		Method:          "GPS",
		LocationSource:  "GPS_SATELLITE",
	}
	assert.NoError(t, Struct(req))
}

func TestStruct_ClockInRequest_RejectsMissingRequiredFields(t *testing.T) {
	req := ClockInRequest{}
	err := Struct(req)
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindValidation))
}

func TestStruct_ClockInRequest_RejectsOutOfRangeLatitude(t *testing.T) {
	req := ClockInRequest{
		OrganizationID:  care.NewID().String(),
		BranchID:        care.NewID().String(),
		VisitID:         care.NewID().String(),
		ClientID:        care.NewID().String(),
		CaregiverID:     care.NewID().String(),
		ServiceTypeCode: "PERSONAL_CARE",
		State:           "TX",
		Latitude:        200,
		Longitude:       -95.3698,
		CapturedAt:      time.Now(),
		TimestampSource: "DEVICE",
		Method:          "GPS",
		LocationSource:  "GPS_SATELLITE",
	}
	err := Struct(req)
	require.Error(t, err)
	var ce *care.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, care.KindValidation, ce.Kind)
	assert.Contains(t, ce.Field, "latitude")
}

func TestStruct_ClockInRequest_RejectsBadStateCode(t *testing.T) {
	req := ClockInRequest{
		OrganizationID:  care.NewID().String(),
		BranchID:        care.NewID().String(),
		VisitID:         care.NewID().String(),
		ClientID:        care.NewID().String(),
		CaregiverID:     care.NewID().String(),
		ServiceTypeCode: "PERSONAL_CARE",
		State:           "texas",
		Latitude:        29.7604,
		Longitude:       -95.3698,
		CapturedAt:      time.Now(),
		TimestampSource: "DEVICE",
		Method:          "GPS",
		LocationSource:  "GPS_SATELLITE",
	}
	assert.Error(t, Struct(req))
}

func TestStruct_CreatePatternRequest_Valid(t *testing.T) {
	req := CreatePatternRequest{
		ClientID:                care.NewID().String(),
		PatternType:             "RECURRING",
		ServiceTypeCode:         "PERSONAL_CARE",
		DurationMinutes:         60,
		Recurrence: RecurrenceRuleRequest{
			Frequency:   "WEEKLY",
			Interval:    1,
			DaysOfWeek:  []int{1, 3, 5},
			StartHour:   9,
			StartMinute: 0,
			Timezone:    "America/Chicago",
		},
		AuthorizationStartDate: "2026-01-01",
		AuthorizationEndDate:   "2026-12-31",
		EffectiveFrom:          "2026-01-01",
	}
	assert.NoError(t, Struct(req))
}

func TestStruct_CreatePatternRequest_RejectsDurationOutOfRange(t *testing.T) {
	req := CreatePatternRequest{
		ClientID:        care.NewID().String(),
		PatternType:     "ONE_TIME",
		ServiceTypeCode: "PERSONAL_CARE",
		DurationMinutes: 10,
		Recurrence: RecurrenceRuleRequest{
			Frequency:   "DAILY",
			Interval:    1,
			StartHour:   9,
			StartMinute: 0,
			Timezone:    "America/Chicago",
		},
		AuthorizationStartDate: "2026-01-01",
		AuthorizationEndDate:   "2026-12-31",
		EffectiveFrom:          "2026-01-01",
	}
	err := Struct(req)
	require.Error(t, err)
	var ce *care.Error
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Field, "durationMinutes")
}

func TestStruct_CreateVMURRequest_RejectsShortReasonDetails(t *testing.T) {
	req := CreateVMURRequest{
		EVVRecordID:     care.NewID().String(),
		RequestedBy:     care.NewID().String(),
		RequestedName:   "J. Smith",
		ReasonCode:      "GPS_UNAVAILABLE",
		ReasonDetails:   "too short",
		CorrectedFields: map[string]string{"clockInTime": "2026-07-30T09:00:00Z"},
	}
	assert.Error(t, Struct(req))
}

func TestStruct_CreateVMURRequest_Valid(t *testing.T) {
	req := CreateVMURRequest{
		EVVRecordID:   care.NewID().String(),
		RequestedBy:   care.NewID().String(),
		RequestedName: "J. Smith",
		ReasonCode:    "GPS_UNAVAILABLE",
		ReasonDetails: "Caregiver's device lost GPS signal in a rural area with no cell coverage.",
		CorrectedFields: map[string]string{
			"clockInTime": "2026-07-30T09:00:00Z",
		},
	}
	assert.NoError(t, Struct(req))
}

func TestStruct_DenyVMURRequest_RejectsMissingReason(t *testing.T) {
	req := DenyVMURRequest{
		VMURID:     care.NewID().String(),
		ApprovedBy: care.NewID().String(),
	}
	assert.Error(t, Struct(req))
}

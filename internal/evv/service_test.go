package evv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neighborhood-lab/care-commons/internal/config"
	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/internal/providers/providersmock"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

func testEVVConfig() config.EVVConfig {
	return config.EVVConfig{
		DefaultGeofenceRadiusMeters: 100,
		StateRules: map[string]config.StateRuleConfig{
			"TX": {
				GeofenceBaseRadiusMeters: 100,
				StateToleranceMeters:     50,
				ClockInGraceMinutes:      10,
				AllowedMethods:           []string{"GPS", "BIOMETRIC"},
				TelephonyFallbackAllowed: false,
				GPSAccuracyFlagMeters:    100,
			},
			"FL": {
				GeofenceBaseRadiusMeters: 150,
				StateToleranceMeters:     100,
				ClockInGraceMinutes:      15,
				AllowedMethods:           []string{"GPS", "PHONE", "BIOMETRIC"},
				TelephonyFallbackAllowed: true,
				GPSAccuracyFlagMeters:    150,
			},
		},
	}
}

// testFixture bundles the service under test with its mock collaborators so
// individual tests can seed visit/caregiver state directly.
type testFixture struct {
	svc        *Service
	records    *providersmock.MockEVVStore
	geofences  *providersmock.MockGeofenceStore
	visits     *providersmock.MockVisitProvider
	caregivers *providersmock.MockCaregiverProvider
}

func newTestService() *testFixture {
	records := providersmock.NewMockEVVStore()
	geofences := providersmock.NewMockGeofenceStore()
	clients := providersmock.NewMockClientProvider()
	caregivers := providersmock.NewMockCaregiverProvider()
	visits := providersmock.NewMockVisitProvider()
	svc := New(records, geofences, clients, caregivers, visits, nil, testEVVConfig(), nil)
	return &testFixture{svc: svc, records: records, geofences: geofences, visits: visits, caregivers: caregivers}
}

func addressAt(lat, lon float64) care.Address {
	return care.Address{
		Line1:     "100 Main St",
		City:      "Austin",
		State:     "TX",
		Latitude:  &lat,
		Longitude: &lon,
	}
}

// seedVisit registers a clock-in-eligible visit assigned to caregiverID at
// addr, scheduled for today, and returns its id.
func (f *testFixture) seedVisit(caregiverID care.ID, addr care.Address) care.ID {
	visitID := care.NewID()
	clientID := care.NewID()
	f.visits.Visits[visitID] = &providers.EVVVisitView{
		ID:                  visitID,
		ClientID:            clientID,
		Status:              care.VisitAssigned,
		AssignedCaregiverID: caregiverID,
		ServiceAddress:      addr,
		ServiceDate:         care.NewLocalDate(time.Now()),
	}
	return visitID
}

func baseClockIn(visitID, caregiverID care.ID, fix LocationFix) ClockInInput {
	return ClockInInput{
		VisitID:         visitID,
		CaregiverID:     caregiverID,
		ActorID:         caregiverID,
		ActorRole:       care.RoleCaregiver,
		ServiceTypeCode: "PERSONAL_CARE",
		State:           "TX",
		Fix:             fix,
	}
}

func TestClockIn_WithinGeofencePasses(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)

	in := baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		Accuracy:   10,
		CapturedAt: time.Now(),
		Method:     care.MethodGPS,
	})

	record, err := f.svc.ClockIn(ctx, in)
	require.NoError(t, err)
	assert.True(t, record.ClockInVerification.WithinGeofence)
	assert.Equal(t, care.VerificationFull, record.VerificationLevel)
	assert.True(t, record.HasComplianceFlag(care.FlagCompliant))
	assert.NotEmpty(t, record.IntegrityHash)
	assert.Equal(t, care.VisitInProgress, f.visits.UpdatedStatus[visitID])
}

func TestClockIn_OutsideGeofenceFlagsViolation(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)

	in := baseClockIn(visitID, caregiverID, LocationFix{
		// Roughly 5km away
		Latitude:   30.3100,
		Longitude:  -97.7431,
		Accuracy:   10,
		CapturedAt: time.Now(),
		Method:     care.MethodGPS,
	})

	record, err := f.svc.ClockIn(ctx, in)
	require.NoError(t, err)
	assert.False(t, record.ClockInVerification.WithinGeofence)
	assert.True(t, record.HasComplianceFlag(care.FlagGeofenceViolation))
	assert.Equal(t, care.VerificationException, record.VerificationLevel)
}

func TestClockIn_RejectsDisallowedMethodForState(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)

	in := baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		Accuracy:   10,
		CapturedAt: time.Now(),
		Method:     care.MethodPhone, // TX does not allow PHONE
	})

	record, err := f.svc.ClockIn(ctx, in)
	require.NoError(t, err)
	assert.False(t, record.ClockInVerification.VerificationPassed)
}

func TestClockIn_RejectsActorActingForAnotherCaregiver(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)

	in := baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		Accuracy:   10,
		CapturedAt: time.Now(),
		Method:     care.MethodGPS,
	})
	in.ActorID = care.NewID()
	in.ActorRole = care.RoleCaregiver

	_, err := f.svc.ClockIn(ctx, in)
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindPermission))
}

func TestClockIn_SupervisorMayActOnCaregiversBehalf(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)

	in := baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		Accuracy:   10,
		CapturedAt: time.Now(),
		Method:     care.MethodGPS,
	})
	in.ActorID = care.NewID()
	in.ActorRole = care.RoleCoordinator

	_, err := f.svc.ClockIn(ctx, in)
	require.NoError(t, err)
}

func TestClockIn_RejectsVisitNotEligible(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)
	f.visits.Visits[visitID].Status = care.VisitCompleted

	in := baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		Accuracy:   10,
		CapturedAt: time.Now(),
		Method:     care.MethodGPS,
	})

	_, err := f.svc.ClockIn(ctx, in)
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindConflict))
}

func TestClockIn_RejectsUngeocodedServiceAddress(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := care.Address{Line1: "100 Main St", City: "Austin", State: "TX"}
	visitID := f.seedVisit(caregiverID, addr)

	in := baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		Accuracy:   10,
		CapturedAt: time.Now(),
		Method:     care.MethodGPS,
	})

	_, err := f.svc.ClockIn(ctx, in)
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindValidation))
}

func TestClockIn_RejectsUnauthorizedCaregiver(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)
	f.caregivers.Authorizations[caregiverID] = providers.CanProvideServiceResult{
		Authorized: false,
		Reason:     "missing required credential",
	}

	in := baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		Accuracy:   10,
		CapturedAt: time.Now(),
		Method:     care.MethodGPS,
	})

	_, err := f.svc.ClockIn(ctx, in)
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindConflict))
}

func TestClockOut_SetsIntegrityDigestAndDuration(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)
	clockInAt := time.Now()

	in := baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		Accuracy:   10,
		CapturedAt: clockInAt,
		Method:     care.MethodGPS,
	})
	record, err := f.svc.ClockIn(ctx, in)
	require.NoError(t, err)

	f.visits.Visits[visitID].Status = care.VisitInProgress
	hashBefore := record.IntegrityHash

	out, err := f.svc.ClockOut(ctx, ClockOutInput{
		EVVRecordID: record.ID,
		State:       "TX",
		ActorID:     caregiverID,
		ActorRole:   care.RoleCaregiver,
		Fix: LocationFix{
			Latitude:   30.2672,
			Longitude:  -97.7431,
			Accuracy:   10,
			CapturedAt: clockInAt.Add(45 * time.Minute),
			Method:     care.MethodGPS,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, out.TotalDuration)
	assert.Equal(t, 45, *out.TotalDuration)
	assert.Equal(t, hashBefore, out.IntegrityHash, "integrityHash must not change on clock-out")
	assert.NotEmpty(t, out.IntegrityChecksum)
	assert.Equal(t, care.EVVComplete, out.Status)
	assert.Equal(t, care.VisitCompleted, f.visits.UpdatedStatus[visitID])
	// Clocked out with no attestation on file.
	assert.True(t, out.HasComplianceFlag(care.FlagMissingSignature))
}

func TestClockOut_RejectsClockOutBeforeClockIn(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)
	clockInAt := time.Now()

	record, err := f.svc.ClockIn(ctx, baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		CapturedAt: clockInAt,
		Method:     care.MethodGPS,
	}))
	require.NoError(t, err)
	f.visits.Visits[visitID].Status = care.VisitInProgress

	_, err = f.svc.ClockOut(ctx, ClockOutInput{
		EVVRecordID: record.ID,
		State:       "TX",
		ActorID:     caregiverID,
		ActorRole:   care.RoleCaregiver,
		Fix: LocationFix{
			Latitude:   30.2672,
			Longitude:  -97.7431,
			CapturedAt: clockInAt.Add(-time.Hour),
			Method:     care.MethodGPS,
		},
	})
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindValidation))
}

func TestClockOut_RejectsVisitNotInProgress(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)
	clockInAt := time.Now()

	record, err := f.svc.ClockIn(ctx, baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		CapturedAt: clockInAt,
		Method:     care.MethodGPS,
	}))
	require.NoError(t, err)
	// Leave the mock's visit status untouched by UpdateVisitStatus rather
	// than advancing it to IN_PROGRESS, so CanClockOut's derived check fails.
	f.visits.Visits[visitID].Status = care.VisitAssigned

	_, err = f.svc.ClockOut(ctx, ClockOutInput{
		EVVRecordID: record.ID,
		State:       "TX",
		ActorID:     caregiverID,
		ActorRole:   care.RoleCaregiver,
		Fix: LocationFix{
			Latitude:   30.2672,
			Longitude:  -97.7431,
			CapturedAt: clockInAt.Add(45 * time.Minute),
			Method:     care.MethodGPS,
		},
	})
	require.Error(t, err)
	assert.True(t, care.IsKind(err, care.KindConflict))
}

func TestApplyManualOverride_RequiresReasonAndSupervisor(t *testing.T) {
	f := newTestService()
	ctx := context.Background()

	caregiverID := care.NewID()
	addr := addressAt(30.2672, -97.7431)
	visitID := f.seedVisit(caregiverID, addr)

	record, err := f.svc.ClockIn(ctx, baseClockIn(visitID, caregiverID, LocationFix{
		Latitude:   30.2672,
		Longitude:  -97.7431,
		CapturedAt: time.Now(),
		Method:     care.MethodGPS,
	}))
	require.NoError(t, err)

	_, err = f.svc.ApplyManualOverride(ctx, record.ID, care.ManualOverride{}, false)
	require.Error(t, err)

	updated, err := f.svc.ApplyManualOverride(ctx, record.ID, care.ManualOverride{
		OverrideBy:     "supervisor@example.com",
		Reason:         "device malfunction",
		ReasonCode:     "DEVICE_MALFUNCTION",
		SupervisorName: "Jamie Rivera",
	}, false)
	require.NoError(t, err)
	assert.True(t, updated.HasComplianceFlag(care.FlagManualOverride))
	require.NotNil(t, updated.ClockInOverride)
}

func TestHaversineMeters_KnownDistance(t *testing.T) {
	// Austin, TX to Dallas, TX is roughly 300km apart.
	d := haversineMeters(30.2672, -97.7431, 32.7767, -96.7970)
	assert.InDelta(t, 300000, d, 25000)
}

func TestDeriveGeofenceID_IsStableForSameCoordinates(t *testing.T) {
	addr1 := addressAt(30.2672, -97.7431)
	addr2 := addressAt(30.2672, -97.7431)
	assert.Equal(t, deriveGeofenceID(addr1), deriveGeofenceID(addr2))

	addr3 := addressAt(30.31, -97.7431)
	assert.NotEqual(t, deriveGeofenceID(addr1), deriveGeofenceID(addr3))
}

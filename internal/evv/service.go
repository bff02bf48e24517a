// Package evv implements the EVV Verification Engine: clock-in/clock-out
// geofence checks, state-specific rule application, compliance-flag and
// verification-level derivation, and the integrity digest attached to every
// completed EVV record.
package evv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neighborhood-lab/care-commons/internal/clock"
	"github.com/neighborhood-lab/care-commons/internal/config"
	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/internal/telemetry"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// Service is the EVV Verification Engine.
type Service struct {
	records    providers.EVVStore
	geofences  providers.GeofenceStore
	clients    providers.ClientProvider
	caregivers providers.CaregiverProvider
	visits     providers.VisitProvider
	clock      clock.Clock
	cfg        config.EVVConfig
	log        *zap.Logger
}

// New constructs a Service from its injected collaborators and the EVV
// section of the process configuration.
func New(records providers.EVVStore, geofences providers.GeofenceStore, clients providers.ClientProvider, caregivers providers.CaregiverProvider, visits providers.VisitProvider, clk clock.Clock, cfg config.EVVConfig, log *zap.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{records: records, geofences: geofences, clients: clients, caregivers: caregivers, visits: visits, clock: clk, cfg: cfg, log: log}
}

// ClockInInput is the caller-supplied shape of a clock-in attempt. ClientID
// and ServiceAddress are not supplied by the caller: they are fetched from
// the VisitProvider, the authoritative source for visit state.
type ClockInInput struct {
	OrganizationID  care.ID
	BranchID        care.ID
	VisitID         care.ID
	CaregiverID     care.ID
	ServiceTypeCode string
	State           string // 2-letter code, selects the state rule set
	Fix             LocationFix

	// ActorID and ActorRole identify who is performing the clock-in, for the
	// evv:clock_in permission check: ActorID must equal CaregiverID unless
	// ActorRole is a supervisor role acting on the caregiver's behalf.
	ActorID   care.ID
	ActorRole care.Role
}

// LocationFix is a single raw GPS/device reading.
type LocationFix struct {
	Latitude        float64
	Longitude       float64
	Accuracy        float64
	CapturedAt      time.Time
	TimestampSource care.TimestampSource
	Method          care.VerificationMethod
	LocationSource  care.LocationSource
	DeviceID        string
	DeviceModel     string
	DeviceOS        string
	MockLocationDetected bool
}

// ClockIn opens a new EVV record for visitID, running the clock-in
// precondition chain (actor permission, visit eligibility, geocoded service
// address, service authorization) before verifying the caregiver's location
// against the service address's geofence under the given state's rules.
func (s *Service) ClockIn(ctx context.Context, in ClockInInput) (*care.EVVRecord, error) {
	if in.ActorID != in.CaregiverID && !in.ActorRole.IsSupervisor() {
		return nil, care.NewPermissionError("evv:clock_in: actor may only clock in on their own behalf")
	}

	rule, err := s.stateRule(in.State)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := care.NewLocalDate(now)
	ok, reason, err := s.visits.CanClockIn(ctx, in.VisitID, in.CaregiverID, today)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, care.NewConflictError("visit.status", reason)
	}

	visit, err := s.visits.GetVisitForEVV(ctx, in.VisitID)
	if err != nil {
		return nil, err
	}
	if !visit.ServiceAddress.HasCoordinates() {
		return nil, care.NewValidationError("serviceAddress", "service address is not geocoded; cannot verify location")
	}

	authResult, err := s.caregivers.CanProvideService(ctx, in.CaregiverID, in.ServiceTypeCode, visit.ClientID)
	if err != nil {
		return nil, err
	}
	if !authResult.Authorized {
		reason := authResult.Reason
		if reason == "" {
			reason = "caregiver is not authorized to provide this service"
		}
		return nil, care.NewConflictError("caregiver.authorization", reason)
	}

	geofence, err := s.resolveGeofence(ctx, visit.ServiceAddress)
	if err != nil {
		return nil, err
	}

	verification, err := s.verifyLocation(ctx, visit.ServiceAddress, geofence, in.Fix, rule)
	if err != nil {
		return nil, err
	}
	geofence.RecordVerification(in.Fix.Accuracy, verification.VerificationPassed)
	if err := s.geofences.UpdateGeofence(ctx, geofence); err != nil {
		s.log.Warn("failed to persist geofence verification stats", zap.Error(err))
	}

	record := &care.EVVRecord{
		Entity:              care.NewEntity(in.OrganizationID, in.BranchID, "system", now),
		VisitID:             in.VisitID,
		ClientID:            visit.ClientID,
		CaregiverID:         in.CaregiverID,
		ServiceTypeCode:     in.ServiceTypeCode,
		ServiceAddress:      visit.ServiceAddress,
		ClockInTime:         in.Fix.CapturedAt,
		ClockInVerification: verification,
		Status:              care.EVVPending,
	}

	s.applyComplianceFlags(record, rule, verification, nil)
	record.VerificationLevel = deriveVerificationLevel(record.ComplianceFlags)
	record.IntegrityHash = integrityHash(record)
	record.IntegrityChecksum = integrityChecksum(record)

	if err := s.records.CreateEVVRecord(ctx, record); err != nil {
		return nil, care.NewTransportError("failed to persist evv record", err)
	}

	if err := s.visits.UpdateVisitStatus(ctx, in.VisitID, care.VisitInProgress, record.ID); err != nil {
		s.log.Warn("failed to update visit status after clock-in", zap.Error(err))
	}

	s.log.Info("clock-in recorded", zap.String("visitId", in.VisitID.String()), zap.Bool("withinGeofence", verification.WithinGeofence))
	return record, nil
}

// ClockOutInput is the caller-supplied shape of a clock-out attempt.
type ClockOutInput struct {
	EVVRecordID care.ID
	State       string
	Fix         LocationFix

	// ActorID and ActorRole mirror ClockInInput's evv:clock_out permission
	// check.
	ActorID   care.ID
	ActorRole care.Role
}

// ClockOut closes an open EVV record, verifying the closing location and
// deriving the final compliance flags, verification level, and integrity
// checksum.
func (s *Service) ClockOut(ctx context.Context, in ClockOutInput) (*care.EVVRecord, error) {
	record, err := s.records.GetEVVRecord(ctx, in.EVVRecordID)
	if err != nil {
		return nil, err
	}

	if in.ActorID != record.CaregiverID && !in.ActorRole.IsSupervisor() {
		return nil, care.NewPermissionError("evv:clock_out: actor may only clock out on their own behalf")
	}

	ok, reason, err := s.visits.CanClockOut(ctx, record.VisitID, record.CaregiverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, care.NewConflictError("visit.status", reason)
	}

	if err := record.ValidateClockOut(in.Fix.CapturedAt); err != nil {
		return nil, err
	}

	rule, err := s.stateRule(in.State)
	if err != nil {
		return nil, err
	}

	geofence, err := s.resolveGeofence(ctx, record.ServiceAddress)
	if err != nil {
		return nil, err
	}

	verification, err := s.verifyLocation(ctx, record.ServiceAddress, geofence, in.Fix, rule)
	if err != nil {
		return nil, err
	}
	geofence.RecordVerification(in.Fix.Accuracy, verification.VerificationPassed)
	if err := s.geofences.UpdateGeofence(ctx, geofence); err != nil {
		s.log.Warn("failed to persist geofence verification stats", zap.Error(err))
	}

	clockOut := in.Fix.CapturedAt
	record.ClockOutTime = &clockOut
	record.ClockOutVerification = &verification
	duration := int(clockOut.Sub(record.ClockInTime).Minutes())
	record.TotalDuration = &duration

	if !care.CanTransitionEVV(record.Status, care.EVVComplete) {
		return nil, care.NewConflictError("evvRecord.status", fmt.Sprintf("cannot complete record in status %s", record.Status))
	}
	record.Status = care.EVVComplete

	s.applyComplianceFlags(record, rule, record.ClockInVerification, &verification)
	if record.CaregiverAttestation == nil {
		record.AddComplianceFlag(care.FlagMissingSignature)
	}
	record.VerificationLevel = deriveVerificationLevel(record.ComplianceFlags)
	record.IntegrityChecksum = integrityChecksum(record)
	record.Touch("system", s.clock.Now())

	if err := s.visits.UpdateVisitStatus(ctx, record.VisitID, care.VisitCompleted, record.ID); err != nil {
		s.log.Warn("failed to update visit status after clock-out", zap.Error(err))
	}

	if err := s.records.UpdateEVVRecord(ctx, record); err != nil {
		return nil, care.NewTransportError("failed to persist evv record", err)
	}

	s.log.Info("clock-out recorded",
		zap.String("evvRecordId", record.ID.String()),
		zap.Int("durationMinutes", duration),
		zap.String("verificationLevel", string(record.VerificationLevel)),
	)

	telemetry.RecordVerification(string(record.VerificationLevel), in.State)
	for _, flag := range record.ComplianceFlags {
		telemetry.RecordComplianceFlag(string(flag), in.State, record.OrganizationID.String())
	}

	return record, nil
}

// ApplyManualOverride bypasses normal geofence verification for an open
// clock-in or clock-out entry, recording who authorized the bypass and why.
// It always adds FlagManualOverride.
func (s *Service) ApplyManualOverride(ctx context.Context, evvRecordID care.ID, override care.ManualOverride, forClockOut bool) (*care.EVVRecord, error) {
	record, err := s.records.GetEVVRecord(ctx, evvRecordID)
	if err != nil {
		return nil, err
	}

	if override.Reason == "" || override.SupervisorName == "" {
		return nil, care.NewValidationError("override", "reason and supervisor name are required")
	}

	now := s.clock.Now()
	override.OverrideAt = now
	if forClockOut {
		record.ClockOutOverride = &override
	} else {
		record.ClockInOverride = &override
	}
	record.AddComplianceFlag(care.FlagManualOverride)
	record.VerificationLevel = deriveVerificationLevel(record.ComplianceFlags)
	record.IntegrityChecksum = integrityChecksum(record)
	record.Touch(override.OverrideBy, now)

	if err := s.records.UpdateEVVRecord(ctx, record); err != nil {
		return nil, care.NewTransportError("failed to persist manual override", err)
	}

	s.log.Info("manual override applied", zap.String("evvRecordId", record.ID.String()), zap.Bool("clockOut", forClockOut))
	return record, nil
}

// GetEVVRecordByVisit fetches the EVV record owned by a visit.
func (s *Service) GetEVVRecordByVisit(ctx context.Context, visitID care.ID) (*care.EVVRecord, error) {
	return s.records.GetEVVRecordByVisit(ctx, visitID)
}

// SearchEVVRecords delegates to the store's filtered search.
func (s *Service) SearchEVVRecords(ctx context.Context, f providers.EVVFilter) ([]*care.EVVRecord, error) {
	return s.records.SearchEVVRecords(ctx, f)
}

// CreateGeofence persists a new geofence for a service address.
func (s *Service) CreateGeofence(ctx context.Context, g *care.Geofence) error {
	if g.RadiusMeters <= 0 {
		g.RadiusMeters = s.cfg.DefaultGeofenceRadiusMeters
	}
	if g.Status == "" {
		g.Status = care.GeofenceActive
	}
	if err := s.geofences.CreateGeofence(ctx, g); err != nil {
		return care.NewTransportError("failed to persist geofence", err)
	}
	return nil
}

func (s *Service) stateRule(state string) (config.StateRuleConfig, error) {
	rule, ok := s.cfg.StateRules[strings.ToUpper(state)]
	if !ok {
		return config.StateRuleConfig{}, care.NewValidationError("state", fmt.Sprintf("no EVV rule configured for state %q", state))
	}
	return rule, nil
}

// verifyLocation checks fix against geofence, folding in the state rule's
// GPS-accuracy tolerance, the event's own reported accuracy, and the
// allowed-method list. addr must carry coordinates: once the method check
// passes, verifyLocation returns a validation error for an address that is
// not geocoded.
func (s *Service) verifyLocation(_ context.Context, addr care.Address, geofence *care.Geofence, fix LocationFix, rule config.StateRuleConfig) (care.LocationVerification, error) {
	v := care.LocationVerification{
		Latitude:             fix.Latitude,
		Longitude:            fix.Longitude,
		Accuracy:             fix.Accuracy,
		CapturedAt:           fix.CapturedAt,
		TimestampSource:      fix.TimestampSource,
		Method:               fix.Method,
		LocationSource:       fix.LocationSource,
		DeviceID:             fix.DeviceID,
		DeviceModel:          fix.DeviceModel,
		DeviceOS:             fix.DeviceOS,
		MockLocationDetected: fix.MockLocationDetected,
	}

	if !methodAllowed(fix.Method, rule.AllowedMethods) {
		v.VerificationPassed = false
		v.FailureReasons = append(v.FailureReasons, fmt.Sprintf("verification method %s not allowed in this state", fix.Method))
		return v, nil
	}

	if !addr.HasCoordinates() {
		return care.LocationVerification{}, care.NewValidationError("serviceAddress", "service address is not geocoded; cannot verify location")
	}

	distance := haversineMeters(*addr.Latitude, *addr.Longitude, fix.Latitude, fix.Longitude)
	v.DistanceFromAddressMeters = distance

	// Effective tolerance is the geofence's own radius plus its allowed
	// variance, plus the state's tolerance, plus the accuracy the device
	// itself reported for this fix: d <= r + v + s + a.
	radius := geofence.EffectiveRadiusMeters() + rule.StateToleranceMeters + fix.Accuracy

	v.WithinGeofence = distance <= radius
	v.VerificationPassed = v.WithinGeofence
	if !v.WithinGeofence {
		v.FailureReasons = append(v.FailureReasons, fmt.Sprintf("%.0fm from service address, outside %.0fm effective radius", distance, radius))
	}
	if fix.MockLocationDetected {
		v.VerificationPassed = false
		v.FailureReasons = append(v.FailureReasons, "mock location detected")
	}
	return v, nil
}

// resolveGeofence fetches the geofence on file for addr's surrogate id,
// auto-creating one at the configured default radius on first use. addr
// must carry coordinates.
func (s *Service) resolveGeofence(ctx context.Context, addr care.Address) (*care.Geofence, error) {
	id := deriveGeofenceID(addr)
	geofence, err := s.geofences.GetGeofenceForAddress(ctx, id)
	if err == nil {
		return geofence, nil
	}
	if !care.IsKind(err, care.KindNotFound) {
		return nil, err
	}

	radius := s.cfg.DefaultGeofenceRadiusMeters
	if addr.GeofenceRadiusMeters != nil {
		radius = *addr.GeofenceRadiusMeters
	}
	geofence = &care.Geofence{
		Entity:          care.NewEntity(care.NilID, care.NilID, "system", s.clock.Now()),
		CenterLatitude:  *addr.Latitude,
		CenterLongitude: *addr.Longitude,
		RadiusMeters:    radius,
		Shape:           care.GeofenceCircle,
		Status:          care.GeofenceActive,
	}
	geofence.ID = id
	if err := s.geofences.CreateGeofence(ctx, geofence); err != nil {
		return nil, care.NewTransportError("failed to persist auto-created geofence", err)
	}
	return geofence, nil
}

// deriveGeofenceID derives a deterministic surrogate care.ID for addr's
// coordinates, fixed to six decimal places (~0.1m precision) so repeated
// calls for the same address agree. This is a non-cryptographic placeholder
// key, standing in until service addresses carry a real address-service id
// that geofences can be keyed on directly.
func deriveGeofenceID(addr care.Address) care.ID {
	h := fnv.New128a()
	fmt.Fprintf(h, "%.6f,%.6f", *addr.Latitude, *addr.Longitude)
	sum := h.Sum(nil)
	var id care.ID
	copy(id[:], sum)
	return id
}

func methodAllowed(method care.VerificationMethod, allowed []string) bool {
	for _, m := range allowed {
		if strings.EqualFold(m, string(method)) {
			return true
		}
	}
	return false
}

// applyComplianceFlags derives flags from the clock-in verification and, if
// present, the clock-out verification, against the state rule's GPS-accuracy
// threshold. The state rule's clock-in grace window is not checked.
func (s *Service) applyComplianceFlags(record *care.EVVRecord, rule config.StateRuleConfig, in care.LocationVerification, out *care.LocationVerification) {
	if !in.WithinGeofence && in.DistanceFromAddressMeters > 0 {
		record.AddComplianceFlag(care.FlagGeofenceViolation)
	}
	if in.Accuracy > rule.GPSAccuracyFlagMeters || in.MockLocationDetected {
		record.AddComplianceFlag(care.FlagLocationSuspicious)
	}

	if out != nil {
		if !out.WithinGeofence && out.DistanceFromAddressMeters > 0 {
			record.AddComplianceFlag(care.FlagGeofenceViolation)
		}
		if out.Accuracy > rule.GPSAccuracyFlagMeters || out.MockLocationDetected {
			record.AddComplianceFlag(care.FlagLocationSuspicious)
		}
		if record.TotalDuration != nil && *record.TotalDuration <= 0 {
			record.AddComplianceFlag(care.FlagTimeGap)
		}
	}

	if record.ClockInOverride != nil || record.ClockOutOverride != nil {
		record.AddComplianceFlag(care.FlagManualOverride)
	}

	if len(record.ComplianceFlags) == 0 {
		record.AddComplianceFlag(care.FlagCompliant)
	}
}

// deriveVerificationLevel maps the set of compliance flags attached to a
// record onto the three-tier severity used by downstream submission
// routing: any geofence or suspicious-location flag is an EXCEPTION, any
// other non-compliant flag is PARTIAL, otherwise FULL.
func deriveVerificationLevel(flags []care.ComplianceFlag) care.VerificationLevel {
	level := care.VerificationFull
	for _, f := range flags {
		switch f {
		case care.FlagCompliant:
			continue
		case care.FlagGeofenceViolation, care.FlagLocationSuspicious:
			return care.VerificationException
		default:
			level = care.VerificationPartial
		}
	}
	return level
}

// integrityHash computes a deterministic SHA-256 hash over the fields fixed
// at clock-in time: visit/client/caregiver identity and the clock-in time
// and location. It is computed once, at record creation, and never
// recomputed, so it anchors the original clock-in event independent of
// anything that happens afterward (clock-out, manual override, VMUR
// amendment).
//
// A third-party canonicalization library was considered, but the pack
// carries none: this uses stdlib encoding rather than a hand-rolled JSON
// walker, keeping the canonical form a single fmt.Sprintf line that is easy
// to audit and reproduce independently at submission time.
func integrityHash(r *care.EVVRecord) string {
	canonical := fmt.Sprintf("%s|%s|%s|%s|%.6f|%.6f",
		r.VisitID.String(),
		r.ClientID.String(),
		r.CaregiverID.String(),
		r.ClockInTime.UTC().Format(time.RFC3339Nano),
		r.ClockInVerification.Latitude,
		r.ClockInVerification.Longitude,
	)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// integrityChecksum computes a SHA-256 checksum over the record's full
// mutable state, so it is recomputed on every write (clock-out, manual
// override, any future amendment) while integrityHash stays fixed. It
// covers everything integrityHash does plus the fields that change after
// clock-in.
func integrityChecksum(r *care.EVVRecord) string {
	canonical := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%.6f|%.6f|%.6f|%.6f|%s|%s|%v",
		r.VisitID.String(),
		r.ClientID.String(),
		r.CaregiverID.String(),
		r.ClockInTime.UTC().Format(time.RFC3339Nano),
		clockOutString(r.ClockOutTime),
		durationOrZero(r.TotalDuration),
		r.ClockInVerification.Latitude,
		r.ClockInVerification.Longitude,
		clockOutLat(r.ClockOutVerification),
		clockOutLon(r.ClockOutVerification),
		r.VerificationLevel,
		r.IntegrityHash,
		r.ComplianceFlags,
	)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}

func clockOutString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func durationOrZero(d *int) int {
	if d == nil {
		return 0
	}
	return *d
}

func clockOutLat(v *care.LocationVerification) float64 {
	if v == nil {
		return 0
	}
	return v.Latitude
}

func clockOutLon(v *care.LocationVerification) float64 {
	if v == nil {
		return 0
	}
	return v.Longitude
}

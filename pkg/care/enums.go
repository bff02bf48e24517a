package care

// PatternType is the Service Pattern type enumeration.
type PatternType string

const (
	PatternRecurring PatternType = "RECURRING"
	PatternOneTime   PatternType = "ONE_TIME"
	PatternAsNeeded  PatternType = "AS_NEEDED"
	PatternRespite   PatternType = "RESPITE"
)

// PatternStatus is the Service Pattern lifecycle status.
type PatternStatus string

const (
	PatternDraft     PatternStatus = "DRAFT"
	PatternActive    PatternStatus = "ACTIVE"
	PatternSuspended PatternStatus = "SUSPENDED"
	PatternCompleted PatternStatus = "COMPLETED"
	PatternCancelled PatternStatus = "CANCELLED"
)

// Frequency is the Recurrence Rule frequency enumeration.
type Frequency string

const (
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
	FrequencyCustom   Frequency = "CUSTOM"
)

// VisitStatus is the closed, guarded visit state machine.
type VisitStatus string

const (
	VisitDraft            VisitStatus = "DRAFT"
	VisitScheduled        VisitStatus = "SCHEDULED"
	VisitUnassigned       VisitStatus = "UNASSIGNED"
	VisitAssigned         VisitStatus = "ASSIGNED"
	VisitConfirmed        VisitStatus = "CONFIRMED"
	VisitEnRoute          VisitStatus = "EN_ROUTE"
	VisitArrived          VisitStatus = "ARRIVED"
	VisitInProgress       VisitStatus = "IN_PROGRESS"
	VisitPaused           VisitStatus = "PAUSED"
	VisitCompleted        VisitStatus = "COMPLETED"
	VisitIncomplete       VisitStatus = "INCOMPLETE"
	VisitCancelled        VisitStatus = "CANCELLED"
	VisitNoShowClient     VisitStatus = "NO_SHOW_CLIENT"
	VisitNoShowCaregiver  VisitStatus = "NO_SHOW_CAREGIVER"
	VisitRejected         VisitStatus = "REJECTED"
)

// VisitType identifies the kind of visit instance.
type VisitType string

const (
	VisitTypeRecurring VisitType = "RECURRING"
	VisitTypeOneTime   VisitType = "ONE_TIME"
	VisitTypeAsNeeded  VisitType = "AS_NEEDED"
	VisitTypeRespite   VisitType = "RESPITE"
	VisitTypeAdHoc     VisitType = "AD_HOC"
)

// AssignmentMethod records how a caregiver came to be assigned to a visit.
type AssignmentMethod string

const (
	AssignmentManual     AssignmentMethod = "MANUAL"
	AssignmentAutoMatch  AssignmentMethod = "AUTO_MATCH"
	AssignmentSelf       AssignmentMethod = "SELF_ASSIGN"
	AssignmentPreferred  AssignmentMethod = "PREFERRED"
	AssignmentOverflow   AssignmentMethod = "OVERFLOW"
)

// BillingStatus tracks whether a completed visit has been billed; billing
// submission itself is out of scope but the visit still
// carries a status field for downstream billing systems to read.
type BillingStatus string

const (
	BillingNotReady BillingStatus = "NOT_READY"
	BillingReady    BillingStatus = "READY"
	BillingSent     BillingStatus = "SENT"
	BillingPaid     BillingStatus = "PAID"
)

// EVVRecordStatus is the EVV record lifecycle.
type EVVRecordStatus string

const (
	EVVPending  EVVRecordStatus = "PENDING"
	EVVComplete EVVRecordStatus = "COMPLETE"
	EVVAmended  EVVRecordStatus = "AMENDED"
	EVVRejected EVVRecordStatus = "REJECTED"
)

// VerificationLevel is derived from the severities of compliance issues
// raised during clock-in/clock-out verification.
type VerificationLevel string

const (
	VerificationFull      VerificationLevel = "FULL"
	VerificationPartial   VerificationLevel = "PARTIAL"
	VerificationException VerificationLevel = "EXCEPTION"
)

// ComplianceFlag is the closed enumeration of EVV compliance outcomes.
type ComplianceFlag string

const (
	FlagCompliant          ComplianceFlag = "COMPLIANT"
	FlagGeofenceViolation  ComplianceFlag = "GEOFENCE_VIOLATION"
	FlagTimeGap            ComplianceFlag = "TIME_GAP"
	FlagLocationSuspicious ComplianceFlag = "LOCATION_SUSPICIOUS"
	FlagManualOverride     ComplianceFlag = "MANUAL_OVERRIDE"
	FlagMissingSignature   ComplianceFlag = "MISSING_SIGNATURE"
	FlagLateSubmission     ComplianceFlag = "LATE_SUBMISSION"
	FlagAmended            ComplianceFlag = "AMENDED"
)

// VerificationMethod is how a clock-in/out location was captured.
type VerificationMethod string

const (
	MethodGPS       VerificationMethod = "GPS"
	MethodPhone     VerificationMethod = "PHONE"
	MethodBiometric VerificationMethod = "BIOMETRIC"
	MethodFacial    VerificationMethod = "FACIAL"
	MethodManual    VerificationMethod = "MANUAL"
)

// TimestampSource identifies where a capture timestamp originated.
type TimestampSource string

const (
	TimestampDevice  TimestampSource = "DEVICE"
	TimestampNetwork TimestampSource = "NETWORK"
	TimestampServer  TimestampSource = "SERVER"
)

// LocationSource identifies how a coordinate fix was obtained.
type LocationSource string

const (
	LocationGPSSatellite LocationSource = "GPS_SATELLITE"
	LocationNetwork      LocationSource = "NETWORK"
	LocationFused        LocationSource = "FUSED"
)

// AttestationType is the closed enumeration of attestation capture methods.
type AttestationType string

const (
	AttestationSignature AttestationType = "SIGNATURE"
	AttestationCheckbox  AttestationType = "CHECKBOX"
	AttestationVerbal    AttestationType = "VERBAL"
	AttestationBiometric AttestationType = "BIOMETRIC"
)

// GeofenceShape is the closed enumeration of geofence region shapes.
type GeofenceShape string

const (
	GeofenceCircle  GeofenceShape = "CIRCLE"
	GeofencePolygon GeofenceShape = "POLYGON"
)

// GeofenceStatus tracks the lifecycle of a geofence's calibration.
type GeofenceStatus string

const (
	GeofenceActive     GeofenceStatus = "ACTIVE"
	GeofenceInactive   GeofenceStatus = "INACTIVE"
	GeofenceCalibrating GeofenceStatus = "CALIBRATING"
)

// SubmissionStatus is the aggregator submission lifecycle.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionInFlight SubmissionStatus = "IN_FLIGHT"
	SubmissionAccepted SubmissionStatus = "ACCEPTED"
	SubmissionRejected SubmissionStatus = "REJECTED"
	SubmissionRetry    SubmissionStatus = "RETRY"
)

// AggregatorType identifies a state EVV aggregator vendor.
type AggregatorType string

const (
	AggregatorHHAeXchange AggregatorType = "HHAEXCHANGE"
	AggregatorSandata     AggregatorType = "SANDATA"
	AggregatorTellus      AggregatorType = "TELLUS"
)

// VMURReasonCode is the closed HHSC-approved reason code set.
type VMURReasonCode string

const (
	ReasonDeviceMalfunction   VMURReasonCode = "DEVICE_MALFUNCTION"
	ReasonGPSUnavailable      VMURReasonCode = "GPS_UNAVAILABLE"
	ReasonNetworkOutage       VMURReasonCode = "NETWORK_OUTAGE"
	ReasonAppError            VMURReasonCode = "APP_ERROR"
	ReasonSystemDowntime      VMURReasonCode = "SYSTEM_DOWNTIME"
	ReasonRuralPoorSignal     VMURReasonCode = "RURAL_POOR_SIGNAL"
	ReasonServiceLocationChange VMURReasonCode = "SERVICE_LOCATION_CHANGE"
	ReasonEmergencyEvacuation VMURReasonCode = "EMERGENCY_EVACUATION"
	ReasonHospitalTransport   VMURReasonCode = "HOSPITAL_TRANSPORT"
	ReasonForgotToClock       VMURReasonCode = "FORGOT_TO_CLOCK"
	ReasonTrainingNewStaff    VMURReasonCode = "TRAINING_NEW_STAFF"
	ReasonIncorrectClockTime  VMURReasonCode = "INCORRECT_CLOCK_TIME"
	ReasonDuplicateEntry      VMURReasonCode = "DUPLICATE_ENTRY"
	ReasonOtherApproved       VMURReasonCode = "OTHER_APPROVED"
)

// ValidVMURReasonCodes is the closed set of HHSC-approved VMUR reason codes.
var ValidVMURReasonCodes = map[VMURReasonCode]bool{
	ReasonDeviceMalfunction:     true,
	ReasonGPSUnavailable:        true,
	ReasonNetworkOutage:         true,
	ReasonAppError:              true,
	ReasonSystemDowntime:        true,
	ReasonRuralPoorSignal:       true,
	ReasonServiceLocationChange: true,
	ReasonEmergencyEvacuation:   true,
	ReasonHospitalTransport:     true,
	ReasonForgotToClock:        true,
	ReasonTrainingNewStaff:      true,
	ReasonIncorrectClockTime:    true,
	ReasonDuplicateEntry:        true,
	ReasonOtherApproved:         true,
}

// VMURApprovalStatus is the VMUR approval lifecycle.
type VMURApprovalStatus string

const (
	VMURPending  VMURApprovalStatus = "PENDING"
	VMURApproved VMURApprovalStatus = "APPROVED"
	VMURDenied   VMURApprovalStatus = "DENIED"
	VMURExpired  VMURApprovalStatus = "EXPIRED"
)

// Role is an actor's role, used for permission checks on supervisor-only
// operations (manual override, VMUR approval/denial).
type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleOrgAdmin    Role = "ORG_ADMIN"
	RoleBranchAdmin Role = "BRANCH_ADMIN"
	RoleCoordinator Role = "COORDINATOR"
	RoleCaregiver   Role = "CAREGIVER"
)

// IsSupervisor reports whether the role carries supervisor authority, per
// the manual-override role set.
func (r Role) IsSupervisor() bool {
	switch r {
	case RoleSuperAdmin, RoleOrgAdmin, RoleBranchAdmin, RoleCoordinator:
		return true
	default:
		return false
	}
}

// IssueSeverity ranks a compliance issue raised during EVV verification;
// the highest severity across all issues derives the record's
// VerificationLevel.
type IssueSeverity int

const (
	SeverityLow IssueSeverity = iota
	SeverityHigh
	SeverityCritical
)

package care

import "time"

// Attestation is a caregiver/client/supervisor sign-off attached to an EVV
// record, typically at clock-out.
type Attestation struct {
	Signer             string          `json:"signer"`
	Timestamp          time.Time       `json:"timestamp"`
	Type               AttestationType `json:"type"`
	SignatureBlobHash  string          `json:"signatureBlobHash,omitempty"`
}

// PauseEvent records a mid-visit pause/resume pair.
type PauseEvent struct {
	PausedAt  time.Time  `json:"pausedAt"`
	ResumedAt *time.Time `json:"resumedAt,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// ExceptionEvent records an anomaly raised during the visit outside the
// structured compliance-flag set (free-text, for caregiver-reported
// incidents).
type ExceptionEvent struct {
	OccurredAt time.Time `json:"occurredAt"`
	Category   string    `json:"category"`
	Details    string    `json:"details,omitempty"`
}

// ManualOverride is attached to an EVV record's clock-in or clock-out time
// entry when a supervisor bypasses normal verification.
type ManualOverride struct {
	OverrideBy        string    `json:"overrideBy"`
	OverrideAt        time.Time `json:"overrideAt"`
	Reason            string    `json:"reason"`
	ReasonCode        string    `json:"reasonCode"`
	SupervisorName    string    `json:"supervisorName"`
	SupervisorTitle   string    `json:"supervisorTitle"`
	ApprovalAuthority string    `json:"approvalAuthority"`
	Notes             string    `json:"notes,omitempty"`
}

// SubmissionStatusSummary is embedded in an EVV record to report the most
// recent payor-submission outcome without requiring a join against the
// Aggregator Submission history.
type SubmissionStatusSummary struct {
	Status       SubmissionStatus `json:"status"`
	SubmittedAt  *time.Time       `json:"submittedAt,omitempty"`
	ConfirmationID string         `json:"confirmationId,omitempty"`
}

// EVVRecord is the single verification record owned by a Visit.
type EVVRecord struct {
	Entity

	VisitID     ID `json:"visitId"`
	ClientID    ID `json:"clientId"`
	CaregiverID ID `json:"caregiverId"`

	ServiceTypeCode string  `json:"serviceTypeCode"`
	ServiceAddress  Address `json:"serviceAddress"`

	ClockInTime  time.Time  `json:"clockInTime"`
	ClockOutTime *time.Time `json:"clockOutTime,omitempty"`
	TotalDuration *int      `json:"totalDuration,omitempty"` // minutes, set on completion

	ClockInVerification  LocationVerification  `json:"clockInVerification"`
	ClockOutVerification *LocationVerification `json:"clockOutVerification,omitempty"`

	MidVisitChecks  []LocationVerification `json:"midVisitChecks,omitempty"`
	PauseEvents     []PauseEvent           `json:"pauseEvents,omitempty"`
	ExceptionEvents []ExceptionEvent       `json:"exceptionEvents,omitempty"`

	Status            EVVRecordStatus     `json:"status"`
	VerificationLevel VerificationLevel   `json:"verificationLevel"`
	ComplianceFlags   []ComplianceFlag    `json:"complianceFlags"`

	ClockInOverride  *ManualOverride `json:"clockInOverride,omitempty"`
	ClockOutOverride *ManualOverride `json:"clockOutOverride,omitempty"`

	IntegrityHash     string `json:"integrityHash"`
	IntegrityChecksum string `json:"integrityChecksum"`

	CaregiverAttestation  *Attestation `json:"caregiverAttestation,omitempty"`
	ClientAttestation     *Attestation `json:"clientAttestation,omitempty"`
	SupervisorAttestation *Attestation `json:"supervisorAttestation,omitempty"`

	Submission *SubmissionStatusSummary `json:"submission,omitempty"`

	// VMURReference is set on an AMENDED record once its approved VMUR has
	// applied corrections, so TX state rules can confirm amendments carry
	// the required reference.
	VMURReference *ID `json:"vmurReference,omitempty"`
}

// HasComplianceFlag reports whether flag is already present.
func (r EVVRecord) HasComplianceFlag(flag ComplianceFlag) bool {
	for _, f := range r.ComplianceFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddComplianceFlag appends flag if not already present.
func (r *EVVRecord) AddComplianceFlag(flag ComplianceFlag) {
	if !r.HasComplianceFlag(flag) {
		r.ComplianceFlags = append(r.ComplianceFlags, flag)
	}
}

// evvTransitions is the closed EVV record status machine.
var evvTransitions = map[EVVRecordStatus][]EVVRecordStatus{
	EVVPending:  {EVVComplete, EVVRejected},
	EVVComplete: {EVVAmended},
}

// CanTransitionEVV reports whether the EVV record status machine allows
// from → to.
func CanTransitionEVV(from, to EVVRecordStatus) bool {
	for _, allowed := range evvTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateClockOut enforces clockOutTime >= clockInTime.
func (r EVVRecord) ValidateClockOut(clockOut time.Time) error {
	if clockOut.Before(r.ClockInTime) {
		return NewValidationError("evvRecord.clockOutTime", "must not precede clockInTime")
	}
	return nil
}

package validation

import "time"

// ClockInRequest is the untrusted wire shape of a caregiver's clock-in
// submission (mobile app, IVR bridge, or manual web entry) before it is
// turned into an evv.ClockInInput.
type ClockInRequest struct {
	OrganizationID  string `validate:"required,uuid"`
	BranchID        string `validate:"required,uuid"`
	VisitID         string `validate:"required,uuid"`
	ClientID        string `validate:"required,uuid"`
	CaregiverID     string `validate:"required,uuid"`
	ServiceTypeCode string `validate:"required"`
	State           string `validate:"required,len=2,uppercase"`

	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
	Accuracy  float64 `validate:"min=0"`

	CapturedAt      time.Time `validate:"required"`
	TimestampSource string    `validate:"required,oneof=DEVICE NETWORK SERVER"`
	Method          string    `validate:"required,oneof=GPS PHONE BIOMETRIC FACIAL MANUAL"`
	LocationSource  string    `validate:"required,oneof=GPS_SATELLITE NETWORK FUSED"`

	DeviceID             string `validate:"omitempty"`
	DeviceModel          string `validate:"omitempty"`
	DeviceOS             string `validate:"omitempty"`
	MockLocationDetected bool
}

// ClockOutRequest is the untrusted wire shape of a caregiver's clock-out
// submission.
type ClockOutRequest struct {
	EVVRecordID string `validate:"required,uuid"`
	State       string `validate:"required,len=2,uppercase"`

	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
	Accuracy  float64 `validate:"min=0"`

	CapturedAt      time.Time `validate:"required"`
	TimestampSource string    `validate:"required,oneof=DEVICE NETWORK SERVER"`
	Method          string    `validate:"required,oneof=GPS PHONE BIOMETRIC FACIAL MANUAL"`
	LocationSource  string    `validate:"required,oneof=GPS_SATELLITE NETWORK FUSED"`

	DeviceID             string `validate:"omitempty"`
	DeviceModel          string `validate:"omitempty"`
	DeviceOS             string `validate:"omitempty"`
	MockLocationDetected bool
}

// RecurrenceRuleRequest is the untrusted wire shape of a Service Pattern's
// recurrence rule.
type RecurrenceRuleRequest struct {
	Frequency    string    `validate:"required,oneof=DAILY WEEKLY BIWEEKLY MONTHLY CUSTOM"`
	Interval     int       `validate:"min=1,max=365"`
	DaysOfWeek   []int     `validate:"omitempty,dive,min=0,max=6"`
	DatesOfMonth []int     `validate:"omitempty,dive,min=1,max=31"`
	StartHour    int       `validate:"min=0,max=23"`
	StartMinute  int       `validate:"min=0,max=59"`
	EndHour      int       `validate:"omitempty,min=0,max=23"`
	EndMinute    int       `validate:"omitempty,min=0,max=59"`
	Timezone     string    `validate:"required"`
}

// CreatePatternRequest is the untrusted wire shape of a Service Pattern
// creation call.
type CreatePatternRequest struct {
	ClientID        string `validate:"required,uuid"`
	PatternType     string `validate:"required,oneof=RECURRING ONE_TIME AS_NEEDED RESPITE"`
	ServiceTypeCode string `validate:"required"`
	DurationMinutes int    `validate:"min=15,max=1440"`

	Recurrence RecurrenceRuleRequest `validate:"required"`

	RequiredSkills         []string `validate:"omitempty,dive,required"`
	RequiredCertifications []string `validate:"omitempty,dive,required"`
	PreferredCaregiverIDs  []string `validate:"omitempty,dive,uuid"`
	BlockedCaregiverIDs    []string `validate:"omitempty,dive,uuid"`

	AuthorizationStartDate string `validate:"required,datetime=2006-01-02"`
	AuthorizationEndDate   string `validate:"required,datetime=2006-01-02"`
	EffectiveFrom          string `validate:"required,datetime=2006-01-02"`
	EffectiveTo            string `validate:"omitempty,datetime=2006-01-02"`

	WeeklyHourCap  *float64 `validate:"omitempty,min=0"`
	WeeklyVisitCap *int     `validate:"omitempty,min=0"`
}

// CreateVMURRequest is the untrusted wire shape of a caregiver or
// coordinator's request to amend a completed EVV record.
type CreateVMURRequest struct {
	EVVRecordID     string `validate:"required,uuid"`
	RequestedBy     string `validate:"required,uuid"`
	RequestedName   string `validate:"required"`
	ReasonCode      string `validate:"required"`
	ReasonDetails   string `validate:"required,min=10,max=2000"`
	CorrectedFields map[string]string `validate:"required,min=1"`
}

// ApproveVMURRequest is the untrusted wire shape of a coordinator's VMUR
// approval decision.
type ApproveVMURRequest struct {
	VMURID     string `validate:"required,uuid"`
	ApprovedBy string `validate:"required,uuid"`
}

// DenyVMURRequest is the untrusted wire shape of a coordinator's VMUR
// denial decision.
type DenyVMURRequest struct {
	VMURID       string `validate:"required,uuid"`
	ApprovedBy   string `validate:"required,uuid"`
	DenialReason string `validate:"required,min=5,max=2000"`
}

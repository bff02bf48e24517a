package care

import "time"

// Address is a service location, optionally geocoded and optionally bound
// to a geofence radius override.
type Address struct {
	Line1      string   `json:"line1"`
	Line2      string   `json:"line2,omitempty"`
	City       string   `json:"city"`
	State      string   `json:"state"` // 2-letter code
	PostalCode string   `json:"postalCode"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	// GeofenceRadiusMeters overrides the default geofence radius for visits
	// at this address; nil means "use the state/org default".
	GeofenceRadiusMeters *float64 `json:"geofenceRadiusMeters,omitempty"`
}

// HasCoordinates reports whether the address carries a geocoded fix.
func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// StatusChange is one append-only entry in a Visit's status history.
type StatusChange struct {
	From      VisitStatus `json:"from"`
	To        VisitStatus `json:"to"`
	Timestamp time.Time   `json:"timestamp"`
	Actor     string      `json:"actor"`
	Reason    string      `json:"reason,omitempty"`
	Notes     string      `json:"notes,omitempty"`
	Automatic bool        `json:"automatic"`
}

// AssignmentInfo records how and by whom a caregiver was assigned.
type AssignmentInfo struct {
	CaregiverID ID               `json:"caregiverId"`
	Method      AssignmentMethod `json:"method"`
	AssignedBy  string           `json:"assignedBy"`
	AssignedAt  time.Time        `json:"assignedAt"`
}

// VisitFlags are the boolean modifiers a visit may carry independent of its
// status.
type VisitFlags struct {
	Urgent             bool `json:"urgent,omitempty"`
	Priority            bool `json:"priority,omitempty"`
	RequiresSupervision bool `json:"requiresSupervision,omitempty"`
}

// Visit is a concrete scheduled (or ad-hoc) instance of care delivery.
type Visit struct {
	Entity

	PatternID   *ID       `json:"patternId,omitempty"` // nil for ad-hoc visits
	VisitNumber string    `json:"visitNumber"`         // V{YYYY}-{NNNNNN}
	VisitType   VisitType `json:"visitType"`

	ClientID ID `json:"clientId"`

	ServiceDate        LocalDate `json:"serviceDate"`
	ScheduledStartTime ClockTime `json:"scheduledStartTime"`
	ScheduledEndTime   ClockTime `json:"scheduledEndTime"`
	Timezone           string    `json:"timezone"`

	ActualStartTime *time.Time `json:"actualStartTime,omitempty"`
	ActualEndTime   *time.Time `json:"actualEndTime,omitempty"`

	Assignment *AssignmentInfo `json:"assignment,omitempty"`

	ServiceAddress Address `json:"serviceAddress"`

	RequiredSkills         []string `json:"requiredSkills,omitempty"`
	RequiredCertifications []string `json:"requiredCertifications,omitempty"`

	Status        VisitStatus    `json:"status"`
	Flags         VisitFlags     `json:"flags"`
	StatusHistory []StatusChange `json:"statusHistory,omitempty"`

	EVVRecordID *ID `json:"evvRecordId,omitempty"`

	BillingStatus BillingStatus `json:"billingStatus"`
}

// ScheduledDurationMinutes returns the scheduled duration, accounting for
// the minute-wrap clamp applied when schedule generation computed the end
// time (so this is always >= 0).
func (v Visit) ScheduledDurationMinutes() int {
	return v.ScheduledEndTime.MinutesSinceMidnight() - v.ScheduledStartTime.MinutesSinceMidnight()
}

// ValidateScheduledTimes enforces that the scheduled start precedes the
// scheduled end within the same calendar day.
func (v Visit) ValidateScheduledTimes() error {
	if !v.ScheduledStartTime.Before(v.ScheduledEndTime) {
		return NewValidationError("visit.scheduledEndTime", "must be after scheduledStartTime")
	}
	return nil
}

// visitTransitions is the closed, guarded visit state machine. A status not
// present as a key has no outbound transitions (terminal).
var visitTransitions = map[VisitStatus][]VisitStatus{
	VisitDraft:           {VisitScheduled, VisitCancelled},
	VisitScheduled:       {VisitUnassigned, VisitAssigned, VisitCancelled},
	VisitUnassigned:      {VisitAssigned, VisitCancelled},
	VisitAssigned:        {VisitConfirmed, VisitEnRoute, VisitCancelled, VisitRejected},
	VisitConfirmed:       {VisitEnRoute, VisitCancelled, VisitNoShowCaregiver},
	VisitEnRoute:         {VisitArrived, VisitCancelled, VisitNoShowCaregiver},
	VisitArrived:         {VisitInProgress, VisitNoShowClient},
	VisitInProgress:      {VisitPaused, VisitCompleted, VisitIncomplete},
	VisitPaused:          {VisitInProgress, VisitCompleted, VisitIncomplete},
	VisitNoShowCaregiver: {VisitAssigned},
	VisitRejected:        {VisitAssigned},
}

// CanTransition reports whether the visit state machine allows from → to.
func CanTransition(from, to VisitStatus) bool {
	for _, allowed := range visitTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether status has no further outbound transitions
// other than the re-assignment exceptions (NO_SHOW_CAREGIVER, REJECTED).
func IsTerminal(status VisitStatus) bool {
	switch status {
	case VisitCompleted, VisitIncomplete, VisitCancelled, VisitNoShowClient:
		return true
	default:
		return false
	}
}

// assignableStatuses are the visit statuses from which caregiver assignment
// may proceed.
var assignableStatuses = map[VisitStatus]bool{
	VisitUnassigned: true,
	VisitScheduled:  true,
	VisitAssigned:   true,
}

// CanAssign reports whether a caregiver may be (re-)assigned while the
// visit is in status.
func CanAssign(status VisitStatus) bool {
	return assignableStatuses[status]
}

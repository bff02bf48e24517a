// Package providers defines the injected capability interfaces the
// scheduling, EVV and aggregator engines depend on, so each engine can be
// exercised against a fake in tests without a real datastore or aggregator
// connection.
//
//go:generate mockgen -source=providers.go -destination=providersmock/mocks.go -package=providersmock
package providers

import (
	"context"
	"time"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// VisitStore persists and retrieves Visit records.
type VisitStore interface {
	CreateVisit(ctx context.Context, v *care.Visit) error
	GetVisit(ctx context.Context, id care.ID) (*care.Visit, error)
	UpdateVisit(ctx context.Context, v *care.Visit) error
	SearchVisits(ctx context.Context, f VisitFilter) ([]*care.Visit, error)
	// VisitsForCaregiverOnDate returns every visit assigned to caregiverID on
	// date, used by conflict detection before an assignment is confirmed.
	VisitsForCaregiverOnDate(ctx context.Context, caregiverID care.ID, date care.LocalDate) ([]*care.Visit, error)
	// NextVisitSequence returns the next sequence number for the visit
	// numbering scheme V{year}-{NNNNNN}, atomically incremented per
	// organization per calendar year.
	NextVisitSequence(ctx context.Context, organizationID care.ID, year int) (int, error)
}

// VisitFilter narrows a SearchVisits call; zero-value fields are unfiltered.
type VisitFilter struct {
	ClientID    *care.ID
	CaregiverID *care.ID
	Status      *care.VisitStatus
	ServiceFrom *care.LocalDate
	ServiceTo   *care.LocalDate
	Unassigned  bool
}

// PatternStore persists and retrieves Service Patterns.
type PatternStore interface {
	GetPattern(ctx context.Context, id care.ID) (*care.ServicePattern, error)
	ActivePatterns(ctx context.Context) ([]*care.ServicePattern, error)
}

// ClientProvider resolves client-level data (the service address and the
// EVV client view) that lives outside this module's own store.
type ClientProvider interface {
	ClientAddress(ctx context.Context, clientID care.ID) (*care.Address, error)
	// GetClientForEVV returns the client detail the EVV engine needs to
	// identify a record's subject independent of the internal client id,
	// e.g. for aggregator submissions keyed by Medicaid id.
	GetClientForEVV(ctx context.Context, clientID care.ID) (*ClientEVVView, error)
}

// ClientEVVView is the subset of client detail the EVV engine needs,
// sourced from the external client-management system this module treats as
// an injected collaborator rather than owning.
type ClientEVVView struct {
	ID         care.ID
	Name       string
	MedicaidID string
	DOB        care.LocalDate
	StateCode  string
}

// CaregiverProvider resolves caregiver eligibility: skills, certifications,
// active status, and authorization to deliver a specific service type to a
// specific client.
type CaregiverProvider interface {
	HasSkills(ctx context.Context, caregiverID care.ID, required []string) (bool, error)
	IsActive(ctx context.Context, caregiverID care.ID) (bool, error)
	// CanProvideService reports whether caregiverID is credentialed to
	// deliver serviceTypeCode to clientID right now, per the external
	// HR/credentialing system.
	CanProvideService(ctx context.Context, caregiverID care.ID, serviceTypeCode string, clientID care.ID) (CanProvideServiceResult, error)
}

// CanProvideServiceResult is the structured outcome of a caregiver
// service-authorization check.
type CanProvideServiceResult struct {
	Authorized         bool
	Reason             string
	MissingCredentials []string
	BlockedReasons     []string
}

// VisitProvider resolves visit state for the EVV engine, so clock-in/out
// can verify visit-level preconditions and report its own status changes
// back to the Visit Lifecycle Manager without the EVV engine depending on
// the scheduling package directly.
type VisitProvider interface {
	// GetVisitForEVV returns the subset of visit state the EVV engine needs
	// to verify and record a clock-in/out against.
	GetVisitForEVV(ctx context.Context, visitID care.ID) (*EVVVisitView, error)
	// CanClockIn reports whether caregiverID may clock in to visitID right
	// now (visit status in {ASSIGNED, CONFIRMED, EN_ROUTE}, caregiverID is
	// the assignee, scheduled date <= today), with a reason when it may not.
	CanClockIn(ctx context.Context, visitID, caregiverID care.ID, today care.LocalDate) (bool, string, error)
	// CanClockOut reports whether caregiverID may clock out of visitID right
	// now, with a reason when it may not.
	CanClockOut(ctx context.Context, visitID, caregiverID care.ID) (bool, string, error)
	// UpdateVisitStatus transitions visitID to one of ARRIVED, IN_PROGRESS,
	// COMPLETED or INCOMPLETE as a side effect of an EVV clock event,
	// linking the originating EVV record.
	UpdateVisitStatus(ctx context.Context, visitID care.ID, status care.VisitStatus, evvRecordID care.ID) error
}

// EVVVisitView is the subset of Visit state the EVV engine needs.
type EVVVisitView struct {
	ID                  care.ID
	ClientID            care.ID
	Status              care.VisitStatus
	AssignedCaregiverID care.ID
	ServiceAddress      care.Address
	ServiceDate         care.LocalDate
}

// EVVStore persists and retrieves EVV records.
type EVVStore interface {
	CreateEVVRecord(ctx context.Context, r *care.EVVRecord) error
	GetEVVRecord(ctx context.Context, id care.ID) (*care.EVVRecord, error)
	GetEVVRecordByVisit(ctx context.Context, visitID care.ID) (*care.EVVRecord, error)
	UpdateEVVRecord(ctx context.Context, r *care.EVVRecord) error
	SearchEVVRecords(ctx context.Context, f EVVFilter) ([]*care.EVVRecord, error)
}

// EVVFilter narrows a SearchEVVRecords call; zero-value fields are unfiltered.
type EVVFilter struct {
	ClientID    *care.ID
	CaregiverID *care.ID
	Status      *care.EVVRecordStatus
	HasFlags    bool
}

// GeofenceStore persists and retrieves Geofences.
type GeofenceStore interface {
	CreateGeofence(ctx context.Context, g *care.Geofence) error
	GetGeofenceForAddress(ctx context.Context, addressID care.ID) (*care.Geofence, error)
	UpdateGeofence(ctx context.Context, g *care.Geofence) error
}

// SubmissionStore persists and retrieves aggregator submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, s *care.AggregatorSubmission) error
	GetSubmission(ctx context.Context, id care.ID) (*care.AggregatorSubmission, error)
	UpdateSubmission(ctx context.Context, s *care.AggregatorSubmission) error
	PendingRetries(ctx context.Context, now time.Time) ([]*care.AggregatorSubmission, error)
}

// VMURStore persists and retrieves VMUR amendment requests.
type VMURStore interface {
	CreateVMUR(ctx context.Context, v *care.VMUR) error
	GetVMUR(ctx context.Context, id care.ID) (*care.VMUR, error)
	UpdateVMUR(ctx context.Context, v *care.VMUR) error
	PendingVMURs(ctx context.Context) ([]*care.VMUR, error)
}

// AggregatorAdapter submits a single EVV record to a state aggregator and
// reports the outcome. Each AggregatorType (HHAeXchange, Sandata, Tellus)
// gets its own adapter implementation behind this interface.
type AggregatorAdapter interface {
	Submit(ctx context.Context, submission *care.AggregatorSubmission) (care.AdapterResult, error)
}

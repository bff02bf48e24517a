// Package providersmock contains hand-maintained in-memory stand-ins for
// the interfaces in internal/providers, used until `go generate ./...` has
// a real datastore to point mockgen at. They implement the same interfaces
// mockgen would produce so call sites don't need to change when the
// generated mocks replace them.
package providersmock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// MockVisitStore is an in-memory providers.VisitStore.
type MockVisitStore struct {
	mu       sync.Mutex
	visits   map[care.ID]*care.Visit
	sequence map[sequenceKey]int

	CreateErr error
	GetErr    error
	UpdateErr error
}

type sequenceKey struct {
	org  care.ID
	year int
}

// NewMockVisitStore returns an empty MockVisitStore.
func NewMockVisitStore() *MockVisitStore {
	return &MockVisitStore{
		visits:   make(map[care.ID]*care.Visit),
		sequence: make(map[sequenceKey]int),
	}
}

func (m *MockVisitStore) CreateVisit(_ context.Context, v *care.Visit) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *MockVisitStore) GetVisit(_ context.Context, id care.ID) (*care.Visit, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, care.NewNotFoundError("visit", id.String())
	}
	cp := *v
	return &cp, nil
}

func (m *MockVisitStore) UpdateVisit(_ context.Context, v *care.Visit) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visits[v.ID]; !ok {
		return care.NewNotFoundError("visit", v.ID.String())
	}
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *MockVisitStore) SearchVisits(_ context.Context, f providers.VisitFilter) ([]*care.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*care.Visit
	for _, v := range m.visits {
		if f.ClientID != nil && v.ClientID != *f.ClientID {
			continue
		}
		if f.Status != nil && v.Status != *f.Status {
			continue
		}
		if f.CaregiverID != nil {
			if v.Assignment == nil || v.Assignment.CaregiverID != *f.CaregiverID {
				continue
			}
		}
		if f.Unassigned && v.Status != care.VisitUnassigned {
			continue
		}
		if f.ServiceFrom != nil && v.ServiceDate.Before(*f.ServiceFrom) {
			continue
		}
		if f.ServiceTo != nil && v.ServiceDate.After(*f.ServiceTo) {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockVisitStore) VisitsForCaregiverOnDate(_ context.Context, caregiverID care.ID, date care.LocalDate) ([]*care.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*care.Visit
	for _, v := range m.visits {
		if v.Assignment == nil || v.Assignment.CaregiverID != caregiverID {
			continue
		}
		if v.ServiceDate != date {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockVisitStore) NextVisitSequence(_ context.Context, organizationID care.ID, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sequenceKey{org: organizationID, year: year}
	m.sequence[key]++
	return m.sequence[key], nil
}

// MockPatternStore is an in-memory providers.PatternStore.
type MockPatternStore struct {
	Patterns map[care.ID]*care.ServicePattern
}

func NewMockPatternStore() *MockPatternStore {
	return &MockPatternStore{Patterns: make(map[care.ID]*care.ServicePattern)}
}

func (m *MockPatternStore) GetPattern(_ context.Context, id care.ID) (*care.ServicePattern, error) {
	p, ok := m.Patterns[id]
	if !ok {
		return nil, care.NewNotFoundError("pattern", id.String())
	}
	return p, nil
}

func (m *MockPatternStore) ActivePatterns(_ context.Context) ([]*care.ServicePattern, error) {
	var out []*care.ServicePattern
	for _, p := range m.Patterns {
		if p.CanGenerateVisits() {
			out = append(out, p)
		}
	}
	return out, nil
}

// MockCaregiverProvider is an in-memory providers.CaregiverProvider.
type MockCaregiverProvider struct {
	Skills         map[care.ID][]string
	Active         map[care.ID]bool
	Authorizations map[care.ID]providers.CanProvideServiceResult
}

func NewMockCaregiverProvider() *MockCaregiverProvider {
	return &MockCaregiverProvider{
		Skills:         make(map[care.ID][]string),
		Active:         make(map[care.ID]bool),
		Authorizations: make(map[care.ID]providers.CanProvideServiceResult),
	}
}

func (m *MockCaregiverProvider) HasSkills(_ context.Context, caregiverID care.ID, required []string) (bool, error) {
	have := make(map[string]bool)
	for _, s := range m.Skills[caregiverID] {
		have[s] = true
	}
	for _, r := range required {
		if !have[r] {
			return false, nil
		}
	}
	return true, nil
}

func (m *MockCaregiverProvider) IsActive(_ context.Context, caregiverID care.ID) (bool, error) {
	return m.Active[caregiverID], nil
}

func (m *MockCaregiverProvider) CanProvideService(_ context.Context, caregiverID care.ID, _ string, _ care.ID) (providers.CanProvideServiceResult, error) {
	if result, ok := m.Authorizations[caregiverID]; ok {
		return result, nil
	}
	return providers.CanProvideServiceResult{Authorized: true}, nil
}

// MockClientProvider is an in-memory providers.ClientProvider.
type MockClientProvider struct {
	Addresses map[care.ID]*care.Address
	Clients   map[care.ID]*providers.ClientEVVView
}

func NewMockClientProvider() *MockClientProvider {
	return &MockClientProvider{
		Addresses: make(map[care.ID]*care.Address),
		Clients:   make(map[care.ID]*providers.ClientEVVView),
	}
}

func (m *MockClientProvider) ClientAddress(_ context.Context, clientID care.ID) (*care.Address, error) {
	a, ok := m.Addresses[clientID]
	if !ok {
		return nil, care.NewNotFoundError("clientAddress", clientID.String())
	}
	return a, nil
}

func (m *MockClientProvider) GetClientForEVV(_ context.Context, clientID care.ID) (*providers.ClientEVVView, error) {
	c, ok := m.Clients[clientID]
	if !ok {
		return nil, care.NewNotFoundError("client.id", clientID.String())
	}
	return c, nil
}

// MockVisitProvider is an in-memory providers.VisitProvider, independent of
// MockVisitStore so EVV-engine tests can seed visit-level preconditions
// directly without constructing a full scheduling fixture.
type MockVisitProvider struct {
	Visits map[care.ID]*providers.EVVVisitView

	// clockInOverride and clockOutOverride override the derived answer when
	// set explicitly via SetClockInResult/SetClockOutResult; by default
	// CanClockIn/CanClockOut derive from Visits' Status/assignee.
	clockInOverride  map[care.ID]clockResult
	clockOutOverride map[care.ID]clockResult

	UpdatedStatus map[care.ID]care.VisitStatus
}

type clockResult struct {
	ok     bool
	reason string
}

func NewMockVisitProvider() *MockVisitProvider {
	return &MockVisitProvider{
		Visits:           make(map[care.ID]*providers.EVVVisitView),
		clockInOverride:  make(map[care.ID]clockResult),
		clockOutOverride: make(map[care.ID]clockResult),
		UpdatedStatus:    make(map[care.ID]care.VisitStatus),
	}
}

// SetClockInResult forces CanClockIn's answer for visitID, bypassing the
// derived check.
func (m *MockVisitProvider) SetClockInResult(visitID care.ID, ok bool, reason string) {
	m.clockInOverride[visitID] = clockResult{ok: ok, reason: reason}
}

// SetClockOutResult forces CanClockOut's answer for visitID, bypassing the
// derived check.
func (m *MockVisitProvider) SetClockOutResult(visitID care.ID, ok bool, reason string) {
	m.clockOutOverride[visitID] = clockResult{ok: ok, reason: reason}
}

func (m *MockVisitProvider) GetVisitForEVV(_ context.Context, visitID care.ID) (*providers.EVVVisitView, error) {
	v, ok := m.Visits[visitID]
	if !ok {
		return nil, care.NewNotFoundError("visit.id", visitID.String())
	}
	return v, nil
}

func (m *MockVisitProvider) CanClockIn(_ context.Context, visitID, caregiverID care.ID, today care.LocalDate) (bool, string, error) {
	if r, ok := m.clockInOverride[visitID]; ok {
		return r.ok, r.reason, nil
	}
	v, ok := m.Visits[visitID]
	if !ok {
		return false, "", care.NewNotFoundError("visit.id", visitID.String())
	}
	switch v.Status {
	case care.VisitAssigned, care.VisitConfirmed, care.VisitEnRoute:
	default:
		return false, "visit not eligible for clock-in", nil
	}
	if v.AssignedCaregiverID != caregiverID {
		return false, "caregiver is not the assigned caregiver for this visit", nil
	}
	if v.ServiceDate.After(today) {
		return false, "visit is scheduled for a future date", nil
	}
	return true, "", nil
}

func (m *MockVisitProvider) CanClockOut(_ context.Context, visitID, caregiverID care.ID) (bool, string, error) {
	if r, ok := m.clockOutOverride[visitID]; ok {
		return r.ok, r.reason, nil
	}
	v, ok := m.Visits[visitID]
	if !ok {
		return false, "", care.NewNotFoundError("visit.id", visitID.String())
	}
	if v.Status != care.VisitInProgress {
		return false, "visit not eligible for clock-out", nil
	}
	if v.AssignedCaregiverID != caregiverID {
		return false, "caregiver is not the assigned caregiver for this visit", nil
	}
	return true, "", nil
}

func (m *MockVisitProvider) UpdateVisitStatus(_ context.Context, visitID care.ID, status care.VisitStatus, _ care.ID) error {
	if _, ok := m.Visits[visitID]; !ok {
		return care.NewNotFoundError("visit.id", visitID.String())
	}
	m.UpdatedStatus[visitID] = status
	return nil
}

// MockEVVStore is an in-memory providers.EVVStore.
type MockEVVStore struct {
	mu        sync.Mutex
	records   map[care.ID]*care.EVVRecord
	byVisit   map[care.ID]care.ID
}

func NewMockEVVStore() *MockEVVStore {
	return &MockEVVStore{records: make(map[care.ID]*care.EVVRecord), byVisit: make(map[care.ID]care.ID)}
}

func (m *MockEVVStore) CreateEVVRecord(_ context.Context, r *care.EVVRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.records[r.ID] = &cp
	m.byVisit[r.VisitID] = r.ID
	return nil
}

func (m *MockEVVStore) GetEVVRecord(_ context.Context, id care.ID) (*care.EVVRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, care.NewNotFoundError("evvRecord", id.String())
	}
	cp := *r
	return &cp, nil
}

func (m *MockEVVStore) GetEVVRecordByVisit(_ context.Context, visitID care.ID) (*care.EVVRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byVisit[visitID]
	if !ok {
		return nil, care.NewNotFoundError("evvRecord", fmt.Sprintf("visit:%s", visitID))
	}
	cp := *m.records[id]
	return &cp, nil
}

func (m *MockEVVStore) UpdateEVVRecord(_ context.Context, r *care.EVVRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.ID]; !ok {
		return care.NewNotFoundError("evvRecord", r.ID.String())
	}
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *MockEVVStore) SearchEVVRecords(_ context.Context, f providers.EVVFilter) ([]*care.EVVRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*care.EVVRecord
	for _, r := range m.records {
		if f.ClientID != nil && r.ClientID != *f.ClientID {
			continue
		}
		if f.CaregiverID != nil && r.CaregiverID != *f.CaregiverID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.HasFlags && len(r.ComplianceFlags) == 0 {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

// MockGeofenceStore is an in-memory providers.GeofenceStore.
type MockGeofenceStore struct {
	byAddress map[care.ID]*care.Geofence
}

func NewMockGeofenceStore() *MockGeofenceStore {
	return &MockGeofenceStore{byAddress: make(map[care.ID]*care.Geofence)}
}

func (m *MockGeofenceStore) CreateGeofence(_ context.Context, g *care.Geofence) error {
	m.byAddress[g.ID] = g
	return nil
}

func (m *MockGeofenceStore) GetGeofenceForAddress(_ context.Context, addressID care.ID) (*care.Geofence, error) {
	g, ok := m.byAddress[addressID]
	if !ok {
		return nil, care.NewNotFoundError("geofence", addressID.String())
	}
	return g, nil
}

func (m *MockGeofenceStore) UpdateGeofence(_ context.Context, g *care.Geofence) error {
	m.byAddress[g.ID] = g
	return nil
}

// MockSubmissionStore is an in-memory providers.SubmissionStore.
type MockSubmissionStore struct {
	mu          sync.Mutex
	submissions map[care.ID]*care.AggregatorSubmission
}

func NewMockSubmissionStore() *MockSubmissionStore {
	return &MockSubmissionStore{submissions: make(map[care.ID]*care.AggregatorSubmission)}
}

func (m *MockSubmissionStore) CreateSubmission(_ context.Context, s *care.AggregatorSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.submissions[s.ID] = &cp
	return nil
}

func (m *MockSubmissionStore) GetSubmission(_ context.Context, id care.ID) (*care.AggregatorSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, care.NewNotFoundError("submission", id.String())
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubmissionStore) UpdateSubmission(_ context.Context, s *care.AggregatorSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.submissions[s.ID]; !ok {
		return care.NewNotFoundError("submission", s.ID.String())
	}
	cp := *s
	m.submissions[s.ID] = &cp
	return nil
}

func (m *MockSubmissionStore) PendingRetries(_ context.Context, now time.Time) ([]*care.AggregatorSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*care.AggregatorSubmission
	for _, s := range m.submissions {
		if s.Status != care.SubmissionRetry {
			continue
		}
		if s.NextRetryAt != nil && s.NextRetryAt.After(now) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

// MockVMURStore is an in-memory providers.VMURStore.
type MockVMURStore struct {
	mu    sync.Mutex
	vmurs map[care.ID]*care.VMUR
}

func NewMockVMURStore() *MockVMURStore {
	return &MockVMURStore{vmurs: make(map[care.ID]*care.VMUR)}
}

func (m *MockVMURStore) CreateVMUR(_ context.Context, v *care.VMUR) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.vmurs[v.ID] = &cp
	return nil
}

func (m *MockVMURStore) GetVMUR(_ context.Context, id care.ID) (*care.VMUR, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vmurs[id]
	if !ok {
		return nil, care.NewNotFoundError("vmur", id.String())
	}
	cp := *v
	return &cp, nil
}

func (m *MockVMURStore) UpdateVMUR(_ context.Context, v *care.VMUR) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vmurs[v.ID]; !ok {
		return care.NewNotFoundError("vmur", v.ID.String())
	}
	cp := *v
	m.vmurs[v.ID] = &cp
	return nil
}

func (m *MockVMURStore) PendingVMURs(_ context.Context) ([]*care.VMUR, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*care.VMUR
	for _, v := range m.vmurs {
		if v.ApprovalStatus == care.VMURPending {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockAggregatorAdapter is an in-memory providers.AggregatorAdapter with a
// caller-injected result/error, used to simulate both success and the
// retryable-transport-failure path.
type MockAggregatorAdapter struct {
	mu     sync.Mutex
	Result care.AdapterResult
	Err    error
	Calls  int
}

func (m *MockAggregatorAdapter) Submit(_ context.Context, _ *care.AggregatorSubmission) (care.AdapterResult, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return m.Result, m.Err
}

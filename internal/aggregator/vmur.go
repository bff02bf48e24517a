package aggregator

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/neighborhood-lab/care-commons/internal/diffsummary"
	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/internal/telemetry"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// VMURWorkflow is the Visit Maintenance Unlock Request approval workflow:
// requesting an amendment to an aged EVV record, supervisor approval or
// denial, and expiry of requests left unactioned past their window.
type VMURWorkflow struct {
	vmurs    providers.VMURStore
	records  providers.EVVStore
	clockNow func() time.Time
	log      *zap.Logger
}

// NewVMURWorkflow constructs a VMURWorkflow from its injected collaborators.
func NewVMURWorkflow(vmurs providers.VMURStore, records providers.EVVStore, clockNow func() time.Time, log *zap.Logger) *VMURWorkflow {
	if clockNow == nil {
		clockNow = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &VMURWorkflow{vmurs: vmurs, records: records, clockNow: clockNow, log: log}
}

// CreateVMURInput is the caller-supplied shape of a new amendment request.
type CreateVMURInput struct {
	EVVRecordID   care.ID
	RequestedBy   string
	RequestedName string
	ReasonCode    care.VMURReasonCode
	ReasonDetails string
	CorrectedData map[string]any
}

// CreateVMUR opens a new amendment request against an EVV record that has
// aged past care.VMURMinimumAgeDays, computing a human-readable changes
// summary via go-cmp between the record's current snapshot and in's
// corrected fields.
func (w *VMURWorkflow) CreateVMUR(ctx context.Context, in CreateVMURInput) (*care.VMUR, error) {
	record, err := w.records.GetEVVRecord(ctx, in.EVVRecordID)
	if err != nil {
		return nil, err
	}

	now := w.clockNow()
	if now.Sub(record.ClockInTime) < care.VMURMinimumAgeDays*24*time.Hour {
		return nil, care.NewValidationError("evvRecord", "record has not aged past the minimum VMUR window")
	}
	if err := care.ValidateReasonCode(in.ReasonCode); err != nil {
		return nil, err
	}

	original, err := json.Marshal(record)
	if err != nil {
		return nil, care.NewValidationError("evvRecord", "failed to snapshot original record")
	}

	var originalMap map[string]any
	if err := json.Unmarshal(original, &originalMap); err != nil {
		return nil, care.NewValidationError("evvRecord", "failed to diff original record")
	}

	correctedMerged := make(map[string]any, len(originalMap))
	for k, v := range originalMap {
		correctedMerged[k] = v
	}
	for k, v := range in.CorrectedData {
		correctedMerged[k] = v
	}
	corrected, err := json.Marshal(correctedMerged)
	if err != nil {
		return nil, care.NewValidationError("evvRecord", "failed to serialize corrected record")
	}

	vmur := &care.VMUR{
		Entity:         care.NewEntity(record.OrganizationID, record.BranchID, in.RequestedBy, now),
		EVVRecordID:    in.EVVRecordID,
		RequestedBy:    in.RequestedBy,
		RequestedName:  in.RequestedName,
		RequestedAt:    now,
		ReasonCode:     in.ReasonCode,
		ReasonDetails:  in.ReasonDetails,
		ApprovalStatus: care.VMURPending,
		OriginalData:   original,
		CorrectedData:  corrected,
		ChangesSummary: diffsummary.Fields(originalMap, in.CorrectedData),
		ExpiresAt:      now.Add(care.VMURExpiryDays * 24 * time.Hour),
	}

	if err := w.vmurs.CreateVMUR(ctx, vmur); err != nil {
		return nil, care.NewTransportError("failed to persist vmur", err)
	}
	return vmur, nil
}

// ApproveVMUR approves a pending VMUR, applies its corrected snapshot to the
// underlying EVV record, and transitions the record to AMENDED.
func (w *VMURWorkflow) ApproveVMUR(ctx context.Context, vmurID care.ID, approvedBy string) (*care.VMUR, error) {
	vmur, err := w.vmurs.GetVMUR(ctx, vmurID)
	if err != nil {
		return nil, err
	}
	if vmur.ApprovalStatus != care.VMURPending {
		return nil, care.NewConflictError("vmur.approvalStatus", "only PENDING requests may be approved")
	}

	record, err := w.records.GetEVVRecord(ctx, vmur.EVVRecordID)
	if err != nil {
		return nil, err
	}
	if err := applyCorrectedData(record, vmur.CorrectedData); err != nil {
		return nil, err
	}
	if !care.CanTransitionEVV(record.Status, care.EVVAmended) {
		return nil, care.NewConflictError("evvRecord.status", "record cannot transition to AMENDED")
	}
	record.Status = care.EVVAmended
	record.AddComplianceFlag(care.FlagAmended)
	id := vmur.ID
	record.VMURReference = &id

	now := w.clockNow()
	record.Touch(approvedBy, now)
	if err := w.records.UpdateEVVRecord(ctx, record); err != nil {
		return nil, care.NewTransportError("failed to apply vmur correction", err)
	}

	vmur.ApprovalStatus = care.VMURApproved
	vmur.ApprovedBy = approvedBy
	vmur.ApprovedAt = &now
	vmur.Touch(approvedBy, now)
	if err := w.vmurs.UpdateVMUR(ctx, vmur); err != nil {
		return nil, care.NewTransportError("failed to persist vmur approval", err)
	}
	telemetry.RecordVMURDecision(string(care.VMURApproved), vmur.OrganizationID.String())
	return vmur, nil
}

// applyCorrectedData unmarshals the VMUR's corrected snapshot back onto
// the live record, overwriting it wholesale; the corrected snapshot was
// built from a full record marshal with targeted field overrides, so this
// round-trip is safe.
func applyCorrectedData(record *care.EVVRecord, corrected []byte) error {
	if err := json.Unmarshal(corrected, record); err != nil {
		return care.NewValidationError("vmur.correctedData", "failed to apply correction to record")
	}
	return nil
}

// DenyVMUR denies a pending VMUR without touching the underlying record.
func (w *VMURWorkflow) DenyVMUR(ctx context.Context, vmurID care.ID, deniedBy, reason string) (*care.VMUR, error) {
	vmur, err := w.vmurs.GetVMUR(ctx, vmurID)
	if err != nil {
		return nil, err
	}
	if vmur.ApprovalStatus != care.VMURPending {
		return nil, care.NewConflictError("vmur.approvalStatus", "only PENDING requests may be denied")
	}

	now := w.clockNow()
	vmur.ApprovalStatus = care.VMURDenied
	vmur.DenialReason = reason
	vmur.Touch(deniedBy, now)
	if err := w.vmurs.UpdateVMUR(ctx, vmur); err != nil {
		return nil, care.NewTransportError("failed to persist vmur denial", err)
	}
	telemetry.RecordVMURDecision(string(care.VMURDenied), vmur.OrganizationID.String())
	return vmur, nil
}

// ListPending returns every PENDING VMUR.
func (w *VMURWorkflow) ListPending(ctx context.Context) ([]*care.VMUR, error) {
	return w.vmurs.PendingVMURs(ctx)
}

// ExpireOldVMURs sweeps every PENDING VMUR past its expiry time and marks
// it EXPIRED, returning the count transitioned.
func (w *VMURWorkflow) ExpireOldVMURs(ctx context.Context) (int, error) {
	pending, err := w.vmurs.PendingVMURs(ctx)
	if err != nil {
		return 0, care.NewTransportError("failed to list pending vmurs", err)
	}

	now := w.clockNow()
	expired := 0
	for _, vmur := range pending {
		if !vmur.IsExpired(now) {
			continue
		}
		vmur.ApprovalStatus = care.VMURExpired
		vmur.Touch("system", now)
		if err := w.vmurs.UpdateVMUR(ctx, vmur); err != nil {
			w.log.Error("failed to expire vmur", zap.String("vmurId", vmur.ID.String()), zap.Error(err))
			continue
		}
		telemetry.RecordVMURDecision(string(care.VMURExpired), vmur.OrganizationID.String())
		expired++
	}
	w.log.Info("vmur expiry sweep complete", zap.Int("expired", expired))
	return expired, nil
}

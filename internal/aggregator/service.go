// Package aggregator implements the Aggregator Submission Engine: routes
// completed EVV records to state aggregator adapters, persists submissions,
// retries with exponential backoff, and runs the VMUR amendment workflow.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neighborhood-lab/care-commons/internal/clock"
	"github.com/neighborhood-lab/care-commons/internal/config"
	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/internal/telemetry"
	"github.com/neighborhood-lab/care-commons/internal/telemetry/metrics"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// Service is the Aggregator Submission Engine.
type Service struct {
	submissions providers.SubmissionStore
	records     providers.EVVStore
	adapters    map[care.AggregatorType]providers.AggregatorAdapter
	cfg         config.AggregatorConfig
	clock       clock.Clock
	log         *zap.Logger
}

// New constructs a Service from its injected collaborators. adapters maps
// each supported aggregator type to the transport (typically wrapped in a
// circuit breaker) used to actually deliver submissions.
func New(submissions providers.SubmissionStore, records providers.EVVStore, adapters map[care.AggregatorType]providers.AggregatorAdapter, cfg config.AggregatorConfig, clk clock.Clock, log *zap.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{submissions: submissions, records: records, adapters: adapters, cfg: cfg, clock: clk, log: log}
}

// SubmitToAggregator routes a completed EVV record to every aggregator
// configured for its service state, creating one AggregatorSubmission row
// per aggregator. Each row's attempt is independent: a failure on one does
// not stop, or roll back, another.
func (s *Service) SubmitToAggregator(ctx context.Context, evvRecordID care.ID) ([]*care.AggregatorSubmission, error) {
	record, err := s.records.GetEVVRecord(ctx, evvRecordID)
	if err != nil {
		return nil, err
	}
	if record.Status != care.EVVComplete {
		return nil, care.NewConflictError("evvRecord.status", "only COMPLETE records may be submitted")
	}
	if missing := missingSubmissionFields(record); len(missing) > 0 {
		return nil, care.NewValidationError("evvRecord", fmt.Sprintf("missing required fields for submission: %v", missing))
	}

	types, err := route(record.ServiceAddress.State, s.cfg.StateAggregatorFanout)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, care.NewValidationError("evvRecord", "failed to serialize record for submission")
	}

	now := s.clock.Now()
	submissions := make([]*care.AggregatorSubmission, len(types))
	for i, t := range types {
		submissions[i] = &care.AggregatorSubmission{
			Entity:           care.NewEntity(record.OrganizationID, record.BranchID, "system", now),
			StateCode:        record.ServiceAddress.State,
			EVVRecordID:      evvRecordID,
			AggregatorID:     string(t),
			AggregatorType:   t,
			Payload:          payload,
			SubmissionFormat: "JSON",
			Status:           care.SubmissionPending,
			MaxRetries:       s.maxRetries(),
		}
		if err := s.submissions.CreateSubmission(ctx, submissions[i]); err != nil {
			return nil, care.NewTransportError("failed to persist submission", err)
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, sub := range submissions {
		sub := sub
		group.Go(func() error {
			s.attempt(gctx, sub)
			return nil
		})
	}
	_ = group.Wait()

	return submissions, nil
}

// missingSubmissionFields reports the names of fields required by §4.5
// pre-submission validation that record is missing, so SubmitToAggregator
// can fail with a single validation error listing all of them rather than
// the first one encountered.
func missingSubmissionFields(record *care.EVVRecord) []string {
	var missing []string
	if record.ClockOutTime == nil {
		missing = append(missing, "clockOutTime")
	}
	if record.ClockOutVerification == nil {
		missing = append(missing, "clockOutVerification")
	}
	if record.ClockInVerification.CapturedAt.IsZero() {
		missing = append(missing, "clockInVerification")
	}
	if record.ClientID.IsZero() {
		missing = append(missing, "clientId")
	}
	if record.ServiceTypeCode == "" {
		missing = append(missing, "serviceTypeCode")
	}
	return missing
}

// attempt performs a single delivery attempt against sub's aggregator
// adapter and folds the outcome into sub, persisting the result. Errors
// from the adapter call itself (not business rejections) are treated as
// retryable. A submission that has already exhausted its retry budget is
// rejected without ever calling the adapter again: exhaustion is detected
// on the sweep following the final failed attempt, not as a side effect
// of that attempt.
func (s *Service) attempt(ctx context.Context, sub *care.AggregatorSubmission) {
	adapter, ok := s.adapters[sub.AggregatorType]
	if !ok {
		sub.Status = care.SubmissionRejected
		sub.ErrorCode = "NO_ADAPTER"
		sub.ErrorMessage = fmt.Sprintf("no adapter configured for %s", sub.AggregatorType)
		_ = s.submissions.UpdateSubmission(ctx, sub)
		return
	}

	if sub.ExhaustedRetries() {
		sub.Status = care.SubmissionRejected
		sub.ErrorCode = "MAX_RETRIES_EXCEEDED"
		sub.ErrorMessage = "Max retries exceeded"
		if err := s.submissions.UpdateSubmission(ctx, sub); err != nil {
			s.log.Error("failed to persist submission rejection", zap.Error(err))
		}
		telemetry.RecordSubmission(string(sub.AggregatorType), sub.StateCode, metrics.ResultError, -1)
		return
	}

	sub.Status = care.SubmissionInFlight
	if err := s.submissions.UpdateSubmission(ctx, sub); err != nil {
		s.log.Error("failed to mark submission in-flight", zap.Error(err))
		return
	}
	telemetry.RecordSubmission(string(sub.AggregatorType), sub.StateCode, metrics.ResultSuccess, 1)

	result, err := adapter.Submit(ctx, sub)
	now := s.clock.Now()

	switch {
	case err != nil || result.RequiresRetry:
		sub.RetryCount++
		if err != nil {
			sub.ErrorMessage = err.Error()
		} else {
			sub.ErrorCode = result.ErrorCode
			sub.ErrorMessage = result.ErrorMessage
		}
		// Always schedule the next backoff step, even on the attempt that
		// reaches MaxRetries: rejection happens on the sweep that finds sub
		// already exhausted, before the adapter is called again, never as
		// an immediate consequence of this failure.
		sub.Status = care.SubmissionRetry
		next := now.Add(time.Duration(care.BackoffSeconds(sub.RetryCount-1)) * time.Second)
		sub.NextRetryAt = &next
		telemetry.RecordSubmissionRetry(string(sub.AggregatorType), sub.StateCode)
	case result.Success:
		sub.Status = care.SubmissionAccepted
		sub.AggregatorReceivedAt = &now
		sub.AggregatorConfirmationID = result.ConfirmationID
		sub.SubmittedAt = &now
		telemetry.RecordSubmission(string(sub.AggregatorType), sub.StateCode, metrics.ResultSuccess, -1)
	default:
		sub.Status = care.SubmissionRejected
		sub.ErrorCode = result.ErrorCode
		sub.ErrorMessage = result.ErrorMessage
		telemetry.RecordSubmission(string(sub.AggregatorType), sub.StateCode, metrics.ResultError, -1)
	}

	if err := s.submissions.UpdateSubmission(ctx, sub); err != nil {
		s.log.Error("failed to persist submission outcome", zap.Error(err))
	}
}

// RetryPendingSubmissions sweeps every submission due for a retry as of
// now, fanning the independent per-submission attempts out via errgroup so
// one slow or failing aggregator cannot stall the others.
func (s *Service) RetryPendingSubmissions(ctx context.Context, now time.Time) (int, error) {
	due, err := s.submissions.PendingRetries(ctx, now)
	if err != nil {
		return 0, care.NewTransportError("failed to list pending submission retries", err)
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, sub := range due {
		sub := sub
		group.Go(func() error {
			s.attempt(gctx, sub)
			return nil
		})
	}
	_ = group.Wait()

	s.log.Info("submission retry sweep complete", zap.Int("attempted", len(due)))
	return len(due), nil
}

func (s *Service) maxRetries() int {
	if s.cfg.MaxRetries > 0 {
		return s.cfg.MaxRetries
	}
	return care.DefaultMaxRetries
}

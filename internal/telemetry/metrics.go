/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package telemetry

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/neighborhood-lab/care-commons/internal/config"
	"github.com/neighborhood-lab/care-commons/internal/telemetry/metrics"
)

// Metric names
const (
	MetricVisitsTotal          = "carecore_visits_total"                // counter vec (status)
	MetricVisitsActive         = "carecore_visits_active"                // gauge
	MetricVisitDurationSeconds = "carecore_visit_duration_seconds"       // histogram
	MetricOperationsTotal      = "carecore_operations_total"             // counter vec
	MetricEngineCallDuration   = "carecore_engine_call_duration_seconds" // histogram

	// EVV
	MetricEVVComplianceFlagsTotal = "carecore_evv_compliance_flags_total"
	MetricEVVVerificationsTotal   = "carecore_evv_verifications_total"

	// Aggregator submission
	MetricSubmissionsTotal       = "carecore_aggregator_submissions_total"
	MetricSubmissionRetriesTotal = "carecore_aggregator_submission_retries_total"
	MetricSubmissionsInFlight    = "carecore_aggregator_submissions_in_flight"

	// VMUR
	MetricVMURRequestsTotal = "carecore_vmur_requests_total"

	// Alerting
	MetricAlertsSentTotal   = "carecore_alerts_sent_total"
	MetricAlertSendDuration = "carecore_alert_send_duration_seconds"
	MetricAlertSendErrors   = "carecore_alert_send_errors_total"
)

// Label names - ALL BOUNDED ENUMS
const (
	LStatus          = "status"          // visit status
	LOperation       = "operation"       // metrics.Op
	LResult          = "result"          // metrics.Result
	LComponent       = "component"       // metrics.Component
	LOrgBucket       = "org_bucket"      // org_00..org_0f
	LStateCode       = "state_code"      // 2-letter state
	LAggregatorType  = "aggregator_type" // HHAEXCHANGE|SANDATA|TELLUS
	LComplianceFlag  = "compliance_flag"
	LVerificationLvl = "verification_level"
	LVMURDecision    = "vmur_decision" // pending|approved|denied|expired

	LAlertType = "alert_type"
	LSeverity  = "severity"
)

var (
	visitsTotal     *prometheus.CounterVec
	visitsActive    prometheus.Gauge
	visitDuration   prometheus.Histogram
	operationsTotal *prometheus.CounterVec
	engineCallDur   prometheus.Histogram

	evvComplianceFlagsTotal *prometheus.CounterVec
	evvVerificationsTotal   *prometheus.CounterVec

	submissionsTotal       *prometheus.CounterVec
	submissionRetriesTotal *prometheus.CounterVec
	submissionsInFlight    prometheus.Gauge

	vmurRequestsTotal *prometheus.CounterVec

	alertsSentTotal   *prometheus.CounterVec
	alertSendDuration *prometheus.HistogramVec
	alertSendErrors   *prometheus.CounterVec

	initOnce sync.Once
	registry *prometheus.Registry
)

// Init builds a fresh Prometheus registry and registers all collectors
// exactly once, returning the registry for SetupPrometheus to bind an OTEL
// exporter to.
func Init(cfg *config.Config) *prometheus.Registry {
	initOnce.Do(func() { registry = register(cfg) })
	return registry
}

func register(cfg *config.Config) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	visitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricVisitsTotal, Help: "Visits observed, by terminal/non-terminal status"},
		[]string{LStatus, LOrgBucket},
	)
	visitsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricVisitsActive, Help: "Currently in-progress visits"})
	visitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricVisitDurationSeconds,
		Help:    "Observed visit duration seconds (clock-out minus clock-in)",
		Buckets: cfg.GetDurationBuckets(),
	})

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricOperationsTotal, Help: "Engine operations by outcome"},
		[]string{LOperation, LResult, LComponent, LOrgBucket},
	)
	engineCallDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricEngineCallDuration,
		Help:    "Engine call duration seconds",
		Buckets: prometheus.DefBuckets,
	})

	evvComplianceFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricEVVComplianceFlagsTotal, Help: "EVV compliance flags raised, by flag"},
		[]string{LComplianceFlag, LStateCode, LOrgBucket},
	)
	evvVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricEVVVerificationsTotal, Help: "EVV clock-in/out verifications, by resulting level"},
		[]string{LVerificationLvl, LStateCode},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricSubmissionsTotal, Help: "Aggregator submissions, by result"},
		[]string{LAggregatorType, LStateCode, LResult},
	)
	submissionRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricSubmissionRetriesTotal, Help: "Aggregator submission retry attempts"},
		[]string{LAggregatorType, LStateCode},
	)
	submissionsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricSubmissionsInFlight, Help: "Submissions currently awaiting an aggregator response"})

	vmurRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricVMURRequestsTotal, Help: "VMUR amendment requests, by decision"},
		[]string{LVMURDecision, LOrgBucket},
	)

	alertsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricAlertsSentTotal, Help: "Total number of alerts sent to Alertmanager"},
		[]string{LAlertType, LSeverity, LOrgBucket},
	)
	alertSendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricAlertSendDuration,
			Help:    "Duration of alert send operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LAlertType, LSeverity},
	)
	alertSendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricAlertSendErrors, Help: "Total number of alert send errors"},
		[]string{LAlertType, LSeverity, LOrgBucket},
	)

	reg.MustRegister(
		visitsTotal, visitsActive, visitDuration,
		operationsTotal, engineCallDur,
		evvComplianceFlagsTotal, evvVerificationsTotal,
		submissionsTotal, submissionRetriesTotal, submissionsInFlight,
		vmurRequestsTotal,
		alertsSentTotal, alertSendDuration, alertSendErrors,
	)
	return reg
}

// RecordVisitStatus increments the visit-status counter and adjusts the
// active-visit gauge when a visit enters or leaves an in-progress state.
func RecordVisitStatus(status, orgID string, activeDelta int) {
	visitsTotal.WithLabelValues(status, OrgBucket(orgID)).Inc()
	if activeDelta != 0 {
		visitsActive.Add(float64(activeDelta))
	}
}

// ObserveVisitDurationSeconds records a completed visit's clock-in to
// clock-out duration.
func ObserveVisitDurationSeconds(sec float64) { visitDuration.Observe(sec) }

// ObserveEngineCallDurationSeconds records engine call latency.
func ObserveEngineCallDurationSeconds(sec float64) { engineCallDur.Observe(sec) }

// RecordOperation emits a single operation counter.
func RecordOperation(op metrics.Op, result metrics.Result, component metrics.Component, orgID string) {
	operationsTotal.WithLabelValues(string(op), string(result), string(component), OrgBucket(orgID)).Inc()
}

// RecordComplianceFlag records one EVV compliance flag raised for a record.
func RecordComplianceFlag(flag, stateCode, orgID string) {
	evvComplianceFlagsTotal.WithLabelValues(flag, stateCode, OrgBucket(orgID)).Inc()
}

// RecordVerification records the outcome level of a clock-in/out
// verification attempt.
func RecordVerification(level, stateCode string) {
	evvVerificationsTotal.WithLabelValues(level, stateCode).Inc()
}

// RecordSubmission records an aggregator submission attempt's outcome.
func RecordSubmission(aggregatorType, stateCode string, result metrics.Result, inFlightDelta int) {
	submissionsTotal.WithLabelValues(aggregatorType, stateCode, string(result)).Inc()
	if inFlightDelta != 0 {
		submissionsInFlight.Add(float64(inFlightDelta))
	}
}

// RecordSubmissionRetry records one retry attempt for a submission.
func RecordSubmissionRetry(aggregatorType, stateCode string) {
	submissionRetriesTotal.WithLabelValues(aggregatorType, stateCode).Inc()
}

// RecordVMURDecision records a VMUR entering pending, approved, denied or
// expired.
func RecordVMURDecision(decision, orgID string) {
	vmurRequestsTotal.WithLabelValues(decision, OrgBucket(orgID)).Inc()
}

// RecordAlertSent records a successfully sent alert and its send duration.
func RecordAlertSent(alertType, severity, orgID string, duration float64) {
	nb := OrgBucket(orgID)
	alertsSentTotal.WithLabelValues(alertType, severity, nb).Inc()
	alertSendDuration.WithLabelValues(alertType, severity).Observe(duration)
}

// RecordAlertSendError records a failed alert send attempt.
func RecordAlertSendError(alertType, severity, orgID string) {
	alertSendErrors.WithLabelValues(alertType, severity, OrgBucket(orgID)).Inc()
}

// OrgBucket hashes an organization id into 16 buckets (org_00..org_0f),
// keeping multi-tenant label cardinality bounded regardless of tenant count.
func OrgBucket(orgID string) string {
	if orgID == "" {
		orgID = "default"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(orgID))
	return fmt.Sprintf("org_%02x", h.Sum32()&0x0f)
}

// ObserveEngineCallDurationSecondsWithExemplar records engine-call latency
// with a trace exemplar attached, degrading gracefully when the span isn't
// sampled.
func ObserveEngineCallDurationSecondsWithExemplar(sec float64, span trace.Span) {
	observeHistogramWithExemplar(engineCallDur, sec, span)
}

func observeHistogramWithExemplar(h prometheus.Histogram, val float64, span trace.Span) {
	h.Observe(val)

	if span == nil || !span.SpanContext().IsSampled() {
		return
	}

	if eo, ok := h.(prometheus.ExemplarObserver); ok {
		eo.ObserveWithExemplar(val, prometheus.Labels{
			"trace_id": span.SpanContext().TraceID().String(),
			"span_id":  span.SpanContext().SpanID().String(),
		})
	}
}

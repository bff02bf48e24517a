package metrics

// Op is the bounded set of operations the operations_total counter tracks
// across the scheduling, EVV and aggregator engines.
type Op string

const (
	OpPatternExpand   Op = "pattern_expand"
	OpVisitAssign     Op = "visit_assign"
	OpVisitStatusMove Op = "visit_status_move"
	OpClockIn         Op = "clock_in"
	OpClockOut        Op = "clock_out"
	OpManualOverride  Op = "manual_override"
	OpSubmission      Op = "submission"
	OpSubmissionRetry Op = "submission_retry"
	OpVMURCreate      Op = "vmur_create"
	OpVMURApprove     Op = "vmur_approve"
	OpVMURDeny        Op = "vmur_deny"
	OpVMURExpire      Op = "vmur_expire"
	OpValidation      Op = "validation"
)

// Result is the bounded outcome of an Op.
type Result string

const (
	ResultSuccess Result = "success"
	ResultError   Result = "error"
)

// Component is the bounded set of engines that can emit an operation.
type Component string

const (
	ComponentScheduling Component = "scheduling"
	ComponentEVV        Component = "evv"
	ComponentAggregator Component = "aggregator"
	ComponentScheduler  Component = "scheduler"
	ComponentAPI        Component = "api"
)

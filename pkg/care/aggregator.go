package care

import "time"

// DefaultMaxRetries is the default number of aggregator submission retries
// before a record is moved to REJECTED.
const DefaultMaxRetries = 3

// RetryBackoffSeconds is the exponential backoff schedule for aggregator
// submission retries, indexed by (retryCount-1) and clamped to the last
// entry once retryCount exceeds its length.
var RetryBackoffSeconds = []int{60, 300, 1800}

// BackoffSeconds returns the delay before the (retryCount+1)-th attempt.
func BackoffSeconds(retryCount int) int {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount >= len(RetryBackoffSeconds) {
		return RetryBackoffSeconds[len(RetryBackoffSeconds)-1]
	}
	return RetryBackoffSeconds[retryCount]
}

// AggregatorSubmission is one attempt to deliver an EVV record to a state
// aggregator. Immutable once created except for its retry/outcome fields.
type AggregatorSubmission struct {
	Entity

	StateCode     string         `json:"stateCode"`
	EVVRecordID   ID             `json:"evvRecordId"`
	AggregatorID  string         `json:"aggregatorId"`
	AggregatorType AggregatorType `json:"aggregatorType"`

	Payload           []byte `json:"payload"` // serialized snapshot of the EVV record
	SubmissionFormat  string `json:"submissionFormat"`

	SubmittedAt *time.Time `json:"submittedAt,omitempty"`

	Status SubmissionStatus `json:"status"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	RawResponse  string `json:"rawResponse,omitempty"`

	RetryCount int        `json:"retryCount"`
	MaxRetries int        `json:"maxRetries"`
	NextRetryAt *time.Time `json:"nextRetryAt,omitempty"`

	AggregatorReceivedAt     *time.Time `json:"aggregatorReceivedAt,omitempty"`
	AggregatorConfirmationID string     `json:"aggregatorConfirmationId,omitempty"`
}

// ExhaustedRetries reports whether the submission has used up its retry
// budget and should be moved to REJECTED on the next sweep.
func (s AggregatorSubmission) ExhaustedRetries() bool {
	max := s.MaxRetries
	if max == 0 {
		max = DefaultMaxRetries
	}
	return s.RetryCount >= max
}

// AdapterResult is the structured outcome an AggregatorAdapter implementation
// returns from a submit call.
type AdapterResult struct {
	Success           bool
	ConfirmationID    string
	ErrorCode         string
	ErrorMessage      string
	RequiresRetry     bool
	RetryAfterSeconds int
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// HTTPAdapter submits a state aggregator payload over plain HTTP POST,
// following the same request-building shape as the alerting package's
// Alertmanager client: a configured base URL, an optional basic-auth
// credential, and a JSON body built from the submission.
type HTTPAdapter struct {
	aggregatorType care.AggregatorType
	baseURL        string
	username       string
	password       string
	client         *http.Client
}

// HTTPAdapterConfig configures one aggregator's endpoint.
type HTTPAdapterConfig struct {
	AggregatorType care.AggregatorType
	BaseURL        string
	Username       string
	Password       string
	Timeout        time.Duration
}

// NewHTTPAdapter constructs an HTTPAdapter for one configured aggregator
// endpoint.
func NewHTTPAdapter(cfg HTTPAdapterConfig) *HTTPAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAdapter{
		aggregatorType: cfg.AggregatorType,
		baseURL:        cfg.BaseURL,
		username:       cfg.Username,
		password:       cfg.Password,
		client:         &http.Client{Timeout: timeout},
	}
}

type submissionEnvelope struct {
	StateCode      string `json:"stateCode"`
	EVVRecordID    string `json:"evvRecordId"`
	AggregatorType string `json:"aggregatorType"`
	Format         string `json:"submissionFormat"`
	Payload        []byte `json:"payload"`
}

type submissionResponse struct {
	ConfirmationID string `json:"confirmationId"`
	ErrorCode      string `json:"errorCode"`
	ErrorMessage   string `json:"errorMessage"`
}

// Submit POSTs the submission's payload to the configured aggregator
// endpoint and translates the HTTP response into a care.AdapterResult. A
// transport-level failure (timeout, connection refused, 5xx) is reported as
// a retryable result rather than a Go error, matching the circuit breaker
// layer's expectation that only unrecoverable failures surface as errors.
func (a *HTTPAdapter) Submit(ctx context.Context, submission *care.AggregatorSubmission) (care.AdapterResult, error) {
	body, err := json.Marshal(submissionEnvelope{
		StateCode:      submission.StateCode,
		EVVRecordID:    submission.EVVRecordID.String(),
		AggregatorType: string(submission.AggregatorType),
		Format:         submission.SubmissionFormat,
		Payload:        submission.Payload,
	})
	if err != nil {
		return care.AdapterResult{}, fmt.Errorf("%s: marshal submission: %w", a.aggregatorType, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/submissions", bytes.NewReader(body))
	if err != nil {
		return care.AdapterResult{}, fmt.Errorf("%s: build request: %w", a.aggregatorType, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.username != "" {
		req.SetBasicAuth(a.username, a.password)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return care.AdapterResult{
			RequiresRetry: true,
			ErrorCode:     "TRANSPORT",
			ErrorMessage:  err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	var parsed submissionResponse
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return care.AdapterResult{Success: true, ConfirmationID: parsed.ConfirmationID}, nil
	case resp.StatusCode >= 500:
		return care.AdapterResult{
			RequiresRetry: true,
			ErrorCode:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			ErrorMessage:  parsed.ErrorMessage,
		}, nil
	default:
		return care.AdapterResult{
			Success:      false,
			ErrorCode:    parsed.ErrorCode,
			ErrorMessage: parsed.ErrorMessage,
		}, nil
	}
}

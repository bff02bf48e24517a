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

package alerting

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/neighborhood-lab/care-commons/internal/config"
	"github.com/neighborhood-lab/care-commons/internal/telemetry"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// AlertmanagerService handles sending EVV compliance and VMUR alerts to
// Alertmanager.
type AlertmanagerService struct {
	config *config.AlertmanagerConfig
	client *http.Client
}

// Alert represents an Alertmanager alert
type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
	EndsAt      time.Time         `json:"endsAt"`
}

// AlertGroup represents a group of alerts sent to Alertmanager
type AlertGroup struct {
	GroupLabels map[string]string `json:"groupLabels"`
	Alerts      []Alert           `json:"alerts"`
}

// NewAlertmanagerService creates a new Alertmanager service
func NewAlertmanagerService(cfg *config.AlertmanagerConfig) *AlertmanagerService {
	if !cfg.Enabled {
		return &AlertmanagerService{
			config: cfg,
			client: nil,
		}
	}

	// Create HTTP client with TLS configuration
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig,
		},
	}

	return &AlertmanagerService{
		config: cfg,
		client: client,
	}
}

// SendComplianceAlert sends an alert when an EVV record's verification
// raises one or more compliance flags that require supervisor review.
func (a *AlertmanagerService) SendComplianceAlert(ctx context.Context, record *care.EVVRecord) error {
	if !a.config.Enabled || a.client == nil {
		return nil
	}

	alert, err := a.createComplianceAlert(record)
	if err != nil {
		return fmt.Errorf("failed to create compliance alert: %w", err)
	}

	return a.sendAlert(ctx, alert, a.config.Alert.AlertName, a.config.Alert.Severity, record.OrganizationID.String())
}

// SendVMURExpiringAlert sends an alert that a pending VMUR is nearing its
// expiry, so a supervisor can act before it auto-expires. It checks no
// warning window itself; the caller decides when a VMUR is near enough.
func (a *AlertmanagerService) SendVMURExpiringAlert(ctx context.Context, vmur *care.VMUR) error {
	if !a.config.Enabled || a.client == nil {
		return nil
	}

	alert := a.createVMURExpiringAlert(vmur)
	return a.sendAlert(ctx, alert, "VMURExpiringSoon", "warning", vmur.OrganizationID.String())
}

// createComplianceAlert creates an alert for an EVV record carrying
// compliance flags beyond COMPLIANT.
func (a *AlertmanagerService) createComplianceAlert(record *care.EVVRecord) (*Alert, error) {
	now := time.Now()

	labels := make(map[string]string)
	for k, v := range a.config.Alert.Labels {
		labels[k] = v
	}

	labels["alertname"] = a.config.Alert.AlertName
	labels["severity"] = a.config.Alert.Severity
	labels["evv_record_id"] = record.ID.String()
	labels["visit_id"] = record.VisitID.String()
	labels["verification_level"] = string(record.VerificationLevel)

	annotations := make(map[string]string)
	for k, v := range a.config.Alert.Annotations {
		annotations[k] = v
	}

	annotations["summary"] = a.config.Alert.Summary
	annotations["description"] = a.config.Alert.Description
	annotations["compliance_flags"] = a.formatFlags(record.ComplianceFlags)
	annotations["caregiver_id"] = record.CaregiverID.String()
	annotations["client_id"] = record.ClientID.String()

	return &Alert{
		Labels:      labels,
		Annotations: annotations,
		StartsAt:    now,
		EndsAt:      now.Add(24 * time.Hour),
	}, nil
}

// createVMURExpiringAlert creates an alert for a VMUR nearing its expiry.
func (a *AlertmanagerService) createVMURExpiringAlert(vmur *care.VMUR) *Alert {
	now := time.Now()

	labels := make(map[string]string)
	for k, v := range a.config.Alert.Labels {
		labels[k] = v
	}
	labels["alertname"] = "VMURExpiringSoon"
	labels["severity"] = "warning"
	labels["vmur_id"] = vmur.ID.String()
	labels["evv_record_id"] = vmur.EVVRecordID.String()

	annotations := make(map[string]string)
	annotations["summary"] = "A pending VMUR is about to expire"
	annotations["reason_code"] = string(vmur.ReasonCode)
	annotations["expires_at"] = vmur.ExpiresAt.Format(time.RFC3339)
	annotations["requested_by"] = vmur.RequestedName

	return &Alert{
		Labels:      labels,
		Annotations: annotations,
		StartsAt:    now,
		EndsAt:      vmur.ExpiresAt,
	}
}

// sendAlert sends an alert to Alertmanager, recording its outcome against
// alertType/severity/orgID.
func (a *AlertmanagerService) sendAlert(ctx context.Context, alert *Alert, alertType, severity, orgID string) error {
	start := time.Now()
	alertGroup := AlertGroup{
		GroupLabels: map[string]string{
			"alertname": a.config.Alert.AlertName,
		},
		Alerts: []Alert{*alert},
	}

	payload, err := json.Marshal(alertGroup)
	if err != nil {
		telemetry.RecordAlertSendError(alertType, severity, orgID)
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.config.URL+"/api/v1/alerts", bytes.NewBuffer(payload))
	if err != nil {
		telemetry.RecordAlertSendError(alertType, severity, orgID)
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	// Add basic auth if configured
	if a.config.BasicAuth.Username != "" {
		req.SetBasicAuth(a.config.BasicAuth.Username, a.config.BasicAuth.Password)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		telemetry.RecordAlertSendError(alertType, severity, orgID)
		return fmt.Errorf("failed to send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		telemetry.RecordAlertSendError(alertType, severity, orgID)
		return fmt.Errorf("alertmanager returned status %d", resp.StatusCode)
	}

	telemetry.RecordAlertSent(alertType, severity, orgID, time.Since(start).Seconds())
	return nil
}

// formatFlags formats the compliance flags for annotation.
func (a *AlertmanagerService) formatFlags(flags []care.ComplianceFlag) string {
	if len(flags) == 0 {
		return "none"
	}

	var result string
	for i, flag := range flags {
		if i > 0 {
			result += ", "
		}
		result += string(flag)
	}
	return result
}

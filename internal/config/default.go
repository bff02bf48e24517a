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

package config

import "time"

// Defaults holds all default configuration values
type Defaults struct {
	OTel         OTelDefaults
	Scheduler    SchedulerDefaults
	Metrics      MetricsDefaults
	Health       HealthDefaults
	HTTP         HTTPDefaults
	EVV          EVVDefaults
	Aggregator   AggregatorDefaults
	Server       ServerDefaults
	Alertmanager AlertmanagerDefaults
}

// OTelDefaults holds OpenTelemetry default values
type OTelDefaults struct {
	Enabled  bool
	Exporter string
	Endpoint string
	Service  string
	LogLevel string
	TLS      TLSDefaults
}

// TLSDefaults holds TLS default values
type TLSDefaults struct {
	InsecureSkipVerify bool
	CAFile             string
	CertFile           string
	KeyFile            string
}

// SchedulerDefaults holds the background sweep default values.
type SchedulerDefaults struct {
	Enabled             bool
	SubmissionSweepCron string
	VMURExpirySweepCron string
}

// MetricsDefaults holds metrics default values
type MetricsDefaults struct {
	BindAddress         string
	Secure              bool
	DurationBucketStart float64
	DurationBucketWidth float64
	DurationBucketCount int
}

// HealthDefaults holds health check default values
type HealthDefaults struct {
	ProbeBindAddress string
}

// HTTPDefaults holds HTTP server default values
type HTTPDefaults struct {
	EnableHTTP2 bool
}

// EVVDefaults holds EVV Verification Engine default values, keyed by the
// two fully-specified states (TX, FL); other configured state codes are
// expected to be supplied via config file or env, not defaulted here.
type EVVDefaults struct {
	DefaultGeofenceRadiusMeters float64
	StateRules                  map[string]StateRuleConfig
	ClientAddressCacheTTL       time.Duration
}

// AggregatorDefaults holds Aggregator Submission Engine default values.
type AggregatorDefaults struct {
	RetryBackoffSeconds   []int
	MaxRetries            int
	StateAggregatorFanout map[string][]string
	// Endpoints maps an AggregatorType (HHAEXCHANGE, SANDATA, TELLUS) to the
	// base URL the serve command's transport.HTTPAdapter submits against.
	Endpoints map[string]string
}

// ServerDefaults holds server default values
type ServerDefaults struct {
	MetricsBindAddress     string
	HealthProbeBindAddress string
}

// AlertmanagerDefaults holds Alertmanager default values
type AlertmanagerDefaults struct {
	Enabled  bool
	Endpoint string
}

// NewDefaults returns the default configuration values
func NewDefaults() *Defaults {
	return &Defaults{
		OTel: OTelDefaults{
			Enabled:  false, // Disabled by default for simpler development
			Exporter: "otlp",
			Endpoint: "otel-collector-opentelemetry-collector.telemetry-system.svc.cluster.local:4317",
			Service:  "carecore",
			LogLevel: "info",
			TLS: TLSDefaults{
				InsecureSkipVerify: true, // Insecure by default for easier development
				CAFile:             "",
				CertFile:           "",
				KeyFile:            "",
			},
		},
		Scheduler: SchedulerDefaults{
			Enabled:             true,
			SubmissionSweepCron: "*/5 * * * *",
			VMURExpirySweepCron: "0 * * * *",
		},
		Metrics: MetricsDefaults{
			BindAddress:         ":8080",
			Secure:              false,
			DurationBucketStart: 5.0,
			DurationBucketWidth: 15.0,
			DurationBucketCount: 8,
		},
		Health: HealthDefaults{
			ProbeBindAddress: ":8081",
		},
		HTTP: HTTPDefaults{
			EnableHTTP2: false,
		},
		EVV: EVVDefaults{
			DefaultGeofenceRadiusMeters: 100,
			ClientAddressCacheTTL:       5 * time.Minute,
			StateRules: map[string]StateRuleConfig{
				"TX": {
					GeofenceBaseRadiusMeters: 100,
					StateToleranceMeters:     50,
					ClockInGraceMinutes:      10,
					AllowedMethods:           []string{"GPS", "BIOMETRIC"},
					TelephonyFallbackAllowed: false,
					GPSAccuracyFlagMeters:    100,
				},
				"FL": {
					GeofenceBaseRadiusMeters: 150,
					StateToleranceMeters:     100,
					ClockInGraceMinutes:      15,
					AllowedMethods:           []string{"GPS", "PHONE", "BIOMETRIC"},
					TelephonyFallbackAllowed: true,
					GPSAccuracyFlagMeters:    150,
				},
			},
		},
		Aggregator: AggregatorDefaults{
			RetryBackoffSeconds: []int{60, 300, 1800},
			MaxRetries:          3,
			StateAggregatorFanout: map[string][]string{
				"FL": {"HHAEXCHANGE"},
			},
			Endpoints: map[string]string{
				"HHAEXCHANGE": "https://api.hhaexchange.com/evv",
				"SANDATA":     "https://api.sandata.com/evv",
				"TELLUS":      "https://api.tellus.com/evv",
			},
		},
		Server: ServerDefaults{
			MetricsBindAddress:     ":8080",
			HealthProbeBindAddress: ":8081",
		},
		Alertmanager: AlertmanagerDefaults{
			Enabled:  false,
			Endpoint: "http://alertmanager.telemetry-system.svc.cluster.local:9093",
		},
	}
}

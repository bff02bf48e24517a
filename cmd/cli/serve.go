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

package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neighborhood-lab/care-commons/internal/aggregator"
	"github.com/neighborhood-lab/care-commons/internal/aggregator/transport"
	"github.com/neighborhood-lab/care-commons/internal/alerting"
	"github.com/neighborhood-lab/care-commons/internal/availability"
	"github.com/neighborhood-lab/care-commons/internal/cache"
	"github.com/neighborhood-lab/care-commons/internal/clock"
	"github.com/neighborhood-lab/care-commons/internal/config"
	carecoreerrors "github.com/neighborhood-lab/care-commons/internal/errors"
	"github.com/neighborhood-lab/care-commons/internal/evv"
	"github.com/neighborhood-lab/care-commons/internal/pattern"
	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/internal/scheduler"
	"github.com/neighborhood-lab/care-commons/internal/scheduling"
	"github.com/neighborhood-lab/care-commons/internal/store/memory"
	"github.com/neighborhood-lab/care-commons/internal/telemetry"
	"github.com/neighborhood-lab/care-commons/internal/telemetry/metrics"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// newServeCmd creates the serve command
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduling, EVV verification and aggregator submission services",
		Long: `Run the carecore service: wires the Visit Lifecycle, EVV Verification and
Aggregator Submission engines together, exposes a Prometheus /metrics
endpoint and health/readiness probes, and starts the background cron sweep
that retries pending aggregator submissions and expires stale VMUR requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	return cmd
}

// engines bundles the constructed service layer the serve command wires
// into its HTTP and cron surfaces.
type engines struct {
	scheduling   *scheduling.Service
	availability *availability.Service
	evv          *evv.Service
	aggregator   *aggregator.Service
	vmur         *aggregator.VMURWorkflow
}

func buildEngines(cfg *config.Config, clk clock.Clock, log *zap.Logger) *engines {
	visits := memory.NewVisitStore()
	patterns := memory.NewPatternStore()
	clients := memory.NewClientDirectory()
	caregivers := memory.NewCaregiverDirectory()
	evvRecords := memory.NewEVVStore()
	geofences := memory.NewGeofenceStore()
	submissions := memory.NewSubmissionStore()
	vmurs := memory.NewVMURStore()

	cachedClients := cache.New(clients, clk, cfg.EVV.ClientAddressCacheTTL)
	holidays := newObservedHolidayCalendar()

	schedulingSvc := scheduling.New(visits, patterns, caregivers, cachedClients, holidays, clk, log)
	availabilitySvc := availability.New(visits)
	evvSvc := evv.New(evvRecords, geofences, cachedClients, caregivers, visits, clk, cfg.EVV, log)

	adapters := buildAdapters(cfg)
	aggregatorSvc := aggregator.New(submissions, evvRecords, adapters, cfg.Aggregator, clk, log)
	vmurWorkflow := aggregator.NewVMURWorkflow(vmurs, evvRecords, clk.Now, log)

	return &engines{
		scheduling:   schedulingSvc,
		availability: availabilitySvc,
		evv:          evvSvc,
		aggregator:   aggregatorSvc,
		vmur:         vmurWorkflow,
	}
}

// newObservedHolidayCalendar seeds the federal holiday dates both Texas HHSC
// and Florida AHCA observe on their EVV aggregator calendars. It is a fixed
// starting set, not a rolling computation: extending it past the seeded
// years is an operational task, not a code change.
func newObservedHolidayCalendar() *pattern.MemoryHolidayCalendar {
	dates := []string{
		"2026-01-01", "2026-07-04", "2026-11-26", "2026-12-25",
		"2027-01-01", "2027-07-04", "2027-11-25", "2027-12-25",
	}
	parsed := make([]care.LocalDate, 0, len(dates))
	for _, s := range dates {
		d, err := care.ParseLocalDate(s)
		if err != nil {
			continue
		}
		parsed = append(parsed, d)
	}
	return pattern.NewMemoryHolidayCalendar(parsed...)
}

// buildAdapters constructs one circuit-breaker-wrapped HTTP adapter per
// configured aggregator endpoint.
func buildAdapters(cfg *config.Config) map[care.AggregatorType]providers.AggregatorAdapter {
	adapters := make(map[care.AggregatorType]providers.AggregatorAdapter, len(cfg.Aggregator.Endpoints))
	for name, baseURL := range cfg.Aggregator.Endpoints {
		aggType := care.AggregatorType(name)
		httpAdapter := transport.NewHTTPAdapter(transport.HTTPAdapterConfig{
			AggregatorType: aggType,
			BaseURL:        baseURL,
		})
		adapters[aggType] = transport.NewBreakerAdapter(name, httpAdapter)
	}
	return adapters
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, shutdownTelemetry, err := telemetry.Setup(ctx, cfg, cfg.OTel.Service, Version, cfg.OTel.LogLevel)
	if err != nil {
		return carecoreerrors.NewOTelError(carecoreerrors.ErrSetupOTel, err)
	}
	defer shutdownTelemetry()

	clk := clock.New()
	eng := buildEngines(cfg, clk, logger)
	alertSvc := alerting.NewAlertmanagerService(&cfg.Alertmanager)

	sched := scheduler.New(logger)
	if cfg.Scheduler.Enabled {
		if err := sched.AddSubmissionSweep(cfg.Scheduler.SubmissionSweepCron, func(ctx context.Context) {
			runSubmissionSweep(ctx, eng, logger)
		}); err != nil {
			return carecoreerrors.NewServerError(carecoreerrors.ErrCreateServer, err)
		}
		if err := sched.AddVMURExpirySweep(cfg.Scheduler.VMURExpirySweepCron, func(ctx context.Context) {
			runVMURExpirySweep(ctx, eng, alertSvc, logger)
		}); err != nil {
			return carecoreerrors.NewServerError(carecoreerrors.ErrCreateServer, err)
		}
		sched.Start()
		defer sched.Stop(context.Background())
	}

	metricsSrv := newMetricsServer(cfg)
	healthSrv := newHealthServer(cfg)

	errCh := make(chan error, 2)
	go func() { errCh <- serveOrNil(metricsSrv) }()
	go func() { errCh <- serveOrNil(healthSrv) }()

	logger.Info("carecore serve started",
		zap.String("metricsAddr", cfg.Server.MetricsBindAddress),
		zap.String("healthAddr", cfg.Server.HealthProbeBindAddress),
		zap.Bool("schedulerEnabled", cfg.Scheduler.Enabled),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error(carecoreerrors.ErrRunServer, zap.Error(err))
			return carecoreerrors.NewServerError(carecoreerrors.ErrRunServer, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	_ = healthSrv.Shutdown(shutdownCtx)

	return nil
}

func serveOrNil(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.Init(cfg), promhttp.HandlerOpts{}))
	return &http.Server{Addr: cfg.Server.MetricsBindAddress, Handler: mux}
}

func newHealthServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{Addr: cfg.Server.HealthProbeBindAddress, Handler: mux}
}

// vmurExpiryWarningWindow is how far ahead of a VMUR's expiry the sweep
// sends a SendVMURExpiringAlert, giving a supervisor time to act before the
// request lapses into EXPIRED.
const vmurExpiryWarningWindow = 72 * time.Hour

// runSubmissionSweep retries every aggregator submission in RETRY status
// whose backoff has elapsed.
func runSubmissionSweep(ctx context.Context, eng *engines, log *zap.Logger) {
	n, err := eng.aggregator.RetryPendingSubmissions(ctx, time.Now())
	if err != nil {
		log.Error("submission retry sweep failed", zap.Error(err))
		telemetry.RecordOperation(metrics.OpSubmissionRetry, metrics.ResultError, metrics.ComponentScheduler, "")
		return
	}
	log.Info("submission retry sweep complete", zap.Int("retried", n))
	telemetry.RecordOperation(metrics.OpSubmissionRetry, metrics.ResultSuccess, metrics.ComponentScheduler, "")
}

// runVMURExpirySweep alerts on PENDING VMURs closing in on their 30-day
// window, then marks the ones already past it EXPIRED.
func runVMURExpirySweep(ctx context.Context, eng *engines, alertSvc *alerting.AlertmanagerService, log *zap.Logger) {
	if pending, err := eng.vmur.ListPending(ctx); err != nil {
		log.Error("vmur pending lookup failed", zap.Error(err))
	} else {
		now := time.Now()
		for _, vmur := range pending {
			if vmur.ExpiresAt.Sub(now) <= vmurExpiryWarningWindow {
				if err := alertSvc.SendVMURExpiringAlert(ctx, vmur); err != nil {
					log.Warn("vmur expiring alert failed", zap.String("vmurID", vmur.ID.String()), zap.Error(err))
				}
			}
		}
	}

	n, err := eng.vmur.ExpireOldVMURs(ctx)
	if err != nil {
		log.Error("vmur expiry sweep failed", zap.Error(err))
		telemetry.RecordOperation(metrics.OpVMURExpire, metrics.ResultError, metrics.ComponentScheduler, "")
		return
	}
	log.Info("vmur expiry sweep complete", zap.Int("expired", n))
	telemetry.RecordOperation(metrics.OpVMURExpire, metrics.ResultSuccess, metrics.ComponentScheduler, "")
}

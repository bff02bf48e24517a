// Package scheduler runs the background cron-driven sweeps: aggregator
// submission retries and VMUR expiry. It wraps github.com/robfig/cron/v3
// the way the teacher's recurring manager parses and validates cron
// expressions, but drives a running scheduler rather than computing a next
// activation time for a single resource.
package scheduler

import (
	"context"

	cronv3 "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler owns the cron jobs backing the two background sweeps.
type Scheduler struct {
	cron *cronv3.Cron
	log  *zap.Logger
}

// New constructs a Scheduler using a 5-field cron parser (minute hour dom
// month dow), matching the teacher's cron schedule validation.
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	parser := cronv3.NewParser(cronv3.Minute | cronv3.Hour | cronv3.Dom | cronv3.Month | cronv3.Dow)
	return &Scheduler{
		cron: cronv3.New(cronv3.WithParser(parser), cronv3.WithChain(cronv3.Recover(cronLogger{log}))),
		log:  log,
	}
}

// AddSubmissionSweep registers fn to run on the given 5-field cron
// expression, driving the aggregator retry sweep.
func (s *Scheduler) AddSubmissionSweep(spec string, fn func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() { fn(context.Background()) })
	return err
}

// AddVMURExpirySweep registers fn to run on the given 5-field cron
// expression, driving the VMUR expiry sweep.
func (s *Scheduler) AddVMURExpirySweep(spec string, fn func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() { fn(context.Background()) })
	return err
}

// Start begins running registered jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and blocks until any in-flight job finishes or
// ctx is done, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop deadline exceeded; jobs may still be running")
	}
}

// cronLogger adapts zap to the cron/v3 Logger interface used by the
// Recover job wrapper to report panics without crashing the process.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

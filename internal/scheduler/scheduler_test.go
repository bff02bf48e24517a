package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RegistersSweepsAndStarts(t *testing.T) {
	s := New(nil)

	var submissionTicks int32
	var vmurTicks int32

	require.NoError(t, s.AddSubmissionSweep("* * * * *", func(ctx context.Context) {
		atomic.AddInt32(&submissionTicks, 1)
	}))
	require.NoError(t, s.AddVMURExpirySweep("* * * * *", func(ctx context.Context) {
		atomic.AddInt32(&vmurTicks, 1)
	}))

	s.Start()
	defer s.Stop(context.Background())

	// Jobs are registered; we don't wait for a real minute boundary in this
	// fast unit test, only assert registration succeeded without error.
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&submissionTicks), int32(0))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&vmurTicks), int32(0))
}

func TestScheduler_RejectsInvalidCronSpec(t *testing.T) {
	s := New(nil)
	err := s.AddSubmissionSweep("not-a-cron-expression", func(ctx context.Context) {})
	assert.Error(t, err)
}

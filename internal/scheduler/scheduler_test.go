package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skintracker/internal/scheduler"
)

func TestScheduler_InvalidSpec(t *testing.T) {
	s := scheduler.New(time.Second, zap.NewNop())
	err := s.Add("sync", "not a schedule", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduler_RunsJob(t *testing.T) {
	s := scheduler.New(time.Second, zap.NewNop())
	var runs atomic.Int32
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		_, hasDeadline := ctx.Deadline()
		if !hasDeadline {
			return errors.New("job context has no deadline")
		}
		return nil
	}))
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

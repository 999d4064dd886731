package deadline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skintracker/internal/deadline"
)

func TestBound(t *testing.T) {
	got, err := deadline.Bound(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, got)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err = deadline.Bound(ctx, time.Minute)
	require.NoError(t, err)
	assert.LessOrEqual(t, got, time.Second)
	assert.Positive(t, got)

	got, err = deadline.Bound(ctx, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, got, time.Second)

	got, err = deadline.Bound(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, got)

	cancel()
	_, err = deadline.Bound(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

package live

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingQueue_CoalescedFlush(t *testing.T) {
	q := NewPendingQueue()
	q.Add("score_adjust")
	q.Add("score_adjust")
	assert.Equal(t, 2, q.Len())

	persists := 0
	err := q.Flush(context.Background(), func(ctx context.Context) error {
		persists++
		return nil
	})
	require.NoError(t, err)

	// Two offline changes, one reconciling write.
	assert.Equal(t, 1, persists)
	assert.Equal(t, 0, q.Len())
}

func TestPendingQueue_EmptyFlushIsNoop(t *testing.T) {
	q := NewPendingQueue()

	err := q.Flush(context.Background(), func(ctx context.Context) error {
		t.Fatal("persist must not be called for an empty backlog")
		return nil
	})
	assert.NoError(t, err)
}

func TestPendingQueue_FailedFlushKeepsBacklog(t *testing.T) {
	q := NewPendingQueue()
	q.Add("period_change")
	q.Add("score_adjust")

	flushErr := errors.New("store unavailable")
	err := q.Flush(context.Background(), func(ctx context.Context) error {
		return flushErr
	})
	require.ErrorIs(t, err, flushErr)
	assert.Equal(t, 2, q.Len(), "failed persist must keep the backlog")

	err = q.Flush(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 0, q.Len())
}

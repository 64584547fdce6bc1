package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnqueueRunsTask(t *testing.T) {
	t.Parallel()

	p := NewPool(2, 8, time.Second, nil)
	defer p.Stop()

	var ran atomic.Bool
	handle := p.Enqueue("secure-unlink", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	require.NotEmpty(t, handle.ID)
	require.Equal(t, "secure-unlink", handle.Kind)

	select {
	case <-handle.Done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
	require.True(t, ran.Load())
}

func TestFailuresAreNotSurfaced(t *testing.T) {
	t.Parallel()

	p := NewPool(1, 8, time.Second, nil)
	defer p.Stop()

	handle := p.Enqueue("secure-unlink", func(ctx context.Context) error {
		return errors.New("disk on fire")
	})

	// The handle still completes; the error stays with the worker's log.
	select {
	case <-handle.Done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestStopDrainsQueue(t *testing.T) {
	t.Parallel()

	p := NewPool(1, 8, time.Second, nil)

	var count atomic.Int32
	for range 5 {
		p.Enqueue("count", func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
	}

	p.Stop()
	require.EqualValues(t, 5, count.Load())
}

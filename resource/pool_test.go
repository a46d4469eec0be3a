package resource_test

import (
	"context"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/flow/resource"
	"go.trai.ch/flow/task"
)

func TestPool_AcquireRelease(t *testing.T) {
	p := resource.NewPool(map[string]int64{"gpu": 2, "slot": 4})

	a, err := p.Acquire(context.Background(), map[string]int64{"gpu": 2, "slot": 1})
	require.NoError(t, err)
	a.Close()

	// Everything is back; the full supply can be taken again.
	b, err := p.Acquire(context.Background(), map[string]int64{"gpu": 2, "slot": 4})
	require.NoError(t, err)
	b.Close()
}

func TestPool_UnknownResource(t *testing.T) {
	p := resource.NewPool(map[string]int64{"gpu": 2})

	_, err := p.Acquire(context.Background(), map[string]int64{"tpu": 1})
	assert.ErrorIs(t, err, resource.ErrUnknownResource)
}

func TestPool_OverCommitFailsImmediately(t *testing.T) {
	p := resource.NewPool(map[string]int64{"gpu": 2})

	_, err := p.Acquire(context.Background(), map[string]int64{"gpu": 3})
	assert.ErrorIs(t, err, resource.ErrOverCommit)
}

func TestPool_AcquireBlocksUntilReleased(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := resource.NewPool(map[string]int64{"gpu": 1})

		first, err := p.Acquire(context.Background(), map[string]int64{"gpu": 1})
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			second, err := p.Acquire(context.Background(), map[string]int64{"gpu": 1})
			if err != nil {
				t.Error(err)
				return
			}
			close(acquired)
			second.Close()
		}()

		synctest.Wait()
		select {
		case <-acquired:
			t.Fatal("second acquire must block while the pool is drained")
		default:
		}

		first.Close()
		<-acquired
	})
}

func TestPool_AcquireHonorsCancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := resource.NewPool(map[string]int64{"gpu": 1})

		held, err := p.Acquire(context.Background(), map[string]int64{"gpu": 1})
		require.NoError(t, err)
		defer held.Close()

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			_, err := p.Acquire(ctx, map[string]int64{"gpu": 1})
			errCh <- err
		}()

		synctest.Wait()
		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)
	})
}

func TestPool_FailedAcquireRollsBack(t *testing.T) {
	p := resource.NewPool(map[string]int64{"a": 1, "b": 2})

	// "b" is over-committed; nothing from "a" may stay held.
	_, err := p.Acquire(context.Background(), map[string]int64{"a": 1, "b": 3})
	require.ErrorIs(t, err, resource.ErrOverCommit)

	a, err := p.Acquire(context.Background(), map[string]int64{"a": 1})
	require.NoError(t, err)
	a.Close()
}

func TestAllocation_PartialRelease(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := resource.NewPool(map[string]int64{"gpu": 2})

		a, err := p.Acquire(context.Background(), map[string]int64{"gpu": 2})
		require.NoError(t, err)

		require.NoError(t, a.Release(map[string]int64{"gpu": 1}))

		// One unit is available again.
		b, err := p.Acquire(context.Background(), map[string]int64{"gpu": 1})
		require.NoError(t, err)
		b.Close()
		a.Close()
	})
}

func TestAllocation_OverRelease(t *testing.T) {
	p := resource.NewPool(map[string]int64{"gpu": 2})

	a, err := p.Acquire(context.Background(), map[string]int64{"gpu": 1})
	require.NoError(t, err)
	defer a.Close()

	assert.ErrorIs(t, a.Release(map[string]int64{"gpu": 2}), resource.ErrOverRelease)
}

func TestAllocation_AcquireMore(t *testing.T) {
	p := resource.NewPool(map[string]int64{"gpu": 2})

	a, err := p.Acquire(context.Background(), map[string]int64{"gpu": 1})
	require.NoError(t, err)

	require.NoError(t, a.Acquire(context.Background(), map[string]int64{"gpu": 1}))
	require.NoError(t, a.Release(map[string]int64{"gpu": 2}))
}

func TestAllocation_CloseTwice(t *testing.T) {
	p := resource.NewPool(map[string]int64{"gpu": 1})

	a, err := p.Acquire(context.Background(), map[string]int64{"gpu": 1})
	require.NoError(t, err)

	a.Close()
	a.Close()

	b, err := p.Acquire(context.Background(), map[string]int64{"gpu": 1})
	require.NoError(t, err)
	b.Close()
}

func TestConfigRoundTrip(t *testing.T) {
	p := resource.NewPool(map[string]int64{"gpu": 1})

	cfg := resource.With(nil, p)
	got, ok := resource.From(cfg)
	require.True(t, ok)
	assert.Same(t, p, got)

	_, ok = resource.From(task.Config{})
	assert.False(t, ok)
}

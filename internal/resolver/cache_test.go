package resolver

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestCached_SharedFetchSurvivesCancelledCaller(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newCatalogCache()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return []string{"Alice"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := cached(ctx, c, "operators:operator", fetch)
		first <- err
	}()
	<-started
	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	second := make(chan []string, 1)
	go func() {
		v, err := cached(context.Background(), c, "operators:operator", fetch)
		assert.NoError(t, err)
		second <- v
	}()
	close(release)
	assert.Equal(t, []string{"Alice"}, <-second)
	assert.EqualValues(t, 1, calls.Load())

	v, err := cached(context.Background(), c, "operators:operator", fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, v)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCached_InvalidateDuringFetchIsNotStored(t *testing.T) {
	c := newCatalogCache()
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			c.invalidate()
		}
		return calls, nil
	}

	v, err := cached(context.Background(), c, "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = cached(context.Background(), c, "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

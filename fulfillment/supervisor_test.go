package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/dilshat/gift-courier/model"
	"github.com/stretchr/testify/require"
)

func TestSupervisor_Go(t *testing.T) {
	sv := NewSupervisor(context.Background(), nil)
	release := make(chan struct{})

	h, ok := sv.Go(CODE1, func(ctx context.Context) { <-release })
	require.True(t, ok)
	require.Len(t, h.ID, 10)
	require.True(t, sv.Busy(CODE1))

	_, ok = sv.Go(CODE1, func(ctx context.Context) {})
	require.False(t, ok)
	require.Len(t, sv.InFlight(), 1)

	close(release)
	require.NoError(t, sv.Wait(context.Background()))
	require.False(t, sv.Busy(CODE1))
	require.Empty(t, sv.InFlight())
}

func TestSupervisor_Wait_Timeout(t *testing.T) {
	sv := NewSupervisor(context.Background(), nil)
	release := make(chan struct{})
	defer close(release)
	sv.Go(CODE1, func(ctx context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, sv.Wait(ctx), context.DeadlineExceeded)
}

func TestSupervisor_RecoversPanicAsUnclassified(t *testing.T) {
	f := prepare(t, CODE1)
	w := f.worker(Config{})
	sv := NewSupervisor(context.Background(), func(code string, recovered interface{}) {
		require.NoError(t, w.Fail(code, model.ErrUnclassified))
	})

	_, ok := sv.Go(CODE1, func(ctx context.Context) {
		_, err := w.Claim(CODE1)
		require.NoError(t, err)
		panic("automation crashed")
	})
	require.True(t, ok)
	require.NoError(t, sv.Wait(context.Background()))

	d := f.get(t, CODE1)
	require.Equal(t, model.GettingPurchaseInfo, d.Status)
	require.Equal(t, model.ErrUnclassified, *d.ErrorCode)
	require.False(t, sv.Busy(CODE1))
}

func TestGate(t *testing.T) {
	g := NewGate()
	require.NoError(t, g.Acquire(context.Background()))

	acquired := make(chan struct{})
	go func() {
		if g.Acquire(context.Background()) == nil {
			close(acquired)
		}
	}()
	require.Eventually(t, func() bool { return g.Waiting() == 1 }, time.Second, time.Millisecond)

	g.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter not served")
	}
	g.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, g.Acquire(context.Background()))
	require.Error(t, g.Acquire(ctx))
	g.Release()
}

func TestParseGateScope(t *testing.T) {
	scope, err := ParseGateScope("worker")
	require.NoError(t, err)
	require.Equal(t, ScopeWorker, scope)

	_, err = ParseGateScope("global")
	require.Error(t, err)
}

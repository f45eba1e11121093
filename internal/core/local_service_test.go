package core

import (
	"context"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youhavemail/yhm/internal/interval"
	"github.com/youhavemail/yhm/internal/metrics"
	"github.com/youhavemail/yhm/internal/store"
)

func newTestService(t *testing.T) (*LocalPollIntervalService, *store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yhm.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc, err := NewLocalPollIntervalService(context.Background(), st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown() })
	return svc, st, path
}

func recv(t *testing.T, ch <-chan uint64) uint64 {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll interval")
		return 0
	}
}

func TestLocalService_Default(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.Equal(t, interval.DefaultInterval.Seconds(), svc.PollInterval())
}

func TestLocalService_SubscribeReceivesCurrentThenChanges(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ch, cancel, err := svc.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, uint64(300), recv(t, ch))

	require.NoError(t, svc.SetPollInterval(ctx, 150))
	assert.Equal(t, uint64(150), recv(t, ch))
	assert.Equal(t, uint64(150), svc.PollInterval())
}

func TestLocalService_SlowSubscriberSeesLatest(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ch, cancel, err := svc.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	// Never read the initial value; only the last write should remain.
	require.NoError(t, svc.SetPollInterval(ctx, 30))
	require.NoError(t, svc.SetPollInterval(ctx, 600))
	require.NoError(t, svc.SetPollInterval(ctx, 3600))

	assert.Equal(t, uint64(3600), recv(t, ch))
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestLocalService_RejectsValuesOutsideCatalog(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.SetPollInterval(context.Background(), 45)
	assert.ErrorIs(t, err, interval.ErrNotInCatalog)
	assert.Equal(t, uint64(300), svc.PollInterval())
}

func TestLocalService_PersistsAcrossRestart(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetPollInterval(ctx, 1800))

	again, err := NewLocalPollIntervalService(ctx, st, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1800), again.PollInterval())
}

func TestLocalService_IgnoresCorruptStoredValue(t *testing.T) {
	_, st, _ := newTestService(t)
	ctx := context.Background()

	for _, raw := range []string{"abc", "45"} {
		require.NoError(t, st.Set(ctx, pollIntervalKey, raw))
		svc, err := NewLocalPollIntervalService(ctx, st, nil)
		require.NoError(t, err)
		assert.Equal(t, interval.DefaultInterval.Seconds(), svc.PollInterval(), "stored %q", raw)
	}
}

func TestLocalService_UnsubscribeClosesChannel(t *testing.T) {
	svc, _, _ := newTestService(t)

	ch, cancel, err := svc.Subscribe(context.Background())
	require.NoError(t, err)
	_ = recv(t, ch)

	cancel()
	cancel() // idempotent

	_, ok := <-ch
	assert.False(t, ok)
}

func TestLocalService_ContextEndsSubscription(t *testing.T) {
	svc, _, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	ch, _, err := svc.Subscribe(ctx)
	require.NoError(t, err)
	_ = recv(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
}

func TestLocalService_Shutdown(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ch, _, err := svc.Subscribe(ctx)
	require.NoError(t, err)
	_ = recv(t, ch)

	require.NoError(t, svc.Shutdown())
	require.NoError(t, svc.Shutdown())

	_, ok := <-ch
	assert.False(t, ok)

	_, _, err = svc.Subscribe(ctx)
	assert.ErrorIs(t, err, ErrServiceClosed)
	assert.ErrorIs(t, svc.SetPollInterval(ctx, 60), ErrServiceClosed)
}

func TestLocalService_Metrics(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "yhm.db"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	m := metrics.New()
	svc, err := NewLocalPollIntervalService(context.Background(), st, m)
	require.NoError(t, err)
	defer func() { _ = svc.Shutdown() }()

	assert.Equal(t, 300.0, testutil.ToFloat64(m.PollIntervalSeconds))

	_, cancel, err := svc.Subscribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscribers))

	require.NoError(t, svc.SetPollInterval(context.Background(), 60))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollIntervalUpdates))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.PollIntervalSeconds))

	cancel()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Subscribers))
}

func TestLocalService_UnsubscribeStopsWatcher(t *testing.T) {
	svc, _, _ := newTestService(t)

	before := runtime.NumGoroutine()
	for i := 0; i < 200; i++ {
		_, cancel, err := svc.Subscribe(context.Background())
		require.NoError(t, err)
		cancel()
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+5
	}, 2*time.Second, 10*time.Millisecond, "subscription watchers still running")
}

func TestLocalService_ConcurrentSetsAgree(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	updates, cancel, err := svc.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	for trial := 0; trial < 20; trial++ {
		var wg sync.WaitGroup
		for _, v := range []uint64{15, 60, 600, 3600} {
			wg.Add(1)
			go func(v uint64) {
				defer wg.Done()
				assert.NoError(t, svc.SetPollInterval(ctx, v))
			}(v)
		}
		wg.Wait()

		published := recv(t, updates)
		stored, ok, err := st.Get(ctx, pollIntervalKey)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, strconv.FormatUint(published, 10), stored)
		assert.Equal(t, published, svc.PollInterval())
	}
}

package widget

import (
	"context"
	"github.com/google/uuid"
	"github.com/langowen/converter/internal/converter/metrics"
	"github.com/langowen/converter/internal/entities"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func staticFetcher() RateFetcher {
	return fetcherFunc(func(_ context.Context, base string) (*entities.RateTable, error) {
		return table(base, map[string]float64{"AFN": 87.5}), nil
	})
}

func TestRegistry_MountGetUnmount(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := NewRegistry(context.Background(), staticFetcher(), testOptions(m), time.Minute)

	id, w, err := r.Mount()
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))

	snap := settle(t, w)
	assert.Equal(t, PhaseLoaded, snap.Phase)

	got, err := r.Get(id)
	require.NoError(t, err)
	assert.Same(t, w, got)

	require.NoError(t, r.Unmount(id))
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))

	_, err = r.Get(id)
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
	assert.ErrorIs(t, r.Unmount(id), entities.ErrSessionNotFound)
	assert.ErrorIs(t, w.SetAmount("1"), entities.ErrSessionClosed)
}

func TestRegistry_SweepExpiresIdleSessions(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := NewRegistry(context.Background(), staticFetcher(), testOptions(m), 10*time.Minute)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	idle, _, err := r.Mount()
	require.NoError(t, err)
	active, _, err := r.Mount()
	require.NoError(t, err)

	now = now.Add(8 * time.Minute)
	_, err = r.Get(active)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Sweep())

	_, err = r.Get(idle)
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
	_, err = r.Get(active)
	assert.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsExpiredTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestRegistry_RunClosesSessionsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRegistry(ctx, staticFetcher(), testOptions(nil), time.Minute)

	_, w, err := r.Mount()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("registry did not stop")
	}

	assert.Equal(t, 0, r.Len())
	assert.ErrorIs(t, w.SetAmount("1"), entities.ErrSessionClosed)
}

package app

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rpggio/crossing/internal/config"
	"github.com/rpggio/crossing/internal/domain/activity"
	"github.com/rpggio/crossing/internal/domain/cycle"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/geolocate"
	"github.com/rpggio/crossing/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixedGeocoder string

func (g fixedGeocoder) Reverse(context.Context, geolocate.Position) (string, error) {
	return string(g), nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Schedule.Tick = 5 * time.Millisecond
	return cfg
}

func TestApp_RegistryDrivesSignalsAndActivity(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2026, 7, 1, 17, 50, 0, 0, time.Local))
	a, err := New(testConfig(), nil, WithClock(clock.Now), WithGeocoder(fixedGeocoder("x")))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	a.Start(ctx)

	rec, err := a.Registry.Create(ctx, intersection.CreateRequest{Name: "Elm & 5th", ScheduleTime: "18:00"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := a.Signals.Snapshot(rec.ID)
		return err == nil && snap.Phase == cycle.PhaseActive
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		entries, err := a.Activity.GetRecentActivity(ctx, activity.ListOptions{IntersectionID: &rec.ID})
		return err == nil && len(entries) == 2
	}, time.Second, 5*time.Millisecond)

	entries, err := a.Activity.GetRecentActivity(ctx, activity.ListOptions{IntersectionID: &rec.ID})
	require.NoError(t, err)
	types := []activity.Type{entries[0].Type, entries[1].Type}
	require.ElementsMatch(t, []activity.Type{activity.TypeIntersectionCreated, activity.TypeSignalActivated}, types)

	require.NoError(t, a.Registry.Delete(ctx, rec.ID))
	_, err = a.Signals.Snapshot(rec.ID)
	require.Error(t, err)
}

func TestApp_ServeHTTPShutsDown(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Token = "secret"
	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.ServeHTTP(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	resp, err := http.Get(url + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(url + "/api/intersections")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("server did not shut down")
	}
	http.DefaultClient.CloseIdleConnections()
}

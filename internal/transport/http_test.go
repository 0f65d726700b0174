package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/crossing/internal/domain/activity"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/recorder"
	"github.com/rpggio/crossing/internal/geolocate"
	"github.com/rpggio/crossing/internal/scheduler"
	"github.com/rpggio/crossing/internal/testutil"
)

type memStore struct {
	mu    sync.Mutex
	items []intersection.Intersection
}

func (s *memStore) Load(context.Context) ([]intersection.Intersection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]intersection.Intersection(nil), s.items...), nil
}

func (s *memStore) Save(_ context.Context, items []intersection.Intersection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]intersection.Intersection(nil), items...)
	return nil
}

type stubActivity struct {
	listFn func(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

func (s *stubActivity) GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	return s.listFn(ctx, opts)
}

type stubGeocoder struct{}

func (stubGeocoder) Reverse(context.Context, geolocate.Position) (string, error) {
	return "臺北市 中山北路", nil
}

type fixture struct {
	server   *httptest.Server
	registry *intersection.Service
	signals  *scheduler.Manager
	clock    *testutil.ManualClock
	lastOpts activity.ListOptions
}

func newFixture(t *testing.T, auth func(http.Handler) http.Handler) *fixture {
	t.Helper()
	f := &fixture{clock: testutil.NewManualClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.Local))}
	f.signals = scheduler.NewManager(nil, scheduler.WithClock(f.clock.Now), scheduler.WithInterval(5*time.Millisecond))
	f.registry = intersection.NewService(&memStore{}, nil,
		intersection.WithClock(f.clock.Now),
		intersection.WithListener(f.signals),
	)
	f.signals.Start(context.Background(), nil)
	t.Cleanup(f.signals.Stop)

	acts := &stubActivity{listFn: func(_ context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
		f.lastOpts = opts
		return nil, nil
	}}
	f.server = httptest.NewServer(NewServer(Deps{
		Registry:   f.registry,
		Signals:    f.signals,
		Recordings: recorder.NewBook(f.clock.Now, 0),
		Locator:    geolocate.NewResolver(stubGeocoder{}, 0, nil),
		Activity:   acts,
		Now:        f.clock.Now,
	}, auth))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHTTPServer_Health(t *testing.T) {
	f := newFixture(t, AuthMiddleware(StaticToken{Token: "secret"}))

	resp, err := http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/intersections", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_IntersectionLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodPost, "/api/intersections",
		`{"name":"Main & 1st","scheduleTime":"08:10","durations":{"green":"20","yellow":2.6,"red":-4}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[intersection.Intersection](t, resp)
	require.Equal(t, "08:10:00", created.ScheduleTime.String())
	require.Equal(t, intersection.Durations{Green: 20, Yellow: 3, Red: 1}, created.Durations)

	resp = f.do(t, http.MethodGet, "/api/intersections", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]intersectionView](t, resp)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)
	require.NotNil(t, list[0].Status)
	require.Equal(t, "07:40:00~08:40:00", list[0].Status.Window)

	path := "/api/intersections/" + itoa(created.ID)
	resp = f.do(t, http.MethodPut, path, `{"name":"Renamed","scheduleTime":"","durations":{}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[intersection.Intersection](t, resp)
	require.Equal(t, "Renamed", updated.Name)
	require.False(t, updated.ScheduleTime.IsSet())
	require.Equal(t, intersection.DefaultDurations(), updated.Durations)

	require.Eventually(t, func() bool {
		resp := f.do(t, http.MethodGet, path+"/status", "")
		if resp.StatusCode != http.StatusOK {
			return false
		}
		return decode[scheduler.Snapshot](t, resp).Light == "standby"
	}, time.Second, 10*time.Millisecond)

	resp = f.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", decode[ErrorBody](t, resp).Code)
}

func TestHTTPServer_CreateValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		body string
		code string
	}{
		{`{"name":"   "}`, "empty_name"},
		{`{"name":"x","scheduleTime":"25:00"}`, "invalid_schedule_time"},
		{`{`, "invalid_json"},
	}
	for _, tt := range tests {
		resp := f.do(t, http.MethodPost, "/api/intersections", tt.body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, tt.body)
		require.Equal(t, tt.code, decode[ErrorBody](t, resp).Code, tt.body)
	}
	require.Empty(t, f.registry.List())

	resp := f.do(t, http.MethodPut, "/api/intersections/abc", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = f.do(t, http.MethodPut, "/api/intersections/42", `{"name":"x"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_Window(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodGet, "/api/schedule/window?time=08:30:00", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[windowResponse](t, resp)
	require.Equal(t, "08:00:00~09:00:00", got.Window)
	require.True(t, got.Within)
	require.Equal(t, "08:00:00", got.Now)

	resp = f.do(t, http.MethodGet, "/api/schedule/window?time=08:30:01", "")
	require.False(t, decode[windowResponse](t, resp).Within)

	resp = f.do(t, http.MethodGet, "/api/schedule/window?time=nope", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPServer_Recording(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodPost, "/api/recordings", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	opened := decode[recordingResponse](t, resp)
	require.Equal(t, "not_started", opened.Step)

	advance := func() recordingResponse {
		resp := f.do(t, http.MethodPost, "/api/recordings/"+opened.ID+"/advance", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[recordingResponse](t, resp)
	}

	first := advance()
	require.Equal(t, "green", first.Step)
	require.Equal(t, "08:00:00", first.ScheduleTime)

	f.clock.Advance(12300 * time.Millisecond)
	resp = f.do(t, http.MethodGet, "/api/recordings/"+opened.ID, "")
	require.Equal(t, 12.3, decode[recordingResponse](t, resp).Elapsed)

	advance()
	f.clock.Advance(3 * time.Second)
	advance()
	f.clock.Advance(14600 * time.Millisecond)
	last := advance()
	require.True(t, last.Done)
	require.Equal(t, &intersection.Durations{Green: 12, Yellow: 3, Red: 15}, last.Durations)

	resp = f.do(t, http.MethodPost, "/api/recordings/"+opened.ID+"/advance", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/recordings", "")
	other := decode[recordingResponse](t, resp)
	resp = f.do(t, http.MethodDelete, "/api/recordings/"+other.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/api/recordings/"+other.ID, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_Locate(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodPost, "/api/locate", `{"latitude":25.05,"longitude":121.52}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outcomes := decode[[]geolocate.Outcome](t, resp)
	require.Len(t, outcomes, 4)
	require.Equal(t, geolocate.KindSuccess, outcomes[3].Kind)
	require.Equal(t, "臺北市 中山北路", outcomes[3].Label)

	resp = f.do(t, http.MethodPost, "/api/locate", `{"error_code":1,"error_message":"denied"}`)
	outcomes = decode[[]geolocate.Outcome](t, resp)
	require.Equal(t, geolocate.KindFailure, outcomes[len(outcomes)-1].Kind)
}

func TestHTTPServer_Activity(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodGet, "/api/activity?limit=5&intersection_id=9", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "[]\n", readAll(t, resp))
	require.Equal(t, 5, f.lastOpts.Limit)
	require.Equal(t, int64(9), *f.lastOpts.IntersectionID)

	resp = f.do(t, http.MethodGet, "/api/activity?limit=-1", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPServer_Events(t *testing.T) {
	f := newFixture(t, nil)
	rec, err := f.registry.Create(context.Background(), intersection.CreateRequest{
		Name:         "Live",
		ScheduleTime: "08:00:00",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		f.server.URL+"/api/intersections/"+itoa(rec.ID)+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var snap scheduler.Snapshot
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap))
		require.Equal(t, rec.ID, snap.IntersectionID)
		if snap.Phase == "active" {
			return
		}
	}
	t.Fatal("stream ended without an active snapshot")
}

func TestHTTPServer_RecordingReadout(t *testing.T) {
	f := newFixture(t, nil)
	opened := decode[recordingResponse](t, f.do(t, http.MethodPost, "/api/recordings", ""))
	f.do(t, http.MethodPost, "/api/recordings/"+opened.ID+"/advance", "")
	f.clock.Advance(1500 * time.Millisecond)

	resp := f.do(t, http.MethodGet, "/api/recordings/"+opened.ID+"/readout", "")
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var frame readoutFrame
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
			break
		}
	}
	require.Equal(t, "green", frame.Step)
	require.Equal(t, 1.5, frame.Elapsed)

	cancelResp := f.do(t, http.MethodDelete, "/api/recordings/"+opened.ID, "")
	require.Equal(t, http.StatusNoContent, cancelResp.StatusCode)
	for scanner.Scan() {
	}
	require.NoError(t, scanner.Err())

	missing := f.do(t, http.MethodGet, "/api/recordings/nope/readout", "")
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.String()
}

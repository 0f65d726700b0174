// Package testserver runs the full application behind an httptest server.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/crossing/internal/app"
	"github.com/rpggio/crossing/internal/config"
	"github.com/rpggio/crossing/internal/geolocate"
	"github.com/rpggio/crossing/internal/testutil"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Clock  *testutil.ManualClock
	Token  string
}

// Geocoder answers every lookup with Label.
type Geocoder struct {
	Label string
}

func (g Geocoder) Reverse(context.Context, geolocate.Position) (string, error) {
	return g.Label, nil
}

// New starts an application on an in-memory database with a manual clock
// reading start. Signals tick every 10ms.
func New(t *testing.T, token string, start time.Time) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Auth.Token = token
	cfg.Schedule.Tick = 10 * time.Millisecond

	clock := testutil.NewManualClock(start)
	a, err := app.New(cfg, nil,
		app.WithClock(clock.Now),
		app.WithGeocoder(Geocoder{Label: "中山路 / 民生路"}),
		app.WithVersion("test"),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	server := httptest.NewServer(a.Handler())

	t.Cleanup(func() {
		server.Close()
		cancel()
		_ = a.Close()
	})

	return &TestServer{Server: server, App: a, Clock: clock, Token: token}
}

// Do sends an authenticated request with an optional JSON body.
func (ts *TestServer) Do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	req := ts.request(t, method, path, body)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ConnectMCP opens an MCP client session against /mcp.
func (ts *TestServer) ConnectMCP(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	transport := &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: ts.Token, next: http.DefaultTransport}},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(req)
}

func (ts *TestServer) request(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.Token)
	}
	return req
}

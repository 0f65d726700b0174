package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rpggio/crossing/internal/app"
	"github.com/rpggio/crossing/internal/config"
	"github.com/rpggio/crossing/internal/domain/intersection"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func withNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestWindowCommand(t *testing.T) {
	withNow(t, time.Date(2026, 2, 3, 7, 45, 0, 0, time.Local))

	out, err := run(t, "window", "08:00")
	require.NoError(t, err)
	require.Equal(t, "07:30:00~08:30:00  (now 07:45:00, inside)\n", out)

	out, err = run(t, "window", "23:50:00", "--format", "json")
	require.NoError(t, err)
	var report windowReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, "23:20:00~00:20:00", report.Window)
	require.False(t, report.Within)

	out, err = run(t, "window", "08:00", "--width", "10m", "--format", "yaml")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	require.Equal(t, "07:50:00~08:10:00", report.Window)
	require.False(t, report.Within)
}

func TestWindowCommand_NonPositiveWidthUsesDefault(t *testing.T) {
	withNow(t, time.Date(2026, 2, 3, 7, 45, 0, 0, time.Local))

	for _, width := range []string{"0s", "-5m"} {
		out, err := run(t, "window", "08:00", "--width="+width)
		require.NoError(t, err)
		require.Equal(t, "07:30:00~08:30:00  (now 07:45:00, inside)\n", out, "width %s", width)
	}
}

func TestWindowCommand_Errors(t *testing.T) {
	_, err := run(t, "window", "8 o'clock")
	require.ErrorIs(t, err, intersection.ErrInvalidScheduleTime)

	_, err = run(t, "window")
	require.Error(t, err)

	_, err = run(t, "window", "08:00", "--format", "xml")
	require.ErrorContains(t, err, "unknown --format")
}

func TestListCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "crossing.db")
	t.Setenv("CROSSING_DB_PATH", dbPath)
	t.Setenv("CROSSING_LOG_LEVEL", "error")

	out, err := run(t, "list")
	require.NoError(t, err)
	require.Equal(t, "no intersections\n", out)

	cfg, err := config.Load()
	require.NoError(t, err)
	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	_, err = a.Registry.Create(context.Background(), intersection.CreateRequest{
		Name:         "中山路 民生路口",
		ScheduleTime: "07:30",
		Durations:    intersection.DurationsInput{Green: 25, Yellow: 3, Red: 20},
	})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	out, err = run(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "ID"))
	require.Contains(t, lines[1], "中山路 民生路口")
	require.Contains(t, lines[1], "07:00:00~08:00:00")
	require.Contains(t, lines[1], "25/3/20")

	out, err = run(t, "list", "--format", "json")
	require.NoError(t, err)
	var rows []listRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	require.Equal(t, "07:30:00", rows[0].ScheduleTime)
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o600))
	_, err := run(t, "list", "--config", path)
	require.ErrorContains(t, err, "config")
}

func TestLogFileWriterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "crossing.log")
	w, file, err := newLogFileWriter(path)
	require.NoError(t, err)
	defer file.Close()
	w.maxSize = 64
	w.keep = 16

	_, err = w.Write([]byte(strings.Repeat("a", 60)))
	require.NoError(t, err)
	_, err = w.Write([]byte(strings.Repeat("b", 10)))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("a", 6)+strings.Repeat("b", 10), string(data))
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, "DEBUG", parseLogLevel("debug").String())
	require.Equal(t, "INFO", parseLogLevel("loud").String())
}

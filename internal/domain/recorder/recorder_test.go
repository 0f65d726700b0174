package recorder_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/recorder"
	"github.com/rpggio/crossing/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRecorder_CapturesRoundedDurations(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2026, 4, 1, 17, 45, 10, 0, time.Local))
	var startedAt time.Time
	rec := recorder.New(
		recorder.WithClock(clock.Now),
		recorder.WithStartHook(func(at time.Time) { startedAt = at }),
	)

	p, err := rec.Advance()
	require.NoError(t, err)
	require.Equal(t, recorder.StepGreen, p.Step)
	require.Equal(t, clock.Now(), startedAt)

	clock.Advance(2300 * time.Millisecond)
	p, err = rec.Advance()
	require.NoError(t, err)
	require.Equal(t, recorder.StepYellow, p.Step)
	require.Equal(t, 2, p.Partial.Green)

	clock.Advance(1100 * time.Millisecond)
	p, err = rec.Advance()
	require.NoError(t, err)
	require.Equal(t, recorder.StepRed, p.Step)
	require.Equal(t, 1, p.Partial.Yellow)

	clock.Advance(4900 * time.Millisecond)
	p, err = rec.Advance()
	require.NoError(t, err)
	require.True(t, p.Done())
	require.Equal(t, intersection.Durations{Green: 2, Yellow: 1, Red: 5}, *p.Result)
	require.Equal(t, startedAt, p.StartedAt)

	_, err = rec.Advance()
	require.ErrorIs(t, err, recorder.ErrFinished)
}

func TestRecorder_FloorsAtOneSecond(t *testing.T) {
	clock := testutil.NewManualClock(time.Unix(0, 0))
	rec := recorder.New(recorder.WithClock(clock.Now))

	var p recorder.Progress
	var err error
	for i := 0; i < 4; i++ {
		p, err = rec.Advance()
		require.NoError(t, err)
		clock.Advance(200 * time.Millisecond)
	}
	require.Equal(t, intersection.Durations{Green: 1, Yellow: 1, Red: 1}, *p.Result)
}

func TestRecorder_CancelEmitsNothing(t *testing.T) {
	clock := testutil.NewManualClock(time.Unix(0, 0))
	rec := recorder.New(recorder.WithClock(clock.Now))
	_, err := rec.Advance()
	require.NoError(t, err)
	clock.Advance(3 * time.Second)
	_, err = rec.Advance()
	require.NoError(t, err)

	require.NoError(t, rec.Cancel())
	select {
	case <-rec.Finished():
	default:
		t.Fatal("finished channel not closed")
	}
	require.Zero(t, rec.Elapsed())
	_, err = rec.Advance()
	require.ErrorIs(t, err, recorder.ErrFinished)
	require.ErrorIs(t, rec.Cancel(), recorder.ErrFinished)
}

func TestRecorder_Elapsed(t *testing.T) {
	clock := testutil.NewManualClock(time.Unix(100, 0))
	rec := recorder.New(recorder.WithClock(clock.Now))
	require.Zero(t, rec.Elapsed())

	_, err := rec.Advance()
	require.NoError(t, err)
	clock.Advance(1234 * time.Millisecond)
	require.Equal(t, 1234*time.Millisecond, rec.Elapsed())
	require.Equal(t, 1.2, recorder.RoundTenths(rec.Elapsed()))
}

func TestRecorder_ReadoutStopsWhenFinished(t *testing.T) {
	rec := recorder.New()
	_, err := rec.Advance()
	require.NoError(t, err)

	out := rec.Readout(context.Background(), 5*time.Millisecond)
	select {
	case v := <-out:
		require.GreaterOrEqual(t, v, 0.0)
	case <-time.After(time.Second):
		t.Fatal("no readout")
	}

	require.NoError(t, rec.Cancel())
	for range out {
	}
}

func TestRecorder_ReadoutStopsOnContext(t *testing.T) {
	rec := recorder.New()
	ctx, cancel := context.WithCancel(context.Background())
	out := rec.Readout(ctx, 0)
	cancel()
	for range out {
	}
}

func TestStep_Strings(t *testing.T) {
	require.Equal(t, "not_started", recorder.StepNotStarted.String())
	require.Equal(t, "red", recorder.StepRed.String())
	require.Contains(t, recorder.StepNotStarted.Prompt(), "start")
	require.Contains(t, recorder.StepRed.Prompt(), "finish")
}

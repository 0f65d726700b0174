package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)
	require.Equal(t, start, c.Now())
	require.Equal(t, start.Add(1500*time.Millisecond), c.Advance(1500*time.Millisecond))

	later := start.Add(time.Hour)
	c.Set(later)
	require.Equal(t, later, c.Now())
}

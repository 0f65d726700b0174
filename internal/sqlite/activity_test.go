package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/crossing/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	first := int64(1)
	second := int64(2)
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	entries := []*activity.Entry{
		{IntersectionID: &first, Type: activity.TypeIntersectionCreated, Summary: "created", Details: `{"id":1}`, CreatedAt: base},
		{IntersectionID: &second, Type: activity.TypeIntersectionCreated, Summary: "created", CreatedAt: base.Add(time.Second)},
		{IntersectionID: &first, Type: activity.TypeSignalActivated, Summary: "activated", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Log(ctx, e))
		require.NotZero(t, e.ID)
	}

	all, err := repo.List(ctx, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, activity.TypeSignalActivated, all[0].Type)
	require.Equal(t, `{"id":1}`, all[2].Details)

	byID, err := repo.List(ctx, activity.ListOptions{IntersectionID: &first})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	for _, e := range byID {
		require.Equal(t, first, *e.IntersectionID)
	}

	typ := activity.TypeIntersectionCreated
	byType, err := repo.List(ctx, activity.ListOptions{Type: &typ, Limit: 1})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	require.Equal(t, second, *byType[0].IntersectionID)

	paged, err := repo.List(ctx, activity.ListOptions{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "created", paged[0].Summary)
}

func TestActivityRepository_NilIntersection(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	require.NoError(t, repo.Log(ctx, &activity.Entry{Type: activity.TypeSignalStandby, Summary: "standby"}))
	all, err := repo.List(ctx, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Nil(t, all[0].IntersectionID)
	require.False(t, all[0].CreatedAt.IsZero())
}

package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDailyRepository_LoadSave(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewDailyRepository(db, nil)

	morning := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2024, time.January, 2, 17, 0, 0, 0, time.UTC)
	nextDay := time.Date(2024, time.January, 3, 9, 0, 0, 0, time.UTC)

	total, err := repo.LoadDay(ctx, "u1", morning)
	require.NoError(t, err)
	require.Zero(t, total)

	require.NoError(t, repo.SaveDay(ctx, "u1", morning, time.Hour))
	require.NoError(t, repo.SaveDay(ctx, "u1", evening, 7*time.Hour+30*time.Minute))

	total, err = repo.LoadDay(ctx, "u1", morning)
	require.NoError(t, err)
	require.Equal(t, 7*time.Hour+30*time.Minute, total)

	total, err = repo.LoadDay(ctx, "u1", nextDay)
	require.NoError(t, err)
	require.Zero(t, total)

	total, err = repo.LoadDay(ctx, "u2", morning)
	require.NoError(t, err)
	require.Zero(t, total)
}

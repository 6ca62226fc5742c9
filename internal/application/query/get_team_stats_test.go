package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

func teamStatsFixture() (*GetTeamStatsHandler, *fakeActivityStore) {
	activities := newFakeActivityStore()
	people := newFakeRoster(
		&roster.User{ID: "u1", Name: "Ana", TeamID: "1"},
		&roster.User{ID: "u2", Name: "Luis", TeamID: "1"},
		&roster.User{ID: "u3", Name: "Marta", TeamID: "2"},
	)
	stats := engagement.NewStatsCalculator()
	return NewGetTeamStatsHandler(activities, people, stats), activities
}

func TestGetTeamStatsHandler_Handle(t *testing.T) {
	h, activities := teamStatsFixture()
	ctx := context.Background()
	day := time.Now().UTC().AddDate(0, 0, -40)

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 100, day)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r2", "u2", 300, day)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r3", "u3", 999, day))) // other team

	result, err := h.Handle(ctx, GetTeamStatsQuery{TeamID: "1"})
	require.NoError(t, err)

	assert.Equal(t, "Equipo Rojo", result.TeamName)
	assert.Equal(t, 400, result.TotalPoints)
	assert.Equal(t, 2, result.TotalActivities)
	assert.Equal(t, 2, result.MemberCount)

	// Members sorted by contribution, highest first.
	require.Len(t, result.Members, 2)
	assert.Equal(t, "Luis", result.Members[0].Name)
	assert.Equal(t, 300, result.Members[0].TotalPoints)
	assert.Equal(t, "Ana", result.Members[1].Name)
}

func TestGetTeamStatsHandler_Handle_WindowedTotals(t *testing.T) {
	h, activities := teamStatsFixture()
	ctx := context.Background()
	today := time.Now().UTC()

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 10, today)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r2", "u1", 50, today.AddDate(0, 0, -1))))

	result, err := h.Handle(ctx, GetTeamStatsQuery{TeamID: "1", Filter: FilterToday})
	require.NoError(t, err)

	assert.Equal(t, 10, result.TotalPoints)
	assert.Equal(t, 1, result.TotalActivities)

	// The streak still sees yesterday's record.
	var ana TeamMemberStatsDTO
	for _, m := range result.Members {
		if m.UserID == "u1" {
			ana = m
		}
	}
	assert.Equal(t, 2, ana.CurrentStreak)
}

func TestGetTeamStatsHandler_Handle_EmptyTeam(t *testing.T) {
	h, _ := teamStatsFixture()

	result, err := h.Handle(context.Background(), GetTeamStatsQuery{TeamID: "3"})
	require.NoError(t, err)

	assert.Zero(t, result.MemberCount)
	assert.Zero(t, result.TotalPoints)
	assert.Empty(t, result.Members)
}

func TestGetTeamStatsHandler_Handle_UnknownTeam(t *testing.T) {
	h, _ := teamStatsFixture()

	_, err := h.Handle(context.Background(), GetTeamStatsQuery{TeamID: "no-such-team"})
	require.Error(t, err)
	assert.ErrorIs(t, err, roster.ErrTeamNotFound)

	_, err = h.Handle(context.Background(), GetTeamStatsQuery{})
	assert.Error(t, err)
}

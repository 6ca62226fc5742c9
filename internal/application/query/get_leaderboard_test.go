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

func leaderboardFixture(cache LeaderboardCache) (*GetLeaderboardHandler, *fakeActivityStore, *fakeRoster) {
	activities := newFakeActivityStore()
	people := newFakeRoster(
		&roster.User{ID: "u1", Name: "Ana", TeamID: "1"},
		&roster.User{ID: "u2", Name: "Luis", TeamID: "1"},
		&roster.User{ID: "u3", Name: "Marta", TeamID: "2"},
		&roster.User{ID: "u4", Name: "Pedro"}, // без команды
	)
	stats := engagement.NewStatsCalculator()
	return NewGetLeaderboardHandler(activities, people, stats, cache), activities, people
}

func pointsRecord(id, userID string, points int, date time.Time) *engagement.ActivityRecord {
	return &engagement.ActivityRecord{
		ID:             id,
		UserID:         userID,
		ActivityTypeID: "1",
		Quantity:       1,
		Points:         points,
		Date:           date,
	}
}

func TestGetLeaderboardHandler_Handle_UsersRankedByPoints(t *testing.T) {
	h, activities, _ := leaderboardFixture(nil)
	ctx := context.Background()
	day := time.Now().UTC().AddDate(0, 0, -40) // вне любых окон, фильтр all

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 100, day)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r2", "u2", 300, day)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r3", "u3", 200, day)))

	result, err := h.Handle(ctx, GetLeaderboardQuery{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 4)
	assert.Equal(t, "Luis", result.Entries[0].Name)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, 300, result.Entries[0].TotalPoints)
	assert.Equal(t, "Marta", result.Entries[1].Name)
	assert.Equal(t, "Ana", result.Entries[2].Name)
	// Пользователь без записей всё равно в таблице, с нулями.
	assert.Equal(t, "Pedro", result.Entries[3].Name)
	assert.Zero(t, result.Entries[3].TotalPoints)
}

func TestGetLeaderboardHandler_Handle_TieBrokenByName(t *testing.T) {
	h, activities, _ := leaderboardFixture(nil)
	ctx := context.Background()
	day := time.Now().UTC().AddDate(0, 0, -40)

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u2", 100, day))) // Luis
	require.NoError(t, activities.Save(ctx, pointsRecord("r2", "u1", 100, day))) // Ana

	result, err := h.Handle(ctx, GetLeaderboardQuery{})
	require.NoError(t, err)

	assert.Equal(t, "Ana", result.Entries[0].Name)
	assert.Equal(t, "Luis", result.Entries[1].Name)
}

func TestGetLeaderboardHandler_Handle_TeamScope(t *testing.T) {
	h, activities, _ := leaderboardFixture(nil)
	ctx := context.Background()
	day := time.Now().UTC().AddDate(0, 0, -40)

	// Команда 1: Ana 100 + Luis 300; команда 2: Marta 200.
	// Pedro без команды - не должен попасть никуда.
	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 100, day)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r2", "u2", 300, day)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r3", "u3", 200, day)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r4", "u4", 999, day)))

	result, err := h.Handle(ctx, GetLeaderboardQuery{Scope: ScopeTeams})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "Equipo Rojo", result.Entries[0].Name)
	assert.Equal(t, 400, result.Entries[0].TotalPoints)
	assert.Equal(t, 2, result.Entries[0].TotalActivities)
	assert.Equal(t, "Equipo Azul", result.Entries[1].Name)
	assert.Equal(t, 200, result.Entries[1].TotalPoints)
}

func TestGetLeaderboardHandler_Handle_WindowedPointsFullStreak(t *testing.T) {
	h, activities, _ := leaderboardFixture(nil)
	ctx := context.Background()
	today := time.Now().UTC()

	// Вчерашняя запись вне окна today, но продолжает стрик.
	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 50, today.AddDate(0, 0, -1))))
	require.NoError(t, activities.Save(ctx, pointsRecord("r2", "u1", 10, today)))

	result, err := h.Handle(ctx, GetLeaderboardQuery{Filter: FilterToday})
	require.NoError(t, err)

	var ana LeaderboardEntryDTO
	for _, e := range result.Entries {
		if e.ID == "u1" {
			ana = e
		}
	}
	assert.Equal(t, 10, ana.TotalPoints) // только сегодняшние очки
	assert.Equal(t, 2, ana.CurrentStreak)
}

func TestGetLeaderboardHandler_Handle_Limit(t *testing.T) {
	h, activities, _ := leaderboardFixture(nil)
	ctx := context.Background()
	day := time.Now().UTC().AddDate(0, 0, -40)

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 100, day)))

	result, err := h.Handle(ctx, GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 2)

	_, err = h.Handle(ctx, GetLeaderboardQuery{Limit: -1})
	assert.Error(t, err)
}

func TestGetLeaderboardHandler_Handle_UnknownScope(t *testing.T) {
	h, _, _ := leaderboardFixture(nil)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{Scope: "planets"})
	assert.Error(t, err)
}

func TestGetLeaderboardHandler_Handle_CachePath(t *testing.T) {
	cache := newFakeLeaderboardCache()
	h, activities, _ := leaderboardFixture(cache)
	ctx := context.Background()
	day := time.Now().UTC().AddDate(0, 0, -40)

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 100, day)))

	// Первый вызов - промах, результат сохраняется в кеш.
	first, err := h.Handle(ctx, GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Второй вызов обслуживается из кеша без пересчёта.
	second, err := h.Handle(ctx, GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, first.Entries, second.Entries)

	// После сброса кеша рейтинг считается заново.
	require.NoError(t, cache.Invalidate(ctx))
	_, err = h.Handle(ctx, GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets)
}

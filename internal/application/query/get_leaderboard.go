package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Строит рейтинг пользователей или команд по очкам за выбранный период.
// Результат кешируется в Redis на короткий TTL - таблица читается
// намного чаще, чем пишутся новые записи.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardScope - область рейтинга: пользователи или команды.
type LeaderboardScope string

const (
	// ScopeUsers - индивидуальный рейтинг.
	ScopeUsers LeaderboardScope = "users"

	// ScopeTeams - командный рейтинг.
	ScopeTeams LeaderboardScope = "teams"
)

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Scope - пользователи или команды (по умолчанию пользователи).
	Scope LeaderboardScope

	// Filter - окно агрегации (очки за период; стрик всегда полный).
	Filter TimeFilter

	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Scope == "" {
		q.Scope = ScopeUsers
	}
	if q.Scope != ScopeUsers && q.Scope != ScopeTeams {
		return errors.New("get_leaderboard: unknown scope")
	}
	if q.Filter == "" {
		q.Filter = FilterAll
	}
	if q.Limit < 0 {
		return errors.New("get_leaderboard: limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// LeaderboardEntryDTO - одна строка рейтинга.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// ID - ID пользователя или команды в зависимости от Scope.
	ID string `json:"id"`

	// Name - отображаемое имя.
	Name string `json:"name"`

	// TeamName - команда пользователя (пусто для командного рейтинга).
	TeamName string `json:"team_name,omitempty"`

	// TotalPoints - очки за выбранное окно.
	TotalPoints int `json:"total_points"`

	// TotalActivities - количество записей за окно.
	TotalActivities int `json:"total_activities"`

	// CurrentStreak - текущий стрик (всегда по полной истории).
	CurrentStreak int `json:"current_streak"`
}

// GetLeaderboardResult содержит результат запроса рейтинга.
type GetLeaderboardResult struct {
	Scope       LeaderboardScope      `json:"scope"`
	Filter      TimeFilter            `json:"filter"`
	Entries     []LeaderboardEntryDTO `json:"entries"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// LeaderboardCache - кеш готовых рейтингов. Реализуется слоем Redis;
// nil-кеш допустим, тогда каждый запрос считается заново.
type LeaderboardCache interface {
	// Get возвращает закешированный результат или (nil, nil) при промахе.
	Get(ctx context.Context, scope LeaderboardScope, filter TimeFilter) (*GetLeaderboardResult, error)

	// Set сохраняет результат с TTL кеша.
	Set(ctx context.Context, result *GetLeaderboardResult) error

	// Invalidate сбрасывает все закешированные рейтинги.
	Invalidate(ctx context.Context) error
}

// GetLeaderboardHandler обрабатывает запросы рейтинга.
type GetLeaderboardHandler struct {
	activities engagement.ActivityStore
	roster     roster.Repository
	stats      *engagement.StatsCalculator
	cache      LeaderboardCache
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса рейтинга.
func NewGetLeaderboardHandler(
	activities engagement.ActivityStore,
	rosterRepo roster.Repository,
	stats *engagement.StatsCalculator,
	cache LeaderboardCache,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		activities: activities,
		roster:     rosterRepo,
		stats:      stats,
		cache:      cache,
	}
}

// Handle выполняет запрос рейтинга.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	// Сначала пробуем кеш
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, q.Scope, q.Filter); err == nil && cached != nil {
			return h.truncate(cached, q.Limit), nil
		}
	}

	result, err := h.build(ctx, q)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		// Промах кеша не критичен, ошибку записи тоже игнорируем
		_ = h.cache.Set(ctx, result)
	}

	return h.truncate(result, q.Limit), nil
}

// build считает рейтинг заново из полного набора записей.
func (h *GetLeaderboardHandler) build(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	users, err := h.roster.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	records, err := h.activities.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// Группируем записи по пользователям: полная история для стрика,
	// оконная - для очков.
	fullByUser := make(map[string][]engagement.ActivityRecord)
	windowedByUser := make(map[string][]engagement.ActivityRecord)
	for _, r := range records {
		fullByUser[r.UserID] = append(fullByUser[r.UserID], *r)
		if q.Filter.Contains(now, r.Date) {
			windowedByUser[r.UserID] = append(windowedByUser[r.UserID], *r)
		}
	}

	teamNames := make(map[string]string)
	if teams, err := h.roster.GetTeams(ctx); err == nil {
		for _, t := range teams {
			teamNames[t.ID] = t.Name
		}
	}

	result := &GetLeaderboardResult{
		Scope:       q.Scope,
		Filter:      q.Filter,
		GeneratedAt: now,
	}

	if q.Scope == ScopeTeams {
		result.Entries = h.buildTeamEntries(users, windowedByUser, teamNames)
	} else {
		result.Entries = h.buildUserEntries(users, fullByUser, windowedByUser, teamNames)
	}

	rank(result.Entries)
	return result, nil
}

func (h *GetLeaderboardHandler) buildUserEntries(
	users []*roster.User,
	fullByUser, windowedByUser map[string][]engagement.ActivityRecord,
	teamNames map[string]string,
) []LeaderboardEntryDTO {
	entries := make([]LeaderboardEntryDTO, 0, len(users))
	for _, u := range users {
		totals := h.stats.ComputeTotals(windowedByUser[u.ID])
		streak := h.stats.ComputeTotals(fullByUser[u.ID]).CurrentStreak
		entries = append(entries, LeaderboardEntryDTO{
			ID:              u.ID,
			Name:            u.Name,
			TeamName:        teamNames[u.TeamID],
			TotalPoints:     totals.TotalPoints,
			TotalActivities: totals.TotalActivities,
			CurrentStreak:   streak,
		})
	}
	return entries
}

func (h *GetLeaderboardHandler) buildTeamEntries(
	users []*roster.User,
	windowedByUser map[string][]engagement.ActivityRecord,
	teamNames map[string]string,
) []LeaderboardEntryDTO {
	byTeam := make(map[string]*LeaderboardEntryDTO)
	for _, u := range users {
		if u.TeamID == "" {
			continue
		}
		entry, ok := byTeam[u.TeamID]
		if !ok {
			entry = &LeaderboardEntryDTO{ID: u.TeamID, Name: teamNames[u.TeamID]}
			byTeam[u.TeamID] = entry
		}
		totals := h.stats.ComputeTotals(windowedByUser[u.ID])
		entry.TotalPoints += totals.TotalPoints
		entry.TotalActivities += totals.TotalActivities
	}

	entries := make([]LeaderboardEntryDTO, 0, len(byTeam))
	for _, e := range byTeam {
		entries = append(entries, *e)
	}
	return entries
}

// truncate возвращает копию результата с ограниченным числом строк.
func (h *GetLeaderboardHandler) truncate(r *GetLeaderboardResult, limit int) *GetLeaderboardResult {
	if limit <= 0 || limit >= len(r.Entries) {
		return r
	}
	out := *r
	out.Entries = r.Entries[:limit]
	return &out
}

// rank сортирует по очкам и проставляет позиции. При равенстве очков
// порядок стабилизируется по имени.
func rank(entries []LeaderboardEntryDTO) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

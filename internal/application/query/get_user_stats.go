package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER STATS QUERY
// One user's totals, streak, unlocked achievements, and recent records.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserStatsQuery contains the parameters for a user stats lookup.
type GetUserStatsQuery struct {
	// UserID is the user to look up.
	UserID string

	// Filter narrows the summed totals. Streak ignores the filter.
	Filter TimeFilter

	// RecentLimit caps the recent-records list (default 20, max 100).
	RecentLimit int
}

// Validate validates the query parameters.
func (q *GetUserStatsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_user_stats: user_id is required")
	}
	if q.RecentLimit < 0 {
		return errors.New("get_user_stats: recent_limit cannot be negative")
	}
	if q.RecentLimit == 0 {
		q.RecentLimit = 20
	}
	if q.RecentLimit > 100 {
		q.RecentLimit = 100
	}
	if q.Filter == "" {
		q.Filter = FilterAll
	}
	return nil
}

// TotalsDTO mirrors engagement.Totals with wire-ready field names.
type TotalsDTO struct {
	TotalPoints     int `json:"total_points"`
	TotalActivities int `json:"total_activities"`
	CurrentStreak   int `json:"current_streak"`
}

// UnlockedAchievementDTO pairs a rule with when the user earned it.
type UnlockedAchievementDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earned_at"`
}

// ActivityRecordDTO is one record in the recent list.
type ActivityRecordDTO struct {
	ID           string    `json:"id"`
	ActivityType string    `json:"activity_type"`
	TypeName     string    `json:"type_name"`
	Quantity     int       `json:"quantity"`
	Points       int       `json:"points"`
	Date         time.Time `json:"date,omitempty"`
}

// GetUserStatsResult contains the result of a user stats lookup.
type GetUserStatsResult struct {
	UserID   string     `json:"user_id"`
	Name     string     `json:"name"`
	TeamID   string     `json:"team_id,omitempty"`
	TeamName string     `json:"team_name,omitempty"`
	Filter   TimeFilter `json:"filter"`

	// Totals within the filter window. CurrentStreak is always
	// full-history regardless of the filter.
	Totals TotalsDTO `json:"totals"`

	// StreakMessage is the motivational message for the streak.
	StreakMessage string `json:"streak_message"`

	// Achievements the user owns, oldest first.
	Achievements []UnlockedAchievementDTO `json:"achievements"`

	// Recent records, newest first.
	Recent []ActivityRecordDTO `json:"recent"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetUserStatsHandler handles user stats lookups.
type GetUserStatsHandler struct {
	activities   engagement.ActivityStore
	achievements engagement.AchievementStore
	types        engagement.TypeStore
	roster       roster.Repository
	stats        *engagement.StatsCalculator
	rules        engagement.RuleTable
}

// NewGetUserStatsHandler creates a new GetUserStatsHandler.
func NewGetUserStatsHandler(
	activities engagement.ActivityStore,
	achievements engagement.AchievementStore,
	types engagement.TypeStore,
	rosterRepo roster.Repository,
	stats *engagement.StatsCalculator,
	rules engagement.RuleTable,
) *GetUserStatsHandler {
	return &GetUserStatsHandler{
		activities:   activities,
		achievements: achievements,
		types:        types,
		roster:       rosterRepo,
		stats:        stats,
		rules:        rules,
	}
}

// Handle executes the user stats lookup.
func (h *GetUserStatsHandler) Handle(ctx context.Context, q GetUserStatsQuery) (*GetUserStatsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	user, err := h.roster.GetUser(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_user_stats: failed to get user: %w", err)
	}

	records, err := h.activities.GetByUser(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_user_stats: failed to load records: %w", err)
	}

	now := time.Now().UTC()
	full := make([]engagement.ActivityRecord, 0, len(records))
	windowed := make([]engagement.ActivityRecord, 0, len(records))
	for _, r := range records {
		full = append(full, *r)
		if q.Filter.Contains(now, r.Date) {
			windowed = append(windowed, *r)
		}
	}

	// Streak comes from the full history even when points are windowed.
	totals := h.stats.ComputeTotals(windowed)
	totals.CurrentStreak = h.stats.ComputeTotals(full).CurrentStreak

	unlocks, err := h.achievements.GetByUser(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_user_stats: failed to load achievements: %w", err)
	}

	result := &GetUserStatsResult{
		UserID: user.ID,
		Name:   user.Name,
		TeamID: user.TeamID,
		Filter: q.Filter,
		Totals: TotalsDTO{
			TotalPoints:     totals.TotalPoints,
			TotalActivities: totals.TotalActivities,
			CurrentStreak:   totals.CurrentStreak,
		},
		StreakMessage: engagement.StreakMessage(totals.CurrentStreak),
		Achievements:  make([]UnlockedAchievementDTO, 0, len(unlocks)),
		Recent:        make([]ActivityRecordDTO, 0, q.RecentLimit),
		GeneratedAt:   now,
	}

	if user.TeamID != "" {
		if team, err := h.roster.GetTeam(ctx, user.TeamID); err == nil {
			result.TeamName = team.Name
		}
	}

	for _, ua := range unlocks {
		dto := UnlockedAchievementDTO{ID: ua.AchievementID, EarnedAt: ua.EarnedAt}
		if rule, ok := h.rules.Get(ua.AchievementID); ok {
			dto.Name = rule.Name
			dto.Description = rule.Description
			dto.Icon = rule.Icon
		}
		result.Achievements = append(result.Achievements, dto)
	}

	typeNames := h.typeNames(ctx)
	for i, r := range records {
		if i >= q.RecentLimit {
			break
		}
		result.Recent = append(result.Recent, ActivityRecordDTO{
			ID:           r.ID,
			ActivityType: r.ActivityTypeID,
			TypeName:     typeNames[r.ActivityTypeID],
			Quantity:     r.Quantity,
			Points:       r.Points,
			Date:         r.Date,
		})
	}

	return result, nil
}

func (h *GetUserStatsHandler) typeNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	types, err := h.types.GetAll(ctx)
	if err != nil {
		return names
	}
	for _, t := range types {
		names[t.ID] = t.Name
	}
	return names
}

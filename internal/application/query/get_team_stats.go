package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TEAM STATS QUERY
// Team-level aggregation: summed points and activity counts for every
// member, within an optional time window.
// ══════════════════════════════════════════════════════════════════════════════

// GetTeamStatsQuery contains the parameters for a team stats lookup.
type GetTeamStatsQuery struct {
	// TeamID is the team to look up.
	TeamID string

	// Filter narrows the summed totals.
	Filter TimeFilter
}

// Validate validates the query parameters.
func (q *GetTeamStatsQuery) Validate() error {
	if q.TeamID == "" {
		return errors.New("get_team_stats: team_id is required")
	}
	if q.Filter == "" {
		q.Filter = FilterAll
	}
	return nil
}

// TeamMemberStatsDTO is one member's contribution within the window.
type TeamMemberStatsDTO struct {
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	TotalPoints     int    `json:"total_points"`
	TotalActivities int    `json:"total_activities"`
	CurrentStreak   int    `json:"current_streak"`
}

// GetTeamStatsResult contains the result of a team stats lookup.
type GetTeamStatsResult struct {
	TeamID   string     `json:"team_id"`
	TeamName string     `json:"team_name"`
	Color    string     `json:"color,omitempty"`
	Filter   TimeFilter `json:"filter"`

	TotalPoints     int `json:"total_points"`
	TotalActivities int `json:"total_activities"`
	MemberCount     int `json:"member_count"`

	// Members sorted by points within the window, highest first.
	Members []TeamMemberStatsDTO `json:"members"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetTeamStatsHandler handles team stats lookups.
type GetTeamStatsHandler struct {
	activities engagement.ActivityStore
	roster     roster.Repository
	stats      *engagement.StatsCalculator
}

// NewGetTeamStatsHandler creates a new GetTeamStatsHandler.
func NewGetTeamStatsHandler(
	activities engagement.ActivityStore,
	rosterRepo roster.Repository,
	stats *engagement.StatsCalculator,
) *GetTeamStatsHandler {
	return &GetTeamStatsHandler{
		activities: activities,
		roster:     rosterRepo,
		stats:      stats,
	}
}

// Handle executes the team stats lookup.
func (h *GetTeamStatsHandler) Handle(ctx context.Context, q GetTeamStatsQuery) (*GetTeamStatsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	team, err := h.roster.GetTeam(ctx, q.TeamID)
	if err != nil {
		return nil, fmt.Errorf("get_team_stats: failed to get team: %w", err)
	}

	members, err := h.roster.GetUsersByTeam(ctx, q.TeamID)
	if err != nil {
		return nil, fmt.Errorf("get_team_stats: failed to load members: %w", err)
	}

	now := time.Now().UTC()
	result := &GetTeamStatsResult{
		TeamID:      team.ID,
		TeamName:    team.Name,
		Color:       team.Color,
		Filter:      q.Filter,
		MemberCount: len(members),
		Members:     make([]TeamMemberStatsDTO, 0, len(members)),
		GeneratedAt: now,
	}

	for _, member := range members {
		records, err := h.activities.GetByUser(ctx, member.ID)
		if err != nil {
			return nil, fmt.Errorf("get_team_stats: failed to load records for %s: %w", member.ID, err)
		}

		full := make([]engagement.ActivityRecord, 0, len(records))
		windowed := make([]engagement.ActivityRecord, 0, len(records))
		for _, r := range records {
			full = append(full, *r)
			if q.Filter.Contains(now, r.Date) {
				windowed = append(windowed, *r)
			}
		}

		totals := h.stats.ComputeTotals(windowed)
		streak := h.stats.ComputeTotals(full).CurrentStreak

		result.Members = append(result.Members, TeamMemberStatsDTO{
			UserID:          member.ID,
			Name:            member.Name,
			TotalPoints:     totals.TotalPoints,
			TotalActivities: totals.TotalActivities,
			CurrentStreak:   streak,
		})
		result.TotalPoints += totals.TotalPoints
		result.TotalActivities += totals.TotalActivities
	}

	sort.Slice(result.Members, func(i, j int) bool {
		return result.Members[i].TotalPoints > result.Members[j].TotalPoints
	})
	return result, nil
}

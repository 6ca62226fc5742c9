package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
)

// ══════════════════════════════════════════════════════════════════════════════
// BACKFILL ACHIEVEMENTS COMMAND
// Bulk re-evaluation across every user with recorded activity. Used
// after the rule table grows, after data imports, and on a worker
// schedule to catch streak achievements that become due by the passage
// of days alone. Safe to run any number of times: unlocks already owned
// are skipped and duplicate inserts are ignored by storage.
// ══════════════════════════════════════════════════════════════════════════════

// BackfillAchievementsCommand triggers a bulk re-evaluation.
type BackfillAchievementsCommand struct {
	// UserIDs limits the run to specific users. Empty means every user
	// that has at least one activity record.
	UserIDs []string
}

// BackfillAchievementsResult summarizes a backfill run.
type BackfillAchievementsResult struct {
	// UsersProcessed is how many users were evaluated.
	UsersProcessed int

	// AchievementsGranted is how many new unlocks were written.
	AchievementsGranted int

	// Granted maps user ID to the rule IDs newly unlocked for them.
	// Users with nothing new are absent.
	Granted map[string][]string

	// Errors maps user ID to the failure that skipped them. One user
	// failing does not stop the run.
	Errors map[string]error

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

// BackfillAchievementsHandler handles bulk achievement re-evaluation.
type BackfillAchievementsHandler struct {
	activities   engagement.ActivityStore
	achievements engagement.AchievementStore
	stats        *engagement.StatsCalculator
	evaluator    *engagement.Evaluator
}

// NewBackfillAchievementsHandler creates a new BackfillAchievementsHandler.
func NewBackfillAchievementsHandler(
	activities engagement.ActivityStore,
	achievements engagement.AchievementStore,
	stats *engagement.StatsCalculator,
	evaluator *engagement.Evaluator,
) *BackfillAchievementsHandler {
	return &BackfillAchievementsHandler{
		activities:   activities,
		achievements: achievements,
		stats:        stats,
		evaluator:    evaluator,
	}
}

// Handle executes the backfill. Each user is evaluated independently;
// per-user failures are collected, not fatal.
func (h *BackfillAchievementsHandler) Handle(ctx context.Context, cmd BackfillAchievementsCommand) (*BackfillAchievementsResult, error) {
	result := &BackfillAchievementsResult{
		Granted:   make(map[string][]string),
		Errors:    make(map[string]error),
		StartedAt: time.Now().UTC(),
	}

	userIDs := cmd.UserIDs
	if len(userIDs) == 0 {
		ids, err := h.activities.ListUserIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("backfill: failed to list users: %w", err)
		}
		userIDs = ids
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backfill: aborted: %w", err)
		}

		granted, err := h.processUser(ctx, userID)
		if err != nil {
			result.Errors[userID] = err
			continue
		}

		result.UsersProcessed++
		if len(granted) > 0 {
			result.Granted[userID] = granted
			result.AchievementsGranted += len(granted)
		}
	}

	result.FinishedAt = time.Now().UTC()
	return result, nil
}

func (h *BackfillAchievementsHandler) processUser(ctx context.Context, userID string) ([]string, error) {
	records, err := h.activities.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	owned, err := h.achievements.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}

	totals := h.stats.ComputeTotals(derefRecords(records))
	newIDs := h.evaluator.EvaluateNew(totals, engagement.OwnedSet(derefAchievements(owned)))
	if len(newIDs) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	inserts := make([]*engagement.UserAchievement, 0, len(newIDs))
	for _, id := range newIDs {
		inserts = append(inserts, &engagement.UserAchievement{
			ID:            uuid.NewString(),
			UserID:        userID,
			AchievementID: id,
			EarnedAt:      now,
		})
	}
	if err := h.achievements.InsertMany(ctx, inserts); err != nil {
		return nil, fmt.Errorf("save achievements: %w", err)
	}

	return newIDs, nil
}

// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ACTIVITIES COMMAND
// Records a batch of activity submissions for one user, then recomputes
// the user's totals and unlocks any newly earned achievements. Totals
// are computed once for the whole batch, after persisting it, so a
// batch that crosses a threshold unlocks the achievement exactly once
// no matter how its items are split.
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionItem is one activity entry within a batch.
type SubmissionItem struct {
	// ActivityTypeID identifies the catalog entry being recorded.
	ActivityTypeID string

	// Quantity is the multiplier for the type's unit points.
	// Checklist-style types accept only 0 or 1.
	Quantity int

	// Date is when the activity happened. Zero means "date unknown":
	// the record counts toward totals but never toward the streak.
	Date time.Time
}

// SubmitActivitiesCommand contains the data for a batch submission.
type SubmitActivitiesCommand struct {
	// UserID is the submitting user.
	UserID string

	// Items is the batch. Must be non-empty.
	Items []SubmissionItem
}

// Validate validates the command shape. Type resolution and quantity
// rules are checked by the handler against the catalog.
func (c SubmitActivitiesCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("submit_activities: user_id is required")
	}
	if len(c.Items) == 0 {
		return errors.New("submit_activities: at least one item is required")
	}
	for i, item := range c.Items {
		if item.ActivityTypeID == "" {
			return fmt.Errorf("submit_activities: item %d: activity_type_id is required", i)
		}
	}
	return nil
}

// SubmitActivitiesResult contains the outcome of a batch submission.
type SubmitActivitiesResult struct {
	// Records are the persisted records, in submission order.
	Records []*engagement.ActivityRecord

	// Totals is the user's state after the batch.
	Totals engagement.Totals

	// Unlocked lists achievements newly earned by this batch, ordered
	// ascending by rule ID. Empty when nothing new fired.
	Unlocked []engagement.AchievementRule

	// StreakMessage is the motivational message for the current streak.
	StreakMessage string
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitActivitiesHandler handles the SubmitActivitiesCommand.
type SubmitActivitiesHandler struct {
	activities   engagement.ActivityStore
	achievements engagement.AchievementStore
	types        engagement.TypeStore
	roster       roster.Repository
	stats        *engagement.StatsCalculator
	evaluator    *engagement.Evaluator
}

// NewSubmitActivitiesHandler creates a new SubmitActivitiesHandler.
func NewSubmitActivitiesHandler(
	activities engagement.ActivityStore,
	achievements engagement.AchievementStore,
	types engagement.TypeStore,
	rosterRepo roster.Repository,
	stats *engagement.StatsCalculator,
	evaluator *engagement.Evaluator,
) *SubmitActivitiesHandler {
	return &SubmitActivitiesHandler{
		activities:   activities,
		achievements: achievements,
		types:        types,
		roster:       rosterRepo,
		stats:        stats,
		evaluator:    evaluator,
	}
}

// Handle executes the batch submission. The batch is all-or-nothing:
// any invalid item (unknown type, bad quantity) rejects the whole
// batch without persisting anything.
func (h *SubmitActivitiesHandler) Handle(ctx context.Context, cmd SubmitActivitiesCommand) (*SubmitActivitiesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_activities: validation failed: %w", err)
	}

	if _, err := h.roster.GetUser(ctx, cmd.UserID); err != nil {
		return nil, fmt.Errorf("submit_activities: failed to get user: %w", err)
	}

	// Resolve and validate every item before touching storage.
	records := make([]*engagement.ActivityRecord, 0, len(cmd.Items))
	for i, item := range cmd.Items {
		at, err := h.types.Get(ctx, item.ActivityTypeID)
		if err != nil {
			return nil, fmt.Errorf("submit_activities: item %d: %w", i, err)
		}

		rec, err := engagement.NewActivityRecord(
			uuid.NewString(),
			cmd.UserID,
			*at,
			item.Quantity,
			item.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("submit_activities: item %d: %w", i, err)
		}
		records = append(records, rec)
	}

	// Snapshot the owned set before persisting, so evaluation compares
	// against pre-batch state.
	ownedBefore, err := h.achievements.GetByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("submit_activities: failed to load achievements: %w", err)
	}

	if err := h.activities.SaveBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("submit_activities: failed to save batch: %w", err)
	}

	// Recompute totals from the full record set. One computation per
	// batch, not per item.
	all, err := h.activities.GetByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("submit_activities: failed to load records: %w", err)
	}
	totals := h.stats.ComputeTotals(derefRecords(all))

	newIDs := h.evaluator.EvaluateNew(totals, engagement.OwnedSet(derefAchievements(ownedBefore)))

	unlocked := make([]engagement.AchievementRule, 0, len(newIDs))
	if len(newIDs) > 0 {
		inserts := make([]*engagement.UserAchievement, 0, len(newIDs))
		now := time.Now().UTC()
		for _, id := range newIDs {
			inserts = append(inserts, &engagement.UserAchievement{
				ID:            uuid.NewString(),
				UserID:        cmd.UserID,
				AchievementID: id,
				EarnedAt:      now,
			})
			if rule, ok := h.evaluator.Rules().Get(id); ok {
				unlocked = append(unlocked, rule)
			}
		}
		// Storage ignores duplicates, so a concurrent unlock of the
		// same achievement is harmless.
		if err := h.achievements.InsertMany(ctx, inserts); err != nil {
			return nil, fmt.Errorf("submit_activities: failed to save achievements: %w", err)
		}
	}

	return &SubmitActivitiesResult{
		Records:       records,
		Totals:        totals,
		Unlocked:      unlocked,
		StreakMessage: engagement.StreakMessage(totals.CurrentStreak),
	}, nil
}

func derefRecords(in []*engagement.ActivityRecord) []engagement.ActivityRecord {
	out := make([]engagement.ActivityRecord, 0, len(in))
	for _, r := range in {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func derefAchievements(in []*engagement.UserAchievement) []engagement.UserAchievement {
	out := make([]engagement.UserAchievement, 0, len(in))
	for _, a := range in {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

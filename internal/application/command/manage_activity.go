package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY ADMINISTRATION COMMANDS
// Admin corrections to already-logged records. Stored points are
// authoritative once a record exists: an edit overrides quantity and/or
// points directly and never re-derives points from the activity type, so
// records priced under an old unit value keep their value after a type
// change. Achievements already unlocked stay unlocked even if the
// correction drops the user back under a threshold.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateActivityCommand patches an existing record. Nil fields are left
// untouched.
type UpdateActivityCommand struct {
	RecordID string
	Quantity *int
	Points   *int
}

// Validate validates the command.
func (c UpdateActivityCommand) Validate() error {
	if c.RecordID == "" {
		return errors.New("update_activity: record_id is required")
	}
	if c.Quantity == nil && c.Points == nil {
		return errors.New("update_activity: nothing to update")
	}
	if c.Quantity != nil && *c.Quantity <= 0 {
		return engagement.ErrInvalidQuantity
	}
	if c.Points != nil && *c.Points < 0 {
		return engagement.ErrNegativePoints
	}
	return nil
}

// DeleteActivityCommand removes a record entirely.
type DeleteActivityCommand struct {
	RecordID string
}

// Validate validates the command.
func (c DeleteActivityCommand) Validate() error {
	if c.RecordID == "" {
		return errors.New("delete_activity: record_id is required")
	}
	return nil
}

// ManageActivityHandler handles admin corrections to activity records.
type ManageActivityHandler struct {
	activities engagement.ActivityStore
	stats      *engagement.StatsCalculator
}

// NewManageActivityHandler creates a new ManageActivityHandler.
func NewManageActivityHandler(
	activities engagement.ActivityStore,
	stats *engagement.StatsCalculator,
) *ManageActivityHandler {
	return &ManageActivityHandler{
		activities: activities,
		stats:      stats,
	}
}

// HandleUpdate applies the patch to the stored record and returns the
// owner's recomputed totals.
func (h *ManageActivityHandler) HandleUpdate(ctx context.Context, cmd UpdateActivityCommand) (*engagement.ActivityRecord, engagement.Totals, error) {
	if err := cmd.Validate(); err != nil {
		return nil, engagement.Totals{}, fmt.Errorf("update_activity: validation failed: %w", err)
	}

	rec, err := h.activities.Get(ctx, cmd.RecordID)
	if err != nil {
		return nil, engagement.Totals{}, fmt.Errorf("update_activity: failed to get record: %w", err)
	}

	if cmd.Quantity != nil {
		rec.Quantity = *cmd.Quantity
	}
	if cmd.Points != nil {
		rec.Points = *cmd.Points
	}

	if err := h.activities.Update(ctx, rec); err != nil {
		return nil, engagement.Totals{}, fmt.Errorf("update_activity: failed to update record: %w", err)
	}

	totals, err := h.totalsFor(ctx, rec.UserID)
	if err != nil {
		return nil, engagement.Totals{}, err
	}
	return rec, totals, nil
}

// HandleDelete removes the record and returns the owner's recomputed
// totals.
func (h *ManageActivityHandler) HandleDelete(ctx context.Context, cmd DeleteActivityCommand) (engagement.Totals, error) {
	if err := cmd.Validate(); err != nil {
		return engagement.Totals{}, fmt.Errorf("delete_activity: validation failed: %w", err)
	}

	rec, err := h.activities.Get(ctx, cmd.RecordID)
	if err != nil {
		return engagement.Totals{}, fmt.Errorf("delete_activity: failed to get record: %w", err)
	}

	if err := h.activities.Delete(ctx, cmd.RecordID); err != nil {
		return engagement.Totals{}, fmt.Errorf("delete_activity: failed to delete record: %w", err)
	}

	return h.totalsFor(ctx, rec.UserID)
}

func (h *ManageActivityHandler) totalsFor(ctx context.Context, userID string) (engagement.Totals, error) {
	all, err := h.activities.GetByUser(ctx, userID)
	if err != nil {
		return engagement.Totals{}, fmt.Errorf("manage_activity: failed to load records: %w", err)
	}
	return h.stats.ComputeTotals(derefRecords(all)), nil
}

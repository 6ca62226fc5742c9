package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY TYPE ADMINISTRATION COMMANDS
// Custom types extend the seeded catalog. Changing a type's unit points
// only affects future submissions: existing records keep the points
// frozen on them.
// ══════════════════════════════════════════════════════════════════════════════

// CreateActivityTypeCommand adds a custom type to the catalog.
type CreateActivityTypeCommand struct {
	Name             string
	Points           int
	IsChecklistStyle bool
}

// Validate validates the command.
func (c CreateActivityTypeCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("create_activity_type: name is required")
	}
	if c.Points < 0 {
		return engagement.ErrNegativePoints
	}
	return nil
}

// UpdateActivityTypeCommand changes a type's name or unit points.
type UpdateActivityTypeCommand struct {
	TypeID string
	Name   string
	Points int
}

// Validate validates the command.
func (c UpdateActivityTypeCommand) Validate() error {
	if c.TypeID == "" {
		return errors.New("update_activity_type: type_id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("update_activity_type: name is required")
	}
	if c.Points < 0 {
		return engagement.ErrNegativePoints
	}
	return nil
}

// ManageTypesHandler handles activity type administration.
type ManageTypesHandler struct {
	types engagement.TypeStore
}

// NewManageTypesHandler creates a new ManageTypesHandler.
func NewManageTypesHandler(types engagement.TypeStore) *ManageTypesHandler {
	return &ManageTypesHandler{types: types}
}

// HandleCreate adds a custom activity type.
func (h *ManageTypesHandler) HandleCreate(ctx context.Context, cmd CreateActivityTypeCommand) (*engagement.ActivityType, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_activity_type: validation failed: %w", err)
	}

	at := &engagement.ActivityType{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(cmd.Name),
		Points:           cmd.Points,
		IsChecklistStyle: cmd.IsChecklistStyle,
		IsCustom:         true,
		CreatedAt:        time.Now().UTC(),
	}
	if err := h.types.Save(ctx, at); err != nil {
		return nil, fmt.Errorf("create_activity_type: failed to save: %w", err)
	}
	return at, nil
}

// HandleUpdate renames or reprices a type. Only future submissions see
// the new unit points.
func (h *ManageTypesHandler) HandleUpdate(ctx context.Context, cmd UpdateActivityTypeCommand) (*engagement.ActivityType, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_activity_type: validation failed: %w", err)
	}

	at, err := h.types.Get(ctx, cmd.TypeID)
	if err != nil {
		return nil, fmt.Errorf("update_activity_type: failed to get type: %w", err)
	}

	at.Name = strings.TrimSpace(cmd.Name)
	at.Points = cmd.Points
	if err := h.types.Save(ctx, at); err != nil {
		return nil, fmt.Errorf("update_activity_type: failed to save: %w", err)
	}
	return at, nil
}

// HandleDelete removes a custom type and, via the storage layer's FK
// cascade, every activity logged against it. Seeded defaults are
// protected by the storage layer.
func (h *ManageTypesHandler) HandleDelete(ctx context.Context, typeID string) error {
	if typeID == "" {
		return errors.New("delete_activity_type: type_id is required")
	}
	if err := h.types.Delete(ctx, typeID); err != nil {
		return fmt.Errorf("delete_activity_type: %w", err)
	}
	return nil
}

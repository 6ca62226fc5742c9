package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER ADMINISTRATION COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// CreateUserCommand registers a new user, optionally on a team.
type CreateUserCommand struct {
	Name   string
	TeamID string
}

// CreateTeamCommand registers a new team.
type CreateTeamCommand struct {
	Name  string
	Color string
}

// ManageRosterHandler handles user and team administration.
type ManageRosterHandler struct {
	roster roster.Repository
}

// NewManageRosterHandler creates a new ManageRosterHandler.
func NewManageRosterHandler(rosterRepo roster.Repository) *ManageRosterHandler {
	return &ManageRosterHandler{roster: rosterRepo}
}

// HandleCreateUser creates a user. A non-empty TeamID must reference an
// existing team.
func (h *ManageRosterHandler) HandleCreateUser(ctx context.Context, cmd CreateUserCommand) (*roster.User, error) {
	if cmd.TeamID != "" {
		if _, err := h.roster.GetTeam(ctx, cmd.TeamID); err != nil {
			return nil, fmt.Errorf("create_user: failed to get team: %w", err)
		}
	}

	user, err := roster.NewUser(uuid.NewString(), cmd.Name, cmd.TeamID)
	if err != nil {
		return nil, fmt.Errorf("create_user: %w", err)
	}

	if err := h.roster.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create_user: failed to save user: %w", err)
	}
	return user, nil
}

// HandleAssignTeam moves a user to a team, or removes them from their
// team when teamID is empty.
func (h *ManageRosterHandler) HandleAssignTeam(ctx context.Context, userID, teamID string) (*roster.User, error) {
	user, err := h.roster.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("assign_team: failed to get user: %w", err)
	}
	if teamID != "" {
		if _, err := h.roster.GetTeam(ctx, teamID); err != nil {
			return nil, fmt.Errorf("assign_team: failed to get team: %w", err)
		}
	}

	user.TeamID = teamID
	if err := h.roster.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("assign_team: failed to save user: %w", err)
	}
	return user, nil
}

// HandleDeleteUser removes a user. Their records and achievements are
// removed with them by the storage layer's cascading constraints.
func (h *ManageRosterHandler) HandleDeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("delete_user: user_id is required")
	}
	if err := h.roster.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete_user: %w", err)
	}
	return nil
}

// HandleCreateTeam creates a team.
func (h *ManageRosterHandler) HandleCreateTeam(ctx context.Context, cmd CreateTeamCommand) (*roster.Team, error) {
	team, err := roster.NewTeam(uuid.NewString(), cmd.Name, cmd.Color)
	if err != nil {
		return nil, fmt.Errorf("create_team: %w", err)
	}
	if err := h.roster.SaveTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("create_team: failed to save team: %w", err)
	}
	return team, nil
}

// HandleDeleteTeam removes a team. Members stay on the roster without a
// team.
func (h *ManageRosterHandler) HandleDeleteTeam(ctx context.Context, teamID string) error {
	if teamID == "" {
		return errors.New("delete_team: team_id is required")
	}
	if err := h.roster.DeleteTeam(ctx, teamID); err != nil {
		return fmt.Errorf("delete_team: %w", err)
	}
	return nil
}

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

func TestManageRosterHandler_HandleCreateUser(t *testing.T) {
	people := newFakeRoster()
	h := NewManageRosterHandler(people)

	user, err := h.HandleCreateUser(context.Background(), CreateUserCommand{
		Name:   "  Ana  ",
		TeamID: "1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "1", user.TeamID)

	stored, err := people.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", stored.Name)
}

func TestManageRosterHandler_HandleCreateUser_TeamlessAllowed(t *testing.T) {
	h := NewManageRosterHandler(newFakeRoster())

	user, err := h.HandleCreateUser(context.Background(), CreateUserCommand{Name: "Luis"})
	require.NoError(t, err)
	assert.Empty(t, user.TeamID)
}

func TestManageRosterHandler_HandleCreateUser_UnknownTeam(t *testing.T) {
	h := NewManageRosterHandler(newFakeRoster())

	_, err := h.HandleCreateUser(context.Background(), CreateUserCommand{
		Name:   "Ana",
		TeamID: "no-such-team",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, roster.ErrTeamNotFound)
}

func TestManageRosterHandler_HandleCreateUser_EmptyName(t *testing.T) {
	h := NewManageRosterHandler(newFakeRoster())

	_, err := h.HandleCreateUser(context.Background(), CreateUserCommand{Name: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, roster.ErrEmptyName)
}

func TestManageRosterHandler_HandleAssignTeam(t *testing.T) {
	people := newFakeRoster(&roster.User{ID: "u1", Name: "Ana", TeamID: "1"})
	h := NewManageRosterHandler(people)

	user, err := h.HandleAssignTeam(context.Background(), "u1", "2")
	require.NoError(t, err)
	assert.Equal(t, "2", user.TeamID)

	// Empty team ID removes the assignment.
	user, err = h.HandleAssignTeam(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Empty(t, user.TeamID)
}

func TestManageRosterHandler_HandleAssignTeam_UnknownTeam(t *testing.T) {
	people := newFakeRoster(&roster.User{ID: "u1", Name: "Ana"})
	h := NewManageRosterHandler(people)

	_, err := h.HandleAssignTeam(context.Background(), "u1", "no-such-team")
	require.Error(t, err)
	assert.ErrorIs(t, err, roster.ErrTeamNotFound)

	// Assignment unchanged on failure.
	stored, err := people.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, stored.TeamID)
}

func TestManageRosterHandler_HandleDeleteUser(t *testing.T) {
	people := newFakeRoster(&roster.User{ID: "u1", Name: "Ana"})
	h := NewManageRosterHandler(people)

	require.NoError(t, h.HandleDeleteUser(context.Background(), "u1"))

	_, err := people.GetUser(context.Background(), "u1")
	assert.ErrorIs(t, err, roster.ErrUserNotFound)

	assert.Error(t, h.HandleDeleteUser(context.Background(), ""))
	assert.ErrorIs(t, h.HandleDeleteUser(context.Background(), "u1"), roster.ErrUserNotFound)
}

func TestManageRosterHandler_HandleCreateTeam(t *testing.T) {
	people := newFakeRoster()
	h := NewManageRosterHandler(people)

	team, err := h.HandleCreateTeam(context.Background(), CreateTeamCommand{
		Name:  "Equipo Morado",
		Color: "#a855f7",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, team.ID)
	assert.Equal(t, "Equipo Morado", team.Name)

	_, err = h.HandleCreateTeam(context.Background(), CreateTeamCommand{Name: ""})
	assert.ErrorIs(t, err, roster.ErrEmptyName)
}

func TestManageRosterHandler_HandleDeleteTeam_MembersKept(t *testing.T) {
	people := newFakeRoster(&roster.User{ID: "u1", Name: "Ana", TeamID: "1"})
	h := NewManageRosterHandler(people)

	require.NoError(t, h.HandleDeleteTeam(context.Background(), "1"))

	// The member survives, now teamless.
	stored, err := people.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, stored.TeamID)

	assert.Error(t, h.HandleDeleteTeam(context.Background(), ""))
}

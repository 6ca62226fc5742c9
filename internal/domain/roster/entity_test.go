package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("u1", "  María García  ", "2")
	require.NoError(t, err)

	assert.Equal(t, "María García", u.Name)
	assert.Equal(t, "2", u.TeamID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestNewUser_EmptyName(t *testing.T) {
	_, err := NewUser("u1", "   ", "")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestNewUser_TeamlessAllowed(t *testing.T) {
	u, err := NewUser("u1", "Juan", "")
	require.NoError(t, err)
	assert.Empty(t, u.TeamID)
}

func TestNewTeam(t *testing.T) {
	team, err := NewTeam("5", "Equipo Morado", "#a855f7")
	require.NoError(t, err)

	assert.Equal(t, "Equipo Morado", team.Name)
	assert.Equal(t, "#a855f7", team.Color)
}

func TestDefaultTeams(t *testing.T) {
	teams := DefaultTeams()
	require.Len(t, teams, 4)

	names := make([]string, 0, len(teams))
	for _, team := range teams {
		names = append(names, team.Name)
		assert.NotEmpty(t, team.Color)
	}
	assert.Equal(t, []string{"Equipo Rojo", "Equipo Azul", "Equipo Verde", "Equipo Amarillo"}, names)
}

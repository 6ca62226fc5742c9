// Package roster contains domain entities for the people side of the
// system: users and the teams they compete on.
package roster

import (
	"errors"
	"strings"
	"time"
)

// Domain errors for roster operations.
var (
	ErrUserNotFound  = errors.New("roster: user not found")
	ErrTeamNotFound  = errors.New("roster: team not found")
	ErrEmptyName     = errors.New("roster: name cannot be empty")
	ErrDuplicateName = errors.New("roster: name already taken")
)

// Team groups users for team-level aggregation and leaderboards.
type Team struct {
	ID        string
	Name      string
	Color     string
	CreatedAt time.Time
}

// User is a roster member. TeamID may be empty for users not yet
// assigned to a team; their records still count toward personal totals.
type User struct {
	ID        string
	Name      string
	TeamID    string
	CreatedAt time.Time
}

// NewUser validates and builds a user. The caller supplies the ID.
func NewUser(id, name, teamID string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &User{
		ID:        id,
		Name:      name,
		TeamID:    teamID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewTeam validates and builds a team.
func NewTeam(id, name, color string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Team{
		ID:        id,
		Name:      name,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DefaultTeams returns the four teams seeded on first run.
func DefaultTeams() []Team {
	return []Team{
		{ID: "1", Name: "Equipo Rojo", Color: "#ef4444"},
		{ID: "2", Name: "Equipo Azul", Color: "#3b82f6"},
		{ID: "3", Name: "Equipo Verde", Color: "#22c55e"},
		{ID: "4", Name: "Equipo Amarillo", Color: "#eab308"},
	}
}

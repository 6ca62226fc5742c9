package roster

import "context"

// Repository defines the interface for roster persistence.
// Implemented by the infrastructure layer.
type Repository interface {
	// User operations

	// SaveUser persists a user (create or update).
	SaveUser(ctx context.Context, user *User) error

	// GetUser returns a user by ID. Returns ErrUserNotFound when absent.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUsers returns all users ordered by name.
	GetUsers(ctx context.Context) ([]*User, error)

	// GetUsersByTeam returns all users on a team, ordered by name.
	GetUsersByTeam(ctx context.Context, teamID string) ([]*User, error)

	// DeleteUser removes a user and, via cascading storage constraints,
	// their activity records and achievements.
	DeleteUser(ctx context.Context, id string) error

	// Team operations

	// SaveTeam persists a team (create or update).
	SaveTeam(ctx context.Context, team *Team) error

	// GetTeam returns a team by ID. Returns ErrTeamNotFound when absent.
	GetTeam(ctx context.Context, id string) (*Team, error)

	// GetTeams returns all teams ordered by name.
	GetTeams(ctx context.Context) ([]*Team, error)

	// DeleteTeam removes a team. Members are left teamless, not deleted.
	DeleteTeam(ctx context.Context, id string) error

	// SeedDefaults inserts the default teams if missing. Idempotent.
	SeedDefaults(ctx context.Context) error
}

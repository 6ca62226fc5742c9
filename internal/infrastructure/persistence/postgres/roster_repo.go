package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RosterRepository implements roster.Repository for PostgreSQL.
type RosterRepository struct {
	conn *Connection
}

// NewRosterRepository creates a new RosterRepository.
func NewRosterRepository(conn *Connection) *RosterRepository {
	return &RosterRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────────────────

// SaveUser persists a user (create or update).
func (r *RosterRepository) SaveUser(ctx context.Context, u *roster.User) error {
	query := `
		INSERT INTO app_users (id, name, team_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			team_id = EXCLUDED.team_id
	`

	_, err := r.conn.Exec(ctx, query, u.ID, u.Name, nullableString(u.TeamID), u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (r *RosterRepository) GetUser(ctx context.Context, id string) (*roster.User, error) {
	query := `SELECT id, name, team_id, created_at FROM app_users WHERE id = $1`

	u, err := r.scanUser(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, roster.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUsers returns all users ordered by name.
func (r *RosterRepository) GetUsers(ctx context.Context) ([]*roster.User, error) {
	query := `SELECT id, name, team_id, created_at FROM app_users ORDER BY name`
	return r.queryUsers(ctx, query)
}

// GetUsersByTeam returns all users on a team, ordered by name.
func (r *RosterRepository) GetUsersByTeam(ctx context.Context, teamID string) ([]*roster.User, error) {
	query := `SELECT id, name, team_id, created_at FROM app_users WHERE team_id = $1 ORDER BY name`
	return r.queryUsers(ctx, query, teamID)
}

// DeleteUser removes a user; activities and achievements cascade.
func (r *RosterRepository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM app_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return roster.ErrUserNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Teams
// ─────────────────────────────────────────────────────────────────────────────

// SaveTeam persists a team (create or update).
func (r *RosterRepository) SaveTeam(ctx context.Context, t *roster.Team) error {
	query := `
		INSERT INTO teams (id, name, color, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			color = EXCLUDED.color
	`

	_, err := r.conn.Exec(ctx, query, t.ID, t.Name, t.Color, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save team: %w", err)
	}
	return nil
}

// GetTeam returns a team by ID.
func (r *RosterRepository) GetTeam(ctx context.Context, id string) (*roster.Team, error) {
	query := `SELECT id, name, color, created_at FROM teams WHERE id = $1`

	var t roster.Team
	err := r.conn.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, roster.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

// GetTeams returns all teams ordered by name.
func (r *RosterRepository) GetTeams(ctx context.Context) ([]*roster.Team, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, name, color, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []*roster.Team
	for rows.Next() {
		var t roster.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

// DeleteTeam removes a team. The FK leaves members teamless.
func (r *RosterRepository) DeleteTeam(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return roster.ErrTeamNotFound
	}
	return nil
}

// SeedDefaults inserts the default teams if missing.
func (r *RosterRepository) SeedDefaults(ctx context.Context) error {
	query := `
		INSERT INTO teams (id, name, color)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`

	for _, t := range roster.DefaultTeams() {
		if _, err := r.conn.Exec(ctx, query, t.ID, t.Name, t.Color); err != nil {
			return fmt.Errorf("failed to seed team %s: %w", t.ID, err)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *RosterRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*roster.User, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*roster.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *RosterRepository) scanUser(row pgx.Row) (*roster.User, error) {
	var u roster.User
	var teamID *string

	if err := row.Scan(&u.ID, &u.Name, &teamID, &u.CreatedAt); err != nil {
		return nil, err
	}
	if teamID != nil {
		u.TeamID = *teamID
	}
	return &u, nil
}

// nullableString maps the empty string to SQL NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

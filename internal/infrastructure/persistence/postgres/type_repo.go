package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY TYPE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ErrDefaultTypeProtected is returned when deleting a seeded type.
var ErrDefaultTypeProtected = errors.New("postgres: default activity types cannot be deleted")

// TypeRepository implements engagement.TypeStore for PostgreSQL.
type TypeRepository struct {
	conn *Connection
}

// NewTypeRepository creates a new TypeRepository.
func NewTypeRepository(conn *Connection) *TypeRepository {
	return &TypeRepository{conn: conn}
}

const typeColumns = `id, name, points, is_checklist_style, is_custom, created_at`

// Get returns a type by ID.
func (r *TypeRepository) Get(ctx context.Context, id string) (*engagement.ActivityType, error) {
	query := `SELECT ` + typeColumns + ` FROM activity_types WHERE id = $1`

	at, err := r.scanType(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, engagement.ErrUnknownActivityType
		}
		return nil, fmt.Errorf("failed to get activity type: %w", err)
	}
	return at, nil
}

// GetAll returns the full catalog, seeded defaults first.
func (r *TypeRepository) GetAll(ctx context.Context) ([]*engagement.ActivityType, error) {
	query := `SELECT ` + typeColumns + ` FROM activity_types ORDER BY is_custom, created_at`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity types: %w", err)
	}
	defer rows.Close()

	var types []*engagement.ActivityType
	for rows.Next() {
		at, err := r.scanType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity type: %w", err)
		}
		types = append(types, at)
	}
	return types, rows.Err()
}

// Save persists a type (create or update).
func (r *TypeRepository) Save(ctx context.Context, at *engagement.ActivityType) error {
	query := `
		INSERT INTO activity_types (id, name, points, is_checklist_style, is_custom, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			points = EXCLUDED.points
	`

	_, err := r.conn.Exec(ctx, query,
		at.ID,
		at.Name,
		at.Points,
		at.IsChecklistStyle,
		at.IsCustom,
		at.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity type: %w", err)
	}
	return nil
}

// Delete removes a custom type. Seeded defaults are protected. The
// activities FK cascades, so the type's logged records go with it.
func (r *TypeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM activity_types WHERE id = $1 AND is_custom`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish "absent" from "protected default".
		if _, getErr := r.Get(ctx, id); getErr == nil {
			return ErrDefaultTypeProtected
		}
		return engagement.ErrUnknownActivityType
	}
	return nil
}

// SeedDefaults inserts the default catalog if missing. Existing rows
// are left untouched so admin price edits survive restarts.
func (r *TypeRepository) SeedDefaults(ctx context.Context) error {
	query := `
		INSERT INTO activity_types (id, name, points, is_checklist_style, is_custom)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (id) DO NOTHING
	`

	for _, at := range engagement.DefaultActivityTypes() {
		if _, err := r.conn.Exec(ctx, query, at.ID, at.Name, at.Points, at.IsChecklistStyle); err != nil {
			return fmt.Errorf("failed to seed activity type %s: %w", at.ID, err)
		}
	}
	return nil
}

func (r *TypeRepository) scanType(row pgx.Row) (*engagement.ActivityType, error) {
	var at engagement.ActivityType
	if err := row.Scan(
		&at.ID,
		&at.Name,
		&at.Points,
		&at.IsChecklistStyle,
		&at.IsCustom,
		&at.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &at, nil
}

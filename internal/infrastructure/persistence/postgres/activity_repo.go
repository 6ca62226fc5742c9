package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRepository implements engagement.ActivityStore for PostgreSQL.
// A zero record date maps to SQL NULL and back.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

const activityColumns = `id, user_id, activity_type_id, quantity, points, date`

// Save persists an activity record (create or update).
func (r *ActivityRepository) Save(ctx context.Context, rec *engagement.ActivityRecord) error {
	query := `
		INSERT INTO activities (id, user_id, activity_type_id, quantity, points, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			points = EXCLUDED.points,
			date = EXCLUDED.date
	`

	_, err := r.conn.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.ActivityTypeID,
		rec.Quantity,
		rec.Points,
		nullableTime(rec.Date),
	)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

// SaveBatch persists several records in one transaction.
func (r *ActivityRepository) SaveBatch(ctx context.Context, records []*engagement.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO activities (id, user_id, activity_type_id, quantity, points, date)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		for _, rec := range records {
			if _, err := tx.Exec(ctx, query,
				rec.ID,
				rec.UserID,
				rec.ActivityTypeID,
				rec.Quantity,
				rec.Points,
				nullableTime(rec.Date),
			); err != nil {
				return fmt.Errorf("failed to save activity %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// Get returns a record by ID.
func (r *ActivityRepository) Get(ctx context.Context, id string) (*engagement.ActivityRecord, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	rec, err := r.scanActivity(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, engagement.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return rec, nil
}

// GetByUser returns all records for a user, newest first. Records
// without a date sort last.
func (r *ActivityRepository) GetByUser(ctx context.Context, userID string) ([]*engagement.ActivityRecord, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE user_id = $1
		ORDER BY date DESC NULLS LAST
	`
	return r.queryActivities(ctx, query, userID)
}

// GetByUserSince returns a user's records dated at or after the given
// instant. NULL dates never match.
func (r *ActivityRepository) GetByUserSince(ctx context.Context, userID string, since time.Time) ([]*engagement.ActivityRecord, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE user_id = $1 AND date >= $2
		ORDER BY date DESC
	`
	return r.queryActivities(ctx, query, userID, since)
}

// GetAll returns every record, newest first.
func (r *ActivityRepository) GetAll(ctx context.Context) ([]*engagement.ActivityRecord, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		ORDER BY date DESC NULLS LAST
	`
	return r.queryActivities(ctx, query)
}

// GetAllSince returns all records dated at or after the given instant.
func (r *ActivityRepository) GetAllSince(ctx context.Context, since time.Time) ([]*engagement.ActivityRecord, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE date >= $1
		ORDER BY date DESC
	`
	return r.queryActivities(ctx, query, since)
}

// Update rewrites the mutable fields of an existing record.
func (r *ActivityRepository) Update(ctx context.Context, rec *engagement.ActivityRecord) error {
	query := `
		UPDATE activities SET
			quantity = $1,
			points = $2,
			date = $3
		WHERE id = $4
	`

	tag, err := r.conn.Exec(ctx, query, rec.Quantity, rec.Points, nullableTime(rec.Date), rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engagement.ErrRecordNotFound
	}
	return nil
}

// Delete removes a record.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engagement.ErrRecordNotFound
	}
	return nil
}

// ListUserIDs returns the distinct user IDs with at least one record.
func (r *ActivityRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, `SELECT DISTINCT user_id FROM activities ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ActivityRepository) queryActivities(ctx context.Context, query string, args ...interface{}) ([]*engagement.ActivityRecord, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var records []*engagement.ActivityRecord
	for rows.Next() {
		rec, err := r.scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *ActivityRepository) scanActivity(row pgx.Row) (*engagement.ActivityRecord, error) {
	var rec engagement.ActivityRecord
	var date *time.Time

	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ActivityTypeID,
		&rec.Quantity,
		&rec.Points,
		&date,
	); err != nil {
		return nil, err
	}

	if date != nil {
		rec.Date = date.UTC()
	}
	return &rec, nil
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

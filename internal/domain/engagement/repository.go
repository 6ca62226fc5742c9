package engagement

import (
	"context"
	"time"
)

// ActivityStore defines the interface for activity record persistence.
// This interface is implemented by the infrastructure layer; the domain
// layer has no knowledge of the actual storage mechanism.
type ActivityStore interface {
	// Save persists an activity record (create or update).
	Save(ctx context.Context, record *ActivityRecord) error

	// SaveBatch persists several records in one transaction.
	SaveBatch(ctx context.Context, records []*ActivityRecord) error

	// Get returns a record by ID. Returns ErrRecordNotFound when absent.
	Get(ctx context.Context, id string) (*ActivityRecord, error)

	// GetByUser returns all records for a user, newest first.
	GetByUser(ctx context.Context, userID string) ([]*ActivityRecord, error)

	// GetByUserSince returns a user's records dated at or after the given
	// instant. Records with a zero date are never included.
	GetByUserSince(ctx context.Context, userID string, since time.Time) ([]*ActivityRecord, error)

	// GetAll returns every record, newest first. Used by exports and
	// team-wide aggregation.
	GetAll(ctx context.Context) ([]*ActivityRecord, error)

	// GetAllSince returns all records dated at or after the given instant.
	GetAllSince(ctx context.Context, since time.Time) ([]*ActivityRecord, error)

	// Update rewrites the mutable fields of an existing record
	// (quantity and points). Returns ErrRecordNotFound when absent.
	Update(ctx context.Context, record *ActivityRecord) error

	// Delete removes a record. Returns ErrRecordNotFound when absent.
	Delete(ctx context.Context, id string) error

	// ListUserIDs returns the distinct user IDs that have at least one
	// record. Used by bulk re-evaluation.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// AchievementStore persists unlocked achievements. The backing storage
// enforces uniqueness on (user, achievement); inserting an unlock the
// user already owns is a silent no-op, never an error.
type AchievementStore interface {
	// Insert records a single unlock. Duplicate unlocks are ignored.
	Insert(ctx context.Context, ua *UserAchievement) error

	// InsertMany records several unlocks, ignoring duplicates. An empty
	// slice is a no-op.
	InsertMany(ctx context.Context, uas []*UserAchievement) error

	// GetByUser returns all unlocks owned by a user.
	GetByUser(ctx context.Context, userID string) ([]*UserAchievement, error)

	// GetAll returns every unlock across all users.
	GetAll(ctx context.Context) ([]*UserAchievement, error)
}

// TypeStore persists the activity type catalog.
type TypeStore interface {
	// Get returns a type by ID. Returns ErrUnknownActivityType when absent.
	Get(ctx context.Context, id string) (*ActivityType, error)

	// GetAll returns the full catalog, seeded defaults first.
	GetAll(ctx context.Context) ([]*ActivityType, error)

	// Save persists a custom type (create or update).
	Save(ctx context.Context, t *ActivityType) error

	// Delete removes a custom type together with its logged activities.
	// Seeded defaults cannot be deleted.
	Delete(ctx context.Context, id string) error

	// SeedDefaults inserts the default catalog if missing. Idempotent.
	SeedDefaults(ctx context.Context) error
}

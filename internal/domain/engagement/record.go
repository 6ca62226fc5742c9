// Package engagement contains the activity aggregation and achievement
// engine for the Prodigal Engagement Hub. This is a pure domain layer
// with zero knowledge of the storage backend: everything here is a
// function of activity records already loaded by a collaborator.
package engagement

import (
	"errors"
	"time"
)

// Domain errors for the engagement package.
var (
	ErrInvalidUserID       = errors.New("engagement: invalid user ID")
	ErrInvalidActivityType = errors.New("engagement: invalid activity type ID")
	ErrInvalidQuantity     = errors.New("engagement: quantity out of range")
	ErrNegativePoints      = errors.New("engagement: points must be non-negative")
	ErrUnknownActivityType = errors.New("engagement: unknown activity type")
	ErrRecordNotFound      = errors.New("engagement: activity record not found")
)

// MaxQuantity is the upper bound for quantity-style activities.
// Checklist-style activities are capped at 1 (done or not done).
const MaxQuantity = 100

// ActivityType describes a loggable action and its per-unit point value.
// The default table is seeded at startup; admins may add custom types.
type ActivityType struct {
	// ID - opaque identifier of the type.
	ID string

	// Name - display name (the default table keeps the original Spanish names).
	Name string

	// Points - per-unit point value.
	Points int

	// IsChecklistStyle - true for done/not-done activities whose quantity
	// is binary, false for quantity-style activities counted 1..100.
	IsChecklistStyle bool

	// IsCustom - true for admin-created types, false for the seeded defaults.
	IsCustom bool

	// CreatedAt - when the type was created.
	CreatedAt time.Time
}

// ValidateQuantity checks a submitted quantity against the type's style.
func (t ActivityType) ValidateQuantity(quantity int) error {
	if t.IsChecklistStyle {
		if quantity != 0 && quantity != 1 {
			return ErrInvalidQuantity
		}
		return nil
	}
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// PointsFor returns the denormalized point total for a quantity.
// The result is stored on the record at submission time and is never
// recomputed afterwards, even if the type's price changes.
func (t ActivityType) PointsFor(quantity int) int {
	return t.Points * quantity
}

// ActivityRecord is one logged action. Points are immutable evidence:
// an admin edit may override Quantity and Points directly, but totals
// are always re-derived from the stored Points values.
type ActivityRecord struct {
	// ID - unique identifier of the record.
	ID string

	// UserID - owner of the record.
	UserID string

	// ActivityTypeID - reference to the ActivityType that priced it.
	ActivityTypeID string

	// Quantity - units logged (1 for completed checklist items).
	Quantity int

	// Points - unit points x quantity, frozen at submission time.
	Points int

	// Date - calendar timestamp; only the UTC civil date matters for
	// streaks. The zero value means missing/unparseable and is tolerated:
	// such records still count toward totals but not toward streaks.
	Date time.Time
}

// NewActivityRecord builds a validated record priced by the given type.
func NewActivityRecord(id, userID string, t ActivityType, quantity int, date time.Time) (*ActivityRecord, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if t.ID == "" {
		return nil, ErrInvalidActivityType
	}
	if err := t.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	return &ActivityRecord{
		ID:             id,
		UserID:         userID,
		ActivityTypeID: t.ID,
		Quantity:       quantity,
		Points:         t.PointsFor(quantity),
		Date:           date,
	}, nil
}

// HasDate reports whether the record carries a usable date.
func (r ActivityRecord) HasDate() bool {
	return !r.Date.IsZero()
}

// UserAchievement is a permanent unlock record. At most one exists per
// (UserID, AchievementID) pair; the persistence layer enforces this with
// a uniqueness constraint and unlocks are never revoked.
type UserAchievement struct {
	ID            string
	UserID        string
	AchievementID string
	EarnedAt      time.Time
}

// DefaultActivityTypes returns the seeded activity type table from the
// original deployment. IDs are stable strings so existing records keep
// referencing the same types across re-seeds.
func DefaultActivityTypes() []ActivityType {
	return []ActivityType{
		// Quantity-style activities (counted with +/- controls).
		{ID: "1", Name: "Simple", Points: 1},
		{ID: "2", Name: "Significativo", Points: 20},
		{ID: "3", Name: "Invitados", Points: 100},
		{ID: "4", Name: "Bautismo", Points: 1000},
		{ID: "5", Name: "Culto", Points: 1500},
		{ID: "6", Name: "Apacienta", Points: 5},
		{ID: "7", Name: "Estudio", Points: 10},
		{ID: "8", Name: "Video", Points: 10},
		{ID: "9", Name: "Libro Padre", Points: 10},
		{ID: "10", Name: "Libro Pastor", Points: 10},
		{ID: "11", Name: "Firma", Points: 10},
		{ID: "12", Name: "Firma Ag", Points: 75},
		{ID: "13", Name: "Edu LMS", Points: 200},
		// Checklist-style activities (simple completion).
		{ID: "14", Name: "Mi Página", Points: 25, IsChecklistStyle: true},
		{ID: "15", Name: "Oración", Points: 25, IsChecklistStyle: true},
		{ID: "16", Name: "Offline Edu", Points: 50, IsChecklistStyle: true},
		{ID: "17", Name: "Día Preparar", Points: 50, IsChecklistStyle: true},
		{ID: "18", Name: "Carta Madre", Points: 10, IsChecklistStyle: true},
		{ID: "19", Name: "Misión Online", Points: 20, IsChecklistStyle: true},
	}
}

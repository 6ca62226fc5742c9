package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// The uq_user_achievement constraint makes unlocks first-writer-wins:
// duplicate inserts are swallowed with ON CONFLICT DO NOTHING, so
// concurrent submissions and backfill runs never error on each other.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements engagement.AchievementStore for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

const insertAchievementSQL = `
	INSERT INTO user_achievements (id, user_id, achievement_id, earned_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, achievement_id) DO NOTHING
`

// Insert records a single unlock. Duplicate unlocks are ignored.
func (r *AchievementRepository) Insert(ctx context.Context, ua *engagement.UserAchievement) error {
	_, err := r.conn.Exec(ctx, insertAchievementSQL, ua.ID, ua.UserID, ua.AchievementID, ua.EarnedAt)
	if err != nil {
		return fmt.Errorf("failed to insert achievement: %w", err)
	}
	return nil
}

// InsertMany records several unlocks in one transaction, ignoring
// duplicates. An empty slice is a no-op.
func (r *AchievementRepository) InsertMany(ctx context.Context, uas []*engagement.UserAchievement) error {
	if len(uas) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, ua := range uas {
			if _, err := tx.Exec(ctx, insertAchievementSQL, ua.ID, ua.UserID, ua.AchievementID, ua.EarnedAt); err != nil {
				return fmt.Errorf("failed to insert achievement %s: %w", ua.AchievementID, err)
			}
		}
		return nil
	})
}

// GetByUser returns all unlocks owned by a user, oldest first.
func (r *AchievementRepository) GetByUser(ctx context.Context, userID string) ([]*engagement.UserAchievement, error) {
	query := `
		SELECT id, user_id, achievement_id, earned_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY earned_at
	`
	return r.queryAchievements(ctx, query, userID)
}

// GetAll returns every unlock across all users.
func (r *AchievementRepository) GetAll(ctx context.Context) ([]*engagement.UserAchievement, error) {
	query := `
		SELECT id, user_id, achievement_id, earned_at
		FROM user_achievements
		ORDER BY earned_at
	`
	return r.queryAchievements(ctx, query)
}

func (r *AchievementRepository) queryAchievements(ctx context.Context, query string, args ...interface{}) ([]*engagement.UserAchievement, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var out []*engagement.UserAchievement
	for rows.Next() {
		var ua engagement.UserAchievement
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		out = append(out, &ua)
	}
	return out, rows.Err()
}

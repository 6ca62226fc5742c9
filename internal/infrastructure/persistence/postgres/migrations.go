// Package postgres implements the PostgreSQL persistence layer for the
// Prodigal Engagement Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ROSTER (TEAMS + USERS)
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create teams and app_users tables
-- Version: 001

CREATE TABLE IF NOT EXISTS teams (
    id TEXT PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    color VARCHAR(20) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS app_users (
    id TEXT PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    team_id TEXT REFERENCES teams(id) ON DELETE SET NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_app_users_team_id ON app_users(team_id);
CREATE INDEX IF NOT EXISTS idx_app_users_name ON app_users(name);
`

const migration001Down = `
DROP TABLE IF EXISTS app_users;
DROP TABLE IF EXISTS teams;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ACTIVITY TYPES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create activity_types catalog
-- Version: 002

CREATE TABLE IF NOT EXISTS activity_types (
    id TEXT PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    points INTEGER NOT NULL DEFAULT 0,
    is_checklist_style BOOLEAN NOT NULL DEFAULT FALSE,
    is_custom BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_points CHECK (points >= 0)
);
`

const migration002Down = `
DROP TABLE IF EXISTS activity_types;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE ACTIVITIES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create activities table
-- Version: 003

CREATE TABLE IF NOT EXISTS activities (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES app_users(id) ON DELETE CASCADE,
    -- Deleting a type takes its logged activities with it.
    activity_type_id TEXT NOT NULL REFERENCES activity_types(id) ON DELETE CASCADE,
    quantity INTEGER NOT NULL DEFAULT 1,
    points INTEGER NOT NULL DEFAULT 0,
    -- NULL date means "date unknown": counts toward totals, never streaks
    date TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_quantity CHECK (quantity >= 0),
    CONSTRAINT valid_record_points CHECK (points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_activities_user_id ON activities(user_id);
CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date DESC);
CREATE INDEX IF NOT EXISTS idx_activities_user_date ON activities(user_id, date DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS activities;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE USER ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create user_achievements table
-- Version: 004

CREATE TABLE IF NOT EXISTS user_achievements (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES app_users(id) ON DELETE CASCADE,
    achievement_id VARCHAR(100) NOT NULL,
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- An achievement unlocks at most once per user, ever. Inserts that
    -- collide here are treated as "already unlocked" no-ops.
    CONSTRAINT uq_user_achievement UNIQUE (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_user_achievements_user_id ON user_achievements(user_id);
`

const migration004Down = `
DROP TABLE IF EXISTS user_achievements;
`

package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles. Flags let operators turn off
// surfaces (exports, team leaderboards, the motivational copy) without
// a redeploy; defaults are overridden through FEATURE_* env variables.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	// === Leaderboard Features ===
	FeatureLeaderboardTeams = "leaderboard.teams" // Team-scoped leaderboard
	FeatureLeaderboardCache = "leaderboard.cache" // Redis-cached leaderboards

	// === Reporting Features ===
	FeatureReportCSVExport = "report.csv_export" // CSV export endpoint

	// === Engagement Features ===
	FeatureStreakMessages = "engagement.streak_messages" // Motivational streak copy
	FeatureBackfillWorker = "engagement.backfill_worker" // Scheduled re-evaluation
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features: make(map[string]*Feature),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	defaults := []Feature{
		{Name: FeatureLeaderboardTeams, Description: "Team-scoped leaderboard", Enabled: true},
		{Name: FeatureLeaderboardCache, Description: "Cache computed leaderboards in Redis", Enabled: true},
		{Name: FeatureReportCSVExport, Description: "CSV export endpoint", Enabled: true},
		{Name: FeatureStreakMessages, Description: "Motivational streak messages", Enabled: true},
		{Name: FeatureBackfillWorker, Description: "Scheduled achievement re-evaluation", Enabled: true},
	}

	for i := range defaults {
		f := defaults[i]
		ff.features[f.Name] = &f
	}
}

// loadFromEnvironment applies env overrides. A flag named
// "leaderboard.cache" is overridden by FEATURE_LEADERBOARD_CACHE.
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, f := range ff.features {
		envKey := "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}
		if enabled, err := strconv.ParseBool(val); err == nil {
			f.Enabled = enabled
		}
	}
}

// IsEnabled reports whether a feature is on. Unknown names are off.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[name]
	return ok && f.Enabled
}

// Set changes a flag at runtime.
func (ff *FeatureFlags) Set(name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if f, ok := ff.features[name]; ok {
		f.Enabled = enabled
	} else {
		ff.features[name] = &Feature{Name: name, Enabled: enabled}
	}
}

// All returns a snapshot of every flag.
func (ff *FeatureFlags) All() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		out = append(out, *f)
	}
	return out
}

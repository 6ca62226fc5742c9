package engagement

import (
	"fmt"
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT RULES
// Static, process-wide threshold definitions. The table is configuration
// data supplied at process start; it is not user-editable at runtime.
// ══════════════════════════════════════════════════════════════════════════════

// RuleKind selects which component of Totals a rule thresholds on.
type RuleKind string

const (
	// KindPoints - rule fires when TotalPoints reaches the threshold.
	KindPoints RuleKind = "points"

	// KindActivities - rule fires when TotalActivities reaches the threshold.
	KindActivities RuleKind = "activities"

	// KindStreak - rule fires when CurrentStreak reaches the threshold.
	KindStreak RuleKind = "streak"
)

// IsValid reports whether the kind is one the evaluator understands.
func (k RuleKind) IsValid() bool {
	switch k {
	case KindPoints, KindActivities, KindStreak:
		return true
	}
	return false
}

// AchievementRule is a single threshold definition. Name, Description and
// Icon are presentation metadata carried for notifications and badges;
// only ID, Kind and Threshold participate in evaluation.
type AchievementRule struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Kind        RuleKind
	Threshold   int
}

// RuleTable is the full set of rules for the process.
type RuleTable []AchievementRule

// Validate returns one error per malformed rule: unknown kind,
// non-positive threshold, duplicate or empty ID. A malformed rule is
// skipped during evaluation, so callers log these at startup rather
// than aborting.
func (t RuleTable) Validate() []error {
	var errs []error
	seen := make(map[string]bool, len(t))
	for _, r := range t {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("engagement: rule with empty ID"))
			continue
		}
		if seen[r.ID] {
			errs = append(errs, fmt.Errorf("engagement: duplicate rule ID %q", r.ID))
		}
		seen[r.ID] = true
		if !r.Kind.IsValid() {
			errs = append(errs, fmt.Errorf("engagement: rule %q has unknown kind %q", r.ID, r.Kind))
		}
		if r.Threshold <= 0 {
			errs = append(errs, fmt.Errorf("engagement: rule %q has non-positive threshold %d", r.ID, r.Threshold))
		}
	}
	return errs
}

// Get returns the rule with the given ID.
func (t RuleTable) Get(id string) (AchievementRule, bool) {
	for _, r := range t {
		if r.ID == id {
			return r, true
		}
	}
	return AchievementRule{}, false
}

// Sorted returns a copy of the table ordered ascending by rule ID.
// Evaluation iterates this order so notifications come out stable and
// reproducible when a batch satisfies several rules at once.
func (t RuleTable) Sorted() RuleTable {
	out := make(RuleTable, len(t))
	copy(out, t)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultRules returns the achievement table from the original deployment.
func DefaultRules() RuleTable {
	return RuleTable{
		{ID: "first_activity", Name: "Primer Paso", Description: "Registra tu primera actividad", Icon: "🎯", Kind: KindActivities, Threshold: 1},
		{ID: "points_100", Name: "Centenario", Description: "Alcanza 100 puntos", Icon: "💯", Kind: KindPoints, Threshold: 100},
		{ID: "points_500", Name: "Quinientos", Description: "Alcanza 500 puntos", Icon: "🏆", Kind: KindPoints, Threshold: 500},
		{ID: "points_1000", Name: "Milenario", Description: "Alcanza 1000 puntos", Icon: "👑", Kind: KindPoints, Threshold: 1000},
		{ID: "streak_3", Name: "Constante", Description: "Mantén una racha de 3 días", Icon: "🔥", Kind: KindStreak, Threshold: 3},
		{ID: "streak_7", Name: "Semanal", Description: "Mantén una racha de 7 días", Icon: "⚡", Kind: KindStreak, Threshold: 7},
		{ID: "streak_30", Name: "Mensual", Description: "Mantén una racha de 30 días", Icon: "🌟", Kind: KindStreak, Threshold: 30},
		{ID: "activities_10", Name: "Activo", Description: "Registra 10 actividades", Icon: "📈", Kind: KindActivities, Threshold: 10},
		{ID: "activities_50", Name: "Dedicado", Description: "Registra 50 actividades", Icon: "🎖️", Kind: KindActivities, Threshold: 50},
		{ID: "activities_100", Name: "Comprometido", Description: "Registra 100 actividades", Icon: "🏅", Kind: KindActivities, Threshold: 100},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// StreakMessage returns the motivational message for a streak length,
// reproducing the original message set.
func StreakMessage(streak int) string {
	switch {
	case streak >= 30:
		return "¡Imparable! 30 días de constancia 🌟"
	case streak >= 7:
		return "¡Increíble! Una semana completa ⚡"
	case streak >= 3:
		return "¡Genial! 3 días consecutivos 🔥"
	case streak == 1:
		return "¡Excelente! Comenzaste tu racha 🎯"
	default:
		return "¡Sigue así! Mantén el impulso 💪"
	}
}

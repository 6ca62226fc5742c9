package engagement

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT EVALUATOR
// Pure decision logic: given computed totals and the set of achievements
// a user already owns, decide which rules newly fire. Persistence of the
// unlocks is the caller's job.
// ══════════════════════════════════════════════════════════════════════════════

// Evaluator applies a RuleTable to computed totals.
type Evaluator struct {
	rules RuleTable
}

// NewEvaluator builds an evaluator over the given table. Malformed rules
// (unknown kind, non-positive threshold) stay in the table but never
// fire; callers are expected to surface Validate() errors at startup.
func NewEvaluator(rules RuleTable) *Evaluator {
	return &Evaluator{rules: rules.Sorted()}
}

// Rules returns the table in evaluation order.
func (e *Evaluator) Rules() RuleTable {
	return e.rules
}

// EvaluateNew returns the IDs of rules whose threshold the totals meet
// and which are not in the owned set, ordered ascending by rule ID.
// An achievement fires at most once per user ever: callers pass the
// owned set as of before the change being evaluated, and merge the
// result back into it before evaluating again.
func (e *Evaluator) EvaluateNew(totals Totals, owned map[string]bool) []string {
	var unlocked []string
	for _, r := range e.rules {
		if owned[r.ID] {
			continue
		}
		if r.Threshold <= 0 {
			continue
		}
		var value int
		switch r.Kind {
		case KindPoints:
			value = totals.TotalPoints
		case KindActivities:
			value = totals.TotalActivities
		case KindStreak:
			value = totals.CurrentStreak
		default:
			// Unknown kind: skip rather than fail the whole evaluation.
			continue
		}
		if value >= r.Threshold {
			unlocked = append(unlocked, r.ID)
		}
	}
	return unlocked
}

// OwnedSet converts a slice of persisted unlocks into the set form
// EvaluateNew consumes.
func OwnedSet(achievements []UserAchievement) map[string]bool {
	owned := make(map[string]bool, len(achievements))
	for _, a := range achievements {
		owned[a.AchievementID] = true
	}
	return owned
}

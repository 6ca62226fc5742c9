package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateNew_FiresAtThreshold(t *testing.T) {
	e := NewEvaluator(DefaultRules())

	unlocked := e.EvaluateNew(Totals{TotalPoints: 100, TotalActivities: 1}, nil)

	assert.Equal(t, []string{"first_activity", "points_100"}, unlocked)
}

func TestEvaluateNew_NothingBelowThreshold(t *testing.T) {
	e := NewEvaluator(DefaultRules())

	unlocked := e.EvaluateNew(Totals{TotalPoints: 99}, nil)

	assert.Empty(t, unlocked)
}

func TestEvaluateNew_SkipsOwned(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	owned := map[string]bool{"first_activity": true, "points_100": true}

	unlocked := e.EvaluateNew(Totals{TotalPoints: 500, TotalActivities: 10}, owned)

	assert.Equal(t, []string{"activities_10", "points_500"}, unlocked)
}

func TestEvaluateNew_CrossingSeveralThresholdsAtOnce(t *testing.T) {
	e := NewEvaluator(DefaultRules())

	// A single 1500-point batch jumps past 100, 500 and 1000.
	unlocked := e.EvaluateNew(Totals{TotalPoints: 1500, TotalActivities: 1}, nil)

	assert.Equal(t, []string{"first_activity", "points_100", "points_1000", "points_500"}, unlocked)
}

func TestEvaluateNew_StreakKind(t *testing.T) {
	e := NewEvaluator(DefaultRules())

	unlocked := e.EvaluateNew(Totals{CurrentStreak: 7, TotalActivities: 7, TotalPoints: 7}, map[string]bool{
		"first_activity": true,
		"streak_3":       true,
	})

	assert.Equal(t, []string{"streak_7"}, unlocked)
}

func TestEvaluateNew_DeterministicOrder(t *testing.T) {
	table := RuleTable{
		{ID: "b", Kind: KindPoints, Threshold: 1},
		{ID: "a", Kind: KindPoints, Threshold: 1},
		{ID: "c", Kind: KindPoints, Threshold: 1},
	}
	e := NewEvaluator(table)

	unlocked := e.EvaluateNew(Totals{TotalPoints: 10}, nil)

	assert.Equal(t, []string{"a", "b", "c"}, unlocked)
}

func TestEvaluateNew_MalformedRulesNeverFire(t *testing.T) {
	table := RuleTable{
		{ID: "bogus_kind", Kind: RuleKind("xp"), Threshold: 1},
		{ID: "zero_threshold", Kind: KindPoints, Threshold: 0},
		{ID: "ok", Kind: KindPoints, Threshold: 5},
	}
	e := NewEvaluator(table)

	unlocked := e.EvaluateNew(Totals{TotalPoints: 1000, TotalActivities: 1000, CurrentStreak: 1000}, nil)

	assert.Equal(t, []string{"ok"}, unlocked)
}

func TestRuleTable_Validate(t *testing.T) {
	assert.Empty(t, DefaultRules().Validate())

	bad := RuleTable{
		{ID: "", Kind: KindPoints, Threshold: 1},
		{ID: "dup", Kind: KindPoints, Threshold: 1},
		{ID: "dup", Kind: KindPoints, Threshold: 1},
		{ID: "weird", Kind: RuleKind("xp"), Threshold: -3},
	}
	errs := bad.Validate()

	// empty ID, duplicate, unknown kind, non-positive threshold
	assert.Len(t, errs, 4)
}

func TestOwnedSet(t *testing.T) {
	owned := OwnedSet([]UserAchievement{
		{UserID: "u1", AchievementID: "points_100"},
		{UserID: "u1", AchievementID: "streak_3"},
	})

	assert.True(t, owned["points_100"])
	assert.True(t, owned["streak_3"])
	assert.False(t, owned["points_500"])
}

func TestStreakMessage(t *testing.T) {
	assert.Equal(t, "¡Excelente! Comenzaste tu racha 🎯", StreakMessage(1))
	assert.Equal(t, "¡Sigue así! Mantén el impulso 💪", StreakMessage(0))
	assert.Equal(t, "¡Sigue así! Mantén el impulso 💪", StreakMessage(2))
	assert.Equal(t, "¡Genial! 3 días consecutivos 🔥", StreakMessage(3))
	assert.Equal(t, "¡Genial! 3 días consecutivos 🔥", StreakMessage(6))
	assert.Equal(t, "¡Increíble! Una semana completa ⚡", StreakMessage(7))
	assert.Equal(t, "¡Imparable! 30 días de constancia 🌟", StreakMessage(45))
}

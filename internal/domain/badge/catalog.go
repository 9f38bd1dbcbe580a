package badge

import (
	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// RULE CONSTRUCTORS
// Each constructor builds one family of rules; the catalog below is pure
// data built from them.
// ═══════════════════════════════════════════════════════════════════════════

// completedDefiCount unlocks after n completed defis in total.
func completedDefiCount(n int) Rule {
	return func(h History) Evaluation {
		return countedProgress(len(h.CompletedDefis), n)
	}
}

// completedModuleCount unlocks after n fully completed modules.
func completedModuleCount(n int) Rule {
	return func(h History) Evaluation {
		return countedProgress(len(h.CompletedModules), n)
	}
}

// moduleCompleted unlocks when one specific module is fully done.
func moduleCompleted(id shared.ModuleID) Rule {
	return func(h History) Evaluation {
		if h.CompletedModules[id] {
			return Evaluation{Earned: true, Progress: 100}
		}
		return Evaluation{}
	}
}

// modulesCompleted unlocks when every module in the group is
// simultaneously fully completed. Progress counts completed members.
func modulesCompleted(ids ...shared.ModuleID) Rule {
	return func(h History) Evaluation {
		done := 0
		for _, id := range ids {
			if h.CompletedModules[id] {
				done++
			}
		}
		return countedProgress(done, len(ids))
	}
}

// perfectDrillUnder unlocks on any full-score session at or under the
// time limit. Progress reflects the best session so far: score first,
// then how close its time is to the limit.
func perfectDrillUnder(limitSeconds float64) Rule {
	return func(h History) Evaluation {
		best := 0
		for _, s := range h.DrillSessions {
			if s.IsPerfect() && s.TimeSeconds <= limitSeconds {
				return Evaluation{Earned: true, Progress: 100}
			}
			if p := drillProgress(s, limitSeconds); p > best {
				best = p
			}
		}
		return Evaluation{Progress: best}
	}
}

// perfectDrillUnderAllOps unlocks only when the full-score-under-limit
// condition holds independently in every operation type.
func perfectDrillUnderAllOps(limitSeconds float64) Rule {
	return func(h History) Evaluation {
		met := map[drill.Operation]bool{}
		for _, s := range h.DrillSessions {
			if s.IsPerfect() && s.TimeSeconds <= limitSeconds {
				met[s.Operation] = true
			}
		}
		return countedProgress(len(met), len(drill.AllOperations()))
	}
}

// recentAccuracyAtLeast unlocks when mean accuracy over the most recent
// window sessions reaches threshold. Fewer sessions than the window is
// never enough; progress then tracks history length.
func recentAccuracyAtLeast(window int, threshold float64) Rule {
	return func(h History) Evaluation {
		if len(h.DrillSessions) < window {
			return countedProgress(len(h.DrillSessions), window)
		}
		recent := h.DrillSessions[len(h.DrillSessions)-window:]
		sum := 0.0
		for _, s := range recent {
			sum += s.Accuracy
		}
		mean := sum / float64(window)
		if mean >= threshold {
			return Evaluation{Earned: true, Progress: 100}
		}
		return Evaluation{Progress: clampPct(int(mean * 100 / threshold))}
	}
}

// consecutivePerfect unlocks after k sessions with 100% accuracy counted
// backward from the most recent.
func consecutivePerfect(k int) Rule {
	return func(h History) Evaluation {
		run := 0
		for i := len(h.DrillSessions) - 1; i >= 0; i-- {
			if h.DrillSessions[i].Accuracy < 100 {
				break
			}
			run++
		}
		return countedProgress(run, k)
	}
}

// completionsBeforeHour counts completions whose UTC hour is strictly
// before cutoff. Day-boundary arithmetic is UTC everywhere, so a badge
// earned "in the morning" means morning in UTC, not device time.
func completionsBeforeHour(cutoff, n int) Rule {
	return func(h History) Evaluation {
		count := 0
		for _, c := range h.CompletedDefis {
			if c.CompletedAt.UTC().Hour() < cutoff {
				count++
			}
		}
		return countedProgress(count, n)
	}
}

// completionsAfterHour counts completions whose UTC hour is at or past
// cutoff.
func completionsAfterHour(cutoff, n int) Rule {
	return func(h History) Evaluation {
		count := 0
		for _, c := range h.CompletedDefis {
			if c.CompletedAt.UTC().Hour() >= cutoff {
				count++
			}
		}
		return countedProgress(count, n)
	}
}

// streakAtLeast unlocks when the longest streak ever reaches n days.
// Longest, not current: earned badges never depend on a streak that
// later broke.
func streakAtLeast(n int) Rule {
	return func(h History) Evaluation {
		return countedProgress(h.LongestStreak, n)
	}
}

func countedProgress(have, want int) Evaluation {
	if want <= 0 || have >= want {
		return Evaluation{Earned: true, Progress: 100}
	}
	return Evaluation{Progress: clampPct(have * 100 / want)}
}

// drillProgress scores a non-qualifying session's closeness to a timed
// badge. Score carries most of the weight so a slow perfect run shows
// more progress than a fast sloppy one.
func drillProgress(s *drill.Session, limitSeconds float64) int {
	p := s.Score * 90 / drill.MaxScore
	if s.IsPerfect() && s.TimeSeconds > limitSeconds {
		p = 95
	}
	return p
}

func clampPct(p int) int {
	if p < 0 {
		return 0
	}
	if p > 99 {
		return 99
	}
	return p
}

// ═══════════════════════════════════════════════════════════════════════════
// CATALOG
// ═══════════════════════════════════════════════════════════════════════════

// ArithmeticModuleGroup is the module set the ultimate badge requires.
var ArithmeticModuleGroup = []shared.ModuleID{
	"addition",
	"subtraction",
	"multiplication",
	"division",
}

// DefaultCatalog returns the full badge catalog. The returned slice is
// freshly allocated on every call; callers may not mutate shared state
// through it.
func DefaultCatalog() []Definition {
	return []Definition{
		{
			ID: "first-steps", Name: "First Steps",
			Description: "Complete your first defi",
			Emoji:       "🎯", Tier: TierBronze, Category: CategoryCompletion,
			Rarity: RarityCommon, XPReward: 25,
			Rule: completedDefiCount(1),
		},
		{
			ID: "pathfinder", Name: "Pathfinder",
			Description: "Fully complete your first module",
			Emoji:       "🧭", Tier: TierBronze, Category: CategoryCompletion,
			Rarity: RarityCommon, XPReward: 50,
			Rule: completedModuleCount(1),
		},
		{
			ID: "trailblazer", Name: "Trailblazer",
			Description: "Fully complete 3 modules",
			Emoji:       "🗺️", Tier: TierSilver, Category: CategoryCompletion,
			Rarity: RarityRare, XPReward: 150,
			Rule: completedModuleCount(3),
		},
		{
			ID: "cartographer", Name: "Cartographer",
			Description: "Fully complete 5 modules",
			Emoji:       "🌍", Tier: TierGold, Category: CategoryCompletion,
			Rarity: RarityEpic, XPReward: 300,
			Rule: completedModuleCount(5),
		},
		{
			ID: "quick-draw", Name: "Quick Draw",
			Description: "Perfect drill score in 30 seconds or less",
			Emoji:       "⚡", Tier: TierSilver, Category: CategorySpeed,
			Rarity: RarityRare, XPReward: 100,
			Rule: perfectDrillUnder(30),
		},
		{
			ID: "arithmetic-master", Name: "Arithmetic Master",
			Description: "Perfect drill under 45 seconds in every operation",
			Emoji:       "🧙", Tier: TierGold, Category: CategorySpeed,
			Rarity: RarityLegendary, XPReward: 500,
			Rule: perfectDrillUnderAllOps(45),
		},
		{
			ID: "sharp-eye", Name: "Sharp Eye",
			Description: "90% average accuracy over your last 10 drills",
			Emoji:       "👁️", Tier: TierSilver, Category: CategoryAccuracy,
			Rarity: RarityRare, XPReward: 120,
			Rule: recentAccuracyAtLeast(10, 90),
		},
		{
			ID: "flawless-five", Name: "Flawless Five",
			Description: "5 drills in a row at 100% accuracy",
			Emoji:       "💎", Tier: TierGold, Category: CategoryAccuracy,
			Rarity: RarityEpic, XPReward: 250,
			Rule: consecutivePerfect(5),
		},
		{
			ID: "early-bird", Name: "Early Bird",
			Description: "5 defis completed before 8:00",
			Emoji:       "🐦", Tier: TierBronze, Category: CategoryHabit,
			Rarity: RarityCommon, XPReward: 50,
			Rule: completionsBeforeHour(8, 5),
		},
		{
			ID: "night-owl", Name: "Night Owl",
			Description: "5 defis completed after 21:00",
			Emoji:       "🦉", Tier: TierBronze, Category: CategoryHabit,
			Rarity: RarityCommon, XPReward: 50,
			Rule: completionsAfterHour(21, 5),
		},
		{
			ID: "kindling", Name: "Kindling",
			Description: "3-day activity streak",
			Emoji:       "🕯️", Tier: TierBronze, Category: CategoryHabit,
			Rarity: RarityCommon, XPReward: 40,
			Rule: streakAtLeast(3),
		},
		{
			ID: "week-of-fire", Name: "Week of Fire",
			Description: "7-day activity streak",
			Emoji:       "🔥", Tier: TierSilver, Category: CategoryHabit,
			Rarity: RarityRare, XPReward: 100,
			Rule: streakAtLeast(7),
		},
		{
			ID: "iron-will", Name: "Iron Will",
			Description: "30-day activity streak",
			Emoji:       "💪", Tier: TierGold, Category: CategoryHabit,
			Rarity: RarityLegendary, XPReward: 500,
			Rule: streakAtLeast(30),
		},
		{
			ID: "grand-arithmetician", Name: "Grand Arithmetician",
			Description: "All four arithmetic modules fully completed",
			Emoji:       "👑", Tier: TierGold, Category: CategoryUltimate,
			Rarity: RarityLegendary, XPReward: 1000,
			Rule: modulesCompleted(ArithmeticModuleGroup...),
		},
	}
}

// CatalogByID indexes a catalog for lookups.
func CatalogByID(catalog []Definition) map[shared.BadgeID]Definition {
	byID := make(map[shared.BadgeID]Definition, len(catalog))
	for _, def := range catalog {
		byID[def.ID] = def
	}
	return byID
}

// Package badge contains the achievement catalog and the rule engine
// that evaluates it. Rules are data: each badge definition carries a
// pure evaluation function over a history snapshot, and the engine is a
// generic fold over the catalog. Adding a badge means adding a catalog
// entry, never touching the engine.
package badge

import (
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// Tier groups badges by visual prominence.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// Category groups badges by the kind of activity they reward.
type Category string

const (
	CategoryCompletion Category = "completion"
	CategorySpeed      Category = "speed"
	CategoryAccuracy   Category = "accuracy"
	CategoryHabit      Category = "habit"
	CategoryUltimate   Category = "ultimate"
)

// Rarity hints the client how to render the badge.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// History is the immutable snapshot a rule evaluates against. It is
// assembled once per engine run from the durable stores; rules never
// perform I/O.
type History struct {
	// CompletedDefis is the full completion history, CompletedAt ascending.
	CompletedDefis []progression.CompletedDefi

	// CompletedModules holds the ids of modules whose every defi is done.
	CompletedModules map[shared.ModuleID]bool

	// DrillSessions is the full drill history, CreatedAt ascending.
	DrillSessions []*drill.Session

	// CurrentStreak and LongestStreak come from the streak tracker.
	CurrentStreak int
	LongestStreak int
}

// Evaluation is a rule's verdict for one badge.
type Evaluation struct {
	// Earned reports whether the unlock condition holds.
	Earned bool

	// Progress is how close the explorer is, 0..100. Earned implies 100.
	Progress int
}

// Rule is a pure predicate with progress over a history snapshot.
type Rule func(h History) Evaluation

// Definition is one catalog entry.
type Definition struct {
	ID          shared.BadgeID
	Name        string
	Description string
	Emoji       string
	Tier        Tier
	Category    Category
	Rarity      Rarity
	XPReward    shared.XP
	Rule        Rule
}

// EarnedBadge is the durable "earned" fact, unique per (explorer, badge).
// It is created exactly once and never deleted or mutated.
type EarnedBadge struct {
	ExplorerID shared.ExplorerID
	BadgeID    shared.BadgeID
	EarnedAt   time.Time
}

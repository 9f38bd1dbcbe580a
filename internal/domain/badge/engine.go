package badge

import "github.com/explo-hub/explo-progression-hub/internal/domain/shared"

// ═══════════════════════════════════════════════════════════════════════════
// RULE ENGINE
// ═══════════════════════════════════════════════════════════════════════════

// IDSet is a read-only set of badge ids.
type IDSet map[shared.BadgeID]bool

// NewIDSet builds a set from a list of ids.
func NewIDSet(ids []shared.BadgeID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Status annotates one catalog entry with the explorer's standing.
type Status struct {
	Definition Definition
	Earned     bool
	Progress   int
}

// Result is one engine run over a history snapshot.
type Result struct {
	// Badges covers the whole catalog in catalog order, for display.
	Badges []Status

	// NewlyEarned are badges earned now but absent from the durable
	// earned set. The caller must persist these idempotently.
	NewlyEarned []Definition

	// NewlyUnlocked are badges earned now but absent from the displayed
	// set. Independent of NewlyEarned: a badge earned in a prior run but
	// never celebrated still surfaces here until the caller marks it
	// displayed. The engine itself never mutates either set.
	NewlyUnlocked []Definition
}

// Engine folds a catalog over history snapshots. Evaluation is pure and
// deterministic: the same history and sets always produce the same result.
type Engine struct {
	catalog []Definition
}

// NewEngine creates an engine over the given catalog.
func NewEngine(catalog []Definition) *Engine {
	return &Engine{catalog: catalog}
}

// Evaluate runs every rule against the snapshot.
func (e *Engine) Evaluate(h History, earned IDSet, displayed IDSet) Result {
	result := Result{
		Badges: make([]Status, 0, len(e.catalog)),
	}

	for _, def := range e.catalog {
		eval := def.Rule(h)
		result.Badges = append(result.Badges, Status{
			Definition: def,
			Earned:     eval.Earned,
			Progress:   eval.Progress,
		})

		if !eval.Earned {
			continue
		}
		if !earned[def.ID] {
			result.NewlyEarned = append(result.NewlyEarned, def)
		}
		if !displayed[def.ID] {
			result.NewlyUnlocked = append(result.NewlyUnlocked, def)
		}
	}

	return result
}

// EarnedCount returns how many catalog badges are earned in the result.
func (r *Result) EarnedCount() int {
	count := 0
	for _, b := range r.Badges {
		if b.Earned {
			count++
		}
	}
	return count
}

// HasNewlyUnlocked reports whether a celebration is pending.
func (r *Result) HasNewlyUnlocked() bool {
	return len(r.NewlyUnlocked) > 0
}

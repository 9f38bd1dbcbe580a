package catalog

import (
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCY GRAPH RESOLVER
// Derives per-defi unlock state and per-module completion from the
// prerequisite graph and the set of completed defis. Pure function of
// its inputs - no hidden state, safe to recompute on every read.
// ══════════════════════════════════════════════════════════════════════════════

// DefiState is the derived unlock state of a defi for one explorer.
type DefiState string

const (
	// DefiLocked - prerequisites unmet or module locked.
	DefiLocked DefiState = "locked"

	// DefiUnlocked - available to attempt.
	DefiUnlocked DefiState = "unlocked"

	// DefiCompleted - a completed progress record exists.
	DefiCompleted DefiState = "completed"
)

// CompletedSet is the set of defi IDs an explorer has completed within
// one module, derived from completed progress records.
type CompletedSet map[shared.DefiID]bool

// DefiResolution pairs a defi with its derived state.
type DefiResolution struct {
	Defi  Defi
	State DefiState
}

// ModuleResolution is the derived view of one module for one explorer.
type ModuleResolution struct {
	ModuleID shared.ModuleID

	// Defis in catalog order, each with its derived state.
	Defis []DefiResolution

	// CompletedCount is the number of completed defis.
	CompletedCount int

	// CompletionRate is completedCount/totalDefis in [0,1].
	// Defined as 0 when the module has no defis.
	CompletionRate float64

	// EarnedXP is the sum of XP values over completed defis only.
	EarnedXP shared.XP

	// IntegrityWarnings lists prerequisite references to defi IDs that
	// do not exist in the module. Such prerequisites are treated as
	// never satisfied (conservative lock) rather than failing the
	// whole resolution; callers should log them.
	IntegrityWarnings []IntegrityWarning
}

// IsFullyCompleted reports whether every defi of a non-empty module is done.
func (r ModuleResolution) IsFullyCompleted() bool {
	return len(r.Defis) > 0 && r.CompletedCount == len(r.Defis)
}

// IntegrityWarning describes a prerequisite pointing at a nonexistent defi.
type IntegrityWarning struct {
	ModuleID     shared.ModuleID
	DefiID       shared.DefiID
	Prerequisite shared.DefiID
}

// Resolve derives the unlock state of every defi in the module.
//
// A defi is completed when it appears in the completed set; otherwise
// it is unlocked iff the module is unlocked and every prerequisite is
// completed; otherwise it is locked. A prerequisite referencing an
// unknown defi ID can never be satisfied, which locks the dependent
// defi but is reported as an integrity warning instead of an error so
// a single bad catalog entry cannot take down module listing.
func Resolve(module Module, completed CompletedSet) ModuleResolution {
	res := ModuleResolution{
		ModuleID: module.ID,
		Defis:    make([]DefiResolution, 0, len(module.Defis)),
	}

	known := make(map[shared.DefiID]bool, len(module.Defis))
	for _, d := range module.Defis {
		known[d.ID] = true
	}

	for _, d := range module.Defis {
		state := resolveDefi(module, d, completed, known, &res)
		if state == DefiCompleted {
			res.CompletedCount++
			res.EarnedXP = res.EarnedXP.Add(d.XPValue)
		}
		res.Defis = append(res.Defis, DefiResolution{Defi: d, State: state})
	}

	if total := len(module.Defis); total > 0 {
		res.CompletionRate = float64(res.CompletedCount) / float64(total)
	}

	return res
}

func resolveDefi(module Module, d Defi, completed CompletedSet, known map[shared.DefiID]bool, res *ModuleResolution) DefiState {
	if completed[d.ID] {
		return DefiCompleted
	}
	if module.Locked {
		return DefiLocked
	}

	for _, prereq := range d.Prerequisites {
		if !known[prereq] {
			res.IntegrityWarnings = append(res.IntegrityWarnings, IntegrityWarning{
				ModuleID:     module.ID,
				DefiID:       d.ID,
				Prerequisite: prereq,
			})
			return DefiLocked
		}
		if !completed[prereq] {
			return DefiLocked
		}
	}
	return DefiUnlocked
}

// ResolveAll resolves every module of the catalog against a per-module
// completed-set view, returning resolutions keyed by module ID.
func ResolveAll(c *Catalog, completedByModule map[shared.ModuleID]CompletedSet) map[shared.ModuleID]ModuleResolution {
	result := make(map[shared.ModuleID]ModuleResolution, c.Len())
	for _, id := range c.ModuleIDs() {
		m, _ := c.Module(id)
		result[id] = Resolve(m, completedByModule[id])
	}
	return result
}

// CompletedModuleIDs extracts the IDs of fully completed modules from a
// resolution map. This is the module-completion set fed to badge rules.
func CompletedModuleIDs(resolutions map[shared.ModuleID]ModuleResolution) map[shared.ModuleID]bool {
	done := make(map[shared.ModuleID]bool)
	for id, r := range resolutions {
		if r.IsFullyCompleted() {
			done[id] = true
		}
	}
	return done
}

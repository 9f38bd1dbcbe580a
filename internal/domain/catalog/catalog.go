// Package catalog contains the immutable learning content catalog:
// modules, their defis (challenges), and the prerequisite graph.
// This is a pure domain layer with zero external dependencies.
//
// Identity versus presentation: module and defi IDs are stable keys
// referenced by progress records and badge rules and must never be
// renamed. The order in which modules are shown is a separate,
// mutable DisplayOrder list joined with the catalog only at read time.
package catalog

import (
	"sort"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ResponseKind describes how a defi is answered.
type ResponseKind string

const (
	// ResponseChoice - multiple choice, graded against a correct option index.
	ResponseChoice ResponseKind = "choice"

	// ResponseText - free text, reviewed by a mentor (or self-graded in solo mode).
	ResponseText ResponseKind = "text"
)

// Defi is the atomic gradable unit within a module. Immutable.
type Defi struct {
	// ID is unique within the owning module.
	ID shared.DefiID

	// Title is the display name.
	Title string

	// XPValue is the XP granted on completion.
	XPValue shared.XP

	// Prerequisites lists defi IDs within the same module that must be
	// completed before this defi unlocks.
	Prerequisites []shared.DefiID

	// Kind is the response kind.
	Kind ResponseKind

	// CorrectOption is the correct option index for choice defis.
	// Ignored for text defis.
	CorrectOption int

	// Options holds the choice texts for choice defis.
	Options []string
}

// Module is an ordered collection of defis. Immutable.
type Module struct {
	// ID is the stable identity key.
	ID shared.ModuleID

	// Title is the display name.
	Title string

	// Locked marks the module as administratively locked. A locked
	// module reports every defi as locked regardless of prerequisites.
	Locked bool

	// Defis is the ordered defi list.
	Defis []Defi
}

// TotalXP returns the sum of XP values over all defis of the module.
func (m Module) TotalXP() shared.XP {
	var total shared.XP
	for _, d := range m.Defis {
		total = total.Add(d.XPValue)
	}
	return total
}

// Defi returns the defi with the given ID, if present.
func (m Module) Defi(id shared.DefiID) (Defi, bool) {
	for _, d := range m.Defis {
		if d.ID == id {
			return d, true
		}
	}
	return Defi{}, false
}

// Catalog is the full immutable module catalog keyed by module ID.
type Catalog struct {
	modules map[shared.ModuleID]Module
}

// NewCatalog builds a catalog from a module list.
func NewCatalog(modules []Module) *Catalog {
	byID := make(map[shared.ModuleID]Module, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
	}
	return &Catalog{modules: byID}
}

// Module returns the module with the given ID.
// Returns shared.ErrModuleNotFound when the ID is unknown.
func (c *Catalog) Module(id shared.ModuleID) (Module, error) {
	m, ok := c.modules[id]
	if !ok {
		return Module{}, shared.ErrModuleNotFound
	}
	return m, nil
}

// Defi returns a defi by (module, defi) key.
func (c *Catalog) Defi(moduleID shared.ModuleID, defiID shared.DefiID) (Defi, error) {
	m, err := c.Module(moduleID)
	if err != nil {
		return Defi{}, err
	}
	d, ok := m.Defi(defiID)
	if !ok {
		return Defi{}, shared.ErrDefiNotFound
	}
	return d, nil
}

// ModuleIDs returns all module IDs in unspecified order.
// Use a DisplayOrder to present them.
func (c *Catalog) ModuleIDs() []shared.ModuleID {
	ids := make([]shared.ModuleID, 0, len(c.modules))
	for id := range c.modules {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of modules.
func (c *Catalog) Len() int {
	return len(c.modules)
}

// DisplayOrder is the mutable presentation order of modules.
// It references catalog IDs and never carries content itself.
type DisplayOrder struct {
	IDs []shared.ModuleID
}

// NewDisplayOrder creates a display order from a list of module IDs.
func NewDisplayOrder(ids []shared.ModuleID) DisplayOrder {
	return DisplayOrder{IDs: append([]shared.ModuleID(nil), ids...)}
}

// Ordered returns the catalog modules in display order. IDs that do
// not exist in the catalog are skipped; catalog modules absent from
// the order are appended at the end so content never disappears from
// listings due to a stale order list.
func (o DisplayOrder) Ordered(c *Catalog) []Module {
	seen := make(map[shared.ModuleID]bool, len(o.IDs))
	result := make([]Module, 0, c.Len())

	for _, id := range o.IDs {
		if m, err := c.Module(id); err == nil {
			result = append(result, m)
			seen[id] = true
		}
	}

	rest := make([]shared.ModuleID, 0)
	for id := range c.modules {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, id := range rest {
		result = append(result, c.modules[id])
	}
	return result
}

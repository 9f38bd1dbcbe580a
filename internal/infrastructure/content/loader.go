// Package content loads the module catalog from its JSON definition
// file. The catalog is immutable at runtime: editing content means
// editing the file and restarting, never mutating a live catalog.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ErrInvalidCatalog is returned when the catalog file fails validation.
var ErrInvalidCatalog = errors.New("content: invalid catalog")

// ══════════════════════════════════════════════════════════════════════════════
// FILE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

type catalogFile struct {
	DisplayOrder []string     `json:"display_order"`
	Modules      []moduleFile `json:"modules"`
}

type moduleFile struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Locked bool       `json:"locked,omitempty"`
	Defis  []defiFile `json:"defis"`
}

type defiFile struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	XPValue       int      `json:"xp_value"`
	Kind          string   `json:"kind"`
	Prerequisites []string `json:"prerequisites,omitempty"`
	CorrectOption int      `json:"correct_option,omitempty"`
	Options       []string `json:"options,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// LOADING
// ══════════════════════════════════════════════════════════════════════════════

// LoadFile reads and validates a catalog JSON file.
func LoadFile(path string) (*catalog.Catalog, catalog.DisplayOrder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, catalog.DisplayOrder{}, fmt.Errorf("content: failed to read catalog file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses and validates catalog JSON.
func Parse(data []byte) (*catalog.Catalog, catalog.DisplayOrder, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, catalog.DisplayOrder{}, fmt.Errorf("content: failed to parse catalog: %w", err)
	}

	if len(file.Modules) == 0 {
		return nil, catalog.DisplayOrder{}, fmt.Errorf("%w: no modules", ErrInvalidCatalog)
	}

	modules := make([]catalog.Module, 0, len(file.Modules))
	seenModules := make(map[string]bool, len(file.Modules))

	for _, m := range file.Modules {
		if m.ID == "" {
			return nil, catalog.DisplayOrder{}, fmt.Errorf("%w: module with empty id", ErrInvalidCatalog)
		}
		if seenModules[m.ID] {
			return nil, catalog.DisplayOrder{}, fmt.Errorf("%w: duplicate module id %q", ErrInvalidCatalog, m.ID)
		}
		seenModules[m.ID] = true

		mod, err := buildModule(m)
		if err != nil {
			return nil, catalog.DisplayOrder{}, err
		}
		modules = append(modules, mod)
	}

	orderIDs := make([]shared.ModuleID, 0, len(file.DisplayOrder))
	for _, id := range file.DisplayOrder {
		if !seenModules[id] {
			return nil, catalog.DisplayOrder{}, fmt.Errorf("%w: display_order references unknown module %q", ErrInvalidCatalog, id)
		}
		orderIDs = append(orderIDs, shared.ModuleID(id))
	}

	return catalog.NewCatalog(modules), catalog.NewDisplayOrder(orderIDs), nil
}

func buildModule(m moduleFile) (catalog.Module, error) {
	if len(m.Defis) == 0 {
		return catalog.Module{}, fmt.Errorf("%w: module %q has no defis", ErrInvalidCatalog, m.ID)
	}

	defis := make([]catalog.Defi, 0, len(m.Defis))
	seen := make(map[string]bool, len(m.Defis))

	for _, d := range m.Defis {
		if d.ID == "" {
			return catalog.Module{}, fmt.Errorf("%w: module %q has a defi with empty id", ErrInvalidCatalog, m.ID)
		}
		if seen[d.ID] {
			return catalog.Module{}, fmt.Errorf("%w: module %q has duplicate defi id %q", ErrInvalidCatalog, m.ID, d.ID)
		}
		seen[d.ID] = true

		defi, err := buildDefi(m.ID, d)
		if err != nil {
			return catalog.Module{}, err
		}
		defis = append(defis, defi)
	}

	// Prerequisites must reference defis within the same module.
	for _, d := range m.Defis {
		for _, p := range d.Prerequisites {
			if !seen[p] {
				return catalog.Module{}, fmt.Errorf("%w: defi %s/%s references unknown prerequisite %q",
					ErrInvalidCatalog, m.ID, d.ID, p)
			}
			if p == d.ID {
				return catalog.Module{}, fmt.Errorf("%w: defi %s/%s lists itself as prerequisite",
					ErrInvalidCatalog, m.ID, d.ID)
			}
		}
	}

	return catalog.Module{
		ID:     shared.ModuleID(m.ID),
		Title:  m.Title,
		Locked: m.Locked,
		Defis:  defis,
	}, nil
}

func buildDefi(moduleID string, d defiFile) (catalog.Defi, error) {
	kind := catalog.ResponseKind(d.Kind)
	switch kind {
	case catalog.ResponseChoice:
		if len(d.Options) < 2 {
			return catalog.Defi{}, fmt.Errorf("%w: choice defi %s/%s needs at least 2 options",
				ErrInvalidCatalog, moduleID, d.ID)
		}
		if d.CorrectOption < 0 || d.CorrectOption >= len(d.Options) {
			return catalog.Defi{}, fmt.Errorf("%w: choice defi %s/%s has correct_option %d out of range",
				ErrInvalidCatalog, moduleID, d.ID, d.CorrectOption)
		}
	case catalog.ResponseText:
		// Free text carries no grading data.
	default:
		return catalog.Defi{}, fmt.Errorf("%w: defi %s/%s has unknown kind %q",
			ErrInvalidCatalog, moduleID, d.ID, d.Kind)
	}

	xp := shared.XP(d.XPValue)
	if !xp.IsValid() {
		return catalog.Defi{}, fmt.Errorf("%w: defi %s/%s has invalid xp_value %d",
			ErrInvalidCatalog, moduleID, d.ID, d.XPValue)
	}

	prereqs := make([]shared.DefiID, 0, len(d.Prerequisites))
	for _, p := range d.Prerequisites {
		prereqs = append(prereqs, shared.DefiID(p))
	}

	return catalog.Defi{
		ID:            shared.DefiID(d.ID),
		Title:         d.Title,
		XPValue:       xp,
		Prerequisites: prereqs,
		Kind:          kind,
		CorrectOption: d.CorrectOption,
		Options:       d.Options,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILT-IN CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Default returns the built-in catalog used when no catalog file is
// configured. It is small but covers both response kinds and chained
// prerequisites, which makes a fresh deployment explorable end to end.
func Default() (*catalog.Catalog, catalog.DisplayOrder) {
	modules := []catalog.Module{
		{
			ID:    "numbers",
			Title: "Numbers & Counting",
			Defis: []catalog.Defi{
				{
					ID:            "count-to-hundred",
					Title:         "Count to one hundred",
					XPValue:       10,
					Kind:          catalog.ResponseChoice,
					CorrectOption: 1,
					Options:       []string{"98, 99, 101", "98, 99, 100", "99, 100, 102"},
				},
				{
					ID:            "skip-counting",
					Title:         "Skip counting by fives",
					XPValue:       15,
					Kind:          catalog.ResponseChoice,
					Prerequisites: []shared.DefiID{"count-to-hundred"},
					CorrectOption: 0,
					Options:       []string{"5, 10, 15, 20", "5, 9, 14, 20", "5, 11, 16, 21"},
				},
				{
					ID:            "number-story",
					Title:         "Write a number story",
					XPValue:       25,
					Kind:          catalog.ResponseText,
					Prerequisites: []shared.DefiID{"skip-counting"},
				},
			},
		},
		{
			ID:    "fractions",
			Title: "Fractions",
			Defis: []catalog.Defi{
				{
					ID:            "halves",
					Title:         "Halves and quarters",
					XPValue:       15,
					Kind:          catalog.ResponseChoice,
					CorrectOption: 2,
					Options:       []string{"1/3", "1/4", "1/2"},
				},
				{
					ID:            "compare-fractions",
					Title:         "Compare two fractions",
					XPValue:       20,
					Kind:          catalog.ResponseChoice,
					Prerequisites: []shared.DefiID{"halves"},
					CorrectOption: 0,
					Options:       []string{"3/4 > 2/3", "3/4 < 2/3", "3/4 = 2/3"},
				},
				{
					ID:            "fraction-explainer",
					Title:         "Explain fractions to a friend",
					XPValue:       30,
					Kind:          catalog.ResponseText,
					Prerequisites: []shared.DefiID{"halves", "compare-fractions"},
				},
			},
		},
		{
			ID:     "geometry",
			Title:  "Geometry",
			Locked: true,
			Defis: []catalog.Defi{
				{
					ID:            "shapes",
					Title:         "Name the shapes",
					XPValue:       10,
					Kind:          catalog.ResponseChoice,
					CorrectOption: 1,
					Options:       []string{"Square", "Triangle", "Circle"},
				},
			},
		},
	}

	order := catalog.NewDisplayOrder([]shared.ModuleID{"numbers", "fractions", "geometry"})
	return catalog.NewCatalog(modules), order
}

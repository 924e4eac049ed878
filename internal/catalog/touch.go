package catalog

import (
	"maps"
	"slices"
)

// #region touch-set

// TouchSet is the set of axis, module and mode ids a question can affect.
// Slices are sorted so callers iterate deterministically.
type TouchSet struct {
	Axes    []string
	Modules []string
	Modes   []string
}

func (t TouchSet) HasAxis(id string) bool   { return contains(t.Axes, id) }
func (t TouchSet) HasModule(id string) bool { return contains(t.Modules, id) }
func (t TouchSet) HasMode(id string) bool   { return contains(t.Modes, id) }

// HasAnyAxis reports whether any of ids is touched.
func (t TouchSet) HasAnyAxis(ids []string) bool {
	for _, id := range ids {
		if t.HasAxis(id) {
			return true
		}
	}
	return false
}

func contains(sorted []string, id string) bool {
	_, ok := slices.BinarySearch(sorted, id)
	return ok
}

// Touches computes the touch set of a question body. Safety questions touch nothing.
func Touches(body Body) TouchSet {
	axes := map[string]struct{}{}
	modules := map[string]struct{}{}
	modes := map[string]struct{}{}

	collect := func(e Effects) {
		for k := range e.AxisDeltas {
			axes[k] = struct{}{}
		}
		for k := range e.AxisEvidence {
			axes[k] = struct{}{}
		}
		for k := range e.ModuleEvidence {
			modules[k] = struct{}{}
		}
		for k := range e.ModuleDeltaLevels {
			modules[k] = struct{}{}
		}
		for k := range e.SetModuleLevel {
			modules[k] = struct{}{}
		}
		for k := range e.SetModes {
			modes[k] = struct{}{}
		}
	}

	switch b := body.(type) {
	case *ChoiceBody:
		for _, o := range b.Options {
			collect(o.Effects)
		}
	case *SliderBody:
		for _, r := range b.Ranges {
			collect(r.Effects)
		}
	}

	return TouchSet{
		Axes:    slices.Sorted(maps.Keys(axes)),
		Modules: slices.Sorted(maps.Keys(modules)),
		Modes:   slices.Sorted(maps.Keys(modes)),
	}
}

// #endregion touch-set

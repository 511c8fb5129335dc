package workflow

import (
	"fmt"
	"slices"

	"github.com/rai/shop-workflow-go/modules/orders/domain"
)

// Entry is a transition together with the module that declared it.
type Entry struct {
	Module     string
	Transition Transition
}

// Table is the composed, validated set of states and transitions.
// It is built once at startup and read-only afterwards, apart from
// AttachGuard during configuration.
type Table struct {
	modules []string
	states  map[domain.Status]struct{}
	entries []Entry
	byName  map[string][]int
}

// Compose merges modules into a Table. Contributions to the cancelable and
// verification source sets are unioned first and handed to their consumers,
// then transitions are collected and validated:
//   - the initial status created must be declared
//   - a transition name declared by several modules must have disjoint sources
//   - every target must be a declared state
//   - at most one module per exclusive group
//
// Sources naming undeclared states are accepted; they never match.
func Compose(mods ...Module) (*Table, error) {
	if err := checkExclusive(mods); err != nil {
		return nil, err
	}
	extendSources(mods)

	t := &Table{
		states: make(map[domain.Status]struct{}),
		byName: make(map[string][]int),
	}
	for _, m := range mods {
		t.modules = append(t.modules, m.Name())
		for _, s := range m.States() {
			t.states[s] = struct{}{}
		}
	}
	if !t.HasState(domain.StatusCreated) {
		return nil, fmt.Errorf("%w: no module declares the initial status %s", ErrUnknownState, domain.StatusCreated)
	}

	for _, m := range mods {
		for _, tr := range m.Transitions() {
			if err := t.add(m.Name(), tr); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func checkExclusive(mods []Module) error {
	seen := make(map[string]string)
	for _, m := range mods {
		ex, ok := m.(ExclusiveModule)
		if !ok {
			continue
		}
		group := ex.ExclusiveGroup()
		if prev, dup := seen[group]; dup {
			return fmt.Errorf("%w: %s and %s both belong to %s", ErrExclusiveModules, prev, m.Name(), group)
		}
		seen[group] = m.Name()
	}
	return nil
}

func extendSources(mods []Module) {
	var cancelable, verification []domain.Status
	for _, m := range mods {
		if c, ok := m.(CancelableSourceContributor); ok {
			cancelable = union(cancelable, c.CancelableSources())
		}
		if c, ok := m.(VerificationSourceContributor); ok {
			verification = union(verification, c.VerificationSources())
		}
	}
	for _, m := range mods {
		if c, ok := m.(CancelableSourceConsumer); ok {
			c.UseCancelableSources(cancelable)
		}
		if c, ok := m.(VerificationSourceConsumer); ok {
			c.UseVerificationSources(verification)
		}
	}
}

func union(dst, src []domain.Status) []domain.Status {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

func (t *Table) add(module string, tr Transition) error {
	if tr.Name == "" {
		return fmt.Errorf("%w: module %s declares a transition without name", ErrUnknownTransition, module)
	}
	if tr.IsDynamic() && len(tr.Candidates) == 0 {
		return fmt.Errorf("%w: dynamic transition %s has no candidates", ErrUnknownState, tr.Name)
	}
	if !tr.IsDynamic() && tr.Target == "" {
		return fmt.Errorf("%w: transition %s has no target", ErrUnknownState, tr.Name)
	}
	for _, s := range tr.Targets() {
		if !t.HasState(s) {
			return fmt.Errorf("%w: %s.%s target %q", ErrUnknownState, module, tr.Name, s)
		}
	}
	for _, i := range t.byName[tr.Name] {
		prev := t.entries[i]
		if prev.Transition.overlaps(tr) {
			return fmt.Errorf("%w: %s declared by %s and %s with overlapping sources",
				ErrConflictingTransitions, tr.Name, prev.Module, module)
		}
	}

	t.byName[tr.Name] = append(t.byName[tr.Name], len(t.entries))
	t.entries = append(t.entries, Entry{Module: module, Transition: tr})
	return nil
}

// AttachGuard appends a guard to every transition called name.
func (t *Table) AttachGuard(name string, g Guard) error {
	idx, ok := t.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransition, name)
	}
	for _, i := range idx {
		tr := &t.entries[i].Transition
		tr.Guards = append(slices.Clip(tr.Guards), g)
	}
	return nil
}

// Modules returns the module names in composition order.
func (t *Table) Modules() []string {
	return slices.Clone(t.modules)
}

// HasState reports whether s is declared by some module.
func (t *Table) HasState(s domain.Status) bool {
	_, ok := t.states[s]
	return ok
}

// States returns the composed state set in lexical order.
func (t *Table) States() []domain.Status {
	states := make([]domain.Status, 0, len(t.states))
	for s := range t.states {
		states = append(states, s)
	}
	slices.Sort(states)
	return states
}

// Entries returns all transitions in declaration order.
func (t *Table) Entries() []Entry {
	return slices.Clone(t.entries)
}

// Lookup finds the transition called name that accepts from.
func (t *Table) Lookup(name string, from domain.Status) (Transition, bool) {
	for _, i := range t.byName[name] {
		if tr := t.entries[i].Transition; tr.Accepts(from) {
			return tr, true
		}
	}
	return Transition{}, false
}

// Automatic returns the automatic transitions accepting from, in declaration order.
func (t *Table) Automatic(from domain.Status) []Transition {
	var out []Transition
	for _, e := range t.entries {
		if e.Transition.Automatic && e.Transition.Accepts(from) {
			out = append(out, e.Transition)
		}
	}
	return out
}

// From returns every transition accepting status.
func (t *Table) From(status domain.Status) []Transition {
	var out []Transition
	for _, e := range t.entries {
		if e.Transition.Accepts(status) {
			out = append(out, e.Transition)
		}
	}
	return out
}

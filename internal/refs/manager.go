package refs

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/mj1618/uipilot/internal/control"
)

// refRe matches ref-shaped input.
var refRe = regexp.MustCompile(`^@e\d+$`)

// IsRef reports whether s is a ref-shaped identifier (@e<N>).
func IsRef(s string) bool { return refRe.MatchString(s) }

// ErrNoSnapshot is returned when refs are used before any snapshot exists or
// after invalidation.
var ErrNoSnapshot = errors.New("no current snapshot: snapshot first")

// ErrUnknownRef is returned for a ref that does not exist in the current
// snapshot generation.
var ErrUnknownRef = errors.New("unknown ref")

// ErrNoMatch is returned when a non-ref selector matches nothing.
var ErrNoMatch = errors.New("no element matches selector")

// Source produces fresh page captures for snapshotting and liveness checks.
type Source interface {
	Page(ctx context.Context) (*Page, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*Page, error)

// Page calls f.
func (f SourceFunc) Page(ctx context.Context) (*Page, error) { return f(ctx) }

// Resolved is the outcome of resolving a ref. When the element has vanished
// or gone invisible since the snapshot, Valid is false and Element carries
// the cached data, so the caller chooses whether to re-snapshot.
type Resolved struct {
	Element RefElement `json:"element" yaml:"element"`
	Valid   bool       `json:"valid"   yaml:"valid"`
}

// Manager owns one snapshot generation and its ref table. The cached
// snapshot is owned exclusively by one Manager and callers serialize
// snapshot/resolve/act sequences per session.
type Manager struct {
	src   Source
	snap  *Snapshot
	table map[string]RefElement
}

// NewManager creates a manager reading captures from src.
func NewManager(src Source) *Manager {
	return &Manager{src: src}
}

// Snapshot captures a fresh page and atomically replaces the cached snapshot
// and ref table. The previous generation's refs become stale.
func (m *Manager) Snapshot(ctx context.Context, opts Options) (*Snapshot, error) {
	page, err := m.src.Page(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	snap := Build(page, opts)
	table := make(map[string]RefElement, len(snap.Elements))
	for _, el := range snap.Elements {
		table[el.Ref] = el
	}
	m.snap = snap
	m.table = table
	return snap, nil
}

// Current returns the cached snapshot, or nil when none exists.
func (m *Manager) Current() *Snapshot { return m.snap }

// Invalidate drops the cached snapshot and ref table. Must be called by the
// owning session after any full navigation; acting on refs across an
// un-invalidated navigation is undefined behavior.
func (m *Manager) Invalidate() {
	m.snap = nil
	m.table = nil
}

// Resolve resolves a ref or raw selector. Ref-shaped input is looked up in
// the cached table and re-verified for current visibility; verification
// failure returns the cached data with Valid=false rather than an error.
// Non-ref input triggers a fresh scan and an exact name/selector match.
func (m *Manager) Resolve(ctx context.Context, refOrSelector string) (*Resolved, error) {
	if IsRef(refOrSelector) {
		if m.snap == nil {
			return nil, ErrNoSnapshot
		}
		el, ok := m.table[refOrSelector]
		if !ok {
			return nil, fmt.Errorf("%w: %s (refs run @e1..@e%d in this snapshot)", ErrUnknownRef, refOrSelector, len(m.table))
		}
		return &Resolved{Element: el, Valid: m.verify(ctx, el)}, nil
	}

	page, err := m.src.Page(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", refOrSelector, err)
	}
	snap := Build(page, Options{InteractiveOnly: false, IncludeHidden: true, Compact: true})
	for _, el := range snap.Elements {
		if el.Selector == refOrSelector || (el.Name != "" && el.Name == refOrSelector) {
			return &Resolved{Element: el, Valid: el.Visible}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoMatch, refOrSelector)
}

// verify re-captures the page and checks that the element still exists and
// is visible. Any capture failure counts as verification failure.
func (m *Manager) verify(ctx context.Context, el RefElement) bool {
	page, err := m.src.Page(ctx)
	if err != nil {
		return false
	}
	fresh := Build(page, Options{InteractiveOnly: false, IncludeHidden: true, Compact: true})
	for _, cand := range fresh.Elements {
		if cand.Selector == el.Selector && cand.Role == el.Role && cand.Name == el.Name {
			return cand.Visible
		}
	}
	return false
}

// GetLocator derives a preference-ordered locator for a ref: role+name
// first, then test-id, then the fallback selector. The derived locator, not
// the ref itself, is what the control layer ultimately receives.
func (m *Manager) GetLocator(ref string) (control.Locator, error) {
	if m.snap == nil {
		return control.Locator{}, ErrNoSnapshot
	}
	el, ok := m.table[ref]
	if !ok {
		return control.Locator{}, fmt.Errorf("%w: %s", ErrUnknownRef, ref)
	}
	return LocatorFor(el), nil
}

// LocatorFor derives the preference-ordered locator for an element.
func LocatorFor(el RefElement) control.Locator {
	if el.Role != "" && el.Name != "" {
		loc := control.Role(el.Role, el.Name)
		loc.Nth = el.NthIndex
		return loc
	}
	if tid, ok := el.Attributes["data-testid"]; ok && tid != "" {
		return control.TestID(tid)
	}
	return control.CSS(el.Selector)
}

// FindByName returns all current-snapshot elements whose accessible name
// matches exactly, preferring interactive roles.
func (m *Manager) FindByName(name string) []RefElement {
	if m.snap == nil {
		return nil
	}
	var interactive, rest []RefElement
	for _, el := range m.snap.Elements {
		if el.Name != name {
			continue
		}
		if Interactive(el.Role) {
			interactive = append(interactive, el)
		} else {
			rest = append(rest, el)
		}
	}
	if len(interactive) > 0 {
		return interactive
	}
	return rest
}

package refs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Options controls what a snapshot includes.
type Options struct {
	InteractiveOnly bool // only interactive/focusable elements (default true)
	IncludeHidden   bool // include elements that fail the visibility check
	MaxDepth        int  // 0 = unlimited
	IncludeRawTree  bool // attach the serialized raw tree for debugging
	Compact         bool // omit text and attributes to keep payloads small
}

// DefaultOptions returns the standard snapshot configuration.
func DefaultOptions() Options {
	return Options{InteractiveOnly: true}
}

// Build walks a captured page and produces a snapshot with sequential refs.
// Duplicate role+name pairs are disambiguated with a per-pair occurrence
// index in NthIndex.
func Build(page *Page, opts Options) *Snapshot {
	idx := buildNameIndex(page.Root)
	b := &builder{opts: opts, idx: idx}
	b.walk(page.Root, "", 1)

	assignNthIndexes(b.elements)

	snap := &Snapshot{
		Timestamp: time.Now(),
		URL:       page.URL,
		Title:     page.Title,
		Elements:  b.elements,
	}
	if opts.IncludeRawTree {
		if raw, err := json.Marshal(page.Root); err == nil {
			snap.RawTree = string(raw)
		}
	}
	return snap
}

type builder struct {
	opts     Options
	idx      *nameIndex
	elements []RefElement
	next     int
}

// walk visits the tree in document order. xpath is the structural path of
// the parent; depth is 1-based.
func (b *builder) walk(n Node, parentPath string, depth int) {
	if b.opts.MaxDepth > 0 && depth > b.opts.MaxDepth {
		return
	}

	// Per-parent tag occurrence counters drive the index-based path.
	tagCounts := make(map[string]int)
	b.visit(n, parentPath, depth)
	for _, c := range n.Children() {
		tagCounts[c.Tag()]++
		childPath := fmt.Sprintf("%s/%s[%d]", parentPath, c.Tag(), tagCounts[c.Tag()])
		b.walk(c, childPath, depth+1)
	}
}

func (b *builder) visit(n Node, path string, depth int) {
	role := RoleOf(n)
	visible := Visible(n)
	focusable := Focusable(n)

	if !b.opts.IncludeHidden && !visible {
		return
	}
	if b.opts.InteractiveOnly && !Interactive(role) && !focusable {
		return
	}

	b.next++
	el := RefElement{
		Ref:       fmt.Sprintf("@e%d", b.next),
		Role:      role,
		Name:      AccessibleName(n, role, b.idx),
		TagName:   n.Tag(),
		Selector:  fallbackSelector(n),
		XPath:     path,
		Visible:   visible,
		Enabled:   Enabled(n),
		Focusable: focusable,
		Value:     n.Value(),
	}
	if bounds := n.Bounds(); bounds[2] > 0 || bounds[3] > 0 {
		bb := bounds
		el.Bounds = &bb
	}
	if !b.opts.Compact {
		if t := n.Text(); t != "" {
			el.Text = t
		}
		el.Attributes = copyAttributes(n)
	}
	b.elements = append(b.elements, el)
}

// attributeNames are the attributes retained on snapshotted elements.
var attributeNames = []string{
	"id", "class", "role", "type", "name", "placeholder",
	"href", "data-testid", "aria-label", "title", "alt", "tabindex",
}

func copyAttributes(n Node) map[string]string {
	var attrs map[string]string
	for _, name := range attributeNames {
		if v, ok := n.Attr(name); ok {
			if attrs == nil {
				attrs = make(map[string]string)
			}
			attrs[name] = v
		}
	}
	return attrs
}

// fallbackSelector generates a CSS-like selector by preference: id, then
// test-id attribute, then tag plus the first two class tokens.
func fallbackSelector(n Node) string {
	if id := attr(n, "id"); id != "" {
		return "#" + id
	}
	if tid := attr(n, "data-testid"); tid != "" {
		return fmt.Sprintf("[data-testid=%q]", tid)
	}
	sel := n.Tag()
	classes := strings.Fields(attr(n, "class"))
	if len(classes) > 2 {
		classes = classes[:2]
	}
	for _, c := range classes {
		sel += "." + c
	}
	return sel
}

// assignNthIndexes sets a 1-based occurrence index on elements whose
// role+name pair appears more than once in the snapshot.
func assignNthIndexes(elements []RefElement) {
	type key struct{ role, name string }
	counts := make(map[key]int, len(elements))
	for _, el := range elements {
		counts[key{el.Role, el.Name}]++
	}
	seen := make(map[key]int)
	for i := range elements {
		k := key{elements[i].Role, elements[i].Name}
		if counts[k] > 1 {
			seen[k]++
			elements[i].NthIndex = seen[k]
		}
	}
}

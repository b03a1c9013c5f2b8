// Package refs builds deterministic, re-verifiable mappings from "what a
// tester would click" to a resolvable locator. It snapshots the interactive
// element set of a live surface, assigns short-lived symbolic refs of the
// form @e<N>, and resolves refs back to preference-ordered locators.
package refs

import "strings"

// Node is a platform-neutral accessibility node. Role and name inference are
// pure functions over this interface, independent of any concrete UI binding.
type Node interface {
	// Tag returns the lowercase element tag (e.g. "button", "input").
	Tag() string
	// Attr returns a named attribute and whether it is present.
	Attr(name string) (string, bool)
	// Text returns the node's own text content (not including children).
	Text() string
	// Value returns the node's current input value, if any.
	Value() string
	// Bounds returns [x, y, width, height] in surface coordinates.
	Bounds() [4]int
	// Children returns the node's child elements in document order.
	Children() []Node
}

// Page is one consistent capture of a surface's element tree plus metadata.
type Page struct {
	URL   string
	Title string
	Root  Node
}

// attr returns the attribute value or "".
func attr(n Node, name string) string {
	v, _ := n.Attr(name)
	return v
}

// subtreeText returns the collapsed visible text of a node and its
// descendants, whitespace-normalized.
func subtreeText(n Node) string {
	var b strings.Builder
	collectText(n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n Node, b *strings.Builder) {
	if t := n.Text(); t != "" {
		b.WriteString(t)
		b.WriteString(" ")
	}
	for _, c := range n.Children() {
		collectText(c, b)
	}
}

// Visible reports whether the node occupies a non-zero box and is not hidden
// by style or attribute.
func Visible(n Node) bool {
	b := n.Bounds()
	if b[2] <= 0 || b[3] <= 0 {
		return false
	}
	if _, hidden := n.Attr("hidden"); hidden {
		return false
	}
	if attr(n, "aria-hidden") == "true" {
		return false
	}
	style := strings.ReplaceAll(attr(n, "style"), " ", "")
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return false
	}
	if strings.Contains(style, "opacity:0;") || strings.HasSuffix(style, "opacity:0") {
		return false
	}
	return true
}

// Enabled reports whether the node accepts interaction.
func Enabled(n Node) bool {
	if _, disabled := n.Attr("disabled"); disabled {
		return false
	}
	return attr(n, "aria-disabled") != "true"
}

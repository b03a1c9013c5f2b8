package refs

import "strings"

// textContentRoles are roles whose accessible name may come from subtree
// text content.
var textContentRoles = map[string]bool{
	"button":       true,
	"cell":         true,
	"columnheader": true,
	"heading":      true,
	"link":         true,
	"listitem":     true,
	"menuitem":     true,
	"option":       true,
	"tab":          true,
}

// nameIndex holds document-wide lookups needed for accessible-name
// computation: nodes by id and label text keyed by the labelled control's id.
type nameIndex struct {
	byID     map[string]Node
	labelFor map[string]string
}

// buildNameIndex walks the tree once collecting id and label associations.
func buildNameIndex(root Node) *nameIndex {
	idx := &nameIndex{
		byID:     make(map[string]Node),
		labelFor: make(map[string]string),
	}
	var walk func(n Node)
	walk = func(n Node) {
		if id := attr(n, "id"); id != "" {
			idx.byID[id] = n
		}
		if n.Tag() == "label" {
			if target := attr(n, "for"); target != "" {
				if text := subtreeText(n); text != "" {
					idx.labelFor[target] = text
				}
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
	return idx
}

// AccessibleName computes a node's accessible name by strict precedence:
// labelledby-referenced text, explicit aria-label, associated label element,
// title, alt, role-appropriate text content, then input value.
func AccessibleName(n Node, role string, idx *nameIndex) string {
	if ids := attr(n, "aria-labelledby"); ids != "" {
		var parts []string
		for _, id := range strings.Fields(ids) {
			if ref, ok := idx.byID[id]; ok {
				if text := subtreeText(ref); text != "" {
					parts = append(parts, text)
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if label := attr(n, "aria-label"); label != "" {
		return label
	}
	if id := attr(n, "id"); id != "" {
		if label, ok := idx.labelFor[id]; ok {
			return label
		}
	}
	if title := attr(n, "title"); title != "" {
		return title
	}
	if alt, ok := n.Attr("alt"); ok && alt != "" {
		return alt
	}
	if textContentRoles[role] {
		if text := subtreeText(n); text != "" {
			return text
		}
	}
	if v := n.Value(); v != "" {
		return v
	}
	return ""
}

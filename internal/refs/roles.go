package refs

import "strconv"

// implicitRoles maps element tags to their implicit accessibility role.
// Used when no explicit role attribute is present.
var implicitRoles = map[string]string{
	"a":        "link",
	"article":  "article",
	"aside":    "complementary",
	"button":   "button",
	"dialog":   "dialog",
	"footer":   "contentinfo",
	"form":     "form",
	"h1":       "heading",
	"h2":       "heading",
	"h3":       "heading",
	"h4":       "heading",
	"h5":       "heading",
	"h6":       "heading",
	"header":   "banner",
	"img":      "img",
	"li":       "listitem",
	"main":     "main",
	"menu":     "list",
	"nav":      "navigation",
	"ol":       "list",
	"option":   "option",
	"progress": "progressbar",
	"section":  "region",
	"select":   "combobox",
	"summary":  "button",
	"table":    "table",
	"td":       "cell",
	"textarea": "textbox",
	"th":       "columnheader",
	"tr":       "row",
	"ul":       "list",
}

// inputTypeRoles maps the type attribute of an input element to its role.
var inputTypeRoles = map[string]string{
	"button":   "button",
	"checkbox": "checkbox",
	"email":    "textbox",
	"file":     "button",
	"image":    "button",
	"number":   "spinbutton",
	"password": "textbox",
	"radio":    "radio",
	"range":    "slider",
	"reset":    "button",
	"search":   "searchbox",
	"submit":   "button",
	"tel":      "textbox",
	"text":     "textbox",
	"url":      "textbox",
}

// interactiveRoles are roles a tester can meaningfully act on.
var interactiveRoles = map[string]bool{
	"button":     true,
	"checkbox":   true,
	"combobox":   true,
	"link":       true,
	"menuitem":   true,
	"option":     true,
	"radio":      true,
	"searchbox":  true,
	"slider":     true,
	"spinbutton": true,
	"switch":     true,
	"tab":        true,
	"textbox":    true,
}

// nativelyFocusable are tags that take focus without an explicit tabindex.
var nativelyFocusable = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"summary":  true,
	"textarea": true,
}

// RoleOf classifies a node's role: explicit role attribute first, then the
// fixed tag table (with input-type refinement), else "generic".
func RoleOf(n Node) string {
	if r := attr(n, "role"); r != "" {
		return r
	}
	tag := n.Tag()
	if tag == "input" {
		t := attr(n, "type")
		if t == "" {
			t = "text"
		}
		if r, ok := inputTypeRoles[t]; ok {
			return r
		}
		return "textbox"
	}
	if r, ok := implicitRoles[tag]; ok {
		return r
	}
	return "generic"
}

// Interactive reports whether the role is one a tester acts on.
func Interactive(role string) bool { return interactiveRoles[role] }

// Focusable reports whether the node can take keyboard focus: a non-negative
// tab order, or a natively focusable tag that is not disabled.
func Focusable(n Node) bool {
	if ti, ok := n.Attr("tabindex"); ok {
		if v, err := strconv.Atoi(ti); err == nil {
			return v >= 0
		}
	}
	if !nativelyFocusable[n.Tag()] {
		return false
	}
	return Enabled(n)
}

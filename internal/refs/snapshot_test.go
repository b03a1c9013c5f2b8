package refs

import (
	"fmt"
	"testing"
)

// loginPage is a small synthetic surface: a form with an email field, a
// hidden honeypot, and a submit button.
func loginPage() *Page {
	honeypot := elem("input", map[string]string{"type": "text", "name": "hp", "style": "display:none"})
	email := elem("input", map[string]string{"id": "email", "type": "email", "placeholder": "Email"})
	submitText := elem("span", nil)
	submitText.OwnText = "Submit"
	submit := elem("button", map[string]string{"class": "btn btn-primary cta"}, submitText)
	form := elem("form", map[string]string{"id": "login"}, email, honeypot, submit)
	heading := elem("h1", nil)
	heading.OwnText = "Welcome back"
	root := elem("body", nil, heading, form)
	return &Page{URL: "https://app.test/login", Title: "Login", Root: root}
}

func TestBuildInteractiveOnly(t *testing.T) {
	snap := Build(loginPage(), DefaultOptions())

	if len(snap.Elements) != 2 {
		t.Fatalf("expected 2 interactive elements, got %d: %+v", len(snap.Elements), snap.Elements)
	}

	email := snap.Elements[0]
	if email.Ref != "@e1" {
		t.Errorf("first ref = %q, want @e1", email.Ref)
	}
	if email.Role != "textbox" || email.Selector != "#email" {
		t.Errorf("email element = %+v", email)
	}

	submit := snap.Elements[1]
	if submit.Ref != "@e2" {
		t.Errorf("second ref = %q, want @e2", submit.Ref)
	}
	if submit.Role != "button" || submit.Name != "Submit" {
		t.Errorf("submit element = %+v", submit)
	}
	if submit.Selector != "button.btn.btn-primary" {
		t.Errorf("submit selector = %q, want tag plus first two class tokens", submit.Selector)
	}
}

func TestBuildRefsAreSequentialAndUnique(t *testing.T) {
	snap := Build(loginPage(), Options{InteractiveOnly: false, IncludeHidden: true})

	seen := make(map[string]bool)
	for i, el := range snap.Elements {
		want := fmt.Sprintf("@e%d", i+1)
		if el.Ref != want {
			t.Errorf("element %d ref = %q, want %q", i, el.Ref, want)
		}
		if seen[el.Ref] {
			t.Errorf("duplicate ref %q", el.Ref)
		}
		seen[el.Ref] = true
		if !IsRef(el.Ref) {
			t.Errorf("ref %q does not match the ref shape", el.Ref)
		}
	}
}

func TestBuildHiddenFiltered(t *testing.T) {
	snap := Build(loginPage(), DefaultOptions())
	for _, el := range snap.Elements {
		if el.Attributes["name"] == "hp" {
			t.Error("hidden honeypot should be filtered from the default snapshot")
		}
	}

	withHidden := Build(loginPage(), Options{InteractiveOnly: true, IncludeHidden: true})
	if len(withHidden.Elements) != 3 {
		t.Errorf("expected honeypot included with IncludeHidden, got %d elements", len(withHidden.Elements))
	}
}

func TestBuildMaxDepth(t *testing.T) {
	snap := Build(loginPage(), Options{InteractiveOnly: false, MaxDepth: 2})
	// body (1) and its direct children (2); nothing inside the form.
	for _, el := range snap.Elements {
		if el.TagName == "input" || el.TagName == "button" {
			t.Errorf("element %q exceeds max depth", el.Ref)
		}
	}
}

func TestBuildCompactOmitsTextAndAttributes(t *testing.T) {
	snap := Build(loginPage(), Options{InteractiveOnly: true, Compact: true})
	for _, el := range snap.Elements {
		if el.Text != "" || el.Attributes != nil {
			t.Errorf("compact element carries text/attributes: %+v", el)
		}
	}
}

func TestBuildXPathIsStructural(t *testing.T) {
	snap := Build(loginPage(), DefaultOptions())
	email := snap.Elements[0]
	if email.XPath != "/form[1]/input[1]" {
		t.Errorf("email xpath = %q, want /form[1]/input[1]", email.XPath)
	}
	submit := snap.Elements[1]
	if submit.XPath != "/form[1]/button[1]" {
		t.Errorf("submit xpath = %q, want /form[1]/button[1]", submit.XPath)
	}
}

func TestBuildNthIndexes(t *testing.T) {
	mk := func(label string) *treeNode {
		text := elem("span", nil)
		text.OwnText = label
		return elem("button", nil, text)
	}
	root := elem("body", nil, mk("Delete"), mk("Delete"), mk("Archive"))
	snap := Build(&Page{Root: root}, DefaultOptions())

	var deletes []RefElement
	var archive *RefElement
	for i, el := range snap.Elements {
		switch el.Name {
		case "Delete":
			deletes = append(deletes, el)
		case "Archive":
			archive = &snap.Elements[i]
		}
	}
	if len(deletes) != 2 {
		t.Fatalf("expected 2 Delete buttons, got %d", len(deletes))
	}
	if deletes[0].NthIndex != 1 || deletes[1].NthIndex != 2 {
		t.Errorf("duplicate role+name pairs should get 1-based nth indexes, got %d and %d",
			deletes[0].NthIndex, deletes[1].NthIndex)
	}
	if archive == nil || archive.NthIndex != 0 {
		t.Errorf("unique role+name should carry no nth index, got %+v", archive)
	}
}

func TestBuildRawTree(t *testing.T) {
	snap := Build(loginPage(), Options{InteractiveOnly: true, IncludeRawTree: true})
	if snap.RawTree == "" {
		t.Error("IncludeRawTree should attach the serialized tree")
	}

	plain := Build(loginPage(), DefaultOptions())
	if plain.RawTree != "" {
		t.Error("RawTree should be empty by default")
	}
}

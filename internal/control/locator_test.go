package control

import (
	"strings"
	"testing"
)

func TestLocatorSelector(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
		want string
	}{
		{"css", CSS("#submit"), `css=#submit`},
		{"xpath", Locator{Strategy: StrategyXPath, Value: "//button[1]"}, `xpath=//button[1]`},
		{"role with name", Role("button", "Save"), `role=button[name="Save"]`},
		{"role only", Role("textbox", ""), `role=textbox`},
		{"text", Text("Log in"), `text="Log in"`},
		{"testid", TestID("nav-home"), `testid=nav-home`},
		{"coords", Coords(420, 88), `coords=420,88`},
		{"within scope", Locator{Strategy: StrategyCSS, Value: ".item", Within: "#list"}, `within=#list >> css=.item`},
		{"nth", Locator{Strategy: StrategyText, Value: "Delete", Nth: 2}, `text="Delete" >> nth=2`},
		{
			"within and nth",
			Locator{Strategy: StrategyRole, Value: "button", Within: "#toolbar", Nth: 3},
			`within=#toolbar >> role=button >> nth=3`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.loc.Selector()
			if err != nil {
				t.Fatalf("Selector() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Selector() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocatorSelectorRefRejected(t *testing.T) {
	loc := Locator{Strategy: StrategyRef, Value: "@e3"}
	_, err := loc.Selector()
	if err == nil {
		t.Fatal("ref locator should not translate to a channel selector")
	}
	if !strings.Contains(err.Error(), "@e3") {
		t.Errorf("error should name the ref, got: %v", err)
	}
}

func TestLocatorSelectorUnknownStrategy(t *testing.T) {
	loc := Locator{Strategy: Strategy("teleport"), Value: "x"}
	if _, err := loc.Selector(); err == nil {
		t.Fatal("unknown strategy should error")
	}
}

func TestRoleLocatorQuotesName(t *testing.T) {
	loc := Role("button", `Say "hi"`)
	got, err := loc.Selector()
	if err != nil {
		t.Fatalf("Selector() error: %v", err)
	}
	want := `role=button[name="Say \"hi\""]`
	if got != want {
		t.Errorf("Selector() = %q, want %q", got, want)
	}
}

package control

import "fmt"

// Strategy identifies how a Locator finds an element.
type Strategy string

const (
	StrategyRef    Strategy = "ref"
	StrategyCSS    Strategy = "css"
	StrategyXPath  Strategy = "xpath"
	StrategyRole   Strategy = "role"
	StrategyText   Strategy = "text"
	StrategyTestID Strategy = "testid"
	StrategyVisual Strategy = "visual"
)

// Locator is a strategy-tagged description of how to find an element,
// independent of whether it has been resolved yet.
type Locator struct {
	Strategy Strategy `json:"strategy"        yaml:"strategy"`
	Value    string   `json:"value"           yaml:"value"`
	Within   string   `json:"within,omitempty" yaml:"within,omitempty"`
	Nth      int      `json:"nth,omitempty"    yaml:"nth,omitempty"`
}

// CSS returns a CSS locator for the given selector.
func CSS(selector string) Locator { return Locator{Strategy: StrategyCSS, Value: selector} }

// Text returns a text locator for the given visible text.
func Text(text string) Locator { return Locator{Strategy: StrategyText, Value: text} }

// TestID returns a test-id locator for the given data-testid value.
func TestID(id string) Locator { return Locator{Strategy: StrategyTestID, Value: id} }

// Role returns a role locator. name may be empty to match by role alone.
func Role(role, name string) Locator {
	v := role
	if name != "" {
		v = fmt.Sprintf("%s[name=%q]", role, name)
	}
	return Locator{Strategy: StrategyRole, Value: v}
}

// Coords returns a visual locator carrying resolved screen coordinates.
func Coords(x, y int) Locator {
	return Locator{Strategy: StrategyVisual, Value: fmt.Sprintf("%d,%d", x, y)}
}

// Selector translates the locator into the control channel's textual selector
// grammar. The translation is total: every strategy is handled explicitly,
// and ref locators are rejected loudly because refs are resolution-time
// indirection that must be converted to a concrete locator before reaching
// the channel.
func (l Locator) Selector() (string, error) {
	var base string
	switch l.Strategy {
	case StrategyRef:
		return "", fmt.Errorf("ref locator %q must be resolved to a concrete locator before execution", l.Value)
	case StrategyCSS:
		base = "css=" + l.Value
	case StrategyXPath:
		base = "xpath=" + l.Value
	case StrategyRole:
		base = "role=" + l.Value
	case StrategyText:
		base = fmt.Sprintf("text=%q", l.Value)
	case StrategyTestID:
		base = "testid=" + l.Value
	case StrategyVisual:
		base = "coords=" + l.Value
	default:
		return "", fmt.Errorf("unknown locator strategy %q", l.Strategy)
	}
	if l.Within != "" {
		base = fmt.Sprintf("within=%s >> %s", l.Within, base)
	}
	if l.Nth > 0 {
		base = fmt.Sprintf("%s >> nth=%d", base, l.Nth)
	}
	return base, nil
}

package control

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// ElementRef is the channel's view of one element, as returned by the
// snapshot verb.
type ElementRef struct {
	Ref      string `json:"ref"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	Selector string `json:"selector,omitempty"`
	Bounds   [4]int `json:"bounds,omitempty"`
	Visible  bool   `json:"visible"`
	Enabled  bool   `json:"enabled"`
}

// ChannelSnapshot is the decoded result of the snapshot verb.
type ChannelSnapshot struct {
	URL        string       `json:"url,omitempty"`
	Title      string       `json:"title,omitempty"`
	Elements   []ElementRef `json:"elements"`
	Screenshot []byte       `json:"-"`
}

// GetSnapshot invokes the channel's snapshot verb. When withScreenshot is
// set, a screenshot is captured and attached in the same call sequence.
func (a *Adapter) GetSnapshot(ctx context.Context, interactive, withScreenshot bool) (*ChannelSnapshot, error) {
	args := []string{}
	if interactive {
		args = append(args, "--interactive")
	}
	data, err := a.command(ctx, "snapshot", args...)
	if err != nil {
		return nil, err
	}
	var snap ChannelSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &CommandError{Verb: "snapshot", Stdout: string(data), Reason: "unexpected snapshot payload: " + err.Error()}
	}
	if withScreenshot {
		shot, err := a.Screenshot(ctx)
		if err != nil {
			return nil, err
		}
		snap.Screenshot = shot
	}
	return &snap, nil
}

// Click clicks the element. Double-clicks are routed to the dedicated
// dblclick verb rather than synthesized as two rapid single clicks, so the
// channel preserves native double-click timing.
func (a *Adapter) Click(ctx context.Context, loc Locator, double bool) error {
	sel, err := selectorArg(loc)
	if err != nil {
		return err
	}
	verb := "click"
	if double {
		verb = "dblclick"
	}
	_, err = a.command(ctx, verb, sel)
	return err
}

// Type focuses the element and types text into it.
func (a *Adapter) Type(ctx context.Context, loc Locator, text string) error {
	sel, err := selectorArg(loc)
	if err != nil {
		return err
	}
	_, err = a.command(ctx, "type", sel, text)
	return err
}

// Press sends a key combination (e.g. "Enter", "ctrl+a") to the surface.
func (a *Adapter) Press(ctx context.Context, keys string) error {
	_, err := a.command(ctx, "press", keys)
	return err
}

// Hover moves the pointer over the element.
func (a *Adapter) Hover(ctx context.Context, loc Locator) error {
	sel, err := selectorArg(loc)
	if err != nil {
		return err
	}
	_, err = a.command(ctx, "hover", sel)
	return err
}

// Scroll scrolls by the given deltas. A nil locator scrolls the window.
func (a *Adapter) Scroll(ctx context.Context, loc *Locator, dx, dy int) error {
	args := []string{}
	if loc != nil {
		sel, err := selectorArg(*loc)
		if err != nil {
			return err
		}
		args = append(args, sel)
	}
	args = append(args, strconv.Itoa(dx), strconv.Itoa(dy))
	_, err := a.command(ctx, "scroll", args...)
	return err
}

// Drag drags from one element to another.
func (a *Adapter) Drag(ctx context.Context, from, to Locator) error {
	fromSel, err := selectorArg(from)
	if err != nil {
		return err
	}
	toSel, err := selectorArg(to)
	if err != nil {
		return err
	}
	_, err = a.command(ctx, "drag", fromSel, toSel)
	return err
}

// GetText returns the element's visible text.
func (a *Adapter) GetText(ctx context.Context, loc Locator) (string, error) {
	return a.stringVerb(ctx, "gettext", loc)
}

// GetValue returns the element's current value.
func (a *Adapter) GetValue(ctx context.Context, loc Locator) (string, error) {
	return a.stringVerb(ctx, "getvalue", loc)
}

// GetAttribute returns the named attribute of the element.
func (a *Adapter) GetAttribute(ctx context.Context, loc Locator, name string) (string, error) {
	sel, err := selectorArg(loc)
	if err != nil {
		return "", err
	}
	data, err := a.command(ctx, "getattr", sel, name)
	if err != nil {
		return "", err
	}
	return decodeString("getattr", data)
}

// GetURL returns the surface's current location.
func (a *Adapter) GetURL(ctx context.Context) (string, error) {
	data, err := a.command(ctx, "geturl")
	if err != nil {
		return "", err
	}
	return decodeString("geturl", data)
}

// GetTitle returns the surface's current title.
func (a *Adapter) GetTitle(ctx context.Context) (string, error) {
	data, err := a.command(ctx, "gettitle")
	if err != nil {
		return "", err
	}
	return decodeString("gettitle", data)
}

// IsVisible reports whether the element exists and is visible.
func (a *Adapter) IsVisible(ctx context.Context, loc Locator) (bool, error) {
	return a.boolVerb(ctx, "isvisible", loc)
}

// IsEnabled reports whether the element is enabled.
func (a *Adapter) IsEnabled(ctx context.Context, loc Locator) (bool, error) {
	return a.boolVerb(ctx, "isenabled", loc)
}

// Evaluate executes a script against the target surface and returns the
// decoded result. Non-JSON output is a hard error by contract.
func (a *Adapter) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	data, err := a.command(ctx, "eval", script)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && !json.Valid(data) {
		return nil, &CommandError{Verb: "eval", Stdout: string(data), Reason: "eval returned non-JSON data"}
	}
	return data, nil
}

// Screenshot captures the surface and returns raw image bytes.
func (a *Adapter) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := a.command(ctx, "screenshot")
	if err != nil {
		return nil, err
	}
	b64, err := decodeString("screenshot", data)
	if err != nil {
		return nil, err
	}
	img, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &CommandError{Verb: "screenshot", Reason: "screenshot payload is not base64: " + err.Error()}
	}
	return img, nil
}

// StartRecording begins a screen recording on the channel.
func (a *Adapter) StartRecording(ctx context.Context) error {
	_, err := a.command(ctx, "recordstart")
	return err
}

// StopRecording stops recording and returns the output path reported by the
// channel.
func (a *Adapter) StopRecording(ctx context.Context) (string, error) {
	data, err := a.command(ctx, "recordstop")
	if err != nil {
		return "", err
	}
	return decodeString("recordstop", data)
}

// WaitFor blocks until the element reaches the given state ("visible",
// "hidden", "enabled") or the channel's own wait deadline expires.
func (a *Adapter) WaitFor(ctx context.Context, loc Locator, state string, timeoutMs int) error {
	sel, err := selectorArg(loc)
	if err != nil {
		return err
	}
	_, err = a.command(ctx, "wait", sel, state, strconv.Itoa(timeoutMs))
	return err
}

func (a *Adapter) stringVerb(ctx context.Context, verb string, loc Locator) (string, error) {
	sel, err := selectorArg(loc)
	if err != nil {
		return "", err
	}
	data, err := a.command(ctx, verb, sel)
	if err != nil {
		return "", err
	}
	return decodeString(verb, data)
}

func (a *Adapter) boolVerb(ctx context.Context, verb string, loc Locator) (bool, error) {
	sel, err := selectorArg(loc)
	if err != nil {
		return false, err
	}
	data, err := a.command(ctx, verb, sel)
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return false, &CommandError{Verb: verb, Stdout: string(data), Reason: "expected boolean data: " + err.Error()}
	}
	return v, nil
}

func decodeString(verb string, data json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", &CommandError{Verb: verb, Stdout: string(data), Reason: fmt.Sprintf("expected string data: %v", err)}
	}
	return s, nil
}

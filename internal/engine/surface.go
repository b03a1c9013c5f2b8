package engine

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mj1618/uipilot/internal/control"
	"github.com/mj1618/uipilot/internal/refs"
)

// Find locates a target (ref, selector, or element text) without acting on
// it. The result data carries the matched element or visual coordinates.
func (e *Engine) Find(ctx context.Context, target string) (*ActionResult, error) {
	return e.act(ctx, target, func(control.Locator) error { return nil })
}

// FindAll returns every current-snapshot element whose accessible name
// contains the target text (case-insensitive), snapshotting first when no
// generation exists.
func (e *Engine) FindAll(ctx context.Context, target string) ([]refs.RefElement, error) {
	if e.refs.Current() == nil {
		if _, err := e.refs.Snapshot(ctx, refs.DefaultOptions()); err != nil {
			return nil, err
		}
	}
	needle := strings.ToLower(target)
	var out []refs.RefElement
	for _, el := range e.refs.Current().Elements {
		if strings.Contains(strings.ToLower(el.Name), needle) {
			out = append(out, el)
		}
	}
	return out, nil
}

// Click clicks the target. Double-clicks route to the channel's dedicated
// dblclick verb.
func (e *Engine) Click(ctx context.Context, target string, double bool) (*ActionResult, error) {
	return e.act(ctx, target, func(loc control.Locator) error {
		return e.adapter.Click(ctx, loc, double)
	})
}

// Type types text into the target element.
func (e *Engine) Type(ctx context.Context, target, text string) (*ActionResult, error) {
	return e.act(ctx, target, func(loc control.Locator) error {
		return e.adapter.Type(ctx, loc, text)
	})
}

// Press sends a key combination to the surface.
func (e *Engine) Press(ctx context.Context, keys string) (*ActionResult, error) {
	res := &ActionResult{}
	if err := e.adapter.Press(ctx, keys); err != nil {
		res.Status = statusFor(err)
		res.Error = err.Error()
		return res, err
	}
	res.Status = StatusSuccess
	return res, nil
}

// Hover moves the pointer over the target.
func (e *Engine) Hover(ctx context.Context, target string) (*ActionResult, error) {
	return e.act(ctx, target, func(loc control.Locator) error {
		return e.adapter.Hover(ctx, loc)
	})
}

// Scroll scrolls the target (or the window when target is "") by dx/dy.
func (e *Engine) Scroll(ctx context.Context, target string, dx, dy int) (*ActionResult, error) {
	if target == "" {
		res := &ActionResult{}
		if err := e.adapter.Scroll(ctx, nil, dx, dy); err != nil {
			res.Status = statusFor(err)
			res.Error = err.Error()
			return res, err
		}
		res.Status = StatusSuccess
		return res, nil
	}
	return e.act(ctx, target, func(loc control.Locator) error {
		return e.adapter.Scroll(ctx, &loc, dx, dy)
	})
}

// Drag drags from one target to another. Both endpoints go through the
// cascade independently, but share one result envelope: the visual tier
// answering for either endpoint marks the result, and the cost window spans
// both locates.
func (e *Engine) Drag(ctx context.Context, fromTarget, toTarget string) (*ActionResult, error) {
	start := time.Now()
	costBefore := e.tracker.Total()

	from, failRes, err := e.locate(ctx, fromTarget)
	if failRes != nil {
		failRes.Duration = time.Since(start)
		return failRes, err
	}
	to, failRes, err := e.locate(ctx, toTarget)
	if failRes != nil {
		failRes.UsedVLM = failRes.UsedVLM || from.Tier == tierVisual
		failRes.VLMCost = e.tracker.Total() - costBefore
		failRes.Duration = time.Since(start)
		return failRes, err
	}

	res := &ActionResult{UsedVLM: from.Tier == tierVisual || to.Tier == tierVisual}
	if err := e.adapter.Drag(ctx, from.Locator, to.Locator); err != nil {
		res.Status = statusFor(err)
		res.Error = err.Error()
		res.Duration = time.Since(start)
		res.VLMCost = e.tracker.Total() - costBefore
		return res, err
	}
	res.Status = StatusSuccess
	if res.UsedVLM {
		res.Status = StatusVLMFallback
	}
	res.Duration = time.Since(start)
	res.VLMCost = e.tracker.Total() - costBefore
	return res, nil
}

// GetText returns the target's visible text.
func (e *Engine) GetText(ctx context.Context, target string) (string, error) {
	loc, failRes, err := e.locate(ctx, target)
	if failRes != nil {
		return "", errLocate(failRes, err)
	}
	return e.adapter.GetText(ctx, loc.Locator)
}

// GetValue returns the target's current value.
func (e *Engine) GetValue(ctx context.Context, target string) (string, error) {
	loc, failRes, err := e.locate(ctx, target)
	if failRes != nil {
		return "", errLocate(failRes, err)
	}
	return e.adapter.GetValue(ctx, loc.Locator)
}

// GetAttribute returns a named attribute of the target.
func (e *Engine) GetAttribute(ctx context.Context, target, name string) (string, error) {
	loc, failRes, err := e.locate(ctx, target)
	if failRes != nil {
		return "", errLocate(failRes, err)
	}
	return e.adapter.GetAttribute(ctx, loc.Locator, name)
}

// IsVisible reports whether the target exists and is visible. A cascade
// miss is reported as false, not an error.
func (e *Engine) IsVisible(ctx context.Context, target string) (bool, error) {
	loc, failRes, err := e.locate(ctx, target)
	if failRes != nil {
		if err != nil {
			return false, err
		}
		return false, nil
	}
	return e.adapter.IsVisible(ctx, loc.Locator)
}

// IsEnabled reports whether the target is enabled.
func (e *Engine) IsEnabled(ctx context.Context, target string) (bool, error) {
	loc, failRes, err := e.locate(ctx, target)
	if failRes != nil {
		return false, errLocate(failRes, err)
	}
	return e.adapter.IsEnabled(ctx, loc.Locator)
}

// Evaluate executes a script against the surface and returns its decoded
// JSON result.
func (e *Engine) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	return e.adapter.Evaluate(ctx, script)
}

// Screenshot captures the surface.
func (e *Engine) Screenshot(ctx context.Context) ([]byte, error) {
	return e.adapter.Screenshot(ctx)
}

// GetURL returns the surface's current location.
func (e *Engine) GetURL(ctx context.Context) (string, error) {
	return e.adapter.GetURL(ctx)
}

// GetTitle returns the surface's current title.
func (e *Engine) GetTitle(ctx context.Context) (string, error) {
	return e.adapter.GetTitle(ctx)
}

// StartRecording begins a screen recording for the session.
func (e *Engine) StartRecording(ctx context.Context) error {
	return e.adapter.StartRecording(ctx)
}

// StopRecording stops the session's recording and returns the channel's
// reported output path.
func (e *Engine) StopRecording(ctx context.Context) (string, error) {
	return e.adapter.StopRecording(ctx)
}

// WaitFor blocks until the target reaches the given state or the channel's
// wait deadline expires. The target resolves without the cascade's visibility
// probing: the element is usually not in the desired state yet.
func (e *Engine) WaitFor(ctx context.Context, target, state string, timeoutMs int) (*ActionResult, error) {
	start := time.Now()

	loc, failRes, err := e.waitLocator(ctx, target)
	if failRes != nil {
		failRes.Duration = time.Since(start)
		return failRes, err
	}

	res := &ActionResult{}
	if err := e.adapter.WaitFor(ctx, loc, state, timeoutMs); err != nil {
		res.Status = statusFor(err)
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res, err
	}
	res.Status = StatusSuccess
	res.Duration = time.Since(start)
	return res, nil
}

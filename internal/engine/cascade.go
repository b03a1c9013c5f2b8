package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mj1618/uipilot/internal/control"
	"github.com/mj1618/uipilot/internal/refs"
	"github.com/mj1618/uipilot/internal/vision"
)

// tier identifies which cascade stage located the element.
type tier int

const (
	tierRef tier = iota + 1
	tierSelector
	tierVisual
)

// location is a successful cascade outcome: a concrete locator the control
// channel can act on, plus where it came from.
type location struct {
	Locator control.Locator
	Element *refs.RefElement
	Visual  *vision.FindResult
	Tier    tier
}

// looksLikeSelector reports whether target reads as a raw selector rather
// than human-facing text.
func looksLikeSelector(target string) bool {
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "(") {
		return true
	}
	return strings.ContainsAny(target, "#.[>:")
}

// selectorCandidates builds the selector-tier attempts for a target, in
// cheap-to-check order.
func selectorCandidates(target string) []control.Locator {
	var cands []control.Locator
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "(") {
		cands = append(cands, control.Locator{Strategy: control.StrategyXPath, Value: target})
	} else if looksLikeSelector(target) {
		cands = append(cands, control.CSS(target))
	}
	cands = append(cands, control.TestID(target), control.Text(target))
	return cands
}

// locate runs the fallback cascade for a target. It returns either a
// location or a terminal result; fatal errors (channel, transport, timeout)
// are returned as err with the result mirroring the failure.
func (e *Engine) locate(ctx context.Context, target string) (*location, *ActionResult, error) {
	start := time.Now()
	costBefore := e.tracker.Total()

	fail := func(status Status, msg string, usedVLM bool, err error) (*location, *ActionResult, error) {
		res := &ActionResult{
			Status:   status,
			Error:    msg,
			Duration: time.Since(start),
			UsedVLM:  usedVLM,
		}
		if usedVLM {
			res.VLMCost = e.tracker.Total() - costBefore
		}
		return nil, res, err
	}

	// Tier 1: reference resolution against the cached snapshot.
	var selectorTier []control.Locator
	if refs.IsRef(target) {
		resolved, err := e.refs.Resolve(ctx, target)
		if err != nil {
			// Unknown ref or missing snapshot: nothing cheaper to try.
			return fail(StatusNotFound, err.Error(), false, nil)
		}
		if resolved.Valid {
			loc := refs.LocatorFor(resolved.Element)
			return &location{Locator: loc, Element: &resolved.Element, Tier: tierRef}, nil, nil
		}
		// Stale ref: fall through to the selector tier with what we knew
		// about the element at snapshot time.
		e.log.Debug("stale ref, advancing cascade")
		selectorTier = append(selectorTier,
			control.CSS(resolved.Element.Selector),
			refs.LocatorFor(resolved.Element),
		)
	} else {
		if matches := e.refs.FindByName(target); len(matches) > 0 {
			el := matches[0]
			return &location{Locator: refs.LocatorFor(el), Element: &el, Tier: tierRef}, nil, nil
		}
		selectorTier = selectorCandidates(target)
	}

	// Tier 2: raw selector strategies through the control channel.
	for _, cand := range selectorTier {
		visible, err := e.adapter.IsVisible(ctx, cand)
		if err != nil {
			if IsTimeout(err) {
				return fail(StatusTimeout, err.Error(), false, err)
			}
			return fail(StatusFailed, err.Error(), false, err)
		}
		if visible {
			return &location{Locator: cand, Tier: tierSelector}, nil, nil
		}
	}

	// Tier 3: visual location, only in non-deterministic modes.
	if e.mode == ModeDeterministic || e.router == nil {
		return fail(StatusNotFound, fmt.Sprintf("no element matches %q (visual tier disabled)", target), false, nil)
	}

	shot, err := e.adapter.Screenshot(ctx)
	if err != nil {
		return fail(statusFor(err), err.Error(), false, err)
	}
	found, err := e.router.FindElement(ctx, shot, target, "")
	if err != nil {
		return fail(statusFor(err), err.Error(), true, err)
	}
	if found.NotFound || found.Coordinates == nil {
		msg := fmt.Sprintf("no element matches %q", target)
		if found.Reasoning != "" {
			msg += ": " + found.Reasoning
		}
		return fail(StatusNotFound, msg, true, nil)
	}
	loc := control.Coords(found.Coordinates[0], found.Coordinates[1])
	return &location{Locator: loc, Visual: found, Tier: tierVisual}, nil, nil
}

// waitLocator resolves a wait target to a single locator without probing the
// surface: waiting for a not-yet-visible element is the point of the wait
// verb, so the selector tier's visibility gate does not apply. The channel's
// own wait does the blocking.
func (e *Engine) waitLocator(ctx context.Context, target string) (control.Locator, *ActionResult, error) {
	if refs.IsRef(target) {
		resolved, err := e.refs.Resolve(ctx, target)
		if err != nil {
			return control.Locator{}, &ActionResult{Status: StatusNotFound, Error: err.Error()}, nil
		}
		if resolved.Valid {
			return refs.LocatorFor(resolved.Element), nil, nil
		}
		// Stale ref: wait on the selector cached at snapshot time.
		return control.CSS(resolved.Element.Selector), nil, nil
	}
	if matches := e.refs.FindByName(target); len(matches) > 0 {
		return refs.LocatorFor(matches[0]), nil, nil
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "(") {
		return control.Locator{Strategy: control.StrategyXPath, Value: target}, nil, nil
	}
	if looksLikeSelector(target) {
		return control.CSS(target), nil, nil
	}
	return control.Text(target), nil, nil
}

// act locates the target and runs fn against the resulting locator,
// producing the uniform result envelope.
func (e *Engine) act(ctx context.Context, target string, fn func(loc control.Locator) error) (*ActionResult, error) {
	start := time.Now()
	costBefore := e.tracker.Total()

	loc, failRes, err := e.locate(ctx, target)
	if failRes != nil {
		return failRes, err
	}

	res := &ActionResult{UsedVLM: loc.Tier == tierVisual}
	if err := fn(loc.Locator); err != nil {
		res.Status = statusFor(err)
		res.Error = err.Error()
		res.Duration = time.Since(start)
		res.VLMCost = e.tracker.Total() - costBefore
		return res, err
	}

	res.Status = StatusSuccess
	if loc.Tier == tierVisual {
		res.Status = StatusVLMFallback
	}
	if loc.Element != nil {
		res.Data = *loc.Element
	} else if loc.Visual != nil {
		res.Data = *loc.Visual
	}
	res.Duration = time.Since(start)
	res.VLMCost = e.tracker.Total() - costBefore
	return res, nil
}

// errLocate adapts a terminal locate result into an error for typed-value
// operations that have no result envelope to absorb it.
func errLocate(res *ActionResult, err error) error {
	if err != nil {
		return err
	}
	return errors.New(res.Error)
}

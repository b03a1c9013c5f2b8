// Package engine orchestrates the locate-or-act fallback cascade:
// reference resolution, then raw selector strategies via the control
// channel, then vision-model-based visual location as a last resort. Stages
// execute strictly in order and short-circuit on first success, so a
// costlier tier is never attempted before a cheaper one.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/uipilot/internal/agentenv"
	"github.com/mj1618/uipilot/internal/control"
	"github.com/mj1618/uipilot/internal/cost"
	"github.com/mj1618/uipilot/internal/refs"
	"github.com/mj1618/uipilot/internal/vision"
	"go.uber.org/zap"
)

// Mode gates the visual tier.
type Mode string

const (
	// ModeDeterministic never uses the vision tier.
	ModeDeterministic Mode = "deterministic"
	// ModeAuto uses the vision tier only after both cheaper tiers miss.
	ModeAuto Mode = "auto"
	// ModeVisual permits the vision tier, still cascading cheapest-first.
	ModeVisual Mode = "visual"
)

// Config configures an Engine.
type Config struct {
	Tool    string        // control channel binary (default "desktop-cli")
	Session string        // channel session id (default: fresh random id)
	Mode    Mode          // default ModeAuto
	Timeout time.Duration // per-channel-command timeout
	Vision  vision.Config // vision tier configuration
}

// Engine is the resolution-and-execution façade consumed by higher-level
// testers. One engine owns one channel session, one snapshot generation,
// and one cost ledger; callers serialize snapshot/resolve/act sequences.
type Engine struct {
	adapter *control.Adapter
	refs    *refs.Manager
	router  *vision.Router
	tracker *cost.Tracker
	mode    Mode
	session string
	log     *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) EngineOption { return func(e *Engine) { e.log = l } }

// WithAdapter replaces the control adapter. Used by tests.
func WithAdapter(a *control.Adapter) EngineOption { return func(e *Engine) { e.adapter = a } }

// WithRouter replaces the vision router. Used by tests.
func WithRouter(r *vision.Router) EngineOption { return func(e *Engine) { e.router = r } }

// WithTracker replaces the cost ledger.
func WithTracker(t *cost.Tracker) EngineOption { return func(e *Engine) { e.tracker = t } }

// New builds an engine. In deterministic mode no vision router is
// constructed at all; in auto mode a router that cannot be built (no
// credentials, no agent environment) downgrades the engine to the two
// deterministic tiers with a logged warning.
func New(cfg Config, opts ...EngineOption) (*Engine, error) {
	if cfg.Tool == "" {
		cfg.Tool = "desktop-cli"
	}
	if cfg.Session == "" {
		cfg.Session = uuid.NewString()[:8]
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeAuto
	}

	e := &Engine{mode: cfg.Mode, session: cfg.Session, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracker == nil {
		e.tracker = cost.NewTracker()
	}
	if e.adapter == nil {
		adapterOpts := []control.Option{
			control.WithSession(cfg.Session),
			control.WithLogger(e.log),
		}
		if cfg.Timeout > 0 {
			adapterOpts = append(adapterOpts, control.WithTimeout(cfg.Timeout))
		}
		e.adapter = control.NewAdapter(cfg.Tool, adapterOpts...)
	}
	if e.router == nil && cfg.Mode != ModeDeterministic {
		router, err := vision.NewRouter(cfg.Vision,
			vision.WithTracker(e.tracker),
			vision.WithLogger(e.log),
		)
		if err != nil {
			if cfg.Mode == ModeVisual {
				return nil, fmt.Errorf("visual mode requires a vision provider: %w", err)
			}
			e.log.Warn("vision tier unavailable; continuing with deterministic tiers", zap.Error(err))
		} else {
			e.router = router
		}
	}
	if e.refs == nil {
		e.refs = refs.NewManager(refs.SourceFunc(e.capturePage))
	}
	return e, nil
}

// Session returns the engine's channel session id.
func (e *Engine) Session() string { return e.session }

// Tracker returns the engine's cost ledger.
func (e *Engine) Tracker() *cost.Tracker { return e.tracker }

// Router returns the vision router (nil when the visual tier is off).
func (e *Engine) Router() *vision.Router { return e.router }

// Bridge returns the agent bridge when the vision tier runs in bridge mode.
func (e *Engine) Bridge() *agentenv.Bridge {
	if e.router == nil {
		return nil
	}
	return e.router.Bridge()
}

// Connect opens the control channel session. Fails loudly when the channel
// is unreachable.
func (e *Engine) Connect(ctx context.Context) error {
	return e.adapter.Connect(ctx)
}

// Close releases the channel session. Best-effort.
func (e *Engine) Close(ctx context.Context) {
	e.adapter.Disconnect(ctx)
}

// treeDumpScript serializes the surface's element tree for snapshotting.
// It runs through the channel's eval verb against the live surface.
const treeDumpScript = `(() => {
  const ser = (el) => {
    const r = el.getBoundingClientRect();
    const attrs = {};
    for (const a of el.attributes) attrs[a.name] = a.value;
    const text = Array.from(el.childNodes)
      .filter((n) => n.nodeType === Node.TEXT_NODE)
      .map((n) => n.textContent)
      .join(" ")
      .trim();
    return {
      tag: el.tagName.toLowerCase(),
      attrs,
      text,
      value: "value" in el ? String(el.value ?? "") : "",
      bounds: [Math.round(r.x), Math.round(r.y), Math.round(r.width), Math.round(r.height)],
      children: Array.from(el.children).map(ser),
    };
  };
  return { url: location.href, title: document.title, tree: ser(document.documentElement) };
})()`

// capturePage pulls a fresh tree dump through the control channel.
func (e *Engine) capturePage(ctx context.Context) (*refs.Page, error) {
	data, err := e.adapter.Evaluate(ctx, treeDumpScript)
	if err != nil {
		return nil, err
	}
	return refs.ParsePage(data)
}

// Snapshot builds a fresh snapshot, replacing the previous generation.
func (e *Engine) Snapshot(ctx context.Context, opts refs.Options) (*refs.Snapshot, error) {
	return e.refs.Snapshot(ctx, opts)
}

// Invalidate drops the cached snapshot. Must be called after any full
// navigation; refs across an un-invalidated navigation are undefined.
func (e *Engine) Invalidate() { e.refs.Invalidate() }

// Refs returns the engine's ref manager.
func (e *Engine) Refs() *refs.Manager { return e.refs }

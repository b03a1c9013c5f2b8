// Package vision provides a uniform request/response contract over multiple
// vision-model backends, plus an escape hatch to the agent-environment
// bridge so visual queries can be answered for free by a host agent session
// instead of a metered API call.
package vision

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mj1618/uipilot/internal/agentenv"
	"github.com/mj1618/uipilot/internal/cost"
	"go.uber.org/zap"
)

// Fallback usage estimates applied when a backend reports no token counts,
// so cost accounting never blocks on absent data.
const (
	estimatedInputTokens  = 1000
	estimatedOutputTokens = 500
)

// FindResult is the outcome of a visual element location.
type FindResult struct {
	Coordinates *[2]int `json:"coordinates,omitempty" yaml:"coordinates,omitempty,flow"`
	Confidence  float64 `json:"confidence"            yaml:"confidence"`
	Reasoning   string  `json:"reasoning,omitempty"   yaml:"reasoning,omitempty"`
	NotFound    bool    `json:"notFound,omitempty"    yaml:"notFound,omitempty"`
	Alternative string  `json:"alternative,omitempty" yaml:"alternative,omitempty"`
}

// ActionDecision is one planned step of a visual instruction loop.
type ActionDecision struct {
	ActionType   string            `json:"actionType"             yaml:"actionType"`
	ActionParams map[string]string `json:"actionParams,omitempty" yaml:"actionParams,omitempty"`
	Thought      string            `json:"thought,omitempty"      yaml:"thought,omitempty"`
	Reflection   string            `json:"reflection,omitempty"   yaml:"reflection,omitempty"`
	Finished     bool              `json:"finished"               yaml:"finished"`
}

// AssertResult is the outcome of a visual assertion.
type AssertResult struct {
	Passed      bool     `json:"passed"                yaml:"passed"`
	Reasoning   string   `json:"reasoning,omitempty"   yaml:"reasoning,omitempty"`
	Actual      string   `json:"actual,omitempty"      yaml:"actual,omitempty"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// Router routes vision operations to one resolved backend, or to the agent
// bridge. The provider decision is made once at construction and never
// re-evaluated per call.
type Router struct {
	cfg      Config
	provider string
	model    string
	backend  Backend
	bridge   *agentenv.Bridge
	tracker  *cost.Tracker
	log      *zap.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTracker attaches the cost ledger.
func WithTracker(t *cost.Tracker) RouterOption { return func(r *Router) { r.tracker = t } }

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) RouterOption { return func(r *Router) { r.log = l } }

// WithBridge supplies a pre-built bridge (tests, shared scratch dirs).
func WithBridge(b *agentenv.Bridge) RouterOption { return func(r *Router) { r.bridge = b } }

// WithBackend replaces the resolved backend. Used by tests.
func WithBackend(b Backend) RouterOption { return func(r *Router) { r.backend = b } }

// NewRouter normalizes the provider alias, selects a default model, and
// resolves credentials. When no credentials are configured and the process
// context indicates a host agent session, construction switches to bridge
// mode (disable via Config.ExplicitProvider).
func NewRouter(cfg Config, opts ...RouterOption) (*Router, error) {
	provider, err := canonicalProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	r := &Router{cfg: cfg, provider: provider, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	apiKey := ""
	if provider != ProviderBridge {
		apiKey = resolveAPIKey(cfg, provider)
		if apiKey == "" && !cfg.ExplicitProvider && r.backend == nil {
			if env := agentenv.NewDetector().Environment(); env.Active() {
				r.log.Info("no vision credentials configured; switching to agent bridge",
					zap.String("requested", provider), zap.String("environment", string(env)))
				provider = ProviderBridge
				r.provider = ProviderBridge
			}
		}
	}

	if provider == ProviderBridge {
		if r.bridge == nil {
			bridge, err := agentenv.NewBridge(agentenv.WithBridgeLogger(r.log))
			if err != nil {
				return nil, err
			}
			r.bridge = bridge
		}
		return r, nil
	}

	r.model = cfg.Model
	if r.model == "" {
		r.model = defaultModels[provider]
	}
	if r.backend == nil {
		factory, ok := backends[provider]
		if !ok {
			return nil, fmt.Errorf("no backend registered for provider %q", provider)
		}
		if apiKey == "" {
			return nil, fmt.Errorf("no API key for provider %q: set %s or use bridge mode", provider, apiKeyEnv[provider])
		}
		r.backend = factory(apiKey, cfg.BaseURL)
	}
	return r, nil
}

// Provider returns the canonical provider the router resolved to.
func (r *Router) Provider() string { return r.provider }

// Model returns the resolved model ("" in bridge mode).
func (r *Router) Model() string { return r.model }

// BridgeMode reports whether queries are answered via the agent bridge.
func (r *Router) BridgeMode() bool { return r.provider == ProviderBridge }

// Bridge returns the bridge (nil outside bridge mode).
func (r *Router) Bridge() *agentenv.Bridge { return r.bridge }

// FindElement asks the visual tier to locate an element described in prose.
// A malformed reply degrades to NotFound with a diagnostic reason; only
// transport errors are returned as errors.
func (r *Router) FindElement(ctx context.Context, screenshot []byte, description, hint string) (*FindResult, error) {
	if r.BridgeMode() {
		payload := map[string]string{"description": description, "context": hint}
		ans, err := r.bridge.Ask(agentenv.KindFind, payload, screenshot)
		if err != nil {
			return nil, err
		}
		if !ans.Ready {
			return &FindResult{NotFound: true, Confidence: 0, Reasoning: "bridge response not yet available"}, nil
		}
		var res FindResult
		if err := decodeReply(ans.Raw, &res); err != nil {
			return &FindResult{NotFound: true, Confidence: 0, Reasoning: "unparseable bridge reply: " + err.Error()}, nil
		}
		return &res, nil
	}

	text, err := r.complete(ctx, "find_element", findElementSystem, findElementUser(description, hint), screenshot)
	if err != nil {
		return nil, err
	}
	var res FindResult
	if err := decodeReply(text, &res); err != nil {
		return &FindResult{NotFound: true, Confidence: 0, Reasoning: "unparseable model reply: " + err.Error()}, nil
	}
	return &res, nil
}

// GetNextAction asks the visual tier to plan one step toward an instruction.
// An unparseable reply degrades to a safe wait rather than aborting the
// caller's multi-step loop.
func (r *Router) GetNextAction(ctx context.Context, screenshot []byte, instruction, actionSpace string) (*ActionDecision, error) {
	if r.BridgeMode() {
		payload := map[string]string{"instruction": instruction, "actionSpace": actionSpace}
		ans, err := r.bridge.Ask(agentenv.KindAction, payload, screenshot)
		if err != nil {
			return nil, err
		}
		if !ans.Ready {
			return &ActionDecision{ActionType: "wait", Thought: "bridge response not yet available", Finished: false}, nil
		}
		var res ActionDecision
		if err := decodeReply(ans.Raw, &res); err != nil {
			return &ActionDecision{ActionType: "wait", Thought: "unparseable bridge reply: " + err.Error(), Finished: false}, nil
		}
		return &res, nil
	}

	text, err := r.complete(ctx, "get_next_action", nextActionSystem, nextActionUser(instruction, actionSpace), screenshot)
	if err != nil {
		return nil, err
	}
	var res ActionDecision
	if err := decodeReply(text, &res); err != nil {
		return &ActionDecision{ActionType: "wait", Thought: "unparseable model reply: " + err.Error(), Finished: false}, nil
	}
	return &res, nil
}

// AssertVisual asks the visual tier to judge an assertion against the
// screenshot. An unparseable reply fails closed.
func (r *Router) AssertVisual(ctx context.Context, screenshot []byte, assertion, expected string) (*AssertResult, error) {
	if r.BridgeMode() {
		payload := map[string]string{"assertion": assertion, "expected": expected}
		ans, err := r.bridge.Ask(agentenv.KindAssert, payload, screenshot)
		if err != nil {
			return nil, err
		}
		if !ans.Ready {
			return &AssertResult{Passed: false, Reasoning: "bridge response not yet available", Actual: "pending"}, nil
		}
		var res AssertResult
		if err := decodeReply(ans.Raw, &res); err != nil {
			return &AssertResult{Passed: false, Reasoning: "unparseable bridge reply: " + err.Error()}, nil
		}
		return &res, nil
	}

	text, err := r.complete(ctx, "assert_visual", assertVisualSystem, assertVisualUser(assertion, expected), screenshot)
	if err != nil {
		return nil, err
	}
	var res AssertResult
	if err := decodeReply(text, &res); err != nil {
		return &AssertResult{Passed: false, Reasoning: "unparseable model reply: " + err.Error()}, nil
	}
	return &res, nil
}

// complete runs one metered backend call and reports usage to the ledger.
// Bridge-mode calls never reach here; they cost zero by contract.
func (r *Router) complete(ctx context.Context, operation, system, user string, screenshot []byte) (string, error) {
	req := &CompletionRequest{
		Model:       r.model,
		System:      system,
		User:        user,
		ImagePNG:    downscaleScreenshot(screenshot),
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	}
	result, err := r.backend.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	if r.tracker != nil && !r.cfg.DisableCostTracking {
		in, out := result.InputTokens, result.OutputTokens
		if in == 0 && out == 0 {
			in, out = estimatedInputTokens, estimatedOutputTokens
		}
		images := 0
		if len(req.ImagePNG) > 0 {
			images = 1
		}
		entry := r.tracker.Record(r.provider, r.model, operation, in, out, images)
		r.log.Debug("vision call recorded",
			zap.String("operation", operation),
			zap.String("cost", strconv.FormatFloat(entry.Cost, 'f', 6, 64)))
	}
	return result.Text, nil
}

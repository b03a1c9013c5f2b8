package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/uipilot/internal/engine"
	"github.com/mj1618/uipilot/internal/refs"
	"github.com/mj1618/uipilot/internal/version"
	"gopkg.in/yaml.v3"
)

// mcpServer wraps the MCP server with a long-lived engine and snapshot cache.
type mcpServer struct {
	eng   *engine.Engine
	cache *snapshotCache
	engMu sync.Mutex
	mcp   *mcpserver.MCPServer
}

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// newMCPServer creates and configures an MCP server with all uipilot tools.
func newMCPServer(cfg MCPConfig) (*mcpServer, error) {
	eng, err := engine.New(engineConfig(), engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	s := &mcpServer{
		eng:   eng,
		cache: newSnapshotCache(cfg.CacheTTL),
	}

	s.mcp = mcpserver.NewMCPServer(
		"uipilot",
		version.Version,
	)

	s.registerTools()
	return s, nil
}

// serve opens the channel session and starts the configured transport.
func (s *mcpServer) serve(ctx context.Context, cfg MCPConfig) error {
	if err := s.eng.Connect(ctx); err != nil {
		return err
	}
	defer s.eng.Close(ctx)

	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *mcpServer) registerTools() {
	// snapshot
	s.mcp.AddTool(
		mcp.NewTool("snapshot",
			mcp.WithDescription("Capture the surface's element tree. Returns elements with refs (@e1, @e2, ...), roles, accessible names, selectors, and state. Refs stay valid until the next snapshot or navigation."),
			mcp.WithBoolean("all", mcp.Description("Include non-interactive elements")),
			mcp.WithBoolean("include-hidden", mcp.Description("Include hidden elements")),
			mcp.WithNumber("max-depth", mcp.Description("Max tree depth (0 = unlimited)")),
			mcp.WithBoolean("compact", mcp.Description("Omit bounds, text, and attributes")),
		),
		s.handleSnapshot,
	)

	// find
	s.mcp.AddTool(
		mcp.NewTool("find",
			mcp.WithDescription("Locate an element by ref, selector, or visible text without acting on it. Falls back to the vision model when deterministic tiers miss."),
			mcp.WithString("target", mcp.Description("Ref (@e3), CSS/XPath selector, or element text"), mcp.Required()),
		),
		s.handleFind,
	)

	// click
	s.mcp.AddTool(
		mcp.NewTool("click",
			mcp.WithDescription("Click an element resolved by ref, selector, or text"),
			mcp.WithString("target", mcp.Description("Ref, selector, or element text"), mcp.Required()),
			mcp.WithBoolean("double", mcp.Description("Double-click")),
		),
		s.handleClick,
	)

	// type
	s.mcp.AddTool(
		mcp.NewTool("type",
			mcp.WithDescription("Type text into an element"),
			mcp.WithString("target", mcp.Description("Ref, selector, or element text"), mcp.Required()),
			mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()),
		),
		s.handleType,
	)

	// press
	s.mcp.AddTool(
		mcp.NewTool("press",
			mcp.WithDescription("Send a key combination (e.g. 'Enter', 'Control+a') to the surface"),
			mcp.WithString("keys", mcp.Description("Key combination"), mcp.Required()),
		),
		s.handlePress,
	)

	// hover
	s.mcp.AddTool(
		mcp.NewTool("hover",
			mcp.WithDescription("Move the pointer over an element"),
			mcp.WithString("target", mcp.Description("Ref, selector, or element text"), mcp.Required()),
		),
		s.handleHover,
	)

	// scroll
	s.mcp.AddTool(
		mcp.NewTool("scroll",
			mcp.WithDescription("Scroll the window or an element by dx/dy pixels"),
			mcp.WithString("target", mcp.Description("Element to scroll within (empty = window)")),
			mcp.WithNumber("dx", mcp.Description("Horizontal scroll distance")),
			mcp.WithNumber("dy", mcp.Description("Vertical scroll distance")),
		),
		s.handleScroll,
	)

	// drag
	s.mcp.AddTool(
		mcp.NewTool("drag",
			mcp.WithDescription("Drag from one element to another"),
			mcp.WithString("from", mcp.Description("Source ref, selector, or text"), mcp.Required()),
			mcp.WithString("to", mcp.Description("Destination ref, selector, or text"), mcp.Required()),
		),
		s.handleDrag,
	)

	// read
	s.mcp.AddTool(
		mcp.NewTool("read",
			mcp.WithDescription("Read text, value, an attribute, or visibility/enabled state from an element, or the surface's url/title"),
			mcp.WithString("target", mcp.Description("Ref, selector, or element text (omit for url/title)")),
			mcp.WithString("field", mcp.Description("What to read: text (default), value, attr, visible, enabled, url, title")),
			mcp.WithString("attr", mcp.Description("Attribute name when field=attr")),
		),
		s.handleRead,
	)

	// eval
	s.mcp.AddTool(
		mcp.NewTool("eval",
			mcp.WithDescription("Evaluate a script against the surface and return its JSON result"),
			mcp.WithString("script", mcp.Description("Script to evaluate"), mcp.Required()),
		),
		s.handleEval,
	)

	// screenshot
	s.mcp.AddTool(
		mcp.NewTool("screenshot",
			mcp.WithDescription("Capture a PNG screenshot of the surface"),
		),
		s.handleScreenshot,
	)

	// wait
	s.mcp.AddTool(
		mcp.NewTool("wait",
			mcp.WithDescription("Wait for an element to reach a state"),
			mcp.WithString("target", mcp.Description("Ref, selector, or element text"), mcp.Required()),
			mcp.WithString("state", mcp.Description("State to wait for: visible (default), hidden, enabled, disabled")),
			mcp.WithNumber("timeout", mcp.Description("Max wait in milliseconds (default: 30000)")),
		),
		s.handleWait,
	)

	// ai
	s.mcp.AddTool(
		mcp.NewTool("ai",
			mcp.WithDescription("Execute a natural-language instruction as a bounded plan-act loop driven by the vision model"),
			mcp.WithString("instruction", mcp.Description("What to accomplish"), mcp.Required()),
		),
		s.handleAI,
	)

	// assert
	s.mcp.AddTool(
		mcp.NewTool("assert",
			mcp.WithDescription("Assert a visual condition against a screenshot via the vision model"),
			mcp.WithString("assertion", mcp.Description("Condition to judge"), mcp.Required()),
			mcp.WithString("expected", mcp.Description("Description of the expected state")),
		),
		s.handleAssert,
	)

	// invalidate
	s.mcp.AddTool(
		mcp.NewTool("invalidate",
			mcp.WithDescription("Drop the cached snapshot and refs. Call after any navigation."),
		),
		s.handleInvalidate,
	)

	// cost
	s.mcp.AddTool(
		mcp.NewTool("cost",
			mcp.WithDescription("Report the session's vision cost ledger"),
			mcp.WithBoolean("reset", mcp.Description("Clear the ledger after reporting")),
		),
		s.handleCost,
	)
}

// stringParam reads a string argument with a default.
func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

// intParam reads a numeric argument with a default. JSON numbers decode as
// float64.
func intParam(params map[string]interface{}, key string, def int) int {
	if v, ok := params[key].(float64); ok {
		return int(v)
	}
	return def
}

// boolParam reads a boolean argument with a default.
func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// toYAML serializes v for an MCP text result.
func toYAML(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// actionToolResult converts an engine action outcome into an MCP result.
// Misses and failures come back as tool errors with the full envelope so the
// agent can see status, reasoning, and cost.
func actionToolResult(res *engine.ActionResult, err error) (*mcp.CallToolResult, error) {
	if err != nil && res == nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res != nil && !res.OK() {
		return mcp.NewToolResultError(toYAML(res)), nil
	}
	return mcp.NewToolResultText(toYAML(res)), nil
}

func (s *mcpServer) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	opts := refs.Options{
		InteractiveOnly: !boolParam(params, "all", false),
		IncludeHidden:   boolParam(params, "include-hidden", false),
		MaxDepth:        intParam(params, "max-depth", 0),
		Compact:         boolParam(params, "compact", false),
	}

	s.engMu.Lock()
	defer s.engMu.Unlock()

	snap, err := s.cache.snapshot(ctx, s.eng, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toYAML(snap)), nil
}

func (s *mcpServer) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	target := stringParam(params, "target", "")

	s.engMu.Lock()
	defer s.engMu.Unlock()

	return actionToolResult(s.eng.Find(ctx, target))
}

func (s *mcpServer) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	target := stringParam(params, "target", "")
	double := boolParam(params, "double", false)

	s.engMu.Lock()
	defer s.engMu.Unlock()

	res, err := s.eng.Click(ctx, target, double)
	s.cache.invalidateAll()
	return actionToolResult(res, err)
}

func (s *mcpServer) handleType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	target := stringParam(params, "target", "")
	text := stringParam(params, "text", "")

	s.engMu.Lock()
	defer s.engMu.Unlock()

	res, err := s.eng.Type(ctx, target, text)
	s.cache.invalidateAll()
	return actionToolResult(res, err)
}

func (s *mcpServer) handlePress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	keys := stringParam(params, "keys", "")

	s.engMu.Lock()
	defer s.engMu.Unlock()

	res, err := s.eng.Press(ctx, keys)
	s.cache.invalidateAll()
	return actionToolResult(res, err)
}

func (s *mcpServer) handleHover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	target := stringParam(params, "target", "")

	s.engMu.Lock()
	defer s.engMu.Unlock()

	return actionToolResult(s.eng.Hover(ctx, target))
}

func (s *mcpServer) handleScroll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	target := stringParam(params, "target", "")
	dx := intParam(params, "dx", 0)
	dy := intParam(params, "dy", 0)

	s.engMu.Lock()
	defer s.engMu.Unlock()

	res, err := s.eng.Scroll(ctx, target, dx, dy)
	s.cache.invalidateAll()
	return actionToolResult(res, err)
}

func (s *mcpServer) handleDrag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	from := stringParam(params, "from", "")
	to := stringParam(params, "to", "")

	s.engMu.Lock()
	defer s.engMu.Unlock()

	res, err := s.eng.Drag(ctx, from, to)
	s.cache.invalidateAll()
	return actionToolResult(res, err)
}

func (s *mcpServer) handleRead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	target := stringParam(params, "target", "")
	field := stringParam(params, "field", "text")
	attr := stringParam(params, "attr", "")

	s.engMu.Lock()
	defer s.engMu.Unlock()

	var (
		value any
		err   error
	)
	switch field {
	case "url":
		value, err = s.eng.GetURL(ctx)
	case "title":
		value, err = s.eng.GetTitle(ctx)
	case "text":
		value, err = s.eng.GetText(ctx, target)
	case "value":
		value, err = s.eng.GetValue(ctx, target)
	case "attr":
		if attr == "" {
			return mcp.NewToolResultError("field=attr requires the attr parameter"), nil
		}
		value, err = s.eng.GetAttribute(ctx, target, attr)
	case "visible":
		value, err = s.eng.IsVisible(ctx, target)
	case "enabled":
		value, err = s.eng.IsEnabled(ctx, target)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown field %q", field)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toYAML(readResult{Target: target, Field: field, Value: value})), nil
}

func (s *mcpServer) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	script := stringParam(params, "script", "")

	s.engMu.Lock()
	defer s.engMu.Unlock()

	raw, err := s.eng.Evaluate(ctx, script)
	s.cache.invalidateAll()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *mcpServer) handleScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engMu.Lock()
	defer s.engMu.Unlock()

	img, err := s.eng.Screenshot(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultImage("surface screenshot", base64.StdEncoding.EncodeToString(img), "image/png"), nil
}

func (s *mcpServer) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	target := stringParam(params, "target", "")
	state := stringParam(params, "state", "visible")
	timeoutMs := intParam(params, "timeout", 30000)

	s.engMu.Lock()
	defer s.engMu.Unlock()

	return actionToolResult(s.eng.WaitFor(ctx, target, state, timeoutMs))
}

func (s *mcpServer) handleAI(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	instruction := stringParam(params, "instruction", "")

	s.engMu.Lock()
	defer s.engMu.Unlock()

	res, err := s.eng.AI(ctx, instruction)
	s.cache.invalidateAll()
	return actionToolResult(res, err)
}

func (s *mcpServer) handleAssert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	assertion := stringParam(params, "assertion", "")
	expected := stringParam(params, "expected", "")

	s.engMu.Lock()
	defer s.engMu.Unlock()

	return actionToolResult(s.eng.AssertVisual(ctx, assertion, expected))
}

func (s *mcpServer) handleInvalidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engMu.Lock()
	defer s.engMu.Unlock()

	s.eng.Invalidate()
	s.cache.invalidateAll()
	return mcp.NewToolResultText("snapshot invalidated"), nil
}

func (s *mcpServer) handleCost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	reset := boolParam(params, "reset", false)

	s.engMu.Lock()
	defer s.engMu.Unlock()

	summary := s.eng.Tracker().Summarize()
	if reset {
		s.eng.Tracker().Reset()
	}
	return mcp.NewToolResultText(toYAML(summary)), nil
}

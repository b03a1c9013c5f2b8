package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/mj1618/uipilot/internal/control"
	"github.com/mj1618/uipilot/internal/cost"
	"github.com/mj1618/uipilot/internal/refs"
	"github.com/mj1618/uipilot/internal/vision"
)

// surfaceFake scripts the control channel: it decodes the argv the adapter
// builds and plays back canned replies per verb.
type surfaceFake struct {
	tree     string          // eval reply (tree dump)
	visible  map[string]bool // selector → isvisible reply
	text     map[string]string
	actions  []string // recorded "verb selector..." lines
	failVerb string   // verb that reports success:false
}

func newSurfaceFake(tree string) *surfaceFake {
	return &surfaceFake{
		tree:    tree,
		visible: make(map[string]bool),
		text:    make(map[string]string),
	}
}

func (f *surfaceFake) run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	// argv is "<verb> [args...] --json"; no session in tests.
	verb := args[0]
	rest := args[1 : len(args)-1]
	f.actions = append(f.actions, strings.TrimSpace(verb+" "+strings.Join(rest, " ")))

	if verb == f.failVerb {
		return []byte(`{"success":false,"error":"scripted failure"}`), nil, nil
	}

	switch verb {
	case "eval":
		return []byte(fmt.Sprintf(`{"success":true,"data":%s}`, f.tree)), nil, nil
	case "isvisible":
		return []byte(fmt.Sprintf(`{"success":true,"data":%v}`, f.visible[rest[0]])), nil, nil
	case "gettext":
		return []byte(fmt.Sprintf(`{"success":true,"data":%q}`, f.text[rest[0]])), nil, nil
	case "screenshot":
		shot := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		return []byte(fmt.Sprintf(`{"success":true,"data":%q}`, shot)), nil, nil
	default:
		return []byte(`{"success":true,"data":null}`), nil, nil
	}
}

func (f *surfaceFake) did(prefix string) bool {
	for _, a := range f.actions {
		if strings.HasPrefix(a, prefix) {
			return true
		}
	}
	return false
}

const testTree = `{
	"url": "https://app.test/",
	"title": "Editor",
	"tree": {
		"tag": "body", "bounds": [0,0,1280,800],
		"children": [
			{"tag": "button", "attrs": {"id": "save"}, "text": "Save", "bounds": [10,10,80,30]},
			{"tag": "input", "attrs": {"id": "q", "type": "search", "aria-label": "Search"}, "bounds": [10,50,200,30]}
		]
	}
}`

// visionFake plays back one canned model reply.
type visionFake struct {
	reply string
	calls int
}

func (v *visionFake) Name() string { return "fake" }

func (v *visionFake) Complete(context.Context, *vision.CompletionRequest) (*vision.CompletionResult, error) {
	v.calls++
	return &vision.CompletionResult{Text: v.reply, InputTokens: 100, OutputTokens: 20}, nil
}

func newTestEngine(t *testing.T, f *surfaceFake, mode Mode, backend vision.Backend) (*Engine, *cost.Tracker) {
	t.Helper()
	tracker := cost.NewTracker()
	opts := []EngineOption{
		WithAdapter(control.NewAdapter("fake", control.WithRunner(f.run))),
		WithTracker(tracker),
	}
	if backend != nil {
		router, err := vision.NewRouter(vision.Config{Provider: "claude", APIKey: "k"},
			vision.WithBackend(backend), vision.WithTracker(tracker))
		if err != nil {
			t.Fatalf("NewRouter() error: %v", err)
		}
		opts = append(opts, WithRouter(router))
	}
	eng, err := New(Config{Mode: mode}, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return eng, tracker
}

func TestClickResolvesRefTier(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	snap, err := eng.Snapshot(context.Background(), refs.DefaultOptions())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(snap.Elements) != 2 || snap.Elements[0].Ref != "@e1" {
		t.Fatalf("unexpected snapshot: %+v", snap.Elements)
	}

	res, err := eng.Click(context.Background(), "@e1", false)
	if err != nil {
		t.Fatalf("Click() error: %v", err)
	}
	if res.Status != StatusSuccess || res.UsedVLM {
		t.Errorf("result = %+v, want deterministic success", res)
	}
	if !f.did(`click role=button[name="Save"]`) {
		t.Errorf("expected a role-locator click, actions: %v", f.actions)
	}
}

func TestClickUnknownRefNotFound(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)
	if _, err := eng.Snapshot(context.Background(), refs.DefaultOptions()); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	res, err := eng.Click(context.Background(), "@e99", false)
	if err != nil {
		t.Fatalf("unknown refs are a terminal result, not an error: %v", err)
	}
	if res.Status != StatusNotFound {
		t.Errorf("status = %q, want not_found", res.Status)
	}
	if f.did("click") {
		t.Error("no click should reach the channel for an unknown ref")
	}
}

func TestClickRefBeforeSnapshot(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	res, _ := eng.Click(context.Background(), "@e1", false)
	if res.Status != StatusNotFound {
		t.Errorf("status = %q, want not_found", res.Status)
	}
	if !strings.Contains(res.Error, "snapshot") {
		t.Errorf("error should tell the caller to snapshot first, got %q", res.Error)
	}
}

func TestClickSelectorTier(t *testing.T) {
	f := newSurfaceFake(testTree)
	f.visible["css=#toolbar"] = true
	vf := &visionFake{reply: `{"notFound":true}`}
	eng, _ := newTestEngine(t, f, ModeAuto, vf)

	res, err := eng.Click(context.Background(), "#toolbar", false)
	if err != nil {
		t.Fatalf("Click() error: %v", err)
	}
	if res.Status != StatusSuccess || res.UsedVLM {
		t.Errorf("selector-tier hit must not count as VLM use: %+v", res)
	}
	if vf.calls != 0 {
		t.Errorf("vision tier must not run when a cheaper tier hits, got %d calls", vf.calls)
	}
	if !f.did("click css=#toolbar") {
		t.Errorf("actions: %v", f.actions)
	}
}

func TestClickTextFallsBackToTextLocator(t *testing.T) {
	f := newSurfaceFake(testTree)
	f.visible[`text="Save draft"`] = true
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	res, err := eng.Click(context.Background(), "Save draft", false)
	if err != nil {
		t.Fatalf("Click() error: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Errorf("result = %+v", res)
	}
	if !f.did(`click text="Save draft"`) {
		t.Errorf("actions: %v", f.actions)
	}
}

func TestClickSnapshotNameHitIsRefTier(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)
	if _, err := eng.Snapshot(context.Background(), refs.DefaultOptions()); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	res, err := eng.Click(context.Background(), "Save", false)
	if err != nil {
		t.Fatalf("Click() error: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Errorf("result = %+v", res)
	}
	if !f.did(`click role=button[name="Save"]`) {
		t.Errorf("a snapshot name match should use the derived locator, actions: %v", f.actions)
	}
}

func TestClickStaleRefAdvancesToSelectorTier(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)
	if _, err := eng.Snapshot(context.Background(), refs.DefaultOptions()); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	// The surface re-renders without the Save button; its cached selector
	// still works through the channel.
	f.tree = `{"url":"https://app.test/","title":"Editor","tree":{"tag":"body","bounds":[0,0,1280,800]}}`
	f.visible["css=#save"] = true

	res, err := eng.Click(context.Background(), "@e1", false)
	if err != nil {
		t.Fatalf("Click() error: %v", err)
	}
	if res.Status != StatusSuccess || res.UsedVLM {
		t.Errorf("result = %+v", res)
	}
	if !f.did("click css=#save") {
		t.Errorf("stale ref should retry via the cached selector, actions: %v", f.actions)
	}
}

func TestClickVisualFallback(t *testing.T) {
	f := newSurfaceFake(testTree)
	vf := &visionFake{reply: `{"coordinates":[640,360],"confidence":0.9,"reasoning":"found it"}`}
	eng, tracker := newTestEngine(t, f, ModeAuto, vf)

	res, err := eng.Click(context.Background(), "the big red button", false)
	if err != nil {
		t.Fatalf("Click() error: %v", err)
	}
	if res.Status != StatusVLMFallback || !res.UsedVLM {
		t.Errorf("result = %+v, want vlm_fallback with UsedVLM", res)
	}
	if res.VLMCost <= 0 {
		t.Errorf("VLMCost = %v, want the metered call's cost", res.VLMCost)
	}
	if tracker.Total() != res.VLMCost {
		t.Errorf("result cost %v != ledger total %v", res.VLMCost, tracker.Total())
	}
	if !f.did("click coords=640,360") {
		t.Errorf("actions: %v", f.actions)
	}
}

func TestClickVisualNotFound(t *testing.T) {
	f := newSurfaceFake(testTree)
	vf := &visionFake{reply: `{"notFound":true,"reasoning":"nothing red here"}`}
	eng, _ := newTestEngine(t, f, ModeAuto, vf)

	res, err := eng.Click(context.Background(), "the big red button", false)
	if err != nil {
		t.Fatalf("a visual miss is a terminal result, not an error: %v", err)
	}
	if res.Status != StatusNotFound || !res.UsedVLM {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(res.Error, "nothing red here") {
		t.Errorf("error should carry the model's reasoning, got %q", res.Error)
	}
}

func TestDeterministicModeNeverUsesVision(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	res, err := eng.Click(context.Background(), "the big red button", false)
	if err != nil {
		t.Fatalf("Click() error: %v", err)
	}
	if res.Status != StatusNotFound || res.UsedVLM {
		t.Errorf("result = %+v", res)
	}
	if f.did("screenshot") {
		t.Error("deterministic mode must not capture screenshots for location")
	}
	if eng.Router() != nil {
		t.Error("deterministic engines must not construct a vision router")
	}
}

func TestDoubleClickUsesDedicatedVerb(t *testing.T) {
	f := newSurfaceFake(testTree)
	f.visible["css=#row"] = true
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	if _, err := eng.Click(context.Background(), "#row", true); err != nil {
		t.Fatalf("Click() error: %v", err)
	}
	if !f.did("dblclick css=#row") {
		t.Errorf("actions: %v", f.actions)
	}
}

func TestWaitForReachesChannelForInvisibleTarget(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	// #spinner is not visible yet; the channel's wait verb does the blocking.
	res, err := eng.WaitFor(context.Background(), "#spinner", "visible", 5000)
	if err != nil {
		t.Fatalf("WaitFor() error: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Errorf("result = %+v", res)
	}
	if !f.did("wait css=#spinner visible 5000") {
		t.Errorf("the wait verb must reach the channel, actions: %v", f.actions)
	}
	if f.did("isvisible") {
		t.Errorf("waiting must not pre-probe visibility, actions: %v", f.actions)
	}
}

func TestWaitForTextTargetUsesTextLocator(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	if _, err := eng.WaitFor(context.Background(), "Order placed", "visible", 10000); err != nil {
		t.Fatalf("WaitFor() error: %v", err)
	}
	if !f.did(`wait text="Order placed" visible 10000`) {
		t.Errorf("actions: %v", f.actions)
	}
}

func TestWaitForUnknownRefNotFound(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)
	if _, err := eng.Snapshot(context.Background(), refs.DefaultOptions()); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	res, err := eng.WaitFor(context.Background(), "@e99", "visible", 1000)
	if err != nil {
		t.Fatalf("unknown refs are a terminal result, not an error: %v", err)
	}
	if res.Status != StatusNotFound {
		t.Errorf("status = %q, want not_found", res.Status)
	}
	if f.did("wait") {
		t.Error("no wait should reach the channel for an unknown ref")
	}
}

func TestDragVisualSourceCountsAsVLMUse(t *testing.T) {
	f := newSurfaceFake(testTree)
	f.visible["css=#dropzone"] = true
	vf := &visionFake{reply: `{"coordinates":[200,300],"confidence":0.8,"reasoning":"the card"}`}
	eng, tracker := newTestEngine(t, f, ModeAuto, vf)

	res, err := eng.Drag(context.Background(), "the draggable card", "#dropzone")
	if err != nil {
		t.Fatalf("Drag() error: %v", err)
	}
	if res.Status != StatusVLMFallback || !res.UsedVLM {
		t.Errorf("a visually located source must mark the envelope, got %+v", res)
	}
	if res.VLMCost <= 0 || res.VLMCost != tracker.Total() {
		t.Errorf("VLMCost = %v, ledger total = %v", res.VLMCost, tracker.Total())
	}
	if vf.calls != 1 {
		t.Errorf("vision calls = %d, want 1 (source endpoint only)", vf.calls)
	}
	if !f.did("drag coords=200,300 css=#dropzone") {
		t.Errorf("actions: %v", f.actions)
	}
}

func TestDragSelectorEndpointsStayDeterministic(t *testing.T) {
	f := newSurfaceFake(testTree)
	f.visible["css=#card"] = true
	f.visible["css=#dropzone"] = true
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	res, err := eng.Drag(context.Background(), "#card", "#dropzone")
	if err != nil {
		t.Fatalf("Drag() error: %v", err)
	}
	if res.Status != StatusSuccess || res.UsedVLM || res.VLMCost != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestActFailureMapsChannelError(t *testing.T) {
	f := newSurfaceFake(testTree)
	f.visible["css=#ro"] = true
	f.failVerb = "type"
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	res, err := eng.Type(context.Background(), "#ro", "text")
	if err == nil {
		t.Fatal("hard channel failures must surface as errors")
	}
	if !IsChannelCommand(err) {
		t.Errorf("expected a channel command error, got %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
}

func TestIsVisibleMissIsFalseNotError(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	visible, err := eng.IsVisible(context.Background(), "#ghost")
	if err != nil {
		t.Fatalf("IsVisible() error: %v", err)
	}
	if visible {
		t.Error("missing element should report false")
	}
}

func TestFindAllSnapshotsFirst(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	matches, err := eng.FindAll(context.Background(), "sea")
	if err != nil {
		t.Fatalf("FindAll() error: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "Search" {
		t.Errorf("matches = %+v", matches)
	}
}

func TestInvalidateDropsRefs(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)
	if _, err := eng.Snapshot(context.Background(), refs.DefaultOptions()); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	eng.Invalidate()
	res, _ := eng.Click(context.Background(), "@e1", false)
	if res.Status != StatusNotFound {
		t.Errorf("refs must not survive invalidation, got %+v", res)
	}
}

func TestAIFinishes(t *testing.T) {
	f := newSurfaceFake(testTree)
	vf := &visionFake{reply: `{"actionType":"finish","finished":true,"thought":"already done"}`}
	eng, _ := newTestEngine(t, f, ModeAuto, vf)

	res, err := eng.AI(context.Background(), "open settings")
	if err != nil {
		t.Fatalf("AI() error: %v", err)
	}
	if res.Status != StatusSuccess || !res.UsedVLM {
		t.Errorf("result = %+v", res)
	}
	if res.VLMCost <= 0 {
		t.Errorf("VLMCost = %v", res.VLMCost)
	}
	if vf.calls != 1 {
		t.Errorf("planner calls = %d, want 1", vf.calls)
	}
}

func TestAIRequiresVisionTier(t *testing.T) {
	f := newSurfaceFake(testTree)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	res, err := eng.AI(context.Background(), "do something")
	if err != nil {
		t.Fatalf("AI() error: %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
}

func TestAssertVisualVerdicts(t *testing.T) {
	f := newSurfaceFake(testTree)
	vf := &visionFake{reply: `{"passed":true,"reasoning":"three items shown"}`}
	eng, _ := newTestEngine(t, f, ModeAuto, vf)

	res, err := eng.AssertVisual(context.Background(), "the cart shows 3 items", "")
	if err != nil {
		t.Fatalf("AssertVisual() error: %v", err)
	}
	if res.Status != StatusSuccess || !res.UsedVLM {
		t.Errorf("result = %+v", res)
	}

	vf.reply = `{"passed":false,"reasoning":"cart is empty"}`
	res, err = eng.AssertVisual(context.Background(), "the cart shows 3 items", "")
	if err != nil {
		t.Fatalf("AssertVisual() error: %v", err)
	}
	if res.Status != StatusFailed || res.Error != "cart is empty" {
		t.Errorf("result = %+v", res)
	}
}

func TestEvaluateReturnsDecodedJSON(t *testing.T) {
	f := newSurfaceFake(`{"answer":42}`)
	eng, _ := newTestEngine(t, f, ModeDeterministic, nil)

	raw, err := eng.Evaluate(context.Background(), "compute()")
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	var v struct {
		Answer int `json:"answer"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Answer != 42 {
		t.Errorf("answer = %d", v.Answer)
	}
}

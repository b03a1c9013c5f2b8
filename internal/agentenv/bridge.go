package agentenv

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind identifies the shape of a bridge request.
type Kind string

const (
	KindFind   Kind = "find"
	KindAction Kind = "action"
	KindAssert Kind = "assert"
)

// Request is the structured handoff written next to the screenshot. The host
// agent answers by writing response_<id>.json with the matching id.
type Request struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	Payload    map[string]string `json:"payload"`
	Screenshot string            `json:"screenshot,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Answer is the outcome of one bridge poll. Ready=false is an expected
// steady state, never an error: the host agent simply hasn't answered yet.
type Answer struct {
	Ready bool
	Raw   string
}

// Bridge persists vision requests to a scratch directory and reads back
// responses supplied by the host agent. It never blocks: when no response
// exists yet it returns a not-ready answer immediately, so callers can poll.
type Bridge struct {
	dir      string
	out      io.Writer
	log      *zap.Logger
	scripted string
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithDir overrides the scratch directory.
func WithDir(dir string) BridgeOption { return func(b *Bridge) { b.dir = dir } }

// WithConsole overrides where the human-readable request block is written.
// Defaults to stderr so it never corrupts structured stdout.
func WithConsole(w io.Writer) BridgeOption { return func(b *Bridge) { b.out = w } }

// WithBridgeLogger sets the structured logger.
func WithBridgeLogger(l *zap.Logger) BridgeOption { return func(b *Bridge) { b.log = l } }

// NewBridge creates a bridge with a fresh scratch directory under the
// system temp dir.
func NewBridge(opts ...BridgeOption) (*Bridge, error) {
	b := &Bridge{
		dir: filepath.Join(os.TempDir(), "uipilot-bridge-"+uuid.NewString()[:8]),
		out: os.Stderr,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bridge dir: %w", err)
	}
	return b, nil
}

// Dir returns the scratch directory holding requests and responses.
func (b *Bridge) Dir() string { return b.dir }

// SetScriptedResponse pre-sets an in-process JSON response returned by the
// next Ask calls. Useful for scripted harnesses that bypass the filesystem
// handoff entirely.
func (b *Bridge) SetScriptedResponse(raw string) { b.scripted = raw }

// requestID derives a stable identifier from the request content, so a
// caller polling the same logical query maps to the same artifact pair.
func requestID(kind Kind, payload map[string]string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s", kind)
	for _, k := range []string{"description", "context", "instruction", "assertion", "expected", "actionSpace"} {
		fmt.Fprintf(h, "|%s=%s", k, payload[k])
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Ask persists the screenshot and request, prints the delimited console
// block, and checks for an answer. It returns immediately in every case.
func (b *Bridge) Ask(kind Kind, payload map[string]string, screenshot []byte) (*Answer, error) {
	if b.scripted != "" {
		return &Answer{Ready: true, Raw: b.scripted}, nil
	}

	id := requestID(kind, payload)

	respPath := filepath.Join(b.dir, "response_"+id+".json")
	if raw, err := os.ReadFile(respPath); err == nil {
		b.log.Debug("bridge response found", zap.String("id", id))
		return &Answer{Ready: true, Raw: string(raw)}, nil
	}

	shotPath := filepath.Join(b.dir, "screenshot_"+id+".png")
	reqPath := filepath.Join(b.dir, "request_"+id+".json")
	if _, err := os.Stat(reqPath); err == nil {
		// Already published; the host agent just hasn't answered yet.
		return &Answer{Ready: false}, nil
	}

	if len(screenshot) > 0 {
		if err := os.WriteFile(shotPath, screenshot, 0o644); err != nil {
			return nil, fmt.Errorf("write bridge screenshot: %w", err)
		}
	}
	req := Request{ID: id, Kind: kind, Payload: payload, Screenshot: shotPath, CreatedAt: time.Now()}
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode bridge request: %w", err)
	}
	if err := os.WriteFile(reqPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write bridge request: %w", err)
	}

	b.printBlock(req, respPath)
	return &Answer{Ready: false}, nil
}

// printBlock writes the clearly delimited, human-readable request
// description the host agent reads and acts on.
func (b *Bridge) printBlock(req Request, respPath string) {
	fmt.Fprintln(b.out, "==================== AGENT BRIDGE REQUEST ====================")
	fmt.Fprintf(b.out, "id:         %s\n", req.ID)
	fmt.Fprintf(b.out, "kind:       %s\n", req.Kind)
	if req.Screenshot != "" {
		fmt.Fprintf(b.out, "screenshot: %s\n", req.Screenshot)
	}
	for _, k := range []string{"description", "context", "instruction", "assertion", "expected", "actionSpace"} {
		if v := req.Payload[k]; v != "" {
			fmt.Fprintf(b.out, "%-11s %s\n", k+":", v)
		}
	}
	fmt.Fprintf(b.out, "answer:     write JSON to %s\n", respPath)
	fmt.Fprintln(b.out, "==============================================================")
}

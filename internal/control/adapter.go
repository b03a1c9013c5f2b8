// Package control executes primitive UI actions against the live application
// surface through one external control channel: a command-line tool invoked
// per command as `<tool> [--session=<id>] <verb> [args] --json`, replying
// with a `{success, data, error}` JSON envelope on stdout.
//
// This layer performs no fallback. Any channel failure (non-zero exit,
// non-JSON output, success:false) is returned as a *CommandError carrying the
// original command line and captured stdio; cascading between location
// strategies is the orchestrator's responsibility one layer up.
package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrConnection indicates the control channel is unreachable.
var ErrConnection = errors.New("control channel unreachable")

// CommandError is a hard failure of one channel command. It carries the
// command line and captured stdio so the failure can be diagnosed without
// re-running the tool.
type CommandError struct {
	Verb   string
	Args   []string
	Stdout string
	Stderr string
	Reason string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("channel command %q failed: %s", e.Verb, e.Reason)
	if e.Stderr != "" {
		msg += " (stderr: " + strings.TrimSpace(e.Stderr) + ")"
	}
	return msg
}

// reply is the channel's JSON envelope.
type reply struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Runner executes the channel tool once and returns captured stdio. The
// default runner shells out via os/exec; tests inject a fake.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return out.Bytes(), errBuf.Bytes(), err
}

// DefaultTimeout bounds a single channel command when the caller's context
// carries no deadline of its own.
const DefaultTimeout = 15 * time.Second

// Adapter translates Locators into concrete channel commands.
type Adapter struct {
	tool      string
	session   string
	timeout   time.Duration
	run       Runner
	log       *zap.Logger
	connected bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithSession scopes every command to the given channel session id.
func WithSession(id string) Option { return func(a *Adapter) { a.session = id } }

// WithTimeout sets the per-command timeout.
func WithTimeout(d time.Duration) Option { return func(a *Adapter) { a.timeout = d } }

// WithRunner replaces the subprocess runner. Used by tests.
func WithRunner(r Runner) Option { return func(a *Adapter) { a.run = r } }

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option { return func(a *Adapter) { a.log = l } }

// NewAdapter creates an adapter for the given channel tool binary.
func NewAdapter(tool string, opts ...Option) *Adapter {
	a := &Adapter{
		tool:    tool,
		timeout: DefaultTimeout,
		run:     execRunner,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Session returns the channel session id ("" when unscoped).
func (a *Adapter) Session() string { return a.session }

// command runs one channel verb and returns the decoded data payload.
// The invocation is a blocking call bounded by the context deadline; the
// timeout is enforced by the call itself, not by a race against a timer.
func (a *Adapter) command(ctx context.Context, verb string, args ...string) (json.RawMessage, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(args)+3)
	if a.session != "" {
		argv = append(argv, "--session="+a.session)
	}
	argv = append(argv, verb)
	argv = append(argv, args...)
	argv = append(argv, "--json")

	a.log.Debug("channel command", zap.String("verb", verb), zap.Strings("args", args))
	stdout, stderr, err := a.run(ctx, a.tool, argv...)

	if cerr := ctx.Err(); cerr != nil {
		return nil, fmt.Errorf("channel command %q: %w", verb, cerr)
	}
	if err != nil {
		return nil, &CommandError{Verb: verb, Args: args, Stdout: string(stdout), Stderr: string(stderr), Reason: err.Error()}
	}

	var rep reply
	if jsonErr := json.Unmarshal(bytes.TrimSpace(stdout), &rep); jsonErr != nil {
		return nil, &CommandError{Verb: verb, Args: args, Stdout: string(stdout), Stderr: string(stderr), Reason: "non-JSON output: " + jsonErr.Error()}
	}
	if !rep.Success {
		reason := rep.Error
		if reason == "" {
			reason = "channel reported failure without an error message"
		}
		return nil, &CommandError{Verb: verb, Args: args, Stdout: string(stdout), Stderr: string(stderr), Reason: reason}
	}
	return rep.Data, nil
}

// Connect opens the channel session. It fails loudly when the channel is
// unreachable.
func (a *Adapter) Connect(ctx context.Context) error {
	if _, err := a.command(ctx, "open"); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	a.connected = true
	return nil
}

// Disconnect closes the channel session. Best-effort: it never returns an
// error, a failed close is only logged.
func (a *Adapter) Disconnect(ctx context.Context) {
	if !a.connected {
		return
	}
	if _, err := a.command(ctx, "close"); err != nil {
		a.log.Debug("channel close failed", zap.Error(err))
	}
	a.connected = false
}

// selectorArg translates a locator, surfacing translation failures as-is.
func selectorArg(loc Locator) (string, error) {
	sel, err := loc.Selector()
	if err != nil {
		return "", err
	}
	return sel, nil
}

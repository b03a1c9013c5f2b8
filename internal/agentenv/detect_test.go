package agentenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDetectMarkers(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Environment
	}{
		{"empty", map[string]string{}, EnvNone},
		{"cursor", map[string]string{"CURSOR_TRACE_ID": "abc"}, EnvIDEEmbedded},
		{"claude code", map[string]string{"CLAUDECODE": "1"}, EnvCLIAgent},
		{"copilot", map[string]string{"COPILOT_AGENT_ID": "x"}, EnvEditorPlugin},
		{"warp", map[string]string{"WARP_IS_LOCAL_SHELL_SESSION": "1"}, EnvDesktopApp},
		{"mcp", map[string]string{"MCP_SERVER_NAME": "uipilot"}, EnvProtocolMarker},
		{"heuristic", map[string]string{"AI_AGENT": "1"}, EnvHeuristic},
		{"opt-in flag", map[string]string{"UIPILOT_AGENT_MODE": "1"}, EnvHeuristic},
		{"unrelated vars ignored", map[string]string{"PATH": "/usr/bin", "HOME": "/root"}, EnvNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetectorWithLookup(lookupFrom(tt.env))
			assert.Equal(t, tt.want, d.Environment())
		})
	}
}

func TestDetectPrecedence(t *testing.T) {
	// An IDE marker wins over everything set alongside it.
	env := map[string]string{
		"CURSOR_TRACE_ID": "abc",
		"CLAUDECODE":      "1",
		"MCP_SERVER_NAME": "uipilot",
		"AI_AGENT":        "1",
	}
	d := NewDetectorWithLookup(lookupFrom(env))
	assert.Equal(t, EnvIDEEmbedded, d.Environment())

	// Without it, the CLI marker is next.
	delete(env, "CURSOR_TRACE_ID")
	d = NewDetectorWithLookup(lookupFrom(env))
	assert.Equal(t, EnvCLIAgent, d.Environment())

	// Protocol markers beat heuristics.
	delete(env, "CLAUDECODE")
	d = NewDetectorWithLookup(lookupFrom(env))
	assert.Equal(t, EnvProtocolMarker, d.Environment())
}

func TestDetectFalsyValuesIgnored(t *testing.T) {
	for _, v := range []string{"", "0", "false"} {
		d := NewDetectorWithLookup(lookupFrom(map[string]string{"CLAUDECODE": v}))
		assert.Equal(t, EnvNone, d.Environment(), "value %q must not count as detected", v)
	}
}

func TestActive(t *testing.T) {
	assert.False(t, EnvNone.Active())
	assert.False(t, Environment("").Active())
	assert.True(t, EnvCLIAgent.Active())
	assert.True(t, EnvHeuristic.Active())
}

func TestDetectorImmutable(t *testing.T) {
	env := map[string]string{"CLAUDECODE": "1"}
	d := NewDetectorWithLookup(lookupFrom(env))
	delete(env, "CLAUDECODE")
	assert.Equal(t, EnvCLIAgent, d.Environment(), "detection happens once at construction")
}

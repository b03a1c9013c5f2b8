package agentenv

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge(t *testing.T) (*Bridge, *bytes.Buffer) {
	t.Helper()
	var console bytes.Buffer
	b, err := NewBridge(WithDir(t.TempDir()), WithConsole(&console))
	require.NoError(t, err)
	return b, &console
}

func TestAskPublishesRequestAndReturnsNotReady(t *testing.T) {
	b, console := newTestBridge(t)
	payload := map[string]string{"description": "the Save button", "context": "editor toolbar"}
	shot := []byte{0x89, 'P', 'N', 'G'}

	start := time.Now()
	ans, err := b.Ask(KindFind, payload, shot)
	require.NoError(t, err)
	assert.False(t, ans.Ready, "no answer exists yet")
	assert.Less(t, time.Since(start), time.Second, "Ask must not block")

	entries, err := os.ReadDir(b.Dir())
	require.NoError(t, err)
	var reqPath, shotPath string
	for _, e := range entries {
		switch {
		case filepath.Ext(e.Name()) == ".json":
			reqPath = filepath.Join(b.Dir(), e.Name())
		case filepath.Ext(e.Name()) == ".png":
			shotPath = filepath.Join(b.Dir(), e.Name())
		}
	}
	require.NotEmpty(t, reqPath, "request file must be written")
	require.NotEmpty(t, shotPath, "screenshot must be written")

	var req Request
	data, err := os.ReadFile(reqPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &req))
	assert.Equal(t, KindFind, req.Kind)
	assert.Equal(t, "the Save button", req.Payload["description"])
	assert.Equal(t, shotPath, req.Screenshot)

	out := console.String()
	assert.Contains(t, out, "AGENT BRIDGE REQUEST")
	assert.Contains(t, out, "the Save button")
	assert.Contains(t, out, "response_"+req.ID+".json")
}

func TestAskStableRequestID(t *testing.T) {
	b, _ := newTestBridge(t)
	payload := map[string]string{"description": "the Save button"}

	_, err := b.Ask(KindFind, payload, nil)
	require.NoError(t, err)
	first, err := os.ReadDir(b.Dir())
	require.NoError(t, err)

	// Polling the same logical query republishes nothing.
	ans, err := b.Ask(KindFind, payload, nil)
	require.NoError(t, err)
	assert.False(t, ans.Ready)
	second, err := os.ReadDir(b.Dir())
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second), "re-asking must reuse the existing request artifacts")
}

func TestAskDistinctQueriesDistinctIDs(t *testing.T) {
	a := requestID(KindFind, map[string]string{"description": "Save"})
	b := requestID(KindFind, map[string]string{"description": "Cancel"})
	c := requestID(KindAssert, map[string]string{"description": "Save"})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 12)
}

func TestAskReadsResponseFile(t *testing.T) {
	b, _ := newTestBridge(t)
	payload := map[string]string{"description": "the Save button"}

	_, err := b.Ask(KindFind, payload, nil)
	require.NoError(t, err)

	// The host agent answers by dropping the response file.
	id := requestID(KindFind, payload)
	respPath := filepath.Join(b.Dir(), "response_"+id+".json")
	require.NoError(t, os.WriteFile(respPath, []byte(`{"found":true,"coordinates":[10,20]}`), 0o644))

	ans, err := b.Ask(KindFind, payload, nil)
	require.NoError(t, err)
	assert.True(t, ans.Ready)
	assert.JSONEq(t, `{"found":true,"coordinates":[10,20]}`, ans.Raw)
}

func TestScriptedResponseBypassesFilesystem(t *testing.T) {
	b, console := newTestBridge(t)
	b.SetScriptedResponse(`{"passed":true}`)

	ans, err := b.Ask(KindAssert, map[string]string{"assertion": "cart shows 3 items"}, nil)
	require.NoError(t, err)
	assert.True(t, ans.Ready)
	assert.Equal(t, `{"passed":true}`, ans.Raw)

	entries, err := os.ReadDir(b.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "scripted answers must not touch the scratch dir")
	assert.Empty(t, console.String())
}

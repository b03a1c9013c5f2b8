package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONEquivalentForms(t *testing.T) {
	want := `{"passed":true}`
	forms := map[string]string{
		"raw":             `{"passed":true}`,
		"raw with space":  "  {\"passed\":true}\n",
		"fenced":          "```json\n{\"passed\":true}\n```",
		"fenced no tag":   "```\n{\"passed\":true}\n```",
		"prose wrapped":   `Sure! Here is the verdict: {"passed":true} Let me know if you need more.`,
		"prose and fence": "Sure! ```json\n{\"passed\":true}\n```",
	}
	for name, raw := range forms {
		t.Run(name, func(t *testing.T) {
			got, err := ExtractJSON(raw)
			require.NoError(t, err)
			assert.JSONEq(t, want, got)
		})
	}
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	raw := `The answer: {"reasoning": "the element {maybe} matches", "notFound": false} done.`
	got, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reasoning": "the element {maybe} matches", "notFound": false}`, got)
}

func TestExtractJSONEscapedQuotes(t *testing.T) {
	raw := `{"reasoning": "text says \"Save {draft}\"", "passed": true}`
	got, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, raw, got)
}

func TestExtractJSONNested(t *testing.T) {
	raw := "I'll use: {\"actionType\":\"click\",\"actionParams\":{\"x\":\"10\",\"y\":\"20\"}} as the action"
	got, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"actionType":"click","actionParams":{"x":"10","y":"20"}}`, got)
}

func TestExtractJSONNoObject(t *testing.T) {
	for _, raw := range []string{"", "no json here", "```\nnot json\n```", "{broken"} {
		_, err := ExtractJSON(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestDecodeReply(t *testing.T) {
	var res AssertResult
	err := decodeReply("Sure! ```json\n{\"passed\":true}\n```", &res)
	require.NoError(t, err)
	assert.True(t, res.Passed)

	err = decodeReply(`{"passed": "not a bool"}`, &res)
	assert.Error(t, err)
}

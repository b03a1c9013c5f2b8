package output

import (
	"io"
	"os"
	"strings"
	"testing"
)

type sample struct {
	Status string `yaml:"status" json:"status"`
	Count  int    `yaml:"count"  json:"count"`
}

// capture redirects stdout around fn and returns what was written.
func capture(t *testing.T, fn func() error) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	if err := fn(); err != nil {
		t.Fatalf("print: %v", err)
	}
	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestPrintYAML(t *testing.T) {
	out := capture(t, func() error { return PrintYAML(sample{Status: "success", Count: 3}) })
	if !strings.Contains(out, "status: success") || !strings.Contains(out, "count: 3") {
		t.Errorf("yaml output = %q", out)
	}
}

func TestPrintJSONCompact(t *testing.T) {
	out := capture(t, func() error { return PrintJSON(sample{Status: "success", Count: 3}) })
	want := `{"status":"success","count":3}` + "\n"
	if out != want {
		t.Errorf("json output = %q, want %q", out, want)
	}
}

func TestPrintPrettyJSON(t *testing.T) {
	out := capture(t, func() error { return PrintPrettyJSON(sample{Status: "success"}) })
	if !strings.Contains(out, "\n  \"status\": \"success\"") {
		t.Errorf("pretty json output = %q", out)
	}
}

func TestPrintHonorsFormat(t *testing.T) {
	defer func() { OutputFormat = FormatYAML; PrettyOutput = false }()

	OutputFormat = FormatJSON
	out := capture(t, func() error { return Print(sample{Status: "ok"}) })
	if !strings.HasPrefix(out, "{") {
		t.Errorf("expected JSON, got %q", out)
	}

	OutputFormat = FormatYAML
	out = capture(t, func() error { return Print(sample{Status: "ok"}) })
	if !strings.Contains(out, "status: ok") {
		t.Errorf("expected YAML, got %q", out)
	}

	OutputFormat = Format("csv")
	err := Print(sample{})
	if err == nil {
		t.Error("unsupported format should error")
	}
}

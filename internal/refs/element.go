package refs

import "time"

// RefElement is one snapshotted element. The Ref (form @e<N>) is unique
// within a single snapshot generation; refs from a stale generation must be
// re-verified for liveness before use.
type RefElement struct {
	Ref        string            `json:"ref"                  yaml:"ref"`
	Role       string            `json:"role"                 yaml:"role"`
	Name       string            `json:"name,omitempty"       yaml:"name,omitempty"`
	TagName    string            `json:"tagName,omitempty"    yaml:"tagName,omitempty"`
	Selector   string            `json:"selector,omitempty"   yaml:"selector,omitempty"`
	XPath      string            `json:"xpath,omitempty"      yaml:"xpath,omitempty"`
	Visible    bool              `json:"visible"              yaml:"visible"`
	Enabled    bool              `json:"enabled"              yaml:"enabled"`
	Focusable  bool              `json:"focusable"            yaml:"focusable"`
	Bounds     *[4]int           `json:"bounds,omitempty"     yaml:"bounds,omitempty,flow"`
	Text       string            `json:"text,omitempty"       yaml:"text,omitempty"`
	Value      string            `json:"value,omitempty"      yaml:"value,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	NthIndex   int               `json:"nthIndex,omitempty"   yaml:"nthIndex,omitempty"`
}

// Snapshot is one consistent capture of the interactive-element set plus
// metadata. Immutable once produced; a new snapshot fully replaces the
// previous one, never merges into it.
type Snapshot struct {
	Timestamp time.Time    `json:"timestamp"         yaml:"timestamp"`
	URL       string       `json:"url,omitempty"     yaml:"url,omitempty"`
	Title     string       `json:"title,omitempty"   yaml:"title,omitempty"`
	Elements  []RefElement `json:"elements"          yaml:"elements"`
	RawTree   string       `json:"rawTree,omitempty" yaml:"rawTree,omitempty"`
}

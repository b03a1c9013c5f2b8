package refs

import (
	"encoding/json"
	"fmt"
)

// treeNode is the wire shape of one element in a serialized surface tree,
// as produced by the control channel's tree-dump script.
type treeNode struct {
	TagName    string            `json:"tag"`
	Attributes map[string]string `json:"attrs,omitempty"`
	OwnText    string            `json:"text,omitempty"`
	Val        string            `json:"value,omitempty"`
	Box        [4]int            `json:"bounds"`
	Kids       []*treeNode       `json:"children,omitempty"`
}

func (t *treeNode) Tag() string { return t.TagName }

func (t *treeNode) Attr(name string) (string, bool) {
	v, ok := t.Attributes[name]
	return v, ok
}

func (t *treeNode) Text() string   { return t.OwnText }
func (t *treeNode) Value() string  { return t.Val }
func (t *treeNode) Bounds() [4]int { return t.Box }

func (t *treeNode) Children() []Node {
	kids := make([]Node, len(t.Kids))
	for i, k := range t.Kids {
		kids[i] = k
	}
	return kids
}

// pageWire is the wire shape of a full tree dump.
type pageWire struct {
	URL   string    `json:"url,omitempty"`
	Title string    `json:"title,omitempty"`
	Tree  *treeNode `json:"tree"`
}

// ParsePage decodes a serialized surface tree into a Page.
func ParsePage(data []byte) (*Page, error) {
	var w pageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse surface tree: %w", err)
	}
	if w.Tree == nil {
		return nil, fmt.Errorf("parse surface tree: missing tree root")
	}
	return &Page{URL: w.URL, Title: w.Title, Root: w.Tree}, nil
}

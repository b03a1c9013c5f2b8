// Package cost keeps an append-only ledger of vision-call usage and converts
// it to an estimated monetary cost per provider and operation. Summaries are
// always recomputed from the entries, never stored independently.
package cost

import (
	"sync"
	"time"
)

// Entry is one recorded vision call. Entries are append-only.
type Entry struct {
	Provider     string    `json:"provider"     yaml:"provider"`
	Model        string    `json:"model"        yaml:"model"`
	InputTokens  int       `json:"inputTokens"  yaml:"inputTokens"`
	OutputTokens int       `json:"outputTokens" yaml:"outputTokens"`
	Images       int       `json:"images"       yaml:"images"`
	Cost         float64   `json:"cost"         yaml:"cost"`
	Timestamp    time.Time `json:"timestamp"    yaml:"timestamp"`
	Operation    string    `json:"operation"    yaml:"operation"`
}

// Summary is a pure aggregate over the ledger.
type Summary struct {
	Calls        int                `json:"calls"                  yaml:"calls"`
	TotalCost    float64            `json:"totalCost"              yaml:"totalCost"`
	InputTokens  int                `json:"inputTokens"            yaml:"inputTokens"`
	OutputTokens int                `json:"outputTokens"           yaml:"outputTokens"`
	Images       int                `json:"images"                 yaml:"images"`
	ByProvider   map[string]float64 `json:"byProvider,omitempty"   yaml:"byProvider,omitempty"`
	ByOperation  map[string]float64 `json:"byOperation,omitempty"  yaml:"byOperation,omitempty"`
}

// Tracker is the cost ledger. Safe to read at any time; appended to only by
// the single call that just completed.
type Tracker struct {
	mu      sync.Mutex
	entries []Entry
}

// NewTracker creates an empty ledger.
func NewTracker() *Tracker { return &Tracker{} }

// Record appends one usage entry, computing its cost from the pricing table,
// and returns the recorded entry.
func (t *Tracker) Record(provider, model, operation string, inputTokens, outputTokens, images int) Entry {
	e := Entry{
		Provider:     provider,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Images:       images,
		Cost:         estimate(provider, model, inputTokens, outputTokens),
		Timestamp:    time.Now(),
		Operation:    operation,
	}
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
	return e
}

// Entries returns a copy of the ledger.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Total returns the summed cost of all entries.
func (t *Tracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for _, e := range t.entries {
		total += e.Cost
	}
	return total
}

// Summarize recomputes the aggregate view from the entries.
func (t *Tracker) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Summary{
		ByProvider:  make(map[string]float64),
		ByOperation: make(map[string]float64),
	}
	for _, e := range t.entries {
		s.Calls++
		s.TotalCost += e.Cost
		s.InputTokens += e.InputTokens
		s.OutputTokens += e.OutputTokens
		s.Images += e.Images
		s.ByProvider[e.Provider] += e.Cost
		s.ByOperation[e.Operation] += e.Cost
	}
	return s
}

// Reset clears the ledger, bringing all totals to zero.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()
}

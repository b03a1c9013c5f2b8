package engine

import "time"

// Status is the outcome class of one locate-or-act call. Exactly one status
// is active per result.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusFailed      Status = "failed"
	StatusTimeout     Status = "timeout"
	StatusNotFound    Status = "not_found"
	StatusVLMFallback Status = "vlm_fallback"
)

// ActionResult is the uniform outcome envelope returned by every locate/act
// operation. UsedVLM is true iff the visual tier produced the final answer.
type ActionResult struct {
	Status     Status        `json:"status"               yaml:"status"`
	Data       any           `json:"data,omitempty"       yaml:"data,omitempty"`
	Error      string        `json:"error,omitempty"      yaml:"error,omitempty"`
	Duration   time.Duration `json:"duration"             yaml:"duration"`
	UsedVLM    bool          `json:"usedVLM"              yaml:"usedVLM"`
	VLMCost    float64       `json:"vlmCost,omitempty"    yaml:"vlmCost,omitempty"`
	Screenshot []byte        `json:"screenshot,omitempty" yaml:"-"`
}

// OK reports whether the call located/acted successfully on any tier.
func (r *ActionResult) OK() bool {
	return r.Status == StatusSuccess || r.Status == StatusVLMFallback
}

package vision

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CompletionRequest is the uniform backend contract: one image plus two
// prompt strings.
type CompletionRequest struct {
	Model       string
	System      string
	User        string
	ImagePNG    []byte
	MaxTokens   int
	Temperature float64
}

// CompletionResult is the normalized backend reply: one text payload plus
// usage counts. Zero token counts mean the backend reported no usage.
type CompletionResult struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Backend sends one vision completion to a concrete provider. Backends are
// interchangeable: each applies exactly one normalization step from its wire
// shape to CompletionResult.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)
}

// TransportError is a network, auth, or protocol failure talking to a
// provider. Fatal for that call; it is never absorbed into a result.
type TransportError struct {
	Provider string
	Status   int
	Message  string
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s transport error: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s transport error: %s", e.Provider, e.Message)
}

// backendFactory builds a backend from resolved construction inputs.
type backendFactory func(apiKey, baseURL string) Backend

// backends is the strategy table of available metered providers.
var backends = map[string]backendFactory{
	"anthropic": func(apiKey, baseURL string) Backend { return newAnthropicBackend(apiKey, baseURL) },
	"google":    func(apiKey, baseURL string) Backend { return newGoogleBackend(apiKey, baseURL) },
	"openai":    func(apiKey, baseURL string) Backend { return newOpenAIBackend(apiKey, baseURL) },
}

// httpTimeout bounds one provider round trip when the caller's context has
// no deadline of its own.
const httpTimeout = 60 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

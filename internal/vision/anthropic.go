package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicDefaultBaseURL = "https://api.anthropic.com"

type anthropicBackend struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newAnthropicBackend(apiKey, baseURL string) *anthropicBackend {
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	return &anthropicBackend{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

func (b *anthropicBackend) Name() string { return "anthropic" }

type anthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Temp      float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends one messages-API request with a base64 image block and
// normalizes the reply to the uniform result shape.
func (b *anthropicBackend) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	content := []anthropicContent{}
	if len(req.ImagePNG) > 0 {
		content = append(content, anthropicContent{
			Type: "image",
			Source: &anthropicSource{
				Type:      "base64",
				MediaType: "image/png",
				Data:      base64.StdEncoding.EncodeToString(req.ImagePNG),
			},
		})
	}
	content = append(content, anthropicContent{Type: "text", Text: req.User})

	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: content}},
		Temp:      req.Temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: "encode request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(b.baseURL, "/")+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: err.Error()}
	}
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: "read response: " + err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Provider: b.Name(), Status: resp.StatusCode, Message: truncate(string(raw), 300)}
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: "decode response: " + err.Error()}
	}

	var text strings.Builder
	for _, c := range decoded.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	return &CompletionResult{
		Text:         text.String(),
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes)", s[:n], len(s))
}

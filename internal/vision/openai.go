package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

const openaiDefaultBaseURL = "https://api.openai.com"

type openaiBackend struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newOpenAIBackend(apiKey, baseURL string) *openaiBackend {
	if baseURL == "" {
		baseURL = openaiDefaultBaseURL
	}
	return &openaiBackend{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

func (b *openaiBackend) Name() string { return "openai" }

type openaiContentPart struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	ImageURL *openaiImagePart `json:"image_url,omitempty"`
}

type openaiImagePart struct {
	URL string `json:"url"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends one chat-completions request with a data-URL image part and
// normalizes the reply to the uniform result shape.
func (b *openaiBackend) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	parts := []openaiContentPart{{Type: "text", Text: req.User}}
	if len(req.ImagePNG) > 0 {
		parts = append(parts, openaiContentPart{
			Type: "image_url",
			ImageURL: &openaiImagePart{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(req.ImagePNG),
			},
		})
	}

	body := openaiRequest{
		Model: req.Model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: parts},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: "encode request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(b.baseURL, "/")+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: err.Error()}
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
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

	var decoded openaiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: "decode response: " + err.Error()}
	}
	if len(decoded.Choices) == 0 {
		return nil, &TransportError{Provider: b.Name(), Message: "response contained no choices"}
	}
	return &CompletionResult{
		Text:         decoded.Choices[0].Message.Content,
		InputTokens:  decoded.Usage.PromptTokens,
		OutputTokens: decoded.Usage.CompletionTokens,
	}, nil
}

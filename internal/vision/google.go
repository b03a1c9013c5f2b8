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

const googleDefaultBaseURL = "https://generativelanguage.googleapis.com"

type googleBackend struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newGoogleBackend(apiKey, baseURL string) *googleBackend {
	if baseURL == "" {
		baseURL = googleDefaultBaseURL
	}
	return &googleBackend{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

func (b *googleBackend) Name() string { return "google" }

type googlePart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *googleInlineData `json:"inlineData,omitempty"`
}

type googleInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type googleRequest struct {
	SystemInstruction *googleContent  `json:"systemInstruction,omitempty"`
	Contents          []googleContent `json:"contents"`
	GenerationConfig  struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float64 `json:"temperature,omitempty"`
	} `json:"generationConfig"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []googlePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Complete sends one generateContent request with an inline-data image part
// and normalizes the reply to the uniform result shape.
func (b *googleBackend) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	parts := []googlePart{{Text: req.User}}
	if len(req.ImagePNG) > 0 {
		parts = append(parts, googlePart{
			InlineData: &googleInlineData{
				MimeType: "image/png",
				Data:     base64.StdEncoding.EncodeToString(req.ImagePNG),
			},
		})
	}

	var body googleRequest
	if req.System != "" {
		body.SystemInstruction = &googleContent{Parts: []googlePart{{Text: req.System}}}
	}
	body.Contents = []googleContent{{Role: "user", Parts: parts}}
	body.GenerationConfig.MaxOutputTokens = req.MaxTokens
	body.GenerationConfig.Temperature = req.Temperature

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: "encode request: " + err.Error()}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(b.baseURL, "/"), req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: err.Error()}
	}
	httpReq.Header.Set("x-goog-api-key", b.apiKey)
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

	var decoded googleResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &TransportError{Provider: b.Name(), Message: "decode response: " + err.Error()}
	}
	if len(decoded.Candidates) == 0 {
		return nil, &TransportError{Provider: b.Name(), Message: "response contained no candidates"}
	}
	var text strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return &CompletionResult{
		Text:         text.String(),
		InputTokens:  decoded.UsageMetadata.PromptTokenCount,
		OutputTokens: decoded.UsageMetadata.CandidatesTokenCount,
	}, nil
}

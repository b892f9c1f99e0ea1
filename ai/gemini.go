package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// Options configures a GeminiClient.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewGeminiClient builds a client. An empty API key yields a client whose calls fail with KindUnconfigured.
func NewGeminiClient(opts Options) *GeminiClient {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &GeminiClient{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		httpClient: client,
	}
}

// Configured reports whether an API key is present.
func (c *GeminiClient) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends prompt and returns the concatenated text of the first candidate.
// Every failure is an *Error.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", &Error{Kind: KindUnconfigured}
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.4,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return "", &Error{Kind: KindUpstream, Err: err}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", Classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", Classify(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, raw)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &Error{Kind: KindMalformedResponse, Err: err}
	}
	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return "", &Error{Kind: KindMalformedResponse, Err: fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)}
		}
		return "", &Error{Kind: KindMalformedResponse, Err: errors.New("no candidates")}
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &Error{Kind: KindMalformedResponse, Err: errors.New("empty candidate text")}
	}
	return text, nil
}

// statusError maps a non-200 response to an *Error, surfacing the API's own message when it sent one.
func statusError(status int, body []byte) *Error {
	var apiErr apiErrorBody
	detail := ""
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		detail = apiErr.Error.Message
	} else {
		detail = strings.TrimSpace(string(body))
		if len(detail) > 200 {
			detail = detail[:200] + "..."
		}
	}
	var cause error
	if detail != "" {
		cause = errors.New(detail)
	}

	kind := KindUpstream
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUnauthorized
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(detail), "api key"):
		kind = KindUnauthorized
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	return &Error{Kind: kind, Status: status, Err: cause}
}

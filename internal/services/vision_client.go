package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/windowcatalog-backend/internal/logger"
)

// VisionClient talks to an OpenAI-compatible chat-completions endpoint with an
// attached image. There is deliberately no retry loop here: a failed call
// flows straight into the analyzer's fallback.
type VisionClient interface {
	// Configured reports whether a credential is present. Without one the
	// analyzer short-circuits to its fallback and never dials out.
	Configured() bool
	Model() string
	// Describe sends the image plus prompt and returns the assistant's mixed
	// text answer along with the provider's raw usage object (may be nil).
	Describe(ctx context.Context, imageData []byte, prompt string) (string, json.RawMessage, error)
}

type visionClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewVisionClient(log *logger.Logger) VisionClient {
	apiKey := os.Getenv("OPENAI_API_KEY")

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeoutSec := 30
	if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &visionClient{
		log:        log.With("service", "VisionClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

func (c *visionClient) Configured() bool { return c.apiKey != "" }

func (c *visionClient) Model() string { return c.model }

type visionHTTPError struct {
	StatusCode int
	Body       string
}

func (e *visionHTTPError) Error() string {
	return fmt.Sprintf("vision http %d: %s", e.StatusCode, e.Body)
}

type chatContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatCompletionsRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage json.RawMessage `json:"usage"`
}

func (c *visionClient) Describe(ctx context.Context, imageData []byte, prompt string) (string, json.RawMessage, error) {
	if !c.Configured() {
		return "", nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	imagePart := chatContentPart{Type: "image_url"}
	imagePart.ImageURL = &struct {
		URL string `json:"url"`
	}{URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)}

	reqBody := chatCompletionsRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContentPart{
					{Type: "text", Text: prompt},
					imagePart,
				},
			},
		},
		MaxTokens: 300,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug("Vision endpoint returned non-success", "status", resp.StatusCode)
		return "", nil, &visionHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", nil, fmt.Errorf("vision decode error: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", parsed.Usage, fmt.Errorf("vision response contained no choices")
	}
	return parsed.Choices[0].Message.Content, parsed.Usage, nil
}

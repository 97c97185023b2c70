// Package completion talks to an OpenAI-compatible chat completions API.
package completion

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

	"github.com/tidwall/gjson"

	"github.com/ManuelReschke/ExamFox/internal/pkg/env"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o-mini"
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 3000
	temperature      = 0.7
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is the system and user message pair sent for one completion.
type Prompt struct {
	System string
	User   string
}

// Completer produces the raw text of one completion.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// APIError reports a non-2xx answer from the completion service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion request failed: status=%d body=%s", e.StatusCode, e.Body)
}

// ErrEmptyCompletion is returned when the service answered without content.
var ErrEmptyCompletion = errors.New("completion returned no content")

type OpenAIClient struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// Timeout bounds one Complete call.
	Timeout time.Duration

	HTTPClient *http.Client
}

func NewOpenAIClientFromEnv() *OpenAIClient {
	timeout := env.GetEnvDuration("COMPLETION_TIMEOUT", defaultTimeout)
	return &OpenAIClient{
		APIKey:    strings.TrimSpace(env.GetEnv("COMPLETION_API_KEY", "")),
		BaseURL:   strings.TrimSpace(env.GetEnv("COMPLETION_BASE_URL", defaultBaseURL)),
		Model:     strings.TrimSpace(env.GetEnv("COMPLETION_MODEL", defaultModel)),
		MaxTokens: env.GetEnvInt("COMPLETION_MAX_TOKENS", defaultMaxTokens),
		Timeout:   timeout,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

// Complete sends the prompt and returns the first choice's message content.
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", errors.New("COMPLETION_API_KEY is not configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	model := c.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("completion response is not valid JSON")
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() || strings.TrimSpace(content.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return content.String(), nil
}

func (c *OpenAIClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hackvision/vision/internal/config"
)

// Client is the judgment collaborator: a text-completion service used by
// the step evaluators for scored assessments.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

const defaultMaxTokens = 8000

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type HTTPClient struct {
	url        string
	key        string
	model      string
	maxRetries int
	retryDelay time.Duration
	client     *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg *config.Config) *HTTPClient {
	return &HTTPClient{
		url:        cfg.AI.URL,
		key:        cfg.AI.Key,
		model:      cfg.AI.Model,
		maxRetries: cfg.AI.MaxRetries,
		retryDelay: cfg.AI.RetryDelay,
		client:     &http.Client{Timeout: cfg.AI.Timeout},
	}
}

// Complete sends the prompt and returns the raw completion text. Rate
// limits and server errors are retried a bounded number of times; anything
// else fails immediately.
func (c *HTTPClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding completion request")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			zap.S().Named("ai").Warnf("retrying completion call (attempt %d/%d): %v", attempt, c.maxRetries, lastErr)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		content, retryable, err := c.do(ctx, body)
		if err == nil {
			return content, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}

	return "", errors.Wrap(lastErr, "completion call exhausted retries")
}

func (c *HTTPClient) do(ctx context.Context, body []byte) (string, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", false, errors.Wrap(err, "building completion request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.key)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", true, errors.Wrap(err, "calling completion endpoint")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", true, fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, errors.Wrap(err, "reading completion response")
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, errors.Wrap(err, "decoding completion response")
	}
	if len(parsed.Choices) == 0 {
		return "", false, errors.New("completion response has no choices")
	}

	return parsed.Choices[0].Message.Content, false, nil
}

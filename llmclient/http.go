package llmclient

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

	"smart-response/config"
	apperrors "smart-response/errors"
	"smart-response/web/types"

	"go.uber.org/zap"
)

// ErrContextWindowExceeded is returned when the model reports the prompt
// exceeds the available context size.
var ErrContextWindowExceeded = errors.New("context window exceeded")

type chatRequest struct {
	Model     string               `json:"model,omitempty"`
	Messages  []types.AgentMessage `json:"messages"`
	Stream    bool                 `json:"stream"`
	MaxTokens int                  `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message types.AgentMessage `json:"message"`
	} `json:"choices"`
}

// HTTPClient calls a self-hosted OpenAI-compatible server (llama.cpp, vLLM,
// Ollama) directly.
type HTTPClient struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPClient(cfg *config.Config, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.LLMRequestTimeout},
		logger:     logger,
	}
}

func (c *HTTPClient) Name() string { return "http" }

func (c *HTTPClient) Generate(ctx context.Context, req Request) (string, error) {
	content, err := c.Chat(ctx, c.cfg.AIBaseURL, BuildMessages(req))
	if err != nil {
		return "", apperrors.Join(apperrors.ErrProvider, err)
	}
	return content, nil
}

// Chat performs a non-streaming chat completion call. A 503 means the model
// is still loading and is retried with backoff.
func (c *HTTPClient) Chat(ctx context.Context, host string, messages []types.AgentMessage) (string, error) {
	reqBody := chatRequest{
		Model:     c.cfg.AIModel,
		Messages:  messages,
		Stream:    false,
		MaxTokens: c.cfg.AIMaxTokens,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", strings.TrimSuffix(strings.TrimRight(host, "/"), "/v1"))
	attempts := max(c.cfg.MaxRetries, 1)

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return "", fmt.Errorf("create chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.AIAPIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.AIAPIKey)
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			// Do not retry on context cancellation/deadline
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if r.StatusCode == http.StatusServiceUnavailable {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			lastErr = fmt.Errorf("llm server status %s", r.Status)
			if attempt == attempts-1 {
				break
			}
			c.logger.Warn("LLM service unavailable, retrying", zap.Int("attempt", attempt+1))
			if err := c.backoffSleep(ctx, attempt); err != nil {
				lastErr = err
				break
			}
			continue
		}
		resp = r
		break
	}
	if resp == nil {
		return "", fmt.Errorf("no response from LLM server: %w", lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if strings.Contains(string(bodyBytes), "exceeds the available context size") {
			return "", ErrContextWindowExceeded
		}
		return "", fmt.Errorf("llm server status %s: %s", resp.Status, string(bodyBytes))
	}

	var cr chatResponse
	if err := json.Unmarshal(bodyBytes, &cr); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("no response choices from llm server")
	}
	return cr.Choices[0].Message.Content, nil
}

// backoffDelay is exponential with configurable jitter and cap.
func (c *HTTPClient) backoffDelay(attempt int) time.Duration {
	base := c.cfg.RetryDelaySeconds
	if base <= 0 {
		base = time.Second
	}
	d := base * time.Duration(1<<attempt)
	maxWait := c.cfg.LLMBackoffMaxSeconds
	if maxWait > 0 && d > maxWait {
		d = maxWait
	}
	jitterRatio := c.cfg.LLMBackoffJitterRatio
	if jitterRatio < 0 || jitterRatio > 1 {
		jitterRatio = 0.1
	}
	jitter := time.Duration(float64(d) * jitterRatio)
	return d - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter+1))
}

func (c *HTTPClient) backoffSleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.backoffDelay(attempt))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

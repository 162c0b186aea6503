package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"subtrans/internal/services"
)

const (
	defaultBaseURL       = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout   = 120 * time.Second
	transportAttempts    = 3
	transportBaseBackoff = 1 * time.Second
	transportMaxBackoff  = 30 * time.Second
)

// OpenRouterClient talks to OpenRouter or any OpenAI-compatible chat
// completions endpoint. It retries rate limits and server errors at the
// transport level; semantic failures surface to the caller.
type OpenRouterClient struct {
	settings   Settings
	httpClient *http.Client
	sleeper    func(time.Duration)
}

// OpenRouterOption customizes the client.
type OpenRouterOption func(*OpenRouterClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) OpenRouterOption {
	return func(c *OpenRouterClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed, for tests.
func WithSleeper(sleeper func(time.Duration)) OpenRouterOption {
	return func(c *OpenRouterClient) { c.sleeper = sleeper }
}

// NewOpenRouterClient constructs a client for the configured endpoint.
func NewOpenRouterClient(settings Settings, opts ...OpenRouterOption) *OpenRouterClient {
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	settings.BaseURL = strings.TrimSpace(settings.BaseURL)
	settings.Model = strings.TrimSpace(settings.Model)
	if settings.BaseURL == "" {
		settings.BaseURL = defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if settings.TimeoutSeconds > 0 {
		timeout = time.Duration(settings.TimeoutSeconds) * time.Second
	}
	c := &OpenRouterClient{
		settings:   settings,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		// Some providers return the streaming schema even when
		// stream=false, so tolerate it as a fallback.
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Send implements Client.
func (c *OpenRouterClient) Send(ctx context.Context, req Request) (*Response, error) {
	if c.settings.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "provider", "send", "api key required", nil)
	}
	if strings.TrimSpace(req.User) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "provider", "send", "user prompt required", nil)
	}

	payload := chatRequest{
		Model: c.settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
	}

	var lastErr error
	for attempt := 1; attempt <= transportAttempts; attempt++ {
		resp, err := c.sendOnce(ctx, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || ctx.Err() != nil {
			return nil, classify(ctx, err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, services.Wrap(services.ErrCancelled, "provider", "send", "cancelled during backoff", err)
		}
	}
	return nil, classify(ctx, fmt.Errorf("failed after %d attempts: %w", transportAttempts, lastErr))
}

func (c *OpenRouterClient) sendOnce(ctx context.Context, payload chatRequest) (*Response, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.settings.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.settings.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.settings.Referer)
		httpReq.Header.Set("Referer", c.settings.Referer)
	}
	if c.settings.Title != "" {
		httpReq.Header.Set("X-Title", c.settings.Title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	return buildResponse(completion)
}

func buildResponse(completion chatResponse) (*Response, error) {
	if len(completion.Choices) == 0 {
		return nil, errors.New("empty choices")
	}
	choice := completion.Choices[0]
	content := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text)
	if content == "" {
		if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
			return nil, services.Wrap(services.ErrProviderFatal, "provider", "send",
				fmt.Sprintf("model refused: %s", refusal), nil)
		}
		return nil, fmt.Errorf("empty content (finish_reason=%q)", choice.FinishReason)
	}
	return &Response{
		Text:         content,
		FinishReason: strings.TrimSpace(choice.FinishReason),
		Model:        completion.Model,
		PromptTokens: completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
	}, nil
}

// classify maps a transport error onto the services markers. A deadline
// error counts as cancellation only when the caller's context is done;
// otherwise it is the HTTP client's per-request timeout and stays retryable.
func classify(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrProviderFatal), errors.Is(err, services.ErrProviderTransient),
		errors.Is(err, services.ErrConfiguration), errors.Is(err, services.ErrCancelled):
		return err
	case errors.Is(err, context.Canceled):
		return services.Wrap(services.ErrCancelled, "provider", "send", "request cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		if ctx != nil && ctx.Err() != nil {
			return services.Wrap(services.ErrCancelled, "provider", "send", "request cancelled", err)
		}
		return services.Wrap(services.ErrProviderTransient, "provider", "send", "request timed out", err)
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized,
			statusErr.StatusCode == http.StatusForbidden,
			statusErr.StatusCode == http.StatusNotFound,
			statusErr.StatusCode == http.StatusBadRequest:
			return services.Wrap(services.ErrProviderFatal, "provider", "send", "request rejected", err)
		default:
			return services.Wrap(services.ErrProviderTransient, "provider", "send", "request failed", err)
		}
	}
	return services.Wrap(services.ErrProviderTransient, "provider", "send", "request failed", err)
}

// retryDelay decides whether the transport loop should try again and how
// long to wait first.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	if attempt >= transportAttempts {
		return 0, false
	}
	if errors.Is(err, context.Canceled) {
		return 0, false
	}
	if errors.Is(err, services.ErrProviderFatal) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return capDelay(statusErr.RetryAfter), true
			}
			return backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles per attempt: 1s, 2s, 4s, capped.
func backoffDelay(attempt int) time.Duration {
	delay := transportBaseBackoff
	for i := 1; i < attempt; i++ {
		if delay > transportMaxBackoff/2 {
			return transportMaxBackoff
		}
		delay *= 2
	}
	return capDelay(delay)
}

func capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if delay > transportMaxBackoff {
		return transportMaxBackoff
	}
	return delay
}

func (c *OpenRouterClient) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

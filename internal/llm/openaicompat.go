package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// chatProvider implements Provider against any OpenAI-compatible
// /chat/completions endpoint.
type chatProvider struct {
	name       string
	model      string
	apiKey     string
	baseURL    string
	maxRetries int
	timeout    time.Duration
	logger     *slog.Logger
	client     *http.Client
}

func newChatProvider(p chatProvider) *chatProvider {
	if p.maxRetries <= 0 {
		p.maxRetries = defaultMaxRetries
	}
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.client = &http.Client{Timeout: p.timeout}
	return &p
}

// Chat request/response types (OpenAI-compatible).
type chatRequest struct {
	Model          string           `json:"model"`
	Messages       []chatMessage    `json:"messages"`
	MaxTokens      int              `json:"max_tokens,omitempty"`
	Temperature    float64          `json:"temperature"`
	ResponseFormat *chatResponseFmt `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
	Error *apiError  `json:"error,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// HTTPError represents an HTTP-level API failure with retry context.
type HTTPError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (p *chatProvider) Name() string {
	return p.name + "/" + p.model
}

func (p *chatProvider) Model() string {
	return p.model
}

func (p *chatProvider) Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error) {
	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}

	messages := make([]chatMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	req := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if strings.ToLower(opts.Format) == "json" {
		req.ResponseFormat = &chatResponseFmt{Type: "json_object"}
	}

	reqID := uuid.NewString()[:8]
	start := time.Now()
	p.logger.Debug("llm.complete.start",
		slog.String("req_id", reqID),
		slog.String("provider", p.name),
		slog.String("model", model),
		slog.Bool("json_mode", req.ResponseFormat != nil))

	// Retry on 429/5xx and transport errors with exponential backoff:
	// 1s, 2s, 4s, honoring Retry-After on rate limits.
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		content, err := p.attempt(ctx, req)
		if err == nil {
			p.logger.Debug("llm.complete.done",
				slog.String("req_id", reqID),
				slog.Int("chars", len(content)),
				slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
			return content, nil
		}

		lastErr = err
		if !retryable(err) || attempt == p.maxRetries {
			break
		}

		backoff := time.Duration(1<<attempt) * time.Second
		if httpErr, ok := err.(*HTTPError); ok && httpErr.StatusCode == http.StatusTooManyRequests {
			if httpErr.RetryAfter > 0 {
				backoff = httpErr.RetryAfter
			}
		}

		p.logger.Debug("llm.complete.retry",
			slog.String("req_id", reqID),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
			slog.String("cause", err.Error()))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	p.logger.Debug("llm.complete.error",
		slog.String("req_id", reqID),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		slog.String("cause", lastErr.Error()))
	return "", fmt.Errorf("%s completion failed: %w", p.name, lastErr)
}

// retryable reports whether an error is worth another attempt. Client-side
// 4xx failures (bad key, bad request) never recover on retry.
func retryable(err error) bool {
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	// Transport errors (connection refused, timeouts) are retried.
	return true
}

// attempt makes a single chat completion request.
func (p *chatProvider) attempt(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var retryAfter time.Duration
		if header := resp.Header.Get("Retry-After"); header != "" {
			if seconds, err := strconv.Atoi(header); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return "", &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
			RetryAfter: retryAfter,
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%s API error: %s", p.name, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s API", p.name)
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty response from %s API", p.name)
	}
	return content, nil
}

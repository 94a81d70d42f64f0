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

// googleProvider implements Provider against the Gemini generateContent
// API. Gemini is the one supported backend that does not speak the
// /chat/completions shape, so it carries its own codec.
type googleProvider struct {
	model      string
	apiKey     string
	baseURL    string
	maxRetries int
	timeout    time.Duration
	logger     *slog.Logger
	client     *http.Client
}

func newGoogleProvider(base chatProvider) *googleProvider {
	if base.maxRetries <= 0 {
		base.maxRetries = defaultMaxRetries
	}
	if base.timeout <= 0 {
		base.timeout = defaultTimeout
	}
	if base.logger == nil {
		base.logger = slog.Default()
	}
	return &googleProvider{
		model:      base.model,
		apiKey:     base.apiKey,
		baseURL:    base.baseURL,
		maxRetries: base.maxRetries,
		timeout:    base.timeout,
		logger:     base.logger,
		client:     &http.Client{Timeout: base.timeout},
	}
}

// Gemini request/response types.
type googleRequest struct {
	Contents          []googleContent  `json:"contents"`
	SystemInstruction *googleContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *googleGenConfig `json:"generationConfig,omitempty"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleGenConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []googlePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *googleError `json:"error,omitempty"`
}

type googleError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (g *googleProvider) Name() string {
	return "google/" + g.model
}

func (g *googleProvider) Model() string {
	return g.model
}

func (g *googleProvider) Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error) {
	model := g.model
	if opts.Model != "" {
		model = opts.Model
	}

	req := googleRequest{
		Contents: []googleContent{{
			Parts: []googlePart{{Text: prompt}},
			Role:  "user",
		}},
	}
	if opts.System != "" {
		req.SystemInstruction = &googleContent{Parts: []googlePart{{Text: opts.System}}}
	}
	genConfig := &googleGenConfig{Temperature: opts.Temperature}
	if opts.MaxTokens > 0 {
		genConfig.MaxOutputTokens = opts.MaxTokens
	}
	jsonMode := strings.ToLower(opts.Format) == "json"
	if jsonMode {
		genConfig.ResponseMimeType = "application/json"
	}
	req.GenerationConfig = genConfig

	reqID := uuid.NewString()[:8]
	start := time.Now()
	g.logger.Debug("llm.complete.start",
		slog.String("req_id", reqID),
		slog.String("provider", "google"),
		slog.String("model", model),
		slog.Bool("json_mode", jsonMode))

	// Same backoff policy as the chat client: 1s, 2s, 4s, honoring
	// Retry-After on rate limits.
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		content, err := g.attempt(ctx, model, req)
		if err == nil {
			g.logger.Debug("llm.complete.done",
				slog.String("req_id", reqID),
				slog.Int("chars", len(content)),
				slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
			return content, nil
		}

		lastErr = err
		if !retryable(err) || attempt == g.maxRetries {
			break
		}

		backoff := time.Duration(1<<attempt) * time.Second
		if httpErr, ok := err.(*HTTPError); ok && httpErr.StatusCode == http.StatusTooManyRequests {
			if httpErr.RetryAfter > 0 {
				backoff = httpErr.RetryAfter
			}
		}

		g.logger.Debug("llm.complete.retry",
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

	g.logger.Debug("llm.complete.error",
		slog.String("req_id", reqID),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		slog.String("cause", lastErr.Error()))
	return "", fmt.Errorf("google completion failed: %w", lastErr)
}

// attempt makes a single generateContent request. The API key travels in
// a header; URLs never carry it.
func (g *googleProvider) attempt(ctx context.Context, model string, req googleRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
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

	var gResp googleResponse
	if err := json.Unmarshal(respBody, &gResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if gResp.Error != nil {
		return "", fmt.Errorf("google API error: %s (code %d)", gResp.Error.Message, gResp.Error.Code)
	}
	if len(gResp.Candidates) == 0 || len(gResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from google API")
	}

	content := strings.TrimSpace(gResp.Candidates[0].Content.Parts[0].Text)
	if content == "" {
		return "", fmt.Errorf("empty response from google API")
	}
	return content, nil
}

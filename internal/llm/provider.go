// Package llm adapts hosted model APIs behind a small Provider interface.
// DeepSeek, OpenAI, OpenRouter, and self-hosted gateways all speak the same
// OpenAI-compatible /chat/completions shape and share one HTTP client; the
// factory only decides base URL, model, and which environment variable holds
// the key. Gemini has its own codec in google.go.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Provider is the interface for model completions.
type Provider interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error)
	// Name returns a human-readable provider name (e.g., "deepseek/deepseek-chat").
	Name() string
	// Model returns the bare model identifier (e.g., "deepseek-chat").
	Model() string
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // Max tokens to generate (0 = provider default)
	Temperature float64 // 0.0-2.0 (0 = deterministic)
	Model       string  // Override model for this request (empty = use provider default)
	Format      string  // "json" for structured output, empty for plain text
	System      string  // System prompt (optional)
}

// Config holds provider configuration.
type Config struct {
	Provider   string        // "deepseek", "openai", "google", "openrouter", "custom"
	Model      string        // e.g., "deepseek-chat", "gpt-4o-mini"
	APIKey     string        // API key (empty = read from env)
	BaseURL    string        // Optional URL override; required for "custom"
	MaxRetries int           // Retries on 429/5xx/transport errors (0 = default)
	Timeout    time.Duration // Per-request HTTP timeout (0 = default)
	Logger     *slog.Logger  // nil = slog.Default()
}

const (
	// DefaultProvider and DefaultModel back every unset model selection.
	DefaultProvider = "deepseek"
	DefaultModel    = "deepseek-chat"

	deepseekBaseURL   = "https://api.deepseek.com/v1"
	openaiBaseURL     = "https://api.openai.com/v1"
	googleBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	openrouterBaseURL = "https://openrouter.ai/api/v1"

	defaultMaxRetries = 3
	defaultTimeout    = 120 * time.Second
)

// NewProvider creates a model provider from the given config.
func NewProvider(cfg Config) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	if name == "" {
		name = DefaultProvider
	}

	base := chatProvider{
		name:       name,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}

	switch name {
	case "deepseek":
		if base.apiKey == "" {
			base.apiKey = os.Getenv("DEEPSEEK_API_KEY")
		}
		if base.apiKey == "" {
			base.apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if base.apiKey == "" {
			return nil, fmt.Errorf("deepseek provider requires DEEPSEEK_API_KEY or OPENAI_API_KEY env var")
		}
		if base.model == "" {
			base.model = DefaultModel
		}
		if base.baseURL == "" {
			base.baseURL = deepseekBaseURL
		}

	case "openai":
		if base.apiKey == "" {
			base.apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if base.apiKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY env var")
		}
		if base.model == "" {
			base.model = "gpt-4o-mini"
		}
		if base.baseURL == "" {
			base.baseURL = openaiBaseURL
		}

	case "google":
		if base.apiKey == "" {
			base.apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if base.apiKey == "" {
			base.apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if base.apiKey == "" {
			return nil, fmt.Errorf("google provider requires GEMINI_API_KEY or GOOGLE_API_KEY env var")
		}
		if base.model == "" {
			base.model = "gemini-2.5-flash"
		}
		if base.baseURL == "" {
			base.baseURL = googleBaseURL
		}
		return newGoogleProvider(base), nil

	case "openrouter":
		if base.apiKey == "" {
			base.apiKey = os.Getenv("OPENROUTER_API_KEY")
		}
		if base.apiKey == "" {
			return nil, fmt.Errorf("openrouter provider requires OPENROUTER_API_KEY env var")
		}
		if base.model == "" {
			return nil, fmt.Errorf("openrouter provider requires an explicit model (e.g., openrouter/deepseek/deepseek-chat)")
		}
		if base.baseURL == "" {
			base.baseURL = openrouterBaseURL
		}

	case "custom":
		// Self-hosted OpenAI-compatible gateways; key optional, URL is not.
		if base.apiKey == "" {
			base.apiKey = os.Getenv("PDF_ANALYZE_API_KEY")
		}
		if base.baseURL == "" {
			base.baseURL = os.Getenv("PDF_ANALYZE_BASE_URL")
		}
		if base.baseURL == "" {
			return nil, fmt.Errorf("custom provider requires a base URL (flag, config, or PDF_ANALYZE_BASE_URL)")
		}
		if base.model == "" {
			return nil, fmt.Errorf("custom provider requires an explicit model")
		}

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: deepseek, openai, google, openrouter, custom)", cfg.Provider)
	}

	return newChatProvider(base), nil
}

// ParseModelFlag parses a --model flag value into a Config.
// Format: "provider/model" e.g., "deepseek/deepseek-chat", "openai/gpt-4o-mini".
func ParseModelFlag(flag string) (Config, error) {
	if flag == "" {
		return Config{Provider: DefaultProvider, Model: DefaultModel}, nil
	}

	parts := strings.SplitN(flag, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return Config{}, fmt.Errorf("invalid --model format %q: expected provider/model (e.g., deepseek/deepseek-chat)", flag)
	}

	provider := strings.ToLower(parts[0])
	model := parts[1]

	switch provider {
	case "deepseek", "openai", "google", "openrouter", "custom":
		return Config{Provider: provider, Model: model}, nil
	default:
		return Config{}, fmt.Errorf("unknown provider %q in --model flag (supported: deepseek, openai, google, openrouter, custom)", provider)
	}
}

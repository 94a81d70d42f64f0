package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseModelFlag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantProv string
		wantMod  string
		wantErr  bool
	}{
		{"empty defaults to deepseek", "", "deepseek", "deepseek-chat", false},
		{"deepseek chat", "deepseek/deepseek-chat", "deepseek", "deepseek-chat", false},
		{"deepseek reasoner", "deepseek/deepseek-reasoner", "deepseek", "deepseek-reasoner", false},
		{"openai model", "openai/gpt-4o-mini", "openai", "gpt-4o-mini", false},
		{"google model", "google/gemini-2.5-flash", "google", "gemini-2.5-flash", false},
		{"openrouter keeps vendor prefix", "openrouter/deepseek/deepseek-chat", "openrouter", "deepseek/deepseek-chat", false},
		{"custom gateway model", "custom/llama-3.1-8b", "custom", "llama-3.1-8b", false},
		{"unknown provider", "mystery/model-9", "", "", true},
		{"no slash", "deepseek-chat", "", "", true},
		{"empty model", "deepseek/", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseModelFlag(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Provider != tt.wantProv {
				t.Errorf("provider: got %q, want %q", cfg.Provider, tt.wantProv)
			}
			if cfg.Model != tt.wantMod {
				t.Errorf("model: got %q, want %q", cfg.Model, tt.wantMod)
			}
		})
	}
}

func TestNewProviderErrors(t *testing.T) {
	// Unknown provider
	_, err := NewProvider(Config{Provider: "unknown"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}

	// DeepSeek without either key (clear env)
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	_, err = NewProvider(Config{Provider: "deepseek"})
	if err == nil {
		t.Fatal("expected error for deepseek without API key")
	}

	// OpenAI without API key
	_, err = NewProvider(Config{Provider: "openai"})
	if err == nil {
		t.Fatal("expected error for openai without API key")
	}

	// Google without either key
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	_, err = NewProvider(Config{Provider: "google"})
	if err == nil {
		t.Fatal("expected error for google without API key")
	}

	// OpenRouter without key, and with key but no model
	t.Setenv("OPENROUTER_API_KEY", "")
	_, err = NewProvider(Config{Provider: "openrouter", Model: "deepseek/deepseek-chat"})
	if err == nil {
		t.Fatal("expected error for openrouter without API key")
	}
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	_, err = NewProvider(Config{Provider: "openrouter"})
	if err == nil {
		t.Fatal("expected error for openrouter without a model")
	}

	// Custom without base URL
	t.Setenv("PDF_ANALYZE_BASE_URL", "")
	_, err = NewProvider(Config{Provider: "custom", Model: "local"})
	if err == nil {
		t.Fatal("expected error for custom without base URL")
	}
}

func TestNewProviderGoogle(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")

	p, err := NewProvider(Config{Provider: "google"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "google/gemini-2.5-flash" {
		t.Errorf("name = %q, want google/gemini-2.5-flash", p.Name())
	}
	if p.Model() != "gemini-2.5-flash" {
		t.Errorf("model = %q, want gemini-2.5-flash", p.Model())
	}
}

func TestNewProviderOpenRouter(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	p, err := NewProvider(Config{Provider: "openrouter", Model: "deepseek/deepseek-chat"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "openrouter/deepseek/deepseek-chat" {
		t.Errorf("name = %q, want openrouter/deepseek/deepseek-chat", p.Name())
	}
}

func TestNewProviderDeepSeekKeyFallback(t *testing.T) {
	// DEEPSEEK_API_KEY absent, OPENAI_API_KEY present: the deepseek provider
	// picks up the OpenAI key.
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "fallback-key")

	p, err := NewProvider(Config{Provider: "deepseek"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "deepseek/deepseek-chat" {
		t.Errorf("name = %q, want deepseek/deepseek-chat", p.Name())
	}
	if p.Model() != "deepseek-chat" {
		t.Errorf("model = %q, want deepseek-chat", p.Model())
	}
}

func okChatResponse(content string) chatResponse {
	var resp chatResponse
	resp.Choices = make([]struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	}, 1)
	resp.Choices[0].Message.Content = content
	resp.Choices[0].FinishReason = "stop"
	return resp
}

func TestChatProviderComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("bad auth header: %q", r.Header.Get("Authorization"))
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "deepseek-chat" {
			t.Errorf("unexpected model: %q", req.Model)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Error("json format not requested")
		}
		if req.MaxTokens != 200 {
			t.Errorf("max_tokens = %d, want 200", req.MaxTokens)
		}

		json.NewEncoder(w).Encode(okChatResponse(`{"summary": "fine"}`))
	}))
	defer server.Close()

	p := newChatProvider(chatProvider{
		name:    "deepseek",
		apiKey:  "test-key",
		model:   "deepseek-chat",
		baseURL: server.URL,
	})

	result, err := p.Complete(context.Background(), "test prompt", CompletionOpts{
		MaxTokens:   200,
		Temperature: 0.3,
		Format:      "json",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"summary": "fine"}` {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestChatProviderSystemPrompt(t *testing.T) {
	var gotMessages int
	var gotSystemRole bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotMessages = len(req.Messages)
		for _, m := range req.Messages {
			if m.Role == "system" {
				gotSystemRole = true
			}
		}
		json.NewEncoder(w).Encode(okChatResponse("ok"))
	}))
	defer server.Close()

	p := newChatProvider(chatProvider{name: "deepseek", apiKey: "test", model: "m", baseURL: server.URL})
	p.Complete(context.Background(), "hello", CompletionOpts{System: "be helpful"})
	if gotMessages != 2 {
		t.Errorf("expected 2 messages (system+user), got %d", gotMessages)
	}
	if !gotSystemRole {
		t.Error("system message not sent")
	}
}

func TestChatProviderEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(okChatResponse("   "))
	}))
	defer server.Close()

	p := newChatProvider(chatProvider{name: "deepseek", apiKey: "test", model: "m", baseURL: server.URL})
	_, err := p.Complete(context.Background(), "test", CompletionOpts{})
	if err == nil {
		t.Fatal("expected error for empty content")
	}
	if !strings.Contains(err.Error(), "empty response") {
		t.Errorf("error %q does not mention empty response", err)
	}
}

func TestChatProviderNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	p := newChatProvider(chatProvider{name: "deepseek", apiKey: "test", model: "m", baseURL: server.URL})
	_, err := p.Complete(context.Background(), "test", CompletionOpts{})
	if err == nil {
		t.Fatal("expected error for missing choices")
	}
}

func TestChatProviderClientErrorNoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
	}))
	defer server.Close()

	p := newChatProvider(chatProvider{name: "deepseek", apiKey: "bad", model: "m", baseURL: server.URL})
	_, err := p.Complete(context.Background(), "test", CompletionOpts{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("401 was retried: %d requests", got)
	}
}

func TestChatProviderRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(okChatResponse("recovered"))
	}))
	defer server.Close()

	p := newChatProvider(chatProvider{
		name: "deepseek", apiKey: "test", model: "m", baseURL: server.URL,
		maxRetries: 1,
	})
	result, err := p.Complete(context.Background(), "test", CompletionOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" {
		t.Errorf("result = %q, want recovered", result)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func okGoogleResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestGoogleProviderComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "gem-key" {
			t.Errorf("bad api key header: %q", r.Header.Get("x-goog-api-key"))
		}
		if r.URL.RawQuery != "" {
			t.Errorf("key must not travel in the URL, got query %q", r.URL.RawQuery)
		}

		var req googleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "test prompt" {
			t.Errorf("prompt not delivered: %+v", req.Contents)
		}
		if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "be terse" {
			t.Error("system instruction not delivered")
		}
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Error("json mime type not requested")
		}
		if req.GenerationConfig.MaxOutputTokens != 300 {
			t.Errorf("maxOutputTokens = %d, want 300", req.GenerationConfig.MaxOutputTokens)
		}

		w.Write([]byte(okGoogleResponse(`{"summary": "fine"}`)))
	}))
	defer server.Close()

	p := newGoogleProvider(chatProvider{
		model:   "gemini-2.5-flash",
		apiKey:  "gem-key",
		baseURL: server.URL,
	})

	result, err := p.Complete(context.Background(), "test prompt", CompletionOpts{
		MaxTokens:   300,
		Temperature: 0.3,
		Format:      "json",
		System:      "be terse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"summary": "fine"}` {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestGoogleProviderEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	p := newGoogleProvider(chatProvider{model: "m", apiKey: "k", baseURL: server.URL})
	_, err := p.Complete(context.Background(), "test", CompletionOpts{})
	if err == nil {
		t.Fatal("expected error for empty candidates")
	}
	if !strings.Contains(err.Error(), "empty response") {
		t.Errorf("error %q does not mention empty response", err)
	}
}

func TestGoogleProviderClientErrorNoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"invalid request","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	p := newGoogleProvider(chatProvider{model: "m", apiKey: "k", baseURL: server.URL})
	_, err := p.Complete(context.Background(), "test", CompletionOpts{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("400 was retried: %d requests", got)
	}
}

func TestGoogleProviderRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(okGoogleResponse("recovered")))
	}))
	defer server.Close()

	p := newGoogleProvider(chatProvider{model: "m", apiKey: "k", baseURL: server.URL, maxRetries: 1})
	result, err := p.Complete(context.Background(), "test", CompletionOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" {
		t.Errorf("result = %q, want recovered", result)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestContextCancellation(t *testing.T) {
	serverDone := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-serverDone:
		}
	}))
	defer func() {
		close(serverDone)
		server.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := newChatProvider(chatProvider{name: "deepseek", apiKey: "test", model: "m", baseURL: server.URL})
	_, err := p.Complete(ctx, "test", CompletionOpts{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}

// Package config resolves tool settings from three layers: an optional YAML
// file, environment variables, and CLI flags, in rising precedence. Every
// resolved value remembers where it came from so `pdf-analyze config` can
// explain the effective setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath string
	CLIModel   string
	CLITask    string
	CLIFormat  string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	Model   ResolvedValue `json:"model"`
	BaseURL ResolvedValue `json:"base_url"`
	Task    ResolvedValue `json:"task"`
	Format  ResolvedValue `json:"format"`

	MaxRetries     ResolvedValue `json:"max_retries"`
	TimeoutSeconds ResolvedValue `json:"timeout_seconds"`

	APIKeys map[string]ResolvedValue `json:"api_keys,omitempty"`
}

type fileConfig struct {
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Defaults struct {
		Task   string `yaml:"task"`
		Format string `yaml:"format"`
	} `yaml:"defaults"`
	Request struct {
		MaxRetries     string `yaml:"max_retries"`
		TimeoutSeconds string `yaml:"timeout_seconds"`
	} `yaml:"request"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pdf-analyze", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("PDF_ANALYZE_CONFIG"))
	}
	if path == "" {
		path = DefaultConfigPath()
	}
	path = expandUserPath(path)

	out := ResolvedConfig{
		ConfigPath: path,
		APIKeys:    map[string]ResolvedValue{},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.Model, cfg.Model, SourceConfig, path)
		apply(&out.BaseURL, cfg.BaseURL, SourceConfig, path)
		apply(&out.Task, cfg.Defaults.Task, SourceConfig, path)
		apply(&out.Format, cfg.Defaults.Format, SourceConfig, path)
		apply(&out.MaxRetries, cfg.Request.MaxRetries, SourceConfig, path)
		apply(&out.TimeoutSeconds, cfg.Request.TimeoutSeconds, SourceConfig, path)

		if key := strings.TrimSpace(cfg.APIKey); key != "" {
			provider := providerOf(cfg.Model)
			if provider == "" {
				provider = "default"
			}
			out.APIKeys[provider] = ResolvedValue{Value: key, Source: SourceConfig, From: path}
		}
	}

	applyEnv(&out.Model, "PDF_ANALYZE_MODEL")
	applyEnv(&out.BaseURL, "PDF_ANALYZE_BASE_URL")
	applyEnv(&out.Task, "PDF_ANALYZE_TASK")
	applyEnv(&out.Format, "PDF_ANALYZE_FORMAT")

	// Ordered so GEMINI_API_KEY wins over GOOGLE_API_KEY for the same slot.
	envKeys := []struct {
		env      string
		provider string
	}{
		{"GOOGLE_API_KEY", "google"},
		{"GEMINI_API_KEY", "google"},
		{"DEEPSEEK_API_KEY", "deepseek"},
		{"OPENAI_API_KEY", "openai"},
		{"OPENROUTER_API_KEY", "openrouter"},
		{"PDF_ANALYZE_API_KEY", "default"},
	}
	for _, k := range envKeys {
		if v := strings.TrimSpace(os.Getenv(k.env)); v != "" {
			out.APIKeys[k.provider] = ResolvedValue{Value: v, Source: SourceEnv, From: k.env}
		}
	}

	apply(&out.Model, opts.CLIModel, SourceCLI, "--model")
	apply(&out.Task, opts.CLITask, SourceCLI, "--task")
	apply(&out.Format, opts.CLIFormat, SourceCLI, "--format")

	applyDefault(&out.Task, "general")
	applyDefault(&out.Format, "text")

	return out, nil
}

// APIKeyForProvider returns the key for a provider name or provider/model
// string; a key filed under "default" serves any provider without its own.
func (r ResolvedConfig) APIKeyForProvider(providerOrModel string) ResolvedValue {
	provider := providerOf(providerOrModel)
	if provider == "" {
		provider = "default"
	}
	if v, ok := r.APIKeys[provider]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	if v, ok := r.APIKeys["default"]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	return ResolvedValue{}
}

// MaxRetriesOr parses the resolved retry count, falling back to def when
// unset or unparseable.
func (r ResolvedConfig) MaxRetriesOr(def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(r.MaxRetries.Value)); err == nil && n >= 0 {
		return n
	}
	return def
}

// TimeoutOr parses the resolved request timeout in seconds, falling back to
// def when unset or unparseable.
func (r ResolvedConfig) TimeoutOr(def time.Duration) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(r.TimeoutSeconds.Value)); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func providerOf(providerOrModel string) string {
	v := strings.ToLower(strings.TrimSpace(providerOrModel))
	if v == "" {
		return ""
	}
	if idx := strings.Index(v, "/"); idx > 0 {
		return v[:idx]
	}
	return v
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func applyDefault(dst *ResolvedValue, value string) {
	if strings.TrimSpace(dst.Value) == "" {
		*dst = ResolvedValue{Value: value, Source: SourceDefault, From: "built-in default"}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

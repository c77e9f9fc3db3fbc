// Package config loads settings.yaml onto built-in defaults. The agent
// must be fully operable with no settings file present, so load
// failures fall back to defaults and are only logged.
package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// Timezone is the IANA zone used to interpret user-supplied
	// schedule times. Stored timestamps are always UTC.
	Timezone string `yaml:"timezone"`

	// LogLevel selects the slog level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Modes      ModesConfig      `yaml:"modes"`
	Paths      PathsConfig      `yaml:"paths"`
	Platforms  PlatformsConfig  `yaml:"platforms"`
	Limits     map[string]int   `yaml:"platform_limits"`
	Routing    map[string][]string `yaml:"routing"`
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Publish    PublishConfig    `yaml:"publish"`
	Pricing    map[string]Price `yaml:"pricing"`

	// DBMaxOpenConns limits open database connections. If set to 1,
	// all database access is serialized. 0 means the sql.DB default.
	DBMaxOpenConns int `yaml:"db_max_open_conns"`

	// DBMaxIdleConns limits idle connections. 0 means the default.
	DBMaxIdleConns int `yaml:"db_max_idle_conns"`

	// DisabledTools lists MCP tool names to exclude from registration.
	DisabledTools []string `yaml:"disabled_tools"`
}

// ModesConfig toggles global pipeline behavior.
type ModesConfig struct {
	// DryRun makes publish adapters simulate success without network
	// calls. May be overridden at runtime via the persisted setting.
	DryRun bool `yaml:"dry_run"`

	// LLMEnabled gates all router calls; when false every stage uses
	// its deterministic fallback.
	LLMEnabled bool `yaml:"llm_enabled"`

	// ApprovalRequired gates publishing behind the approve step.
	ApprovalRequired bool `yaml:"approval_required"`
}

// PathsConfig points at the optional external documents.
type PathsConfig struct {
	StylePath  string `yaml:"style_path"`
	ModelsPath string `yaml:"models_path"`
}

// PlatformsConfig enables or disables draft targets.
type PlatformsConfig struct {
	XEnabled        bool `yaml:"x_enabled"`
	ThreadsEnabled  bool `yaml:"threads_enabled"`
	LinkedInEnabled bool `yaml:"linkedin_enabled"`
}

// LLMConfig tunes provider calls.
type LLMConfig struct {
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// GenerationConfig bounds the validate/regenerate loop.
type GenerationConfig struct {
	// MaxRegen is the maximum number of shorten-and-regenerate
	// attempts before a draft fails with validation_exceeded.
	MaxRegen int `yaml:"max_regen"`
}

// PublishConfig tunes the publish stage.
type PublishConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// WeeklyCaps maps platform name to the maximum number of
	// successful real publishes per rolling 7-day window. Zero or
	// missing disables the cap for that platform.
	WeeklyCaps map[string]int `yaml:"weekly_caps"`
}

// Price is per-1k-token pricing used for cost estimates in the usage log.
type Price struct {
	InputPer1K  float64 `yaml:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k"`
}

// DefaultConfig returns the built-in defaults. The routing table here
// is the safe fallback when no settings file, MODELS.md, or persisted
// override provides one.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "Europe/Oslo",
		LogLevel: "info",
		Modes: ModesConfig{
			DryRun:           true,
			LLMEnabled:       true,
			ApprovalRequired: true,
		},
		Paths: PathsConfig{
			StylePath:  "./STYLE.md",
			ModelsPath: "./MODELS.md",
		},
		Platforms: PlatformsConfig{
			XEnabled:        true,
			ThreadsEnabled:  true,
			LinkedInEnabled: true,
		},
		Limits: map[string]int{
			"x":        280,
			"threads":  500,
			"linkedin": 3000,
		},
		Routing: map[string][]string{
			"summarize": {
				"anthropic:claude-haiku-4-5",
				"openai:gpt-5-mini",
				"gemini:gemini-3-flash-preview",
			},
			"draft_x": {
				"anthropic:claude-sonnet-4-5",
				"openai:gpt-5.2",
				"gemini:gemini-3-pro-preview",
			},
			"draft_threads": {
				"anthropic:claude-sonnet-4-5",
				"openai:gpt-5.2",
				"gemini:gemini-3-flash-preview",
			},
			"draft_linkedin": {
				"anthropic:claude-sonnet-4-5",
				"openai:gpt-5.2",
				"gemini:gemini-3-pro-preview",
			},
			"check": {
				"openai:gpt-5-nano",
				"anthropic:claude-haiku-4-5",
				"gemini:gemini-2.5-flash-lite",
			},
		},
		LLM: LLMConfig{
			Temperature:    0.4,
			MaxTokens:      700,
			TimeoutSeconds: 30,
		},
		Generation: GenerationConfig{
			MaxRegen: 2,
		},
		Publish: PublishConfig{
			TimeoutSeconds: 20,
		},
		Pricing: map[string]Price{
			"openai:gpt-5.2":                {InputPer1K: 0.00175, OutputPer1K: 0.014},
			"openai:gpt-5-mini":             {InputPer1K: 0.00025, OutputPer1K: 0.002},
			"openai:gpt-5-nano":             {InputPer1K: 0.00005, OutputPer1K: 0.0004},
			"anthropic:claude-sonnet-4-5":   {InputPer1K: 0.003, OutputPer1K: 0.015},
			"anthropic:claude-haiku-4-5":    {InputPer1K: 0.001, OutputPer1K: 0.005},
			"gemini:gemini-3-pro-preview":   {InputPer1K: 0.002, OutputPer1K: 0.012},
			"gemini:gemini-3-flash-preview": {InputPer1K: 0.0005, OutputPer1K: 0.003},
			"gemini:gemini-2.5-flash-lite":  {InputPer1K: 0.0001, OutputPer1K: 0.0004},
		},
	}
}

// Load reads baseDir/settings.yaml and merges it onto the defaults.
// A missing file is normal; a malformed file falls back to defaults
// with a warning. Load never fails the process.
func Load(baseDir string, logger *slog.Logger) *Config {
	return loadFile(filepath.Join(baseDir, "settings.yaml"), logger)
}

func loadFile(path string, logger *slog.Logger) *Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && logger != nil {
			logger.Warn("settings file unreadable, using defaults", "path", path, "error", err)
		}
		return cfg
	}

	// Unmarshal onto the defaults: keys present in the file override,
	// everything else keeps its default.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if logger != nil {
			logger.Warn("settings file malformed, using defaults", "path", path, "error", err)
		}
		return DefaultConfig()
	}

	return cfg
}

// Limit returns the configured character ceiling for a platform,
// falling back to the built-in default for unknown values.
func (c *Config) Limit(platform string) int {
	if limit, ok := c.Limits[platform]; ok && limit > 0 {
		return limit
	}
	if limit, ok := DefaultConfig().Limits[platform]; ok {
		return limit
	}
	return 280
}

// EnabledPlatforms lists the platforms drafts are generated for when
// the user does not name any explicitly.
func (c *Config) EnabledPlatforms() []string {
	var out []string
	if c.Platforms.XEnabled {
		out = append(out, "x")
	}
	if c.Platforms.ThreadsEnabled {
		out = append(out, "threads")
	}
	if c.Platforms.LinkedInEnabled {
		out = append(out, "linkedin")
	}
	return out
}

// EstimateCost computes the usage-log cost estimate for one call.
func (c *Config) EstimateCost(provider, model string, tokensIn, tokensOut int) float64 {
	price, ok := c.Pricing[provider+":"+model]
	if !ok {
		return 0
	}
	return (float64(tokensIn)/1000.0)*price.InputPer1K + (float64(tokensOut)/1000.0)*price.OutputPer1K
}

// Package config loads MediLex configuration from an optional YAML file
// and environment variables. Environment always wins over the file.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider identifies the generative-AI backend.
type Provider string

const (
	ProviderGoogleAI  Provider = "googleai"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values. The provider API key is not part
// of the config: it lives in the local store and is entered interactively.
type Config struct {
	// Provider selection
	Provider   Provider
	TextModel  string
	ImageModel string
	OllamaHost string

	// Local storage
	DBPath string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// UI
	Language string

	// Provider request budget
	RequestsPerMinute int
}

// fileConfig mirrors the optional YAML config file. Pointer fields
// distinguish "unset" from zero values.
type fileConfig struct {
	Provider          *string `yaml:"provider"`
	TextModel         *string `yaml:"text_model"`
	ImageModel        *string `yaml:"image_model"`
	OllamaHost        *string `yaml:"ollama_host"`
	DBPath            *string `yaml:"db_path"`
	LogFile           *string `yaml:"log_file"`
	LogLevel          *string `yaml:"log_level"`
	Language          *string `yaml:"language"`
	RequestsPerMinute *int    `yaml:"requests_per_minute"`
}

// Load builds the configuration: defaults, then the YAML file at
// ~/.config/medilex/config.yaml (if present), then environment variables.
func Load() Config {
	cfg := Config{
		Provider:          ProviderGoogleAI,
		OllamaHost:        "http://localhost:11434",
		DBPath:            defaultPath(os.UserConfigDir, "medilex.db"),
		LogFile:           defaultPath(os.UserCacheDir, "medilex.log"),
		LogLevel:          slog.LevelInfo,
		Language:          "en",
		RequestsPerMinute: 30,
	}

	applyFile(&cfg, defaultPath(os.UserConfigDir, "config.yaml"))
	applyEnv(&cfg)

	if cfg.TextModel == "" {
		cfg.TextModel = defaultTextModel(cfg.Provider)
	}
	if cfg.ImageModel == "" && cfg.Provider == ProviderGoogleAI {
		cfg.ImageModel = "gemini-2.5-flash-image"
	}

	return cfg
}

func applyFile(cfg *Config, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return // missing file is the normal case
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		slog.Warn("ignoring malformed config file", "path", path, "error", err)
		return
	}

	if fc.Provider != nil {
		cfg.Provider = Provider(strings.ToLower(*fc.Provider))
	}
	if fc.TextModel != nil {
		cfg.TextModel = *fc.TextModel
	}
	if fc.ImageModel != nil {
		cfg.ImageModel = *fc.ImageModel
	}
	if fc.OllamaHost != nil {
		cfg.OllamaHost = *fc.OllamaHost
	}
	if fc.DBPath != nil {
		cfg.DBPath = *fc.DBPath
	}
	if fc.LogFile != nil {
		cfg.LogFile = *fc.LogFile
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = parseLogLevel(*fc.LogLevel)
	}
	if fc.Language != nil {
		cfg.Language = *fc.Language
	}
	if fc.RequestsPerMinute != nil {
		cfg.RequestsPerMinute = *fc.RequestsPerMinute
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MEDILEX_PROVIDER"); v != "" {
		cfg.Provider = Provider(strings.ToLower(v))
	}
	if v := os.Getenv("MEDILEX_TEXT_MODEL"); v != "" {
		cfg.TextModel = v
	}
	if v := os.Getenv("MEDILEX_IMAGE_MODEL"); v != "" {
		cfg.ImageModel = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.OllamaHost = v
	}
	if v := os.Getenv("MEDILEX_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("MEDILEX_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("MEDILEX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv("MEDILEX_LANG"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("MEDILEX_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RequestsPerMinute = n
		}
	}
}

// defaultTextModel returns the per-provider default chat/completion model.
func defaultTextModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderOllama:
		return "llama3.1"
	case ProviderBedrock:
		return "anthropic.claude-3-haiku-20240307-v1:0"
	default:
		return "gemini-2.5-flash"
	}
}

// defaultPath joins <base()>/medilex/<name>, falling back to the working
// directory when the base dir cannot be resolved.
func defaultPath(base func() (string, error), name string) string {
	dir, err := base()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "medilex", name)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

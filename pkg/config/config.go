package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Assistant AssistantConfig `json:"assistant"`
	Providers ProvidersConfig `json:"providers"`
	Memory    MemoryConfig    `json:"memory"`
	Logging   LoggingConfig   `json:"logging"`
	mu        sync.RWMutex
}

type ServerConfig struct {
	Host            string `json:"host" env:"NEXA_SERVER_HOST"`
	Port            int    `json:"port" env:"PORT"`
	EnableWebSocket bool   `json:"enable_websocket" env:"NEXA_SERVER_ENABLE_WEBSOCKET"`
}

type AssistantConfig struct {
	Name           string   `json:"name" env:"NEXA_ASSISTANT_NAME"`
	SystemPrompt   string   `json:"system_prompt" env:"NEXA_ASSISTANT_SYSTEM_PROMPT"`
	TypeDelayMS    int      `json:"type_delay_ms" env:"NEXA_ASSISTANT_TYPE_DELAY_MS"`
	SearchRoots    []string `json:"search_roots" env:"NEXA_ASSISTANT_SEARCH_ROOTS"`
	// MaxReplyTokens and Temperature are sent to upstream providers; 0
	// keeps the provider default.
	MaxReplyTokens int      `json:"max_reply_tokens" env:"NEXA_ASSISTANT_MAX_REPLY_TOKENS"`
	Temperature    float64  `json:"temperature" env:"NEXA_ASSISTANT_TEMPERATURE"`
}

type ProvidersConfig struct {
	// Order lists the upstream providers tried before the offline responder.
	Order       []string          `json:"order" env:"NEXA_PROVIDERS_ORDER"`
	HuggingFace HuggingFaceConfig `json:"huggingface"`
	OpenRouter  ProviderConfig    `json:"openrouter" envPrefix:"NEXA_PROVIDERS_OPENROUTER_"`
	OpenAI      ProviderConfig    `json:"openai" envPrefix:"NEXA_PROVIDERS_OPENAI_"`
}

type HuggingFaceConfig struct {
	APIKey         string   `json:"api_key" env:"HF_API_KEY"`
	APIBase        string   `json:"api_base" env:"NEXA_PROVIDERS_HUGGINGFACE_API_BASE"`
	Models         []string `json:"models" env:"NEXA_PROVIDERS_HUGGINGFACE_MODELS"`
	TimeoutSeconds int      `json:"timeout_seconds" env:"NEXA_PROVIDERS_HUGGINGFACE_TIMEOUT_SECONDS"`
}

type ProviderConfig struct {
	APIKey         string `json:"api_key" env:"API_KEY"`
	APIBase        string `json:"api_base" env:"API_BASE"`
	Model          string `json:"model" env:"MODEL"`
	Proxy          string `json:"proxy,omitempty" env:"PROXY"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

type MemoryConfig struct {
	Backend             string  `json:"backend" env:"NEXA_MEMORY_BACKEND"` // file | sqlite | redis
	Path                string  `json:"path" env:"NEXA_MEMORY_PATH"`
	RedisURL            string  `json:"redis_url" env:"NEXA_MEMORY_REDIS_URL"`
	RedisKey            string  `json:"redis_key" env:"NEXA_MEMORY_REDIS_KEY"`
	HistorySize         int     `json:"history_size" env:"NEXA_MEMORY_HISTORY_SIZE"`
	ConfidenceThreshold float64 `json:"confidence_threshold" env:"NEXA_MEMORY_CONFIDENCE_THRESHOLD"`
	BackupCron          string  `json:"backup_cron" env:"NEXA_MEMORY_BACKUP_CRON"`
	BackupDir           string  `json:"backup_dir" env:"NEXA_MEMORY_BACKUP_DIR"`
}

type LoggingConfig struct {
	Level    string `json:"level" env:"NEXA_LOGGING_LEVEL"`
	Format   string `json:"format" env:"NEXA_LOGGING_FORMAT"`
	Output   string `json:"output" env:"NEXA_LOGGING_OUTPUT"`
	FilePath string `json:"file_path" env:"NEXA_LOGGING_FILE_PATH"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			EnableWebSocket: true,
		},
		Assistant: AssistantConfig{
			Name:           "Nexa",
			SystemPrompt:   "You are Nexa, a concise and friendly voice assistant. Answer in one or two sentences.",
			TypeDelayMS:    2000,
			SearchRoots:    []string{"~/Desktop", "~/Documents"},
			MaxReplyTokens: 120,
			Temperature:    0.7,
		},
		Providers: ProvidersConfig{
			Order: []string{"huggingface"},
			HuggingFace: HuggingFaceConfig{
				APIBase: "https://api-inference.huggingface.co",
				Models: []string{
					"facebook/blenderbot-400M-distill",
					"google/flan-t5-base",
					"microsoft/DialoGPT-medium",
				},
				TimeoutSeconds: 10,
			},
			OpenRouter: ProviderConfig{TimeoutSeconds: 30},
			OpenAI:     ProviderConfig{TimeoutSeconds: 30},
		},
		Memory: MemoryConfig{
			Backend:             "file",
			Path:                "~/.nexa/nexa_model.json",
			RedisKey:            "nexa:knowledge",
			HistorySize:         10,
			ConfidenceThreshold: 10,
			BackupDir:           "~/.nexa/backups",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// LoadConfig reads path over the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) MemoryPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ExpandHome(c.Memory.Path)
}

func (c *Config) BackupDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ExpandHome(c.Memory.BackupDir)
}

// SearchRoots returns the file search roots with ~ expanded.
func (c *Config) SearchRoots() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.Assistant.SearchRoots))
	for _, root := range c.Assistant.SearchRoots {
		if root = strings.TrimSpace(root); root != "" {
			out = append(out, ExpandHome(root))
		}
	}
	return out
}

func (c *Config) ListenAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ProviderOrder returns the normalized upstream provider names.
func (c *Config) ProviderOrder() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.Providers.Order))
	seen := map[string]bool{}
	for _, name := range c.Providers.Order {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func ExpandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
